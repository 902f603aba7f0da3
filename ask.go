package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/neon-portfolio/server/internal/assistant/model"
	"github.com/neon-portfolio/server/internal/assistant/repo"
	"github.com/neon-portfolio/server/internal/assistant/session"
)

var (
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#00e5ff")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#39ff14"))
	noticeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4f9a"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#7a8c99"))
)

func newAskCmd() *cobra.Command {
	var envFile string
	var transcript bool

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Chat with the assistant in the terminal",
		Long:  "Asks a single question when one is given, otherwise reads questions from stdin until EOF.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(envFile)
			if err != nil {
				return err
			}
			if cfg.LogLevel == "" {
				cfg.LogLevel = "warn"
			}
			initLogger(cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			a, err := newAssistant(ctx, cfg, repo.NewMemoryMessageStore())
			if err != nil {
				return err
			}
			ctrl := session.NewController("", a.deps, a.config)
			defer ctrl.Close()

			out := cmd.OutOrStdout()
			if len(args) > 0 {
				if err := askOnce(ctx, ctrl, out, strings.Join(args, " ")); err != nil {
					return err
				}
			} else {
				scanner := bufio.NewScanner(cmd.InOrStdin())
				fmt.Fprint(out, userStyle.Render(model.UserPrefix))
				for scanner.Scan() {
					if err := askOnce(ctx, ctrl, out, scanner.Text()); err != nil {
						return err
					}
					fmt.Fprint(out, userStyle.Render(model.UserPrefix))
				}
				fmt.Fprintln(out)
				if err := scanner.Err(); err != nil {
					return err
				}
			}

			if transcript {
				text, err := ctrl.Transcript(ctx)
				if err != nil {
					return err
				}
				fmt.Fprint(out, dimStyle.Render(text))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before the environment")
	cmd.Flags().BoolVar(&transcript, "transcript", false, "print the transcript when done")
	return cmd
}

// askOnce submits question and prints the reveal as it happens. It returns
// once the session accepts input again.
func askOnce(ctx context.Context, ctrl *session.Controller, out io.Writer, question string) error {
	updates, cancel := ctrl.Subscribe()
	defer cancel()

	outcome, err := ctrl.Submit(ctx, question)
	if err != nil {
		return err
	}
	if outcome == session.Ignored {
		if strings.TrimSpace(question) != "" {
			fmt.Fprintln(out, dimStyle.Render("(still cooling down, try again in a moment)"))
		}
		return nil
	}

	shown := ""
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			switch {
			case u.Kind == session.UpdateReplaced && u.Message != nil:
				frame := u.Message.Text
				if strings.HasPrefix(frame, shown) {
					style := assistantStyle
					if u.Message.Origin == model.OriginSystem {
						style = noticeStyle
					}
					fmt.Fprint(out, style.Render(frame[len(shown):]))
				}
				shown = frame
			case u.Kind == session.UpdateState && u.State.Idle():
				fmt.Fprintln(out)
				return nil
			}
		}
	}
}
