package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/neon-portfolio/server/internal/assistant/session"
	"github.com/neon-portfolio/server/internal/httpapi"
	"github.com/neon-portfolio/server/internal/mailer"
	logx "github.com/neon-portfolio/server/pkg/logger"
)

func newServeCmd() *cobra.Command {
	var envFile string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(envFile)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.HTTP.Port = port
			}
			initLogger(cfg)
			if cfg.Environment().IsProduction() {
				gin.SetMode(gin.ReleaseMode)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before the environment")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides HTTP_PORT)")
	return cmd
}

func runServer(ctx context.Context, cfg AppConfig) error {
	store, release, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer release()

	a, err := newAssistant(ctx, cfg, store)
	if err != nil {
		return err
	}

	mail, err := mailer.New(cfg.Mail, a.resume.Path())
	if err != nil {
		return fmt.Errorf("init mailer: %w", err)
	}

	registry := session.NewRegistry(a.deps, a.config, cfg.Session)
	if err := registry.Start(); err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		registry.Stop(shutdownCtx)
		logx.Info().Msg("sessions closed")
	}()

	return httpapi.Start(ctx, cfg.HTTP, httpapi.Deps{
		Sessions:   registry,
		Mailer:     mail,
		Projects:   a.projects,
		ResumePath: a.resume.Path(),
	})
}
