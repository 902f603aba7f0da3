// Package prompts assembles the instruction list sent to the completion
// provider for one submission.
package prompts

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/neon-portfolio/server/internal/assistant/model"
	logx "github.com/neon-portfolio/server/pkg/logger"
)

const (
	DefaultHistoryTurns    = 3
	DefaultMaxMessageChars = 5000

	resumeUnavailable = "(résumé unavailable)"
)

// TextSource supplies reference text at composition time.
type TextSource interface {
	Text(ctx context.Context) (string, error)
}

type BuilderConfig struct {
	OwnerName       string
	Projects        string
	Resume          TextSource
	HistoryTurns    int
	MaxMessageChars int
}

// Builder is the context window builder.
type Builder struct {
	cfg BuilderConfig
}

func NewBuilder(cfg BuilderConfig) *Builder {
	if cfg.HistoryTurns <= 0 {
		cfg.HistoryTurns = DefaultHistoryTurns
	}
	if cfg.MaxMessageChars <= 0 {
		cfg.MaxMessageChars = DefaultMaxMessageChars
	}
	return &Builder{cfg: cfg}
}

// Build returns, in order: the system instruction with preference modifiers,
// the last HistoryTurns user/assistant turns, the new input, and a closing
// system reminder. history must not contain input yet.
func (b *Builder) Build(ctx context.Context, history []model.Message, input string, prefs model.Preferences) ([]*schema.Message, error) {
	resume := resumeUnavailable
	if b.cfg.Resume != nil {
		text, err := b.cfg.Resume.Text(ctx)
		if err != nil {
			logx.Warn().Err(err).Msg("resume text unavailable, continuing without it")
		} else if text != "" {
			resume = text
		}
	}

	system, err := RenderSystem(ctx, SystemVars{
		OwnerName: b.cfg.OwnerName,
		Projects:  b.cfg.Projects,
		Resume:    resume,
	})
	if err != nil {
		return nil, err
	}
	if mods := modifiers(prefs.Normalize(), b.cfg.OwnerName); len(mods) > 0 {
		system = system + "\n\n" + strings.Join(mods, "\n")
	}

	reminder, err := RenderReminder(ctx, b.cfg.OwnerName)
	if err != nil {
		return nil, err
	}

	turns := trimTail(conversationTurns(history), b.cfg.HistoryTurns)

	messages := make([]*schema.Message, 0, len(turns)+3)
	messages = append(messages, schema.SystemMessage(system))
	for _, m := range turns {
		text := truncateTail(model.StripMarker(m.Text), b.cfg.MaxMessageChars)
		switch m.Origin {
		case model.OriginUser:
			messages = append(messages, schema.UserMessage(text))
		case model.OriginAssistant:
			messages = append(messages, schema.AssistantMessage(text, nil))
		}
	}
	messages = append(messages, schema.UserMessage(truncateTail(input, b.cfg.MaxMessageChars)))
	messages = append(messages, schema.SystemMessage(reminder))

	return messages, nil
}

// conversationTurns drops system notices, withheld input and the pending
// placeholder.
func conversationTurns(history []model.Message) []model.Message {
	out := make([]model.Message, 0, len(history))
	for _, m := range history {
		if !m.IsTurn() || m.Text == model.Placeholder {
			continue
		}
		out = append(out, m)
	}
	return out
}

func trimTail(messages []model.Message, maxTurns int) []model.Message {
	if len(messages) <= maxTurns {
		return messages
	}
	return messages[len(messages)-maxTurns:]
}

// truncateTail keeps the trailing n characters of s.
func truncateTail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
