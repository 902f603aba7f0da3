package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/neon-portfolio/server/internal/assistant/model"
	"github.com/neon-portfolio/server/internal/assistant/observers"
	logx "github.com/neon-portfolio/server/pkg/logger"
)

// generator is the part of an eino chat model the client needs.
type generator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error)
}

// ChatModelClient adapts an eino chat model to Completer.
type ChatModelClient struct {
	model     generator
	provider  string
	modelName string
	maxTokens int
	timeout   time.Duration
}

// NewGeminiClient creates a Gemini-backed Completer.
func NewGeminiClient(ctx context.Context, cfg model.CompletionConfig) (*ChatModelClient, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	maxTokens := cfg.MaxTokens
	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:    client,
		Model:     cfg.Model,
		MaxTokens: &maxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini chat model")
		return nil, fmt.Errorf("error creating Gemini chat model: %w", err)
	}

	return NewChatModelClient(chatModel, ProviderGemini, cfg), nil
}

func NewChatModelClient(m generator, provider string, cfg model.CompletionConfig) *ChatModelClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ChatModelClient{
		model:     m,
		provider:  provider,
		modelName: cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   timeout,
	}
}

func (c *ChatModelClient) Complete(ctx context.Context, instructions []*schema.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	ctx = observers.WithChatModel(ctx, c.provider, c.modelName)

	var opts []einomodel.Option
	if c.maxTokens > 0 {
		opts = append(opts, einomodel.WithMaxTokens(c.maxTokens))
	}

	out, err := c.model.Generate(ctx, instructions, opts...)
	if err != nil {
		if isTimeout(err) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			logx.Error().Err(err).Str("provider", c.provider).Msg("completion request timed out")
			return "", timeoutError(err)
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			logx.Debug().Err(err).Str("provider", c.provider).Msg("completion request cancelled")
			return "", transportError(err)
		}
		logx.Error().Err(err).Str("provider", c.provider).Msg("completion provider call failed")
		return "", transportError(err)
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		logx.Warn().Str("provider", c.provider).Msg("empty completion payload, using fallback answer")
		return FallbackAnswer, nil
	}
	return out.Content, nil
}
