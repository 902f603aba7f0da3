package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/neon-portfolio/server/internal/assistant/model"
	"github.com/neon-portfolio/server/internal/assistant/observers"
	logx "github.com/neon-portfolio/server/pkg/logger"
)

const (
	DefaultTimeout = 30 * time.Second

	// maxResponseSize bounds how much of a response body is read.
	maxResponseSize = 4 * 1024 * 1024
	maxErrSnippet   = 300
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
}

// HTTPClient talks to an OpenAI-compatible chat completions endpoint.
type HTTPClient struct {
	url       string
	apiKey    string
	model     string
	maxTokens int
	timeout   time.Duration
	http      *http.Client
}

type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) { h.http = c }
}

func NewHTTPClient(cfg model.CompletionConfig, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		url:       strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.Timeout,
		http:      &http.Client{},
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HTTPClient) Complete(ctx context.Context, instructions []*schema.Message) (answer string, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx = observers.WithChatModel(ctx, ProviderOpenAI, c.model)
	ctx = einocb.OnStart(ctx, &einomodel.CallbackInput{
		Messages: instructions,
		Config:   &einomodel.Config{Model: c.model, MaxTokens: c.maxTokens},
	})
	defer func() {
		if err != nil {
			einocb.OnError(ctx, err)
		}
	}()

	reqBody := chatRequest{
		Model:     c.model,
		Messages:  make([]chatMessage, 0, len(instructions)),
		MaxTokens: c.maxTokens,
	}
	for _, m := range instructions {
		if m == nil {
			continue
		}
		reqBody.Messages = append(reqBody.Messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", classifyTransport(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", classifyTransport(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logx.Error().
			Int("status", resp.StatusCode).
			Str("body", snippet(body)).
			Dur("elapsed", time.Since(start)).
			Msg("completion provider returned error status")
		return "", upstreamError(resp.StatusCode)
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		logx.Warn().Err(err).Str("body", snippet(body)).Msg("unparseable completion payload, using fallback answer")
		einocb.OnEnd(ctx, fallbackOutput())
		return FallbackAnswer, nil
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == nil || strings.TrimSpace(*out.Choices[0].Message.Content) == "" {
		logx.Warn().Int("choices", len(out.Choices)).Msg("empty completion payload, using fallback answer")
		einocb.OnEnd(ctx, fallbackOutput())
		return FallbackAnswer, nil
	}

	answer = *out.Choices[0].Message.Content
	cbOut := &einomodel.CallbackOutput{Message: schema.AssistantMessage(answer, nil)}
	if out.Usage != nil {
		cbOut.TokenUsage = &einomodel.TokenUsage{
			PromptTokens:     out.Usage.PromptTokens,
			CompletionTokens: out.Usage.CompletionTokens,
			TotalTokens:      out.Usage.TotalTokens,
		}
	}
	einocb.OnEnd(ctx, cbOut)
	logx.Debug().Dur("elapsed", time.Since(start)).Msg("completion received")
	return answer, nil
}

func fallbackOutput() *einomodel.CallbackOutput {
	return &einomodel.CallbackOutput{Message: schema.AssistantMessage(FallbackAnswer, nil)}
}

func classifyTransport(err error) error {
	if errors.Is(err, context.Canceled) {
		logx.Debug().Err(err).Msg("completion request cancelled")
		return transportError(err)
	}
	if isTimeout(err) {
		logx.Error().Err(err).Msg("completion request timed out")
		return timeoutError(err)
	}
	logx.Error().Err(err).Msg("completion request failed")
	return transportError(err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func snippet(b []byte) string {
	if len(b) > maxErrSnippet {
		return string(b[:maxErrSnippet])
	}
	return string(b)
}
