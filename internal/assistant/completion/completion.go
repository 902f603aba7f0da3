// Package completion performs the single outbound call that turns an
// instruction list into an answer.
package completion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/neon-portfolio/server/internal/assistant/model"
	errx "github.com/neon-portfolio/server/internal/core/error"
)

// Fixed texts typed back to the visitor.
const (
	UpstreamErrorText  = "Error: bad request. The assistant could not handle that one, try again later."
	TransportErrorText = "Error: request failed. The assistant is unreachable right now."
	TimeoutErrorText   = "Error: request timed out. The assistant took too long to answer."
	FallbackAnswer     = "Sorry, I couldn't generate an answer to that."
)

var (
	ErrUpstreamStatus = errors.New("completion provider returned non-success status")
	ErrTransport      = errors.New("completion request failed")
	ErrTimeout        = errors.New("completion request timed out")
)

// Completer performs one completion. Failures are *errx.AppError values whose
// Message is one of the fixed texts above. An empty or malformed successful
// response is not an error: FallbackAnswer is returned instead.
type Completer interface {
	Complete(ctx context.Context, instructions []*schema.Message) (string, error)
}

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// New builds the Completer selected by cfg.Provider.
func New(ctx context.Context, cfg model.CompletionConfig) (Completer, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("completion: COMPLETION_API_KEY is required for provider %q", ProviderOpenAI)
		}
		return NewHTTPClient(cfg), nil
	case ProviderGemini:
		return NewGeminiClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("completion: unknown provider %q", cfg.Provider)
	}
}

func upstreamError(status int) error {
	return errx.New(fmt.Errorf("%w: %d", ErrUpstreamStatus, status), http.StatusBadGateway, UpstreamErrorText)
}

func transportError(err error) error {
	return errx.New(fmt.Errorf("%w: %w", ErrTransport, err), http.StatusBadGateway, TransportErrorText)
}

func timeoutError(err error) error {
	return errx.New(fmt.Errorf("%w: %w", ErrTimeout, err), http.StatusGatewayTimeout, TimeoutErrorText)
}
