package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neon-portfolio/server/internal/assistant/model"
	"github.com/neon-portfolio/server/internal/core"
	errx "github.com/neon-portfolio/server/internal/core/error"
	logx "github.com/neon-portfolio/server/pkg/logger"
)

func testConfig(url string) model.CompletionConfig {
	return model.CompletionConfig{
		Provider:  ProviderOpenAI,
		APIKey:    "sk-test",
		BaseURL:   url,
		Model:     "gpt-4o-mini",
		MaxTokens: 500,
		Timeout:   2 * time.Second,
	}
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logx.Init(logx.LoggerOpts{Environment: core.Production, Level: "debug", Output: &buf})
	t.Cleanup(func() { logx.Init() })
	return &buf
}

func instructions() []*schema.Message {
	return []*schema.Message{
		schema.SystemMessage("you are a helper"),
		schema.UserMessage("What projects use Go?"),
		schema.SystemMessage("stay on topic"),
	}
}

func TestHTTPClientSuccess(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Two of them."}}],"usage":{"prompt_tokens":10,"completion_tokens":3,"total_tokens":13}}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(testConfig(srv.URL + "/"))
	answer, err := c.Complete(context.Background(), instructions())
	require.NoError(t, err)
	assert.Equal(t, "Two of them.", answer)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, 500, got.MaxTokens)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "stay on topic", got.Messages[2].Content)
}

func TestHTTPClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewHTTPClient(testConfig(srv.URL)).Complete(context.Background(), instructions())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstreamStatus)
	assert.Equal(t, UpstreamErrorText, errx.PublicMessage(err, ""))
	assert.Contains(t, UpstreamErrorText, "bad request")
}

func TestHTTPClientEmptyPayloadFallsBack(t *testing.T) {
	for name, body := range map[string]string{
		"no choices":    `{"choices":[]}`,
		"null content":  `{"choices":[{"message":{"content":null}}]}`,
		"blank content": `{"choices":[{"message":{"content":"   "}}]}`,
		"not json":      `<html>`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			logs := captureLogs(t)
			answer, err := NewHTTPClient(testConfig(srv.URL)).Complete(context.Background(), instructions())
			require.NoError(t, err)
			assert.Equal(t, FallbackAnswer, answer)
			assert.Contains(t, answer, "couldn't generate an answer")

			// Observers see the call closed exactly once.
			out := logs.String()
			assert.Equal(t, 1, strings.Count(out, "chat model start"))
			assert.Equal(t, 1, strings.Count(out, "chat model end"))
			assert.NotContains(t, out, "chat model error")
		})
	}
}

func TestHTTPClientTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewHTTPClient(testConfig(url)).Complete(context.Background(), instructions())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, TransportErrorText, errx.PublicMessage(err, ""))
}

func TestHTTPClientTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	cfg := testConfig(srv.URL)
	cfg.Timeout = 50 * time.Millisecond
	_, err := NewHTTPClient(cfg).Complete(context.Background(), instructions())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, TimeoutErrorText, errx.PublicMessage(err, ""))
}

type stubGenerator struct {
	out  *schema.Message
	err  error
	seen []*schema.Message
}

func (s *stubGenerator) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	s.seen = input
	return s.out, s.err
}

func TestChatModelClient(t *testing.T) {
	cfg := testConfig("")

	t.Run("answer", func(t *testing.T) {
		gen := &stubGenerator{out: &schema.Message{
			Role:    schema.Assistant,
			Content: "Hello there",
			ResponseMeta: &schema.ResponseMeta{
				Usage: &schema.TokenUsage{PromptTokens: 5, CompletionTokens: 2, TotalTokens: 7},
			},
		}}
		answer, err := NewChatModelClient(gen, ProviderGemini, cfg).Complete(context.Background(), instructions())
		require.NoError(t, err)
		assert.Equal(t, "Hello there", answer)
		assert.Len(t, gen.seen, 3)
	})

	t.Run("empty", func(t *testing.T) {
		gen := &stubGenerator{out: &schema.Message{Role: schema.Assistant}}
		answer, err := NewChatModelClient(gen, ProviderGemini, cfg).Complete(context.Background(), instructions())
		require.NoError(t, err)
		assert.Equal(t, FallbackAnswer, answer)
	})

	t.Run("failure", func(t *testing.T) {
		gen := &stubGenerator{err: errors.New("boom")}
		_, err := NewChatModelClient(gen, ProviderGemini, cfg).Complete(context.Background(), instructions())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTransport)
	})

	t.Run("deadline", func(t *testing.T) {
		gen := &stubGenerator{err: context.DeadlineExceeded}
		_, err := NewChatModelClient(gen, ProviderGemini, cfg).Complete(context.Background(), instructions())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTimeout)
	})

	t.Run("cancelled by caller", func(t *testing.T) {
		logs := captureLogs(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		gen := &stubGenerator{err: context.Canceled}
		_, err := NewChatModelClient(gen, ProviderGemini, cfg).Complete(ctx, instructions())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTransport)
		assert.NotErrorIs(t, err, ErrTimeout)
		assert.NotContains(t, logs.String(), "timed out")
	})
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), model.CompletionConfig{Provider: "carrier-pigeon"})
	require.Error(t, err)

	_, err = New(context.Background(), model.CompletionConfig{Provider: ProviderOpenAI})
	require.Error(t, err)

	c, err := New(context.Background(), testConfig("http://localhost"))
	require.NoError(t, err)
	assert.IsType(t, &HTTPClient{}, c)
}
