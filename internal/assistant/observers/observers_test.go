package observers

import (
	"bytes"
	"context"
	"errors"
	"testing"

	einocb "github.com/cloudwego/eino/callbacks"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"

	"github.com/neon-portfolio/server/internal/core"
	logx "github.com/neon-portfolio/server/pkg/logger"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logx.Init(logx.LoggerOpts{Environment: core.Production, Level: "debug", Output: &buf})
	t.Cleanup(func() { logx.Init() })
	return &buf
}

func TestChatModelCallbacksLogUsageAndCost(t *testing.T) {
	buf := captureLogs(t)

	ctx := WithChatModel(context.Background(), "openai", "gpt-4o-mini")
	ctx = einocb.OnStart(ctx, &einomodel.CallbackInput{Messages: []*schema.Message{
		schema.SystemMessage("system"),
		schema.UserMessage("Which projects use Go?"),
	}})
	einocb.OnEnd(ctx, &einomodel.CallbackOutput{
		Message:    schema.AssistantMessage("Three.", nil),
		TokenUsage: &einomodel.TokenUsage{PromptTokens: 1000, CompletionTokens: 200, TotalTokens: 1200},
	})

	out := buf.String()
	assert.Contains(t, out, "chat model start")
	assert.Contains(t, out, "Which projects use Go?")
	assert.Contains(t, out, "chat model end")
	assert.Contains(t, out, `"total_tokens":1200`)
	assert.Contains(t, out, "total_cost_usd")
}

func TestChatModelCallbacksLogErrors(t *testing.T) {
	buf := captureLogs(t)

	ctx := WithChatModel(context.Background(), "gemini", "gemini-2.0-flash")
	einocb.OnError(ctx, errors.New("quota exceeded"))

	assert.Contains(t, buf.String(), "quota exceeded")
	assert.Contains(t, buf.String(), "chat model error")
}

func TestPromptCallbacks(t *testing.T) {
	buf := captureLogs(t)

	ctx := WithPrompt(context.Background(), "system_prompt")
	einocb.OnEnd(ctx, &prompt.CallbackOutput{Result: []*schema.Message{schema.SystemMessage("rendered")}})

	assert.Contains(t, buf.String(), "prompt rendered")
	assert.Contains(t, buf.String(), `"rendered_chars":8`)
}

func TestPreview(t *testing.T) {
	short := "hello"
	assert.Equal(t, short, preview(short))

	long := string(bytes.Repeat([]byte("a"), previewChars+10))
	assert.Equal(t, previewChars+1, len([]rune(preview(long))))
}
