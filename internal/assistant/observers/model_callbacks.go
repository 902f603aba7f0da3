package observers

import (
	"context"
	"strings"

	einocb "github.com/cloudwego/eino/callbacks"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	"github.com/neon-portfolio/server/internal/assistant/model"
	logx "github.com/neon-portfolio/server/pkg/logger"
)

const previewChars = 120

// newModelHandler logs the instruction list going out and the answer and
// usage coming back.
func newModelHandler() *callbackHelper.ModelCallbackHandler {
	return &callbackHelper.ModelCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *einomodel.CallbackInput) context.Context {
			if input == nil {
				return ctx
			}
			logx.Debug().
				Str("provider", info.Type).
				Str("model", info.Name).
				Int("instructions", len(input.Messages)).
				Str("input", preview(lastUserContent(input.Messages))).
				Msg("chat model start")
			return ctx
		},
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *einomodel.CallbackOutput) context.Context {
			if output == nil {
				return ctx
			}
			evt := logx.Debug().Str("provider", info.Type).Str("model", info.Name)
			if output.Message != nil {
				evt = evt.Int("answer_chars", len([]rune(output.Message.Content)))
			}
			if u := output.TokenUsage; u != nil {
				usage := &schema.TokenUsage{
					PromptTokens:     u.PromptTokens,
					CompletionTokens: u.CompletionTokens,
					TotalTokens:      u.TotalTokens,
				}
				inCost, outCost, total := model.ComputeCost(usage, model.ResolvePricing(info.Name))
				evt = evt.
					Int("prompt_tokens", u.PromptTokens).
					Int("completion_tokens", u.CompletionTokens).
					Int("total_tokens", u.TotalTokens).
					Float64("input_cost_usd", inCost).
					Float64("output_cost_usd", outCost).
					Float64("total_cost_usd", total)
			}
			evt.Msg("chat model end")
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Warn().Err(err).Str("provider", info.Type).Str("model", info.Name).Msg("chat model error")
			return ctx
		},
	}
}

func lastUserContent(msgs []*schema.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if m := msgs[i]; m != nil && m.Role == schema.User {
			return strings.TrimSpace(m.Content)
		}
	}
	return ""
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= previewChars {
		return s
	}
	return string(r[:previewChars]) + "…"
}
