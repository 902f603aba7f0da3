// Package observers logs eino component lifecycles: prompt rendering and
// chat model calls.
package observers

import (
	"context"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"
)

// NewCallbacks aggregates the prompt and chat model handlers into one
// callbacks.Handler.
func NewCallbacks() einocb.Handler {
	return callbackHelper.NewHandlerHelper().
		ChatModel(newModelHandler()).
		Prompt(newPromptHandler()).
		Handler()
}

// WithChatModel attaches the handlers to ctx for one chat model call.
func WithChatModel(ctx context.Context, provider, modelName string) context.Context {
	return einocb.InitCallbacks(ctx, &einocb.RunInfo{
		Name:      modelName,
		Type:      provider,
		Component: components.ComponentOfChatModel,
	}, NewCallbacks())
}

// WithPrompt attaches the handlers to ctx for one template render.
func WithPrompt(ctx context.Context, name string) context.Context {
	return einocb.InitCallbacks(ctx, &einocb.RunInfo{
		Name:      name,
		Type:      "GoTemplate",
		Component: components.ComponentOfPrompt,
	}, NewCallbacks())
}
