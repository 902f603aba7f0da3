package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/neon-portfolio/server/internal/assistant/observers"
)

//go:embed template/system_prompt.txt
var systemPrompt string

//go:embed template/reminder.txt
var reminderPrompt string

// SystemVars are the values substituted into the persona template.
type SystemVars struct {
	OwnerName string
	Projects  string
	Resume    string
}

// RenderSystem renders the persona instruction via the eino prompt component.
func RenderSystem(ctx context.Context, vars SystemVars) (string, error) {
	return render(ctx, "system_prompt", systemPrompt, map[string]any{
		"OwnerName": vars.OwnerName,
		"Projects":  vars.Projects,
		"Resume":    vars.Resume,
	})
}

// RenderReminder renders the closing anti-override instruction.
func RenderReminder(ctx context.Context, ownerName string) (string, error) {
	return render(ctx, "reminder", reminderPrompt, map[string]any{"OwnerName": ownerName})
}

func render(ctx context.Context, name, tmpl string, vars map[string]any) (string, error) {
	ctx = observers.WithPrompt(ctx, name)
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(tmpl),
	)
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("prompt render: empty result")
	}
	return msgs[0].Content, nil
}
