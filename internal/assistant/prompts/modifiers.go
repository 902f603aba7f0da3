package prompts

import (
	"fmt"

	"github.com/neon-portfolio/server/internal/assistant/model"
)

// Modifier texts appended to the system instruction. Defaults add nothing.
const (
	FirstPersonModifier = "Answer in the first person, as if you were %s speaking about your own work."
	BriefModifier       = "Keep answers brief: two or three sentences at most."
	DetailedModifier    = "Give detailed answers with concrete examples taken from the reference material."
	BulletedModifier    = "Format every answer as a bulleted list, one point per line, each starting with \"- \"."
	ProseModifier       = "Write answers as flowing prose paragraphs without any lists."
)

// modifiers returns the natural-language directives for prefs, at most one
// per preference and none for defaults.
func modifiers(prefs model.Preferences, ownerName string) []string {
	var out []string
	if prefs.PointOfView == model.FirstPerson {
		out = append(out, fmt.Sprintf(FirstPersonModifier, ownerName))
	}
	switch prefs.Verbosity {
	case model.VerbosityLow:
		out = append(out, BriefModifier)
	case model.VerbosityHigh:
		out = append(out, DetailedModifier)
	}
	switch prefs.Formatting {
	case model.FormatBulleted:
		out = append(out, BulletedModifier)
	case model.FormatProse:
		out = append(out, ProseModifier)
	}
	return out
}
