package model

import "strings"

// Origin identifies who produced a message.
type Origin string

const (
	OriginAssistant Origin = "assistant"
	OriginUser      Origin = "user"
	OriginSystem    Origin = "system"
)

// Display prefixes. They are part of Message.Text but never sent upstream.
const (
	UserPrefix      = "$ "
	AssistantPrefix = "> "
)

// Placeholder is shown in the assistant slot while a completion is in flight.
const Placeholder = AssistantPrefix + "..."

// Message is one entry of a session's append-only display sequence.
type Message struct {
	Origin Origin `json:"origin"`
	Text   string `json:"text"`
	// Withheld marks user input rejected by the guard. It stays visible in
	// the transcript but is never included in a completion request.
	Withheld bool `json:"withheld,omitempty"`
}

func UserMessage(text string) Message {
	return Message{Origin: OriginUser, Text: UserPrefix + text}
}

func AssistantMessage(text string) Message {
	return Message{Origin: OriginAssistant, Text: AssistantPrefix + text}
}

// StripMarker removes the leading prompt marker, if any, from display text.
func StripMarker(text string) string {
	for _, p := range []string{UserPrefix, AssistantPrefix} {
		if strings.HasPrefix(text, p) {
			return strings.TrimPrefix(text, p)
		}
	}
	return text
}

// IsTurn reports whether m counts as a conversation turn for the context
// window: user or assistant, and not withheld.
func (m Message) IsTurn() bool {
	if m.Withheld {
		return false
	}
	return m.Origin == OriginUser || m.Origin == OriginAssistant
}
