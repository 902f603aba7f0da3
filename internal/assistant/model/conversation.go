package model

import (
	"context"
	"errors"
)

// MessageStore holds the display sequence of each session.
type MessageStore interface {
	// Append adds a message to the end of the session's sequence.
	Append(ctx context.Context, sessionID string, msg Message) error

	// Replace overwrites the message at index. It is the only in-place
	// mutation and is used by the typist on every frame, always against the
	// slot its own submission appended.
	Replace(ctx context.Context, sessionID string, index int, msg Message) error

	// List returns the whole sequence in insertion order.
	List(ctx context.Context, sessionID string) ([]Message, error)

	// Exists reports whether the store holds any message for the session.
	Exists(ctx context.Context, sessionID string) (bool, error)

	// Delete drops the session's sequence.
	Delete(ctx context.Context, sessionID string) error
}

// ErrNoSuchMessage is returned by Replace when index is outside the sequence.
var ErrNoSuchMessage = errors.New("no message at index")
