// Package typist reveals an already known response one character at a time.
package typist

import (
	"context"
	"iter"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/neon-portfolio/server/internal/assistant/model"
)

const DefaultInterval = 15 * time.Millisecond

type Typist struct {
	// Prefix is written once, ahead of the first character.
	Prefix   string
	Interval time.Duration
	Clock    clock.Clock
}

func New(interval time.Duration, clk clock.Clock) *Typist {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Typist{Prefix: model.AssistantPrefix, Interval: interval, Clock: clk}
}

// Frames yields the growing renderings of text: Prefix+"H", Prefix+"He", ...
// An empty text yields the bare prefix once.
func (t *Typist) Frames(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		runes := []rune(text)
		if len(runes) == 0 {
			yield(t.Prefix)
			return
		}
		for i := 1; i <= len(runes); i++ {
			if !yield(t.Prefix + string(runes[:i])) {
				return
			}
		}
	}
}

// Play hands every frame of text to render, one per Interval. It returns
// early only when ctx is done or render fails.
func (t *Typist) Play(ctx context.Context, text string, render func(frame string) error) error {
	ticker := t.Clock.Ticker(t.Interval)
	defer ticker.Stop()

	for frame := range t.Frames(text) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if err := render(frame); err != nil {
			return err
		}
	}
	return nil
}

// Duration is how long Play takes for text.
func (t *Typist) Duration(text string) time.Duration {
	n := len([]rune(text))
	if n == 0 {
		n = 1
	}
	return time.Duration(n) * t.Interval
}
