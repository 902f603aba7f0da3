// Package session owns a visitor's conversation: its gate state, its message
// sequence and the request/typing lifecycle that mutates them.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/neon-portfolio/server/internal/assistant/completion"
	"github.com/neon-portfolio/server/internal/assistant/guard"
	"github.com/neon-portfolio/server/internal/assistant/model"
	"github.com/neon-portfolio/server/internal/assistant/typist"
	errx "github.com/neon-portfolio/server/internal/core/error"
	logx "github.com/neon-portfolio/server/pkg/logger"
)

// InternalErrorText is typed when the request could not even be composed.
const InternalErrorText = "Error: something went wrong on our side. Please try again."

var ErrClosed = errx.New(errors.New("session closed"), http.StatusGone, "session closed")

type Outcome int

const (
	// Ignored: empty input or the gate was closed. Nothing changed.
	Ignored Outcome = iota
	// Refused: the guard blocked the input and a refusal is being typed.
	Refused
	// Accepted: the input was sent upstream.
	Accepted
)

func (o Outcome) String() string {
	switch o {
	case Refused:
		return "refused"
	case Accepted:
		return "accepted"
	default:
		return "ignored"
	}
}

type Guard interface {
	Check(text string) (rule string, blocked bool)
}

type WindowBuilder interface {
	Build(ctx context.Context, history []model.Message, input string, prefs model.Preferences) ([]*schema.Message, error)
}

type Deps struct {
	Store     model.MessageStore
	Guard     Guard
	Builder   WindowBuilder
	Completer completion.Completer
	Clock     clock.Clock
}

type Config struct {
	Cooldown       time.Duration
	TypingInterval time.Duration
}

type UpdateKind string

const (
	UpdateAppended UpdateKind = "appended"
	UpdateReplaced UpdateKind = "replaced"
	UpdateState    UpdateKind = "state"
)

// Update is pushed to subscribers after every mutation.
type Update struct {
	Kind    UpdateKind     `json:"kind"`
	Message *model.Message `json:"message,omitempty"`
	State   State          `json:"state"`
}

type Snapshot struct {
	ID          string            `json:"id"`
	State       State             `json:"state"`
	CanSubmit   bool              `json:"can_submit"`
	Preferences model.Preferences `json:"preferences"`
	Messages    []model.Message   `json:"messages"`
}

const subscriberBuffer = 256

type Controller struct {
	id       string
	deps     Deps
	cooldown time.Duration
	typist   *typist.Typist

	// ctx is cancelled by Close. Continuations check it before mutating.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu            sync.Mutex
	state         State
	prefs         model.Preferences
	lastActive    time.Time
	cooldownTimer *clock.Timer
	subs          map[uint64]chan Update
	nextSub       uint64
}

// NewController creates a controller for id, or for a fresh id when empty.
func NewController(id string, deps Deps, cfg Config) *Controller {
	if id == "" {
		id = uuid.NewString()
	}
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		id:         id,
		deps:       deps,
		cooldown:   cfg.Cooldown,
		typist:     typist.New(cfg.TypingInterval, deps.Clock),
		ctx:        ctx,
		cancel:     cancel,
		prefs:      model.DefaultPreferences(),
		lastActive: deps.Clock.Now(),
		subs:       make(map[uint64]chan Update),
	}
}

func (c *Controller) ID() string {
	return c.id
}

// Submit runs one visitor input through the gate and the guard and, when
// accepted, starts the completion in the background.
func (c *Controller) Submit(ctx context.Context, text string) (Outcome, error) {
	input := strings.TrimSpace(text)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed() {
		return Ignored, ErrClosed
	}
	c.lastActive = c.deps.Clock.Now()

	if input == "" || !c.state.CanSubmit() {
		logx.Debug().Str("session_id", c.id).Interface("state", c.state).Msg("submission ignored")
		return Ignored, nil
	}

	history, err := c.deps.Store.List(ctx, c.id)
	if err != nil {
		return Ignored, err
	}
	// The input lands at len(history) and the slot the typist fills right
	// after it.
	slot := len(history) + 1

	if rule, blocked := c.deps.Guard.Check(input); blocked {
		withheld := model.UserMessage(input)
		withheld.Withheld = true
		if err := c.append(ctx, withheld); err != nil {
			return Ignored, err
		}
		if err := c.append(ctx, model.Message{Origin: model.OriginSystem, Text: c.typist.Prefix}); err != nil {
			return Ignored, err
		}
		logx.Info().Str("session_id", c.id).Str("rule", rule).Msg("input blocked by guard")

		c.apply(GuardRefused)
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.reveal(slot, model.OriginSystem, guard.RefusalText)
		}()
		return Refused, nil
	}

	if err := c.append(ctx, model.UserMessage(input)); err != nil {
		return Ignored, err
	}
	if err := c.append(ctx, model.Message{Origin: model.OriginAssistant, Text: model.Placeholder}); err != nil {
		return Ignored, err
	}

	c.apply(Submitted)
	c.cooldownTimer = c.deps.Clock.AfterFunc(c.cooldown, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if !c.closed() {
			c.apply(CooldownElapsed)
		}
	})

	prefs := c.prefs
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.answer(slot, history, input, prefs)
	}()
	return Accepted, nil
}

func (c *Controller) answer(slot int, history []model.Message, input string, prefs model.Preferences) {
	origin, text := model.OriginAssistant, ""

	instructions, err := c.deps.Builder.Build(c.ctx, history, input, prefs)
	if err != nil {
		logx.Error().Err(err).Str("session_id", c.id).Msg("failed to build context window")
		origin, text = model.OriginSystem, InternalErrorText
	} else {
		text, err = c.deps.Completer.Complete(c.ctx, instructions)
		if err != nil {
			origin, text = model.OriginSystem, errx.PublicMessage(err, completion.TransportErrorText)
		}
	}

	c.mu.Lock()
	if c.closed() {
		c.mu.Unlock()
		return
	}
	c.apply(Completed)
	c.mu.Unlock()

	c.reveal(slot, origin, text)
}

// reveal types text into the message at slot and clears Typing when done.
func (c *Controller) reveal(slot int, origin model.Origin, text string) {
	err := c.typist.Play(c.ctx, text, func(frame string) error {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed() {
			return ErrClosed
		}
		msg := model.Message{Origin: origin, Text: frame}
		if err := c.deps.Store.Replace(c.ctx, c.id, slot, msg); err != nil {
			return err
		}
		c.publish(Update{Kind: UpdateReplaced, Message: &msg, State: c.state})
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, ErrClosed) {
		logx.Error().Err(err).Str("session_id", c.id).Msg("reveal aborted")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed() {
		c.apply(Revealed)
	}
}

// Snapshot returns the state, preferences and messages under one lock.
func (c *Controller) Snapshot(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed() {
		return Snapshot{}, ErrClosed
	}
	msgs, err := c.deps.Store.List(ctx, c.id)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		ID:          c.id,
		State:       c.state,
		CanSubmit:   c.state.CanSubmit(),
		Preferences: c.prefs,
		Messages:    msgs,
	}, nil
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetPreferences applies p to the next submission.
func (c *Controller) SetPreferences(p model.Preferences) (model.Preferences, error) {
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return model.Preferences{}, errx.New(err, http.StatusBadRequest, err.Error())
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed() {
		return model.Preferences{}, ErrClosed
	}
	c.prefs = p
	c.lastActive = c.deps.Clock.Now()
	return p, nil
}

func (c *Controller) Preferences() model.Preferences {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prefs
}

// Transcript renders the whole sequence, see FormatTranscript.
func (c *Controller) Transcript(ctx context.Context) (string, error) {
	msgs, err := c.deps.Store.List(ctx, c.id)
	if err != nil {
		return "", err
	}
	return FormatTranscript(msgs), nil
}

// Subscribe returns a channel of updates and a func to stop receiving them.
// Updates are dropped for a subscriber that falls behind. The channel is
// closed when the controller closes or cancel is called.
func (c *Controller) Subscribe() (<-chan Update, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan Update, subscriberBuffer)
	if c.closed() {
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.lastActive = c.deps.Clock.Now()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

// LastActive is the time of the last submission, preference change or
// subscription.
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// Close abandons any in-flight request or reveal and waits for them to stop.
// Messages stay in the store.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed() {
		c.mu.Unlock()
		return
	}
	c.cancel()
	if c.cooldownTimer != nil {
		c.cooldownTimer.Stop()
	}
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
	c.mu.Unlock()

	c.wg.Wait()
}

func (c *Controller) closed() bool {
	return c.ctx.Err() != nil
}

// apply and append must be called with mu held.
func (c *Controller) apply(e Event) {
	next := Transition(c.state, e)
	logx.Debug().Str("session_id", c.id).Stringer("event", e).Interface("state", next).Msg("session transition")
	c.state = next
	c.publish(Update{Kind: UpdateState, State: next})
}

func (c *Controller) append(ctx context.Context, msg model.Message) error {
	if err := c.deps.Store.Append(ctx, c.id, msg); err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	c.publish(Update{Kind: UpdateAppended, Message: &msg, State: c.state})
	return nil
}

func (c *Controller) publish(u Update) {
	for _, ch := range c.subs {
		select {
		case ch <- u:
		default:
			logx.Debug().Str("session_id", c.id).Str("kind", string(u.Kind)).Msg("subscriber lagging, update dropped")
		}
	}
}
