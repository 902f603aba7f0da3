package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/robfig/cron/v3"

	"github.com/neon-portfolio/server/internal/assistant/model"
	errx "github.com/neon-portfolio/server/internal/core/error"
	logx "github.com/neon-portfolio/server/pkg/logger"
)

var ErrNotFound = errx.New(errors.New("session not found"), http.StatusNotFound, "session not found")

// Registry maps session ids to live controllers and evicts idle ones.
type Registry struct {
	deps    Deps
	cfg     Config
	idleTTL time.Duration

	mu       sync.Mutex
	sessions map[string]*Controller

	scheduler *cron.Cron
	schedule  string
}

func NewRegistry(deps Deps, cfg Config, sessCfg model.SessionConfig) *Registry {
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	return &Registry{
		deps:      deps,
		cfg:       cfg,
		idleTTL:   sessCfg.IdleTTL,
		sessions:  make(map[string]*Controller),
		scheduler: cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		schedule:  sessCfg.SweepSchedule,
	}
}

// Start schedules the idle sweep.
func (r *Registry) Start() error {
	if r.schedule == "" || r.idleTTL <= 0 {
		logx.Info().Msg("idle session sweep disabled")
		return nil
	}
	if _, err := r.scheduler.AddFunc(r.schedule, func() { r.Sweep(context.Background()) }); err != nil {
		return fmt.Errorf("invalid session sweep schedule %q: %w", r.schedule, err)
	}
	r.scheduler.Start()
	logx.Info().Str("schedule", r.schedule).Dur("idle_ttl", r.idleTTL).Msg("idle session sweep scheduled")
	return nil
}

// Stop halts the sweep and closes every live controller.
func (r *Registry) Stop(ctx context.Context) {
	select {
	case <-r.scheduler.Stop().Done():
	case <-ctx.Done():
	}

	r.mu.Lock()
	live := make([]*Controller, 0, len(r.sessions))
	for id, c := range r.sessions {
		live = append(live, c)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, c := range live {
		c.Close()
	}
}

func (r *Registry) Create() *Controller {
	c := NewController("", r.deps, r.cfg)
	r.mu.Lock()
	r.sessions[c.ID()] = c
	r.mu.Unlock()
	logx.Info().Str("session_id", c.ID()).Msg("session created")
	return c
}

// Get returns the live controller for id. A session unknown to this process
// whose messages are still in the store is rehydrated in the idle state.
func (r *Registry) Get(ctx context.Context, id string) (*Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.sessions[id]; ok {
		return c, nil
	}
	exists, err := r.deps.Store.Exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}
	c := NewController(id, r.deps, r.cfg)
	r.sessions[id] = c
	logx.Info().Str("session_id", id).Msg("session rehydrated from store")
	return c, nil
}

// Close stops the session and drops its messages.
func (r *Registry) Close(ctx context.Context, id string) error {
	r.mu.Lock()
	c, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		c.Close()
	}
	if err := r.deps.Store.Delete(ctx, id); err != nil {
		return err
	}
	logx.Info().Str("session_id", id).Msg("session closed")
	return nil
}

// Sweep closes sessions idle for longer than the idle TTL. Sessions with a
// request or reveal in progress are left alone.
func (r *Registry) Sweep(ctx context.Context) int {
	now := r.deps.Clock.Now()

	r.mu.Lock()
	var idle []*Controller
	for id, c := range r.sessions {
		if !c.State().Idle() || now.Sub(c.LastActive()) < r.idleTTL {
			continue
		}
		idle = append(idle, c)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, c := range idle {
		c.Close()
		if err := r.deps.Store.Delete(ctx, c.ID()); err != nil {
			logx.Warn().Err(err).Str("session_id", c.ID()).Msg("failed to drop idle session messages")
		}
	}
	if len(idle) > 0 {
		logx.Info().Int("evicted", len(idle)).Msg("idle sessions swept")
	}
	return len(idle)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
