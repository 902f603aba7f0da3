package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/benbjohnson/clock"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/neon-portfolio/server/internal/assistant/completion"
	"github.com/neon-portfolio/server/internal/assistant/guard"
	"github.com/neon-portfolio/server/internal/assistant/model"
	"github.com/neon-portfolio/server/internal/assistant/prompts"
	"github.com/neon-portfolio/server/internal/assistant/repo"
	"github.com/neon-portfolio/server/internal/assistant/session"
	"github.com/neon-portfolio/server/internal/core"
	"github.com/neon-portfolio/server/internal/httpapi"
	"github.com/neon-portfolio/server/internal/mailer"
	"github.com/neon-portfolio/server/internal/reference"
	logx "github.com/neon-portfolio/server/pkg/logger"
	pkgredis "github.com/neon-portfolio/server/pkg/redis"
)

// AppConfig defines all configurable parameters of the server, sourced from
// environment variables (loaded from .env for local runs).
type AppConfig struct {
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL"`

	// Infrastructure
	Redis pkgredis.Config
	HTTP  httpapi.Config
	Mail  mailer.Config

	// Assistant
	Assistant  model.AssistantConfig
	Completion model.CompletionConfig
	Reference  model.ReferenceConfig
	Session    model.SessionConfig
}

func (c AppConfig) Environment() core.Environment {
	return core.ParseEnvironment(c.Env)
}

// loadConfig reads .env when present, then the process environment.
func loadConfig(envFile string) (AppConfig, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return AppConfig{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("process environment config: %w", err)
	}
	return cfg, nil
}

func initLogger(cfg AppConfig) {
	logx.Init(logx.LoggerOpts{Environment: cfg.Environment(), Level: cfg.LogLevel})
}

// openStore returns the Redis message store when REDIS_URL is set, the
// in-memory one otherwise, and a func releasing it.
func openStore(ctx context.Context, cfg AppConfig) (model.MessageStore, func(), error) {
	if !cfg.Redis.Enabled() {
		logx.Info().Msg("REDIS_URL not set, keeping sessions in memory")
		return repo.NewMemoryMessageStore(), func() {}, nil
	}

	rdb, err := cfg.Redis.New(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialise Redis client: %w", err)
	}
	logx.Info().Msg("Connected to Redis successfully")
	return repo.NewRedisMessageStore(rdb, cfg.Session.StoreTTL), func() { _ = rdb.Close() }, nil
}

func loadGuard(path string) (*guard.Guard, error) {
	policy, err := guard.DefaultPolicy()
	if path != "" {
		policy, err = guard.LoadPolicy(path)
	}
	if err != nil {
		return nil, fmt.Errorf("load guard policy: %w", err)
	}
	return guard.New(policy)
}

func loadProjects(path string) ([]reference.Project, error) {
	if path == "" {
		return reference.DefaultProjects()
	}
	return reference.LoadProjects(path)
}

// assistant bundles what both serve and ask need.
type assistant struct {
	deps     session.Deps
	config   session.Config
	projects []reference.Project
	resume   *reference.ResumeSource
}

func newAssistant(ctx context.Context, cfg AppConfig, store model.MessageStore) (*assistant, error) {
	g, err := loadGuard(cfg.Assistant.GuardPolicyPath)
	if err != nil {
		return nil, err
	}
	logx.Info().Str("policy_version", g.Version()).Msg("input guard ready")

	projects, err := loadProjects(cfg.Reference.ProjectsPath)
	if err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}
	resume := reference.NewResumeSource(cfg.Reference.ResumePath, cfg.Reference.ResumeCharBudget)

	completer, err := completion.New(ctx, cfg.Completion)
	if err != nil {
		return nil, err
	}

	builder := prompts.NewBuilder(prompts.BuilderConfig{
		OwnerName:       cfg.Assistant.OwnerName,
		Projects:        reference.ProjectsText(projects),
		Resume:          resume,
		HistoryTurns:    cfg.Assistant.HistoryTurns,
		MaxMessageChars: cfg.Assistant.MaxMessageChars,
	})

	return &assistant{
		deps: session.Deps{
			Store:     store,
			Guard:     g,
			Builder:   builder,
			Completer: completer,
			Clock:     clock.New(),
		},
		config: session.Config{
			Cooldown:       cfg.Assistant.Cooldown,
			TypingInterval: cfg.Assistant.TypingInterval,
		},
		projects: projects,
		resume:   resume,
	}, nil
}
