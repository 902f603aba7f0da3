// Package httpapi exposes chat sessions, the résumé email and project data
// over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/neon-portfolio/server/internal/assistant/session"
	"github.com/neon-portfolio/server/internal/mailer"
	"github.com/neon-portfolio/server/internal/reference"
	logx "github.com/neon-portfolio/server/pkg/logger"
)

// ================ Config ================
type Config struct {
	Port            int           `envconfig:"HTTP_PORT" default:"8080"`
	AllowedOrigin   string        `envconfig:"HTTP_ALLOWED_ORIGIN" default:"*"`
	RateLimit       float64       `envconfig:"HTTP_RATE_LIMIT" default:"5"`
	RateBurst       int           `envconfig:"HTTP_RATE_BURST" default:"20"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
	Heartbeat       time.Duration `envconfig:"HTTP_SSE_HEARTBEAT" default:"15s"`
}

type Deps struct {
	Sessions *session.Registry
	Mailer   mailer.Sender
	Projects []reference.Project
	// ResumePath is served as /static/<base name> when set.
	ResumePath string
}

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(cfg Config, deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(), cors(cfg.AllowedOrigin))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.ResumePath != "" {
		router.StaticFile("/static/"+filepath.Base(deps.ResumePath), deps.ResumePath)
	}

	h := &handlers{deps: deps, heartbeat: cfg.Heartbeat}
	if h.heartbeat <= 0 {
		h.heartbeat = 15 * time.Second
	}

	api := router.Group("/api", newIPRateLimiter(cfg.RateLimit, cfg.RateBurst).middleware())
	api.GET("/projects", h.listProjects)
	api.Any("/send-resume", h.sendResume)

	chat := api.Group("/chat/sessions")
	chat.POST("", h.createSession)
	chat.GET("/:id", h.getSession)
	chat.DELETE("/:id", h.deleteSession)
	chat.POST("/:id/messages", h.submitMessage)
	chat.PUT("/:id/preferences", h.setPreferences)
	chat.GET("/:id/events", h.streamEvents)
	chat.GET("/:id/transcript", h.exportTranscript)

	return router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func Start(ctx context.Context, cfg Config, deps Deps) error {
	if deps.Sessions == nil {
		return fmt.Errorf("httpapi: session registry is required")
	}
	if cfg.Port <= 0 {
		cfg.Port = 8080
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           NewRouter(cfg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logx.Info().Int("port", cfg.Port).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("httpapi: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	logx.Info().Msg("shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("httpapi: shutdown: %w", err)
	}
	return nil
}
