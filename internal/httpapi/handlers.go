package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/neon-portfolio/server/internal/assistant/model"
	"github.com/neon-portfolio/server/internal/assistant/session"
	errx "github.com/neon-portfolio/server/internal/core/error"
	"github.com/neon-portfolio/server/internal/mailer"
)

type handlers struct {
	deps      Deps
	heartbeat time.Duration
}

type submitRequest struct {
	Text string `json:"text" binding:"required"`
}

type submitResponse struct {
	Outcome   string        `json:"outcome"`
	State     session.State `json:"state"`
	CanSubmit bool          `json:"can_submit"`
}

type resumeRequest struct {
	Email string `json:"email"`
}

func respondError(c *gin.Context, err error) {
	status := errx.StatusOf(err)
	c.AbortWithStatusJSON(status, gin.H{"error": errx.PublicMessage(err, errx.SystemErrorMessage)})
}

func (h *handlers) session(c *gin.Context) (*session.Controller, bool) {
	ctrl, err := h.deps.Sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return ctrl, true
}

func (h *handlers) createSession(c *gin.Context) {
	ctrl := h.deps.Sessions.Create()
	snap, err := ctrl.Snapshot(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snap)
}

func (h *handlers) getSession(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	snap, err := ctrl.Snapshot(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *handlers) deleteSession(c *gin.Context) {
	if err := h.deps.Sessions.Close(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) submitMessage(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}
	ctrl, ok := h.session(c)
	if !ok {
		return
	}

	outcome, err := ctrl.Submit(c.Request.Context(), req.Text)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusAccepted
	switch outcome {
	case session.Refused:
		status = http.StatusOK
	case session.Ignored:
		status = http.StatusTooManyRequests
	}
	state := ctrl.State()
	c.JSON(status, submitResponse{Outcome: outcome.String(), State: state, CanSubmit: state.CanSubmit()})
}

func (h *handlers) setPreferences(c *gin.Context) {
	var req model.Preferences
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid preferences"})
		return
	}
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	if _, err := ctrl.SetPreferences(req); err != nil {
		respondError(c, err)
		return
	}
	snap, err := ctrl.Snapshot(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// streamEvents sends a snapshot, then every update until the client leaves
// or the session closes.
func (h *handlers) streamEvents(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	snap, err := ctrl.Snapshot(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	updates, cancel := ctrl.Subscribe()
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("snapshot", snap)
	c.Writer.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()
	ctx := c.Request.Context()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case u, ok := <-updates:
			if !ok {
				c.SSEvent("closed", gin.H{"id": ctrl.ID()})
				return false
			}
			c.SSEvent(string(u.Kind), u)
			return true
		case t := <-heartbeat.C:
			c.SSEvent("heartbeat", gin.H{"timestamp": t.UTC().Format(time.RFC3339)})
			return true
		}
	})
}

func (h *handlers) exportTranscript(c *gin.Context) {
	ctrl, ok := h.session(c)
	if !ok {
		return
	}
	out, err := ctrl.Transcript(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="transcript-%s.txt"`, ctrl.ID()))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(out))
}

func (h *handlers) listProjects(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"projects": h.deps.Projects})
}

func (h *handlers) sendResume(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.Header("Allow", http.MethodPost)
		c.AbortWithStatusJSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
		return
	}

	var req resumeRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		respondError(c, mailer.ErrMissingRecipient)
		return
	}
	if h.deps.Mailer == nil {
		respondError(c, mailer.ErrNotConfigured)
		return
	}
	if err := h.deps.Mailer.SendResume(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email sent successfully"})
}
