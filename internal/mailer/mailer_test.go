package mailer

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	errx "github.com/neon-portfolio/server/internal/core/error"
)

func testMailer(t *testing.T, deliver deliverFunc) *SMTPMailer {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resume.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 fake"), 0o600))
	return &SMTPMailer{
		cfg: Config{
			Host:      "smtp.example.com",
			Port:      587,
			From:      "portfolio@example.com",
			Subject:   "Resume request",
			SiteURL:   "https://example.com",
			OwnerName: "Sam Doe",
		},
		resumePath: path,
		deliver:    deliver,
	}
}

func TestSendResume(t *testing.T) {
	var sent []*mail.Msg
	m := testMailer(t, func(_ context.Context, msgs ...*mail.Msg) error {
		sent = append(sent, msgs...)
		return nil
	})

	require.NoError(t, m.SendResume(context.Background(), " visitor@example.org "))
	require.Len(t, sent, 1)

	var raw bytes.Buffer
	_, err := sent[0].WriteTo(&raw)
	require.NoError(t, err)
	out := raw.String()
	assert.Contains(t, out, "visitor@example.org")
	assert.Contains(t, out, "Subject: Resume request")
	assert.Contains(t, out, "text/html")
	assert.Contains(t, out, `filename="resume.pdf"`)
}

func TestSendResumeValidation(t *testing.T) {
	m := testMailer(t, func(context.Context, ...*mail.Msg) error { return nil })

	err := m.SendResume(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrMissingRecipient)
	assert.Equal(t, 400, errx.StatusOf(err))

	err = m.SendResume(context.Background(), "not an address")
	require.Error(t, err)
	assert.Equal(t, 400, errx.StatusOf(err))
}

func TestSendResumeRelayFailure(t *testing.T) {
	m := testMailer(t, func(context.Context, ...*mail.Msg) error { return errors.New("connection refused") })

	err := m.SendResume(context.Background(), "visitor@example.org")
	require.Error(t, err)
	assert.Equal(t, 500, errx.StatusOf(err))
	assert.Equal(t, "failed to send email", errx.PublicMessage(err, ""))
}

func TestSendResumeNotConfigured(t *testing.T) {
	m, err := New(Config{}, "static/resume.pdf")
	require.NoError(t, err)

	err = m.SendResume(context.Background(), "visitor@example.org")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSendResumeMissingAttachment(t *testing.T) {
	m := testMailer(t, func(context.Context, ...*mail.Msg) error { return nil })
	m.resumePath = filepath.Join(t.TempDir(), "missing.pdf")

	err := m.SendResume(context.Background(), "visitor@example.org")
	require.Error(t, err)
	assert.Equal(t, 500, errx.StatusOf(err))
}
