// Package mailer delivers the résumé by email.
package mailer

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/wneessen/go-mail"

	errx "github.com/neon-portfolio/server/internal/core/error"
	logx "github.com/neon-portfolio/server/pkg/logger"
)

//go:embed template/resume_email.html
var resumeEmailHTML string

var resumeEmail = template.Must(template.New("resume_email").Parse(resumeEmailHTML))

// ================ Config ================
type Config struct {
	Host      string `envconfig:"MAIL_HOST"`
	Port      int    `envconfig:"MAIL_PORT" default:"587"`
	Username  string `envconfig:"MAIL_USERNAME"`
	Password  string `envconfig:"MAIL_PASSWORD"`
	From      string `envconfig:"MAIL_FROM"`
	Subject   string `envconfig:"MAIL_SUBJECT" default:"Résumé"`
	SiteURL   string `envconfig:"MAIL_SITE_URL"`
	OwnerName string `envconfig:"ASSISTANT_OWNER_NAME" default:"the site owner"`
}

func (c Config) Enabled() bool {
	return c.Host != "" && c.From != ""
}

var (
	ErrMissingRecipient = errx.New(errors.New("missing recipient"), http.StatusBadRequest, "email is required")
	ErrInvalidRecipient = errx.New(errors.New("invalid recipient"), http.StatusBadRequest, "email is invalid")
	ErrNotConfigured    = errx.New(errors.New("mail relay not configured"), http.StatusInternalServerError, "failed to send email")
)

// Sender sends the résumé to one address.
type Sender interface {
	SendResume(ctx context.Context, to string) error
}

type deliverFunc func(ctx context.Context, msgs ...*mail.Msg) error

type SMTPMailer struct {
	cfg        Config
	resumePath string
	deliver    deliverFunc
}

// New returns a mailer relaying through cfg.Host. When the relay is not
// configured every send fails with ErrNotConfigured.
func New(cfg Config, resumePath string) (*SMTPMailer, error) {
	m := &SMTPMailer{cfg: cfg, resumePath: resumePath}
	if !cfg.Enabled() {
		logx.Warn().Msg("MAIL_HOST or MAIL_FROM not set, résumé email disabled")
		return m, nil
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create mail client: %w", err)
	}
	m.deliver = client.DialAndSendWithContext
	return m, nil
}

func (m *SMTPMailer) SendResume(ctx context.Context, to string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return ErrMissingRecipient
	}
	if m.deliver == nil {
		return ErrNotConfigured
	}

	msg, err := m.buildMessage(to)
	if err != nil {
		return err
	}
	if err := m.deliver(ctx, msg); err != nil {
		logx.Error().Err(err).Str("host", m.cfg.Host).Msg("failed to send résumé email")
		return errx.New(err, http.StatusInternalServerError, "failed to send email")
	}
	logx.Info().Str("to", to).Msg("résumé email sent")
	return nil
}

func (m *SMTPMailer) buildMessage(to string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid MAIL_FROM %q: %w", m.cfg.From, err)
	}
	if err := msg.To(to); err != nil {
		return nil, errx.New(err, http.StatusBadRequest, ErrInvalidRecipient.Message)
	}
	msg.Subject(m.cfg.Subject)

	var body bytes.Buffer
	if err := resumeEmail.Execute(&body, m.cfg); err != nil {
		return nil, fmt.Errorf("render résumé email: %w", err)
	}
	msg.SetBodyString(mail.TypeTextHTML, body.String())

	if _, err := os.Stat(m.resumePath); err != nil {
		return nil, errx.New(err, http.StatusInternalServerError, "failed to send email")
	}
	msg.AttachFile(m.resumePath, mail.WithFileName(filepath.Base(m.resumePath)))
	return msg, nil
}

var _ Sender = (*SMTPMailer)(nil)
