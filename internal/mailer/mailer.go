// Package mailer turns queued notifications into emails and delivers them.
package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stemsi/quizwizz-backend/internal/config"
	"github.com/stemsi/quizwizz-backend/internal/logger"
)

// ErrRejected is returned when the mail provider answers with a non-2xx status.
var ErrRejected = errors.New("mail provider rejected message")

// Message is one outbound email.
type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers a single message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New picks SendGrid when an API key is configured, otherwise a log-only mailer.
func New(cfg *config.Config, log zerolog.Logger) Mailer {
	if cfg.MailEnabled() {
		return NewSendGridMailer(cfg.SendGridAPIKey, cfg.MailFromName, cfg.MailFromEmail, log)
	}
	return NewLogMailer(log)
}

// SendGridMailer sends mail through the SendGrid v3 API.
type SendGridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
	log    zerolog.Logger
}

// NewSendGridMailer creates a new SendGridMailer.
func NewSendGridMailer(apiKey, fromName, fromEmail string, log zerolog.Logger) *SendGridMailer {
	return &SendGridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromEmail),
		log:    logger.Component(log, "sendgrid_mailer"),
	}
}

// Send implements Mailer.
func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	to := mail.NewEmail(msg.ToName, msg.To)
	body := mail.NewSingleEmail(m.from, msg.Subject, to, msg.Text, msg.HTML)

	resp, err := m.client.SendWithContext(ctx, body)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}
	m.log.Debug().Str("to", msg.To).Str("subject", msg.Subject).Msg("Mail sent")
	return nil
}

// LogMailer only logs messages. It is used when no mail provider is configured.
type LogMailer struct {
	log zerolog.Logger
}

// NewLogMailer creates a new LogMailer.
func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: logger.Component(log, "log_mailer")}
}

// Send implements Mailer.
func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.log.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("Mail not sent (mail not configured)")
	return nil
}
