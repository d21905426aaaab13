// Package mailer sends transactional email through SendGrid, or writes it
// to the log when no API key is configured.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Message is one outgoing email.
type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
}

// Mailer is implemented by SendGrid and Log.
type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// ErrInvalidMessage is returned before any network call for messages
// without recipient or subject.
var ErrInvalidMessage = errors.New("invalid mail message")

func (m Message) validate() error {
	if strings.TrimSpace(m.To) == "" {
		return fmt.Errorf("%w: empty recipient", ErrInvalidMessage)
	}
	if strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("%w: empty subject", ErrInvalidMessage)
	}
	return nil
}

// htmlBody wraps the plain text so line breaks survive in HTML clients.
func htmlBody(text string) string {
	return "<p>" + strings.ReplaceAll(html.EscapeString(text), "\n", "<br>") + "</p>"
}

// SendGrid delivers mail through the SendGrid v3 API.
type SendGrid struct {
	client   *sendgrid.Client
	from     string
	fromName string
	log      *zap.Logger
}

func NewSendGrid(apiKey, from, fromName string, log *zap.Logger) *SendGrid {
	return &SendGrid{client: sendgrid.NewSendClient(apiKey), from: from, fromName: fromName, log: log}
}

func (s *SendGrid) Send(ctx context.Context, m Message) error {
	if err := m.validate(); err != nil {
		return err
	}
	msg := mail.NewSingleEmail(
		mail.NewEmail(s.fromName, s.from),
		m.Subject,
		mail.NewEmail(m.ToName, m.To),
		m.Text,
		htmlBody(m.Text),
	)
	resp, err := s.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		s.log.Warn("sendgrid rejected mail",
			zap.Int("status", resp.StatusCode), zap.String("body", resp.Body))
		return fmt.Errorf("sendgrid send failed: status=%d", resp.StatusCode)
	}
	s.log.Debug("mail sent", zap.Int("status", resp.StatusCode), zap.String("subject", m.Subject))
	return nil
}

// Log writes mail to the logger.  Used in development and when SendGrid is
// not configured.
type Log struct{ log *zap.Logger }

func NewLog(log *zap.Logger) *Log { return &Log{log: log} }

func (l *Log) Send(_ context.Context, m Message) error {
	if err := m.validate(); err != nil {
		return err
	}
	l.log.Info("mail",
		zap.String("to", m.To),
		zap.String("subject", m.Subject),
		zap.String("text", m.Text))
	return nil
}

// New picks SendGrid when apiKey is set and the log mailer otherwise.
func New(apiKey, from, fromName string, log *zap.Logger) Mailer {
	if apiKey == "" {
		return NewLog(log)
	}
	return NewSendGrid(apiKey, from, fromName, log)
}
