package email

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Email represents an email message to be sent.
type Email struct {
	To       []string          // Recipient email addresses
	From     string            // Sender email address
	Subject  string            // Email subject
	TextBody string            // Plain text body
	HTMLBody string            // HTML body (optional)
	Headers  map[string]string // Custom headers (optional)
}

// Sender defines the interface for sending emails.
type Sender interface {
	// Send sends an email message.
	// Returns the message ID from the email provider (if available).
	Send(ctx context.Context, email *Email) (string, error)
}

// LogSender writes emails to the log instead of delivering them.
// Used when no SMTP host is configured.
type LogSender struct {
	logger zerolog.Logger
}

func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger.With().Str("component", "email").Logger()}
}

func (s *LogSender) Send(ctx context.Context, email *Email) (string, error) {
	if len(email.To) == 0 {
		return "", ErrInvalidToAddress
	}
	s.logger.Info().
		Strs("to", email.To).
		Str("subject", email.Subject).
		Str("body", email.TextBody).
		Msg("email not delivered: no SMTP host configured")
	return fmt.Sprintf("log-%d", time.Now().UnixNano()), nil
}
