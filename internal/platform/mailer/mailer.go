// Package mailer defines how the service sends email. Only a logging
// implementation is provided; delivery is left to a real transport behind the
// Mailer interface.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/natours-api/internal/platform/logger"
)

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Text    string
}

// Mailer sends email messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// PasswordReset builds the message carrying a password reset link.
func PasswordReset(to, resetURL string) Message {
	return Message{
		To:      to,
		Subject: "Your password reset token (valid for 10 min)",
		Text: fmt.Sprintf(
			"Forgot your password? Submit a PATCH request with your new password and "+
				"passwordConfirm to: %s.\nIf you didn't forget your password, please ignore this email!",
			resetURL,
		),
	}
}

// Welcome builds the message sent after signup.
func Welcome(to, name, url string) Message {
	first := strings.Fields(name)
	greeting := "there"
	if len(first) > 0 {
		greeting = first[0]
	}
	return Message{
		To:      to,
		Subject: "Welcome to the Natours Family!",
		Text:    fmt.Sprintf("Hi %s,\nWelcome to Natours! Upload your user photo at %s.", greeting, url),
	}
}

// LogMailer writes messages to the log instead of delivering them.
type LogMailer struct {
	logger *slog.Logger
}

var _ Mailer = (*LogMailer)(nil)

// NewLogMailer creates a LogMailer. Messages are logged with the request
// logger when the context carries one, otherwise with logger.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

// Send implements Mailer.
func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("mailer: message %q has no recipient", msg.Subject)
	}
	log := logger.FromContextOrDefault(ctx, m.logger)
	log.InfoContext(ctx, "email not delivered: logging mailer",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.Int("text_length", len(msg.Text)))
	log.DebugContext(ctx, "email body", slog.String("text", msg.Text))
	return nil
}
