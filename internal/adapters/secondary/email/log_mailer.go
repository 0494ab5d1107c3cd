package email

import (
	"context"
	"log/slog"

	"github.com/lorrc/helpdesk-backend/internal/core/ports"
)

// LogMailer is a secondary adapter that logs email instead of sending it.
// Used in development and wherever SMTP is not configured.
type LogMailer struct {
	logger *slog.Logger
}

var _ ports.Mailer = (*LogMailer)(nil)

// NewLogMailer creates a new log-only mailer.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger.With("component", "log_mailer")}
}

// Send logs the message to the console instead of delivering it.
func (m *LogMailer) Send(ctx context.Context, msg ports.EmailMessage) error {
	m.logger.InfoContext(ctx, "mock email sent",
		"to", msg.To,
		"subject", msg.Subject,
	)
	return nil
}
