package mail

import (
	"context"
	"log/slog"

	"github.com/human-centric-engineering/sunrise/internal/domain"
)

// LogMailer is an implementation of domain.Mailer that writes the message to
// the application log instead of delivering it. It is the default for local
// development, where no relay is configured.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a new LogMailer.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger.With("component", "mailer")}
}

// Send logs the message and reports success.
func (m *LogMailer) Send(ctx context.Context, email domain.Email) error {
	m.logger.Info("email suppressed, mail mode is log",
		"to", email.To,
		"subject", email.Subject,
	)
	return nil
}
