package notification

import (
	"context"
	"log/slog"
)

const (
	KindAccountConfirmation = "account_confirmation"
	KindAccountConfirmed    = "account_confirmed"
	KindPasswordReset       = "password_reset"
	KindPasswordChanged     = "password_changed"
	KindRoleChanged         = "role_changed"
	KindAccountDeleted      = "account_deleted"
)

// Message describes an outbound email.
type Message struct {
	Kind    string   `json:"kind"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the logger instead of delivering
// them. Bodies carry one-time links, so only metadata is logged.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message metadata to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification",
		slog.String("kind", message.Kind),
		slog.Int("recipients", len(message.To)),
		slog.String("subject", message.Subject),
	)
	return nil
}
