package workflow

import (
	"context"
	"log/slog"
)

// Notification kinds surfaced at the view boundary.
const (
	KindStatusUpdated     = "status_updated"
	KindPaymentRecorded   = "payment_recorded"
	KindApplicationScored = "application_scored"
	KindSubmissionFailed  = "submission_failed"
)

// Message describes a submission outcome for the user.
type Message struct {
	Kind string
	Body string
}

// Notifier delivers outcome messages to whatever renders them. Consoles
// implement it over their output stream.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the structured logger, for tests
// and headless runs.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification", "kind", message.Kind, "body", message.Body)
	return nil
}
