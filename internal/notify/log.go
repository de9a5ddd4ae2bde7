package notify

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// LogTransport writes messages to the log instead of delivering them. Used when
// email.provider is "log" for local development.
type LogTransport struct {
	logger *slog.Logger
}

// NewLogTransport creates a LogTransport
func NewLogTransport(logger *slog.Logger) *LogTransport {
	return &LogTransport{logger: logger}
}

// Send implements Transport
func (t *LogTransport) Send(_ context.Context, msg *Message) (string, error) {
	id := uuid.NewString()
	attrs := []any{
		slog.String("message_id", id),
		slog.String("from", msg.From),
		slog.Any("to", msg.To),
		slog.String("subject", msg.Subject),
	}
	for _, a := range msg.Attachments {
		attrs = append(attrs, slog.Group("attachment",
			slog.String("filename", a.Filename),
			slog.Int("bytes", len(a.Content)),
		))
	}
	t.logger.Info("Email not delivered, log transport in use", attrs...)
	return id, nil
}
