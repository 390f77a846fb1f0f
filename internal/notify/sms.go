package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// SMS is a single outbound text message.
type SMS struct {
	To   string `json:"to"`
	From string `json:"from"`
	Body string `json:"body"`
}

// Sender delivers an SMS through a gateway.
type Sender interface {
	Send(ctx context.Context, message SMS) error
}

// LogSender writes messages to the log instead of a gateway. Used in
// development and until a provider account is wired up.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender constructs a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the message.
func (s *LogSender) Send(ctx context.Context, message SMS) error {
	s.logger.Info("send sms",
		slog.String("to", message.To),
		slog.String("from", message.From),
		slog.String("body", message.Body),
	)
	return nil
}

// DeliveredBody builds the pickup notification text for a repaired
// device.
func DeliveredBody(customerName, brand, model string) string {
	device := strings.TrimSpace(strings.TrimSpace(brand) + " " + strings.TrimSpace(model))
	if device == "" {
		device = "device"
	}
	return fmt.Sprintf("Hello %s, your %s has been repaired and is ready for pickup. Thank you.", customerName, device)
}
