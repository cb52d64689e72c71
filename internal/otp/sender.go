package otp

import (
	"context"

	"github.com/sehatindo/booking-platform/pkg/logging"
)

// LogSender writes codes to the log instead of sending SMS. Used in
// development and test environments where no SMS gateway is configured.
type LogSender struct {
	logger *logging.Logger
}

// NewLogSender creates a log-only SMS sender.
func NewLogSender(logger *logging.Logger) *LogSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogSender{logger: logger}
}

// SendSMS logs the message body.
func (s *LogSender) SendSMS(ctx context.Context, to, body string) error {
	s.logger.Info("sms (log sender)", "to", to, "body", body)
	return nil
}
