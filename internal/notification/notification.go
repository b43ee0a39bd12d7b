package notification

import (
	"context"
	"log/slog"
)

const (
	// KindTransfer announces a received peer transfer.
	KindTransfer = "transfer"
	// KindAdminDeposit announces an administrative credit.
	KindAdminDeposit = "admin_deposit"
	// KindAdminDeduct announces an administrative debit.
	KindAdminDeduct = "admin_deduct"
	// KindCardPayment announces a completed card payment to the card owner.
	KindCardPayment = "card_payment"
	// KindOTP carries a freshly issued payment code to the card owner.
	KindOTP = "otp"
)

// Message describes a notification payload. Recipient is the account the
// downstream mailer should resolve to an address.
type Message struct {
	Kind      string
	Recipient string
	Body      string
}

// Notifier delivers notifications to downstream systems. Delivery is best
// effort; callers on the financial path must treat errors as non-fatal.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the structured logger. Used in dev
// mode and tests where no outbox is available.
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
	n.logger.Info("notification", "kind", message.Kind, "recipient", message.Recipient, "body", message.Body)
	return nil
}
