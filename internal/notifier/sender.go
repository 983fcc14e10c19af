package notifier

import (
	"context"
	"fmt"

	"delivery-service/internal/domain"
	"delivery-service/internal/logger"
)

type Sender interface {
	Send(ctx context.Context, r domain.DeliveryReminder) error
}

// FormatReminder renders the customer facing reminder text.
func FormatReminder(r domain.DeliveryReminder) (subject, body string) {
	subject = fmt.Sprintf("Your order #%d arrives soon", r.OrderID)
	body = fmt.Sprintf(
		"Hello %s,\n\nyour order from %s will be delivered at %s.\nCourier: %s (%s).\n",
		r.CustomerName,
		r.RestaurantName,
		r.DeliveryTime.Format("15:04"),
		r.CourierName,
		r.VehicleType,
	)
	return subject, body
}

// LogSender writes reminders to the log instead of a mail gateway.
type LogSender struct {
	log *logger.Logger
}

func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log.WithComponent("log_sender")}
}

func (s *LogSender) Send(_ context.Context, r domain.DeliveryReminder) error {
	subject, body := FormatReminder(r)
	s.log.Info("delivery reminder", "to", r.Email, "subject", subject, "body", body)
	return nil
}
