package services

import (
	"context"
	"time"

	"delivery-service/internal/domain"
	"delivery-service/internal/events"
	"delivery-service/internal/logger"
	"delivery-service/internal/metrics"
	"delivery-service/internal/repository"
)

const (
	SweepStaleOrders = "stale_orders"
	SweepReminders   = "delivery_reminders"

	reasonStale = "stale"
)

type SweepConfig struct {
	StaleThreshold time.Duration
	ReminderLead   time.Duration
	ReminderWindow time.Duration
}

// SweepService holds the periodic maintenance jobs.
type SweepService struct {
	orders     *OrderService
	deliveries repository.DeliveryRepository
	events     *events.Dispatcher
	cfg        SweepConfig
	log        *logger.Logger
	now        func() time.Time
}

func NewSweepService(o *OrderService, d repository.DeliveryRepository, disp *events.Dispatcher, cfg SweepConfig, log *logger.Logger) *SweepService {
	return &SweepService{
		orders:     o,
		deliveries: d,
		events:     disp,
		cfg:        cfg,
		log:        log.WithComponent("sweeps"),
		now:        time.Now,
	}
}

// SweepStaleOrders cancels every open order older than the stale threshold.
func (s *SweepService) SweepStaleOrders(ctx context.Context) (int, error) {
	changes, err := s.orders.BulkTransition(ctx, domain.StatusCancelled, s.cfg.StaleThreshold, reasonStale)
	metrics.RecordSweep(SweepStaleOrders, len(changes), err)
	if err != nil {
		return 0, err
	}
	return len(changes), nil
}

// SendDeliveryReminders raises one reminder for every in-progress delivery
// due in [now+lead, now+lead+window). Deliveries whose customer has no email
// are skipped.
func (s *SweepService) SendDeliveryReminders(ctx context.Context) (sent int, err error) {
	defer func() { metrics.RecordSweep(SweepReminders, sent, err) }()

	from := s.now().Add(s.cfg.ReminderLead)
	due, err := s.deliveries.DueBetween(ctx, from, from.Add(s.cfg.ReminderWindow))
	if err != nil {
		return 0, err
	}

	for _, d := range due {
		reminder, ok := buildReminder(d)
		if !ok {
			s.log.Debug("skipping reminder without recipient", "delivery_id", d.ID)
			continue
		}
		if err := s.events.Dispatch(ctx, reminder); err != nil {
			s.log.Warn("delivery reminder handlers failed", "delivery_id", d.ID, "error", err)
			continue
		}
		sent++
	}
	if sent > 0 {
		s.log.Info("delivery reminders sent", "count", sent)
	}
	return sent, nil
}

func buildReminder(d domain.Delivery) (domain.DeliveryReminder, bool) {
	if d.Order == nil || d.Order.User == nil || d.Order.User.Email == "" || d.DeliveryTime == nil {
		return domain.DeliveryReminder{}, false
	}
	r := domain.DeliveryReminder{
		DeliveryID:   d.ID,
		OrderID:      d.OrderID,
		Email:        d.Order.User.Email,
		CustomerName: d.Order.User.FullName(),
		DeliveryTime: *d.DeliveryTime,
	}
	if d.Order.Restaurant != nil {
		r.RestaurantName = d.Order.Restaurant.Name
	}
	if d.Courier != nil {
		r.VehicleType = string(d.Courier.VehicleType)
		if d.Courier.User != nil {
			r.CourierName = d.Courier.User.FullName()
		}
	}
	return r, true
}
