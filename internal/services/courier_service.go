package services

import (
	"context"
	"strings"
	"time"

	"delivery-service/internal/domain"
	"delivery-service/internal/logger"
	"delivery-service/internal/repository"
)

type DeliveryInput struct {
	OrderID      uint64
	CourierID    uint64
	DeliveryTime *time.Time
	Status       domain.DeliveryStatus
}

type CourierService struct {
	couriers   repository.CourierRepository
	deliveries repository.DeliveryRepository
	users      repository.UserRepository
	orders     repository.OrderRepository
	log        *logger.Logger
}

func NewCourierService(c repository.CourierRepository, d repository.DeliveryRepository, u repository.UserRepository, o repository.OrderRepository, log *logger.Logger) *CourierService {
	return &CourierService{
		couriers:   c,
		deliveries: d,
		users:      u,
		orders:     o,
		log:        log.WithComponent("courier_service"),
	}
}

func (s *CourierService) CreateCourier(ctx context.Context, userID uint64, vehicle domain.VehicleType) (*domain.Courier, error) {
	if !vehicle.Valid() {
		return nil, domain.NewValidationError("vehicleType", "unknown vehicle type "+string(vehicle))
	}
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	c := &domain.Courier{UserID: userID, VehicleType: vehicle}
	if err := s.couriers.Create(ctx, c); err != nil {
		return nil, err
	}
	c.User = u
	return c, nil
}

func (s *CourierService) GetCourier(ctx context.Context, id uint64) (*domain.Courier, error) {
	c, err := s.couriers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrCourierNotFound
	}
	return c, nil
}

func (s *CourierService) ListCouriers(ctx context.Context, page repository.Page) ([]domain.Courier, int64, error) {
	return s.couriers.List(ctx, repository.CourierFilter{Page: page})
}

// FilterCouriers parses a comma separated list of vehicle types and applies
// the name filters. Every listed vehicle type must be known.
func (s *CourierService) FilterCouriers(ctx context.Context, vehicles, firstNamePrefix, excludeLastName string, page repository.Page) ([]domain.Courier, int64, error) {
	f := repository.CourierFilter{
		FirstNameStartsWith:     strings.TrimSpace(firstNamePrefix),
		ExcludeLastNameContains: strings.TrimSpace(excludeLastName),
		Page:                    page,
	}
	for _, raw := range strings.Split(vehicles, ",") {
		v := domain.VehicleType(strings.TrimSpace(raw))
		if v == "" {
			continue
		}
		if !v.Valid() {
			return nil, 0, domain.NewValidationError("vehicle_type", "unknown vehicle type "+string(v))
		}
		f.VehicleTypes = append(f.VehicleTypes, v)
	}
	return s.couriers.List(ctx, f)
}

func (s *CourierService) CreateDelivery(ctx context.Context, in DeliveryInput) (*domain.Delivery, error) {
	if in.Status == "" {
		in.Status = domain.DeliveryInProgress
	}
	if !in.Status.Valid() {
		return nil, domain.NewValidationError("status", "unknown delivery status "+string(in.Status))
	}
	o, err := s.orders.FindByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrOrderNotFound
	}
	if _, err := s.GetCourier(ctx, in.CourierID); err != nil {
		return nil, err
	}

	d := &domain.Delivery{
		OrderID:      in.OrderID,
		CourierID:    in.CourierID,
		DeliveryTime: in.DeliveryTime,
		Status:       in.Status,
	}
	if err := s.deliveries.Create(ctx, d); err != nil {
		return nil, err
	}
	s.log.Info("delivery scheduled", "delivery_id", d.ID, "order_id", d.OrderID, "courier_id", d.CourierID)
	return d, nil
}

func (s *CourierService) GetDelivery(ctx context.Context, id uint64) (*domain.Delivery, error) {
	d, err := s.deliveries.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, domain.ErrDeliveryNotFound
	}
	return d, nil
}

// UpdateDelivery reassigns the courier, reschedules or changes the status.
// Zero fields in the input are left unchanged.
func (s *CourierService) UpdateDelivery(ctx context.Context, id uint64, in DeliveryInput) (*domain.Delivery, error) {
	d, err := s.GetDelivery(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Status != "" {
		if !in.Status.Valid() {
			return nil, domain.NewValidationError("status", "unknown delivery status "+string(in.Status))
		}
		d.Status = in.Status
	}
	if in.CourierID != 0 && in.CourierID != d.CourierID {
		if _, err := s.GetCourier(ctx, in.CourierID); err != nil {
			return nil, err
		}
		d.CourierID = in.CourierID
	}
	if in.DeliveryTime != nil {
		d.DeliveryTime = in.DeliveryTime
	}
	if err := s.deliveries.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// ListDeliveries lists every delivery, or only those in status when it is set.
func (s *CourierService) ListDeliveries(ctx context.Context, status domain.DeliveryStatus, page repository.Page) ([]domain.Delivery, int64, error) {
	if status != "" && !status.Valid() {
		return nil, 0, domain.NewValidationError("delivery_status", "unknown delivery status "+string(status))
	}
	return s.deliveries.List(ctx, repository.DeliveryFilter{Status: status, Page: page})
}

// ChangeUndeliveredStatus moves every delivery that has not been delivered
// yet to status and returns the changed deliveries.
func (s *CourierService) ChangeUndeliveredStatus(ctx context.Context, status domain.DeliveryStatus) ([]domain.Delivery, error) {
	if !status.Valid() {
		return nil, domain.NewValidationError("delivery_status", "delivery status must be in_progress or delivered")
	}
	changed, err := s.deliveries.SetStatusOfUndelivered(ctx, status)
	if err != nil {
		return nil, err
	}
	s.log.Info("undelivered deliveries updated", "status", status, "count", len(changed))
	return changed, nil
}
