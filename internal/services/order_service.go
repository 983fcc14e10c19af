package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"delivery-service/internal/domain"
	"delivery-service/internal/events"
	"delivery-service/internal/logger"
	"delivery-service/internal/metrics"
	"delivery-service/internal/repository"
)

type ItemInput struct {
	MenuItemID uint64
	Quantity   int
}

type OrderService struct {
	orders      repository.OrderRepository
	menu        repository.MenuRepository
	restaurants repository.RestaurantRepository
	events      *events.Dispatcher
	log         *logger.Logger
	now         func() time.Time
}

func NewOrderService(o repository.OrderRepository, m repository.MenuRepository, r repository.RestaurantRepository, d *events.Dispatcher, log *logger.Logger) *OrderService {
	s := &OrderService{
		orders:      o,
		menu:        m,
		restaurants: r,
		events:      d,
		log:         log.WithComponent("order_service"),
		now:         time.Now,
	}
	d.Subscribe(domain.EventMenuItemPriceChanged, s.handleMenuItemPriceChanged)
	return s
}

// CreateOrder opens a new order with zero total and then adds each requested
// line item, recomputing the total after every addition. The order and its
// items are written in one transaction; a failing item leaves nothing behind.
func (s *OrderService) CreateOrder(ctx context.Context, actor domain.Actor, restaurantID uint64, items []ItemInput) (order *domain.Order, err error) {
	defer func() { metrics.RecordOrderOperation("create", err == nil) }()

	rest, err := s.restaurants.FindByID(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if rest == nil {
		return nil, domain.ErrRestaurantNotFound
	}
	for _, in := range items {
		if _, err := s.checkMenuItem(ctx, restaurantID, in); err != nil {
			return nil, err
		}
	}

	order = &domain.Order{
		UserID:       actor.UserID,
		RestaurantID: restaurantID,
		Status:       domain.StatusNew,
	}
	err = s.orders.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.orders.Create(ctx, order); err != nil {
			return err
		}
		for _, in := range items {
			updated, err := s.orders.AddItem(ctx, &domain.OrderItem{OrderID: order.ID, MenuItemID: in.MenuItemID, Quantity: in.Quantity})
			if err != nil {
				return fmt.Errorf("add menu item %d: %w", in.MenuItemID, err)
			}
			order = updated
		}
		return nil
	})
	if err != nil {
		s.log.Error("order create rolled back", "restaurant_id", restaurantID, "error", err)
		return nil, err
	}

	s.log.Info("order created", "order_id", order.ID, "user_id", order.UserID, "total", order.TotalPrice.StringFixed(2))
	if err := s.events.Dispatch(ctx, domain.OrderCreatedEvent{
		OrderID:      order.ID,
		UserID:       order.UserID,
		RestaurantID: order.RestaurantID,
		CreatedAt:    order.CreatedAt,
	}); err != nil {
		s.log.Warn("order.created handlers failed", "order_id", order.ID, "error", err)
	}
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, actor domain.Actor, id uint64) (*domain.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrOrderNotFound
	}
	if !canView(actor, o) {
		return nil, domain.ErrForbidden
	}
	return o, nil
}

// ListOrders restricts clients to their own orders regardless of the filter.
func (s *OrderService) ListOrders(ctx context.Context, actor domain.Actor, f repository.OrderFilter) ([]domain.Order, int64, error) {
	if !actor.IsStaff() {
		f.UserID = actor.UserID
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, domain.NewValidationError("status", "unknown order status "+string(f.Status))
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return nil, 0, domain.NewValidationError("min_price", "min_price must not exceed max_price")
	}
	return s.orders.List(ctx, f)
}

func (s *OrderService) DeleteOrder(ctx context.Context, actor domain.Actor, id uint64) error {
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	return s.orders.Delete(ctx, id)
}

func (s *OrderService) AddItem(ctx context.Context, actor domain.Actor, orderID uint64, in ItemInput) (order *domain.Order, err error) {
	defer func() { metrics.RecordOrderOperation("add_item", err == nil) }()

	if err := domain.ValidateQuantity(in.Quantity); err != nil {
		return nil, err
	}
	o, err := s.editableOrder(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	if _, err := s.checkMenuItem(ctx, o.RestaurantID, in); err != nil {
		return nil, err
	}
	return s.orders.AddItem(ctx, &domain.OrderItem{OrderID: o.ID, MenuItemID: in.MenuItemID, Quantity: in.Quantity})
}

func (s *OrderService) UpdateItemQuantity(ctx context.Context, actor domain.Actor, itemID uint64, quantity int) (order *domain.Order, err error) {
	defer func() { metrics.RecordOrderOperation("update_item", err == nil) }()

	if err := domain.ValidateQuantity(quantity); err != nil {
		return nil, err
	}
	item, err := s.findItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if _, err := s.editableOrder(ctx, actor, item.OrderID); err != nil {
		return nil, err
	}
	return s.orders.UpdateItemQuantity(ctx, itemID, quantity)
}

func (s *OrderService) RemoveItem(ctx context.Context, actor domain.Actor, itemID uint64) (order *domain.Order, err error) {
	defer func() { metrics.RecordOrderOperation("remove_item", err == nil) }()

	item, err := s.findItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if _, err := s.editableOrder(ctx, actor, item.OrderID); err != nil {
		return nil, err
	}
	return s.orders.RemoveItem(ctx, itemID)
}

// ChangeStatus moves an order along the lifecycle. Clients may only cancel
// their own orders while they are still new.
func (s *OrderService) ChangeStatus(ctx context.Context, actor domain.Actor, orderID uint64, to domain.OrderStatus) (order *domain.Order, err error) {
	defer func() { metrics.RecordOrderOperation("change_status", err == nil) }()

	o, err := s.GetOrder(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() && !(o.Status == domain.StatusNew && to == domain.StatusCancelled) {
		return nil, domain.ErrForbidden
	}
	if err := domain.Transition(o.Status, to); err != nil {
		return nil, err
	}

	actorID := actor.UserID
	err = s.orders.UpdateStatus(ctx, repository.StatusUpdate{
		OrderID: o.ID,
		From:    o.Status,
		To:      to,
		ActorID: &actorID,
		Reason:  "manual",
	})
	if err != nil {
		return nil, err
	}

	from := o.Status
	o.Status = to
	s.dispatchStatusChange(ctx, o.ID, from, to, "manual")
	return o, nil
}

func (s *OrderService) History(ctx context.Context, actor domain.Actor, orderID uint64) ([]domain.OrderStatusChange, error) {
	if _, err := s.GetOrder(ctx, actor, orderID); err != nil {
		return nil, err
	}
	return s.orders.StatusHistory(ctx, orderID)
}

// AttentionOrders lists orders being prepared plus open orders older than age.
func (s *OrderService) AttentionOrders(ctx context.Context, age time.Duration) ([]domain.Order, error) {
	return s.orders.FindAttention(ctx, s.now().Add(-age))
}

// BulkTransition moves every open order older than age to the target status.
// Only targets reachable from all open statuses are accepted.
func (s *OrderService) BulkTransition(ctx context.Context, to domain.OrderStatus, age time.Duration, reason string) ([]domain.OrderStatusChange, error) {
	if !to.Valid() {
		return nil, domain.NewValidationError("status", "unknown order status "+string(to))
	}
	if !domain.ReachableFromAllOpen(to) {
		return nil, fmt.Errorf("bulk move to %s: %w", to, domain.ErrInvalidTransition)
	}
	if age <= 0 {
		return nil, domain.NewValidationError("age", "age must be positive")
	}

	changes, err := s.orders.BulkTransition(ctx, repository.StaleFilter{
		Before:   s.now().Add(-age),
		Statuses: domain.NonTerminalStatuses(),
	}, to, reason)
	if err != nil {
		return nil, err
	}
	for _, c := range changes {
		s.dispatchStatusChange(ctx, c.OrderID, c.From, c.To, reason)
	}
	if len(changes) > 0 {
		s.log.Info("bulk status transition", "to", to, "orders", len(changes), "reason", reason)
	}
	return changes, nil
}

func (s *OrderService) handleMenuItemPriceChanged(ctx context.Context, evt domain.Event) error {
	changed, ok := evt.(domain.MenuItemPriceChanged)
	if !ok {
		return fmt.Errorf("unexpected event %T", evt)
	}
	ids, err := s.orders.OpenOrderIDsByMenuItem(ctx, changed.MenuItemID)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	if err := s.orders.RecomputeTotals(ctx, ids); err != nil {
		return err
	}
	s.log.Info("orders repriced", "menu_item_id", changed.MenuItemID, "orders", len(ids),
		"old_price", changed.OldPrice.StringFixed(2), "new_price", changed.NewPrice.StringFixed(2))
	return nil
}

func (s *OrderService) dispatchStatusChange(ctx context.Context, orderID uint64, from, to domain.OrderStatus, reason string) {
	err := s.events.Dispatch(ctx, domain.OrderStatusChangedEvent{
		OrderID:   orderID,
		From:      from,
		To:        to,
		Reason:    reason,
		ChangedAt: s.now(),
	})
	if err != nil {
		s.log.Warn("order.status_changed handlers failed", "order_id", orderID, "error", err)
	}
}

func (s *OrderService) editableOrder(ctx context.Context, actor domain.Actor, orderID uint64) (*domain.Order, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrOrderNotFound
	}
	if o.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if o.Status.Terminal() {
		return nil, domain.ErrOrderClosed
	}
	return o, nil
}

func (s *OrderService) findItem(ctx context.Context, itemID uint64) (*domain.OrderItem, error) {
	item, err := s.orders.FindItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrOrderItemNotFound
	}
	return item, nil
}

func (s *OrderService) checkMenuItem(ctx context.Context, restaurantID uint64, in ItemInput) (*domain.MenuItem, error) {
	if err := domain.ValidateQuantity(in.Quantity); err != nil {
		return nil, err
	}
	m, err := s.menu.FindByID(ctx, in.MenuItemID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("menu item %d: %w", in.MenuItemID, domain.ErrMenuItemNotFound)
	}
	if m.RestaurantID != restaurantID {
		return nil, domain.NewValidationError("menuItemId", fmt.Sprintf("menu item %d belongs to another restaurant", m.ID))
	}
	if !m.IsAvailable {
		return nil, domain.NewValidationError("menuItemId", fmt.Sprintf("menu item %d is not available", m.ID))
	}
	return m, nil
}

func canView(actor domain.Actor, o *domain.Order) bool {
	return actor.IsStaff() || o.UserID == actor.UserID
}

// IsNotFound reports whether err is one of the not-found sentinels.
func IsNotFound(err error) bool {
	for _, target := range []error{
		domain.ErrOrderNotFound, domain.ErrOrderItemNotFound, domain.ErrMenuItemNotFound,
		domain.ErrRestaurantNotFound, domain.ErrCuisineNotFound, domain.ErrCourierNotFound,
		domain.ErrDeliveryNotFound, domain.ErrUserNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
