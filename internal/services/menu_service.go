package services

import (
	"context"
	"time"

	"delivery-service/internal/domain"
	"delivery-service/internal/events"
	"delivery-service/internal/logger"
	"delivery-service/internal/repository"

	"github.com/shopspring/decimal"
)

// MenuCache holds per-restaurant menus. Fetch returns the cached menu or
// fills it from load.
type MenuCache interface {
	Fetch(ctx context.Context, restaurantID uint64, load func(context.Context) ([]domain.MenuItem, error)) ([]domain.MenuItem, error)
	Invalidate(ctx context.Context, restaurantID uint64) error
}

type MenuItemInput struct {
	RestaurantID uint64
	Name         string
	Description  string
	Price        decimal.Decimal
	IsAvailable  bool
}

type MenuService struct {
	menu        repository.MenuRepository
	restaurants repository.RestaurantRepository
	orders      repository.OrderRepository
	cache       MenuCache
	events      *events.Dispatcher
	log         *logger.Logger
	now         func() time.Time
}

func NewMenuService(m repository.MenuRepository, r repository.RestaurantRepository, o repository.OrderRepository, cache MenuCache, d *events.Dispatcher, log *logger.Logger) *MenuService {
	return &MenuService{
		menu:        m,
		restaurants: r,
		orders:      o,
		cache:       cache,
		events:      d,
		log:         log.WithComponent("menu_service"),
		now:         time.Now,
	}
}

func (s *MenuService) Create(ctx context.Context, in MenuItemInput) (*domain.MenuItem, error) {
	item := &domain.MenuItem{
		RestaurantID: in.RestaurantID,
		Name:         in.Name,
		Description:  in.Description,
		Price:        in.Price.Round(2),
		IsAvailable:  in.IsAvailable,
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	rest, err := s.restaurants.FindByID(ctx, in.RestaurantID)
	if err != nil {
		return nil, err
	}
	if rest == nil {
		return nil, domain.ErrRestaurantNotFound
	}
	if err := s.menu.Create(ctx, item); err != nil {
		return nil, err
	}
	s.invalidate(ctx, item.RestaurantID)
	return item, nil
}

func (s *MenuService) Get(ctx context.Context, id uint64) (*domain.MenuItem, error) {
	item, err := s.menu.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrMenuItemNotFound
	}
	return item, nil
}

func (s *MenuService) ListByRestaurant(ctx context.Context, restaurantID uint64) ([]domain.MenuItem, error) {
	load := func(ctx context.Context) ([]domain.MenuItem, error) {
		return s.menu.ListByRestaurant(ctx, restaurantID)
	}
	if s.cache == nil {
		return load(ctx)
	}
	return s.cache.Fetch(ctx, restaurantID, load)
}

// Update overwrites the editable fields of a menu item. On a price change the
// open orders containing the item are re-summed in the same transaction, so
// the new price and the totals commit together.
func (s *MenuService) Update(ctx context.Context, id uint64, in MenuItemInput) (*domain.MenuItem, error) {
	var (
		item    *domain.MenuItem
		changed *domain.MenuItemPriceChanged
	)
	err := s.orders.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		item, err = s.menu.FindForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrMenuItemNotFound
		}
		oldPrice := item.Price

		item.Name = in.Name
		item.Description = in.Description
		item.Price = in.Price.Round(2)
		item.IsAvailable = in.IsAvailable
		if err := item.Validate(); err != nil {
			return err
		}
		if err := s.menu.Update(ctx, item); err != nil {
			return err
		}
		if oldPrice.Equal(item.Price) {
			return nil
		}
		changed = &domain.MenuItemPriceChanged{
			MenuItemID: item.ID,
			OldPrice:   oldPrice,
			NewPrice:   item.Price,
			ChangedAt:  s.now(),
		}
		return s.events.Handle(ctx, *changed)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, item.RestaurantID)
	if changed != nil {
		s.events.Publish(ctx, *changed)
	}
	return item, nil
}

// Delete removes the item together with its line items and re-sums the open
// orders that contained it. The item row stays locked from the lookup of the
// affected orders until the totals are written.
func (s *MenuService) Delete(ctx context.Context, id uint64) error {
	var (
		restaurantID uint64
		affected     []uint64
	)
	err := s.orders.WithinTx(ctx, func(ctx context.Context) error {
		item, err := s.menu.FindForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrMenuItemNotFound
		}
		restaurantID = item.RestaurantID

		affected, err = s.orders.OpenOrderIDsByMenuItem(ctx, id)
		if err != nil {
			return err
		}
		if err := s.menu.Delete(ctx, id); err != nil {
			return err
		}
		if len(affected) == 0 {
			return nil
		}
		return s.orders.RecomputeTotals(ctx, affected)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, restaurantID)
	if len(affected) > 0 {
		s.log.Info("menu item removed from open orders", "menu_item_id", id, "orders", len(affected))
	}
	return nil
}

func (s *MenuService) invalidate(ctx context.Context, restaurantID uint64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, restaurantID); err != nil {
		s.log.Warn("menu cache invalidation failed", "restaurant_id", restaurantID, "error", err)
	}
}
