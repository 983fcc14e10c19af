package mysql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"delivery-service/internal/domain"
	"delivery-service/internal/logger"
	"delivery-service/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var orderColumns = map[string]string{
	"order_date":  "orders.created_at",
	"total_price": "orders.total_price",
}

type orderRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOrderRepository(db *gorm.DB, log *logger.Logger) repository.OrderRepository {
	return &orderRepo{db: db, log: log.WithComponent("order_repository")}
}

func (r *orderRepo) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withinTx(ctx, r.db, fn)
}

func (r *orderRepo) Create(ctx context.Context, order *domain.Order) error {
	result := conn(ctx, r.db).Omit(clause.Associations).Create(order)
	if result.Error != nil {
		r.log.Error("order save failed", "error", result.Error)
		return translateError(result.Error)
	}
	if order.ID == 0 {
		return errors.New("failed to assign order ID")
	}
	return nil
}

func (r *orderRepo) FindByID(ctx context.Context, id uint64) (*domain.Order, error) {
	var o domain.Order
	err := conn(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id") }).
		Preload("Items.MenuItem").
		First(&o, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) List(ctx context.Context, f repository.OrderFilter) ([]domain.Order, int64, error) {
	q := conn(ctx, r.db).Model(&domain.Order{})
	if f.RestaurantName != "" {
		q = q.Joins("JOIN restaurants ON restaurants.id = orders.restaurant_id").
			Where("restaurants.name LIKE ?", "%"+f.RestaurantName+"%")
	}
	if f.UserID != 0 {
		q = q.Where("orders.user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("orders.status = ?", f.Status)
	}
	if f.MinPrice != nil {
		q = q.Where("orders.total_price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("orders.total_price <= ?", *f.MaxPrice)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []domain.Order
	err := q.Order(orderClause(f.Ordering)).
		Offset(f.Page.Offset()).Limit(f.Page.Size).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id") }).
		Preload("Items.MenuItem").
		Find(&out).Error
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func orderClause(ordering string) string {
	dir := "ASC"
	if strings.HasPrefix(ordering, "-") {
		dir = "DESC"
		ordering = ordering[1:]
	}
	col, ok := orderColumns[ordering]
	if !ok {
		col = orderColumns["order_date"]
	}
	return col + " " + dir + ", orders.id " + dir
}

func (r *orderRepo) Delete(ctx context.Context, id uint64) error {
	res := conn(ctx, r.db).Delete(&domain.Order{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *orderRepo) FindAttention(ctx context.Context, olderThan time.Time) ([]domain.Order, error) {
	var out []domain.Order
	err := conn(ctx, r.db).
		Where("status = ? OR (created_at < ? AND status IN ?)", domain.StatusPreparing, olderThan, domain.NonTerminalStatuses()).
		Order("created_at").
		Find(&out).Error
	return out, err
}

func (r *orderRepo) UpdateStatus(ctx context.Context, u repository.StatusUpdate) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Order{}).
			Where("id = ? AND status = ?", u.OrderID, u.From).
			Update("status", u.To)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrConcurrentUpdate
		}
		return tx.Create(&domain.OrderStatusChange{
			OrderID: u.OrderID,
			From:    u.From,
			To:      u.To,
			ActorID: u.ActorID,
			Reason:  u.Reason,
		}).Error
	})
}

func (r *orderRepo) BulkTransition(ctx context.Context, f repository.StaleFilter, to domain.OrderStatus, reason string) ([]domain.OrderStatusChange, error) {
	var changes []domain.OrderStatusChange
	err := conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		var stale []domain.Order
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "status").
			Where("created_at < ? AND status IN ?", f.Before, f.Statuses).
			Find(&stale).Error
		if err != nil {
			return err
		}
		if len(stale) == 0 {
			return nil
		}

		ids := make([]uint64, 0, len(stale))
		changes = make([]domain.OrderStatusChange, 0, len(stale))
		for _, o := range stale {
			ids = append(ids, o.ID)
			changes = append(changes, domain.OrderStatusChange{OrderID: o.ID, From: o.Status, To: to, Reason: reason})
		}

		if err := tx.Model(&domain.Order{}).Where("id IN ?", ids).Update("status", to).Error; err != nil {
			return err
		}
		return tx.CreateInBatches(&changes, 100).Error
	})
	if err != nil {
		r.log.Error("bulk transition failed", "to", to, "error", err)
		return nil, err
	}
	return changes, nil
}

func (r *orderRepo) StatusHistory(ctx context.Context, orderID uint64) ([]domain.OrderStatusChange, error) {
	var out []domain.OrderStatusChange
	err := conn(ctx, r.db).Where("order_id = ?", orderID).Order("id").Find(&out).Error
	return out, err
}

func (r *orderRepo) FindItem(ctx context.Context, itemID uint64) (*domain.OrderItem, error) {
	var item domain.OrderItem
	if err := conn(ctx, r.db).First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *orderRepo) AddItem(ctx context.Context, item *domain.OrderItem) (*domain.Order, error) {
	return r.mutateItems(ctx, item.OrderID, func(tx *gorm.DB, _ *domain.Order) error {
		return translateError(tx.Omit(clause.Associations).Create(item).Error)
	})
}

func (r *orderRepo) UpdateItemQuantity(ctx context.Context, itemID uint64, quantity int) (*domain.Order, error) {
	item, err := r.FindItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrOrderItemNotFound
	}
	return r.mutateItems(ctx, item.OrderID, func(tx *gorm.DB, order *domain.Order) error {
		var current domain.OrderItem
		err := tx.Where("id = ? AND order_id = ?", itemID, order.ID).First(&current).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrOrderItemNotFound
		}
		if err != nil {
			return err
		}
		return tx.Model(&current).Update("quantity", quantity).Error
	})
}

func (r *orderRepo) RemoveItem(ctx context.Context, itemID uint64) (*domain.Order, error) {
	item, err := r.FindItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrOrderItemNotFound
	}
	return r.mutateItems(ctx, item.OrderID, func(tx *gorm.DB, order *domain.Order) error {
		res := tx.Where("id = ? AND order_id = ?", itemID, order.ID).Delete(&domain.OrderItem{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrOrderItemNotFound
		}
		return nil
	})
}

// RecomputeTotals re-sums each order under its row lock. Orders that reached
// a terminal status in the meantime are left untouched.
func (r *orderRepo) RecomputeTotals(ctx context.Context, orderIDs []uint64) error {
	for _, id := range orderIDs {
		err := conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
			order, err := lockOrder(tx, id)
			if err != nil {
				return err
			}
			if order.Status.Terminal() {
				return nil
			}
			return recompute(tx, order)
		})
		if errors.Is(err, domain.ErrOrderNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("recompute order %d: %w", id, err)
		}
	}
	return nil
}

func (r *orderRepo) OpenOrderIDsByMenuItem(ctx context.Context, menuItemID uint64) ([]uint64, error) {
	var ids []uint64
	err := conn(ctx, r.db).Model(&domain.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_items.menu_item_id = ? AND orders.status IN ?", menuItemID, domain.NonTerminalStatuses()).
		Distinct().
		Pluck("order_items.order_id", &ids).Error
	return ids, err
}

// mutateItems runs fn and the total recomputation in one transaction holding
// the order row lock, so concurrent line-item edits serialise per order.
func (r *orderRepo) mutateItems(ctx context.Context, orderID uint64, fn func(tx *gorm.DB, order *domain.Order) error) (*domain.Order, error) {
	var out *domain.Order
	err := conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if order.Status.Terminal() {
			return domain.ErrOrderClosed
		}
		if err := fn(tx, order); err != nil {
			return err
		}
		if err := recompute(tx, order); err != nil {
			return err
		}
		out = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func lockOrder(tx *gorm.DB, id uint64) (*domain.Order, error) {
	var order domain.Order
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func recompute(tx *gorm.DB, order *domain.Order) error {
	var items []domain.OrderItem
	if err := tx.Preload("MenuItem").Where("order_id = ?", order.ID).Order("id").Find(&items).Error; err != nil {
		return err
	}
	total, err := domain.RecomputeTotal(items)
	if err != nil {
		return err
	}
	if err := tx.Model(&domain.Order{}).Where("id = ?", order.ID).Update("total_price", total).Error; err != nil {
		return err
	}
	order.Items = items
	order.TotalPrice = total
	return nil
}
