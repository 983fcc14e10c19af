package mysql

import (
	"context"
	"errors"
	"time"

	"delivery-service/internal/domain"
	"delivery-service/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type courierRepo struct {
	db *gorm.DB
}

func NewCourierRepository(db *gorm.DB) repository.CourierRepository {
	return &courierRepo{db: db}
}

func (r *courierRepo) Create(ctx context.Context, c *domain.Courier) error {
	return translateError(conn(ctx, r.db).Omit(clause.Associations).Create(c).Error)
}

func (r *courierRepo) FindByID(ctx context.Context, id uint64) (*domain.Courier, error) {
	var c domain.Courier
	if err := conn(ctx, r.db).Preload("User").First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *courierRepo) List(ctx context.Context, f repository.CourierFilter) ([]domain.Courier, int64, error) {
	q := conn(ctx, r.db).Model(&domain.Courier{}).
		Joins("JOIN users ON users.id = couriers.user_id")
	if len(f.VehicleTypes) > 0 {
		q = q.Where("couriers.vehicle_type IN ?", f.VehicleTypes)
	}
	if f.FirstNameStartsWith != "" {
		q = q.Where("users.first_name LIKE ?", f.FirstNameStartsWith+"%")
	}
	if f.ExcludeLastNameContains != "" {
		q = q.Where("users.last_name NOT LIKE ?", "%"+f.ExcludeLastNameContains+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []domain.Courier
	err := q.Preload("User").Order("couriers.id").
		Offset(f.Page.Offset()).Limit(f.Page.Size).
		Find(&out).Error
	return out, total, err
}

type deliveryRepo struct {
	db *gorm.DB
}

func NewDeliveryRepository(db *gorm.DB) repository.DeliveryRepository {
	return &deliveryRepo{db: db}
}

func (r *deliveryRepo) Create(ctx context.Context, d *domain.Delivery) error {
	return translateError(conn(ctx, r.db).Omit(clause.Associations).Create(d).Error)
}

func (r *deliveryRepo) Update(ctx context.Context, d *domain.Delivery) error {
	res := conn(ctx, r.db).Model(d).Select("courier_id", "delivery_time", "status").Updates(d)
	return translateError(res.Error)
}

func (r *deliveryRepo) FindByID(ctx context.Context, id uint64) (*domain.Delivery, error) {
	var d domain.Delivery
	if err := conn(ctx, r.db).First(&d, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (r *deliveryRepo) List(ctx context.Context, f repository.DeliveryFilter) ([]domain.Delivery, int64, error) {
	q := conn(ctx, r.db).Model(&domain.Delivery{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []domain.Delivery
	err := q.Order("id DESC").Offset(f.Page.Offset()).Limit(f.Page.Size).Find(&out).Error
	return out, total, err
}

func (r *deliveryRepo) SetStatusOfUndelivered(ctx context.Context, status domain.DeliveryStatus) ([]domain.Delivery, error) {
	var changed []domain.Delivery
	err := withinTx(ctx, r.db, func(ctx context.Context) error {
		tx := conn(ctx, r.db)
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("status <> ?", domain.DeliveryDelivered).
			Order("id").
			Find(&changed).Error
		if err != nil || len(changed) == 0 {
			return err
		}
		ids := make([]uint64, 0, len(changed))
		for i := range changed {
			ids = append(ids, changed[i].ID)
			changed[i].Status = status
		}
		return tx.Model(&domain.Delivery{}).Where("id IN ?", ids).Update("status", status).Error
	})
	if err != nil {
		return nil, err
	}
	return changed, nil
}

func (r *deliveryRepo) DueBetween(ctx context.Context, from, to time.Time) ([]domain.Delivery, error) {
	var out []domain.Delivery
	err := conn(ctx, r.db).
		Preload("Order.User").
		Preload("Order.Restaurant").
		Preload("Courier.User").
		Where("delivery_time >= ? AND delivery_time < ? AND status = ?", from, to, domain.DeliveryInProgress).
		Order("delivery_time").
		Find(&out).Error
	return out, err
}
