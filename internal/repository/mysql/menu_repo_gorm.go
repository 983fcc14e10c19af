package mysql

import (
	"context"
	"errors"

	"delivery-service/internal/domain"
	"delivery-service/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type menuRepo struct {
	db *gorm.DB
}

func NewMenuRepository(db *gorm.DB) repository.MenuRepository {
	return &menuRepo{db: db}
}

func (r *menuRepo) Create(ctx context.Context, item *domain.MenuItem) error {
	return translateError(conn(ctx, r.db).Omit(clause.Associations).Create(item).Error)
}

func (r *menuRepo) Update(ctx context.Context, item *domain.MenuItem) error {
	res := conn(ctx, r.db).Model(item).
		Select("name", "description", "price", "is_available").
		Updates(item)
	return translateError(res.Error)
}

func (r *menuRepo) Delete(ctx context.Context, id uint64) error {
	res := conn(ctx, r.db).Delete(&domain.MenuItem{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrMenuItemNotFound
	}
	return nil
}

func (r *menuRepo) FindByID(ctx context.Context, id uint64) (*domain.MenuItem, error) {
	var m domain.MenuItem
	if err := conn(ctx, r.db).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *menuRepo) FindForUpdate(ctx context.Context, id uint64) (*domain.MenuItem, error) {
	var m domain.MenuItem
	err := conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).First(&m, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *menuRepo) ListByRestaurant(ctx context.Context, restaurantID uint64) ([]domain.MenuItem, error) {
	var out []domain.MenuItem
	err := conn(ctx, r.db).Where("restaurant_id = ?", restaurantID).Order("name").Find(&out).Error
	return out, err
}
