package mysql

import (
	"context"
	"errors"

	"delivery-service/internal/domain"
	"delivery-service/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type restaurantRepo struct {
	db *gorm.DB
}

func NewRestaurantRepository(db *gorm.DB) repository.RestaurantRepository {
	return &restaurantRepo{db: db}
}

func (r *restaurantRepo) Create(ctx context.Context, rest *domain.Restaurant) error {
	return translateError(conn(ctx, r.db).Omit(clause.Associations).Create(rest).Error)
}

func (r *restaurantRepo) Update(ctx context.Context, rest *domain.Restaurant) error {
	res := conn(ctx, r.db).Model(rest).Select("name", "address", "phone").Updates(rest)
	return translateError(res.Error)
}

func (r *restaurantRepo) Delete(ctx context.Context, id uint64) error {
	res := conn(ctx, r.db).Delete(&domain.Restaurant{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrRestaurantNotFound
	}
	return nil
}

func (r *restaurantRepo) FindByID(ctx context.Context, id uint64) (*domain.Restaurant, error) {
	var rest domain.Restaurant
	if err := conn(ctx, r.db).Preload("CuisineTypes").First(&rest, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rest, nil
}

func (r *restaurantRepo) List(ctx context.Context, query string, page repository.Page) ([]domain.Restaurant, int64, error) {
	q := conn(ctx, r.db).Model(&domain.Restaurant{})
	if query != "" {
		q = q.Where("name LIKE ?", "%"+query+"%")
	}
	return r.paginate(q, page)
}

func (r *restaurantRepo) ListByCuisine(ctx context.Context, cuisine string, page repository.Page) ([]domain.Restaurant, int64, error) {
	sub := r.db.Table("restaurant_cuisines").
		Select("restaurant_cuisines.restaurant_id").
		Joins("JOIN cuisine_types ON cuisine_types.id = restaurant_cuisines.cuisine_type_id").
		Where("cuisine_types.name LIKE ?", "%"+cuisine+"%")
	q := conn(ctx, r.db).Model(&domain.Restaurant{}).Where("restaurants.id IN (?)", sub)
	return r.paginate(q, page)
}

func (r *restaurantRepo) paginate(q *gorm.DB, page repository.Page) ([]domain.Restaurant, int64, error) {
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []domain.Restaurant
	err := q.Preload("CuisineTypes").Order("restaurants.name").
		Offset(page.Offset()).Limit(page.Size).
		Find(&out).Error
	return out, total, err
}

func (r *restaurantRepo) CreateCuisine(ctx context.Context, c *domain.CuisineType) error {
	return translateError(conn(ctx, r.db).Create(c).Error)
}

func (r *restaurantRepo) ListCuisines(ctx context.Context) ([]domain.CuisineType, error) {
	var out []domain.CuisineType
	err := conn(ctx, r.db).Order("name").Find(&out).Error
	return out, err
}

func (r *restaurantRepo) FindCuisine(ctx context.Context, id uint64) (*domain.CuisineType, error) {
	var c domain.CuisineType
	if err := conn(ctx, r.db).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// AttachCuisine links a cuisine to a restaurant, overwriting the popularity
// of an existing link.
func (r *restaurantRepo) AttachCuisine(ctx context.Context, rc *domain.RestaurantCuisine) error {
	err := conn(ctx, r.db).
		Clauses(clause.OnConflict{DoUpdates: clause.AssignmentColumns([]string{"popularity"})}).
		Create(rc).Error
	return translateError(err)
}
