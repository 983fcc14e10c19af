package mysql

import (
	"context"
	"errors"
	"strings"

	"delivery-service/internal/domain"
	"delivery-service/internal/repository"

	"gorm.io/gorm"
)

type userRepo struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, u *domain.User) error {
	return translateError(conn(ctx, r.db).Create(u).Error)
}

func (r *userRepo) FindByID(ctx context.Context, id uint64) (*domain.User, error) {
	var u domain.User
	if err := conn(ctx, r.db).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) Update(ctx context.Context, u *domain.User) error {
	res := conn(ctx, r.db).Model(u).
		Select("first_name", "last_name", "email", "phone", "address").
		Updates(u)
	return translateError(res.Error)
}

func (r *userRepo) Delete(ctx context.Context, id uint64) error {
	res := conn(ctx, r.db).Delete(&domain.User{}, id)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepo) ListByRole(ctx context.Context, role domain.Role, page repository.Page) ([]domain.User, int64, error) {
	return r.page(conn(ctx, r.db).Model(&domain.User{}).Where("role = ?", role), page)
}

func (r *userRepo) Search(ctx context.Context, query string, page repository.Page) ([]domain.User, int64, error) {
	like := "%" + strings.ToLower(query) + "%"
	q := conn(ctx, r.db).Model(&domain.User{}).
		Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", like, like)
	return r.page(q, page)
}

func (r *userRepo) page(q *gorm.DB, page repository.Page) ([]domain.User, int64, error) {
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []domain.User
	err := q.Order("id").Offset(page.Offset()).Limit(page.Size).Find(&out).Error
	return out, total, err
}
