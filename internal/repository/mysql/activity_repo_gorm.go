package mysql

import (
	"context"

	"delivery-service/internal/domain"
	"delivery-service/internal/repository"

	"gorm.io/gorm"
)

type activityRepo struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) repository.ActivityRepository {
	return &activityRepo{db: db}
}

func (r *activityRepo) SaveBatch(ctx context.Context, activities []domain.UserActivity) error {
	if len(activities) == 0 {
		return nil
	}
	return conn(ctx, r.db).CreateInBatches(&activities, 200).Error
}
