package mysql

import (
	"fmt"
	"time"

	"delivery-service/internal/config"
	"delivery-service/internal/domain"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func Open(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.MySQLDSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NamingStrategy: schema.NamingStrategy{
			SingularTable: false,
		},
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetMaxIdleConns(20)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(1 * time.Minute)

	return db, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&domain.Restaurant{}, "CuisineTypes", &domain.RestaurantCuisine{}); err != nil {
		return fmt.Errorf("setup restaurant_cuisines: %w", err)
	}
	return db.AutoMigrate(
		&domain.User{},
		&domain.CuisineType{},
		&domain.Restaurant{},
		&domain.RestaurantCuisine{},
		&domain.MenuItem{},
		&domain.Order{},
		&domain.OrderItem{},
		&domain.OrderStatusChange{},
		&domain.Courier{},
		&domain.Delivery{},
		&domain.UserActivity{},
	)
}
