package mysql

import (
	"context"

	"delivery-service/internal/domain"
	"delivery-service/internal/repository"

	"gorm.io/gorm"
)

const topRestaurantsQuery = `
SELECT r.id, r.name,
       COUNT(DISTINCT o.id) AS orders_count,
       COUNT(DISTINCT m.id) AS menu_items_count
FROM restaurants r
JOIN menu_items m ON m.restaurant_id = r.id AND m.is_available = TRUE
LEFT JOIN orders o ON o.restaurant_id = r.id
GROUP BY r.id, r.name
ORDER BY orders_count DESC, menu_items_count DESC
LIMIT ?`

const popularDishesQuery = `
SELECT m.id, m.name, m.price, COUNT(oi.id) AS orders_count
FROM menu_items m
LEFT JOIN order_items oi ON oi.menu_item_id = m.id
WHERE m.is_available = TRUE
GROUP BY m.id, m.name, m.price
ORDER BY orders_count DESC
LIMIT ?`

type statsRepo struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) repository.StatsRepository {
	return &statsRepo{db: db}
}

func (r *statsRepo) Dashboard(ctx context.Context, limit int) (*repository.Stats, error) {
	db := conn(ctx, r.db)
	var s repository.Stats

	if err := db.Model(&domain.Restaurant{}).Count(&s.Restaurants).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&domain.MenuItem{}).Count(&s.Dishes).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&domain.Order{}).Count(&s.Orders).Error; err != nil {
		return nil, err
	}
	if err := db.Raw(topRestaurantsQuery, limit).Scan(&s.TopRestaurants).Error; err != nil {
		return nil, err
	}
	if err := db.Raw(popularDishesQuery, limit).Scan(&s.PopularDishes).Error; err != nil {
		return nil, err
	}
	err := db.Where("status IN ?", domain.NonTerminalStatuses()).
		Order("created_at DESC").Limit(limit).
		Find(&s.CurrentOrders).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}
