package services

import (
	"time"

	"delivery-service/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	TestOrderID      = uint64(1)
	TestUserID       = uint64(7)
	TestRestaurantID = uint64(3)
	TestMenuItemID   = uint64(11)
)

var (
	testClient = domain.Actor{UserID: TestUserID, Role: domain.RoleClient}
	testAdmin  = domain.Actor{UserID: 99, Role: domain.RoleAdmin}
	testStaff  = domain.Actor{UserID: 50, Role: domain.RoleRestaurantService}
)

func CreateMockOrder(id, userID uint64, status domain.OrderStatus, total string) *domain.Order {
	return &domain.Order{
		ID:           id,
		UserID:       userID,
		RestaurantID: TestRestaurantID,
		Status:       status,
		TotalPrice:   decimal.RequireFromString(total),
		CreatedAt:    time.Now(),
	}
}

func CreateMockMenuItem(id uint64, price string, available bool) *domain.MenuItem {
	return &domain.MenuItem{
		ID:           id,
		RestaurantID: TestRestaurantID,
		Name:         "Margherita",
		Price:        decimal.RequireFromString(price),
		IsAvailable:  available,
	}
}
