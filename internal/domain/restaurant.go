package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type CuisineType struct {
	ID   uint64 `json:"id" gorm:"primaryKey;autoIncrement"`
	Name string `json:"name" gorm:"size:50;not null;uniqueIndex"`
}

type Restaurant struct {
	ID           uint64        `json:"id" gorm:"primaryKey;autoIncrement"`
	Name         string        `json:"name" gorm:"size:255;not null;index"`
	Address      string        `json:"address" gorm:"type:text"`
	Phone        string        `json:"phone" gorm:"size:18"`
	CuisineTypes []CuisineType `json:"cuisineTypes,omitempty" gorm:"many2many:restaurant_cuisines"`
	CreatedAt    time.Time     `json:"createdAt" gorm:"autoCreateTime"`
}

// RestaurantCuisine is the join row between a restaurant and a cuisine type.
type RestaurantCuisine struct {
	RestaurantID  uint64 `json:"restaurantId" gorm:"primaryKey"`
	CuisineTypeID uint64 `json:"cuisineTypeId" gorm:"primaryKey"`
	Popularity    uint   `json:"popularity" gorm:"not null;default:0"`
}

func (r *Restaurant) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return NewValidationError("name", "restaurant name must not be empty")
	}
	if n := len(r.Phone); n < 10 || n > 15 {
		return NewValidationError("phone", "phone must contain 10 to 15 characters")
	}
	return nil
}

type MenuItem struct {
	ID           uint64          `json:"id" gorm:"primaryKey;autoIncrement"`
	RestaurantID uint64          `json:"restaurantId" gorm:"not null;index"`
	Restaurant   *Restaurant     `json:"-" gorm:"foreignKey:RestaurantID;constraint:OnDelete:CASCADE"`
	Name         string          `json:"name" gorm:"size:255;not null"`
	Description  string          `json:"description" gorm:"type:text"`
	Price        decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	IsAvailable  bool            `json:"isAvailable" gorm:"not null;default:true"`
	UpdatedAt    time.Time       `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (m *MenuItem) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return NewValidationError("name", "menu item name must not be empty")
	}
	if m.Price.IsNegative() {
		return NewValidationError("price", "price must not be negative")
	}
	if m.Price.GreaterThan(MaxAmount) {
		return NewValidationError("price", "price must not exceed "+MaxAmount.StringFixed(2))
	}
	if m.RestaurantID == 0 {
		return NewValidationError("restaurantId", "restaurant is required")
	}
	return nil
}
