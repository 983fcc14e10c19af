package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID           uint64          `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID       uint64          `json:"userId" gorm:"not null;index"`
	User         *User           `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	RestaurantID uint64          `json:"restaurantId" gorm:"not null;index"`
	Restaurant   *Restaurant     `json:"restaurant,omitempty" gorm:"foreignKey:RestaurantID;constraint:OnDelete:CASCADE"`
	Status       OrderStatus     `json:"status" gorm:"type:enum('new','preparing','delivering','completed','cancelled');default:'new';index"`
	TotalPrice   decimal.Decimal `json:"totalPrice" gorm:"type:decimal(10,2);not null;default:0"`
	Items        []OrderItem     `json:"items,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time       `json:"createdAt" gorm:"autoCreateTime;index"`
	UpdatedAt    time.Time       `json:"updatedAt" gorm:"autoUpdateTime"`
}

// OrderItem is a line item. It carries no price of its own: the subtotal is
// always derived from the referenced menu item's current price.
type OrderItem struct {
	ID         uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID    uint64    `json:"orderId" gorm:"not null;index"`
	MenuItemID uint64    `json:"menuItemId" gorm:"not null;index"`
	MenuItem   *MenuItem `json:"menuItem,omitempty" gorm:"foreignKey:MenuItemID;constraint:OnDelete:CASCADE"`
	Quantity   int       `json:"quantity" gorm:"not null;default:1"`
}

func (i OrderItem) UnitPrice() (decimal.Decimal, bool) {
	if i.MenuItem == nil {
		return decimal.Zero, false
	}
	return i.MenuItem.Price, true
}

type OrderStatusChange struct {
	ID        uint64      `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID   uint64      `json:"orderId" gorm:"not null;index"`
	From      OrderStatus `json:"from" gorm:"size:20;not null"`
	To        OrderStatus `json:"to" gorm:"size:20;not null"`
	ActorID   *uint64     `json:"actorId,omitempty"`
	Reason    string      `json:"reason" gorm:"size:64"`
	CreatedAt time.Time   `json:"createdAt" gorm:"autoCreateTime"`
}

func (OrderStatusChange) TableName() string { return "order_status_changes" }
