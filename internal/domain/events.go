package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated         = "order.created"
	EventOrderStatusChanged   = "order.status_changed"
	EventMenuItemPriceChanged = "menu_item.price_changed"
	EventDeliveryReminder     = "delivery.reminder"
)

type Event interface {
	EventName() string
}

type OrderCreatedEvent struct {
	OrderID      uint64    `json:"orderId"`
	UserID       uint64    `json:"userId"`
	RestaurantID uint64    `json:"restaurantId"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (OrderCreatedEvent) EventName() string { return EventOrderCreated }

type OrderStatusChangedEvent struct {
	OrderID   uint64      `json:"orderId"`
	From      OrderStatus `json:"from"`
	To        OrderStatus `json:"to"`
	Reason    string      `json:"reason"`
	ChangedAt time.Time   `json:"changedAt"`
}

func (OrderStatusChangedEvent) EventName() string { return EventOrderStatusChanged }

type MenuItemPriceChanged struct {
	MenuItemID uint64          `json:"menuItemId"`
	OldPrice   decimal.Decimal `json:"oldPrice"`
	NewPrice   decimal.Decimal `json:"newPrice"`
	ChangedAt  time.Time       `json:"changedAt"`
}

func (MenuItemPriceChanged) EventName() string { return EventMenuItemPriceChanged }

type DeliveryReminder struct {
	DeliveryID     uint64    `json:"deliveryId"`
	OrderID        uint64    `json:"orderId"`
	Email          string    `json:"email"`
	CustomerName   string    `json:"customerName"`
	RestaurantName string    `json:"restaurantName"`
	CourierName    string    `json:"courierName"`
	VehicleType    string    `json:"vehicleType"`
	DeliveryTime   time.Time `json:"deliveryTime"`
}

func (DeliveryReminder) EventName() string { return EventDeliveryReminder }
