package http

import (
	"time"

	"delivery-service/internal/domain"

	"github.com/shopspring/decimal"
)

type OrderItemRequest struct {
	MenuItemID uint64 `json:"menuItemId" binding:"required"`
	Quantity   int    `json:"quantity"`
}

type CreateOrderRequest struct {
	RestaurantID uint64             `json:"restaurantId" binding:"required"`
	Items        []OrderItemRequest `json:"items" binding:"dive"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type ChangeStatusRequest struct {
	Status domain.OrderStatus `json:"status" binding:"required"`
}

type BulkTransitionRequest struct {
	Status    domain.OrderStatus `json:"status" binding:"required"`
	OlderThan string             `json:"olderThan" binding:"required"`
	Reason    string             `json:"reason"`
}

type OrderItemResponse struct {
	ID         uint64          `json:"id"`
	MenuItemID uint64          `json:"menuItemId"`
	Name       string          `json:"name,omitempty"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	Quantity   int             `json:"quantity"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

type OrderResponse struct {
	ID           uint64              `json:"id"`
	UserID       uint64              `json:"userId"`
	RestaurantID uint64              `json:"restaurantId"`
	Status       domain.OrderStatus  `json:"status"`
	TotalPrice   decimal.Decimal     `json:"totalPrice"`
	Items        []OrderItemResponse `json:"items"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

func toOrderResponse(o *domain.Order) OrderResponse {
	resp := OrderResponse{
		ID:           o.ID,
		UserID:       o.UserID,
		RestaurantID: o.RestaurantID,
		Status:       o.Status,
		TotalPrice:   o.TotalPrice.Round(2),
		Items:        make([]OrderItemResponse, 0, len(o.Items)),
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
	for _, item := range o.Items {
		unit, _ := item.UnitPrice()
		line := OrderItemResponse{
			ID:         item.ID,
			MenuItemID: item.MenuItemID,
			UnitPrice:  unit,
			Quantity:   item.Quantity,
			Subtotal:   domain.Subtotal(item),
		}
		if item.MenuItem != nil {
			line.Name = item.MenuItem.Name
		}
		resp.Items = append(resp.Items, line)
	}
	return resp
}

func toOrderResponses(orders []domain.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderResponse(&orders[i]))
	}
	return out
}

type RestaurantRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
	Phone   string `json:"phone" binding:"required"`
}

type AttachCuisineRequest struct {
	CuisineTypeID uint64 `json:"cuisineTypeId" binding:"required"`
	Popularity    uint   `json:"popularity"`
}

type CuisineRequest struct {
	Name string `json:"name" binding:"required"`
}

type MenuItemRequest struct {
	RestaurantID uint64           `json:"restaurantId"`
	Name         string           `json:"name" binding:"required"`
	Description  string           `json:"description"`
	Price        *decimal.Decimal `json:"price" binding:"required"`
	IsAvailable  *bool            `json:"isAvailable"`
}

func (r MenuItemRequest) available() bool {
	return r.IsAvailable == nil || *r.IsAvailable
}

type CourierRequest struct {
	UserID      uint64             `json:"userId" binding:"required"`
	VehicleType domain.VehicleType `json:"vehicleType" binding:"required"`
}

type DeliveryRequest struct {
	OrderID      uint64                `json:"orderId"`
	CourierID    uint64                `json:"courierId"`
	DeliveryTime *time.Time            `json:"deliveryTime"`
	Status       domain.DeliveryStatus `json:"status"`
}

type UserRequest struct {
	Username  string      `json:"username" binding:"required"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Email     string      `json:"email" binding:"omitempty,email"`
	Phone     string      `json:"phone" binding:"required"`
	Address   string      `json:"address"`
	Role      domain.Role `json:"role"`
}

type UserUpdateRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Email     *string `json:"email" binding:"omitempty,email"`
	Phone     *string `json:"phone"`
	Address   *string `json:"address"`
}

type DeliveryStatusRequest struct {
	Status domain.DeliveryStatus `json:"deliveryStatus" binding:"required"`
}

type PageResponse struct {
	Count    int64 `json:"count"`
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Results  any   `json:"results"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}
