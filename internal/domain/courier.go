package domain

import "time"

type VehicleType string

const (
	VehicleBike    VehicleType = "bike"
	VehicleCar     VehicleType = "car"
	VehicleScooter VehicleType = "scooter"
)

func (v VehicleType) Valid() bool {
	switch v {
	case VehicleBike, VehicleCar, VehicleScooter:
		return true
	}
	return false
}

type Courier struct {
	ID          uint64      `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID      uint64      `json:"userId" gorm:"not null;uniqueIndex"`
	User        *User       `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	VehicleType VehicleType `json:"vehicleType" gorm:"type:enum('bike','car','scooter');not null;index"`
}

type DeliveryStatus string

const (
	DeliveryInProgress DeliveryStatus = "in_progress"
	DeliveryDelivered  DeliveryStatus = "delivered"
)

func (s DeliveryStatus) Valid() bool {
	return s == DeliveryInProgress || s == DeliveryDelivered
}

type Delivery struct {
	ID           uint64         `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID      uint64         `json:"orderId" gorm:"not null;uniqueIndex"`
	Order        *Order         `json:"order,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CourierID    uint64         `json:"courierId" gorm:"not null;index"`
	Courier      *Courier       `json:"courier,omitempty" gorm:"foreignKey:CourierID;constraint:OnDelete:CASCADE"`
	DeliveryTime *time.Time     `json:"deliveryTime,omitempty" gorm:"index"`
	Status       DeliveryStatus `json:"status" gorm:"type:enum('in_progress','delivered');default:'in_progress';index"`
}

func (Delivery) TableName() string { return "deliveries" }
