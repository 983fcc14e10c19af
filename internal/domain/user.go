package domain

import (
	"regexp"
	"strings"
	"time"
)

type Role string

const (
	RoleClient            Role = "client"
	RoleCourier           Role = "courier"
	RoleAdmin             Role = "admin"
	RoleRestaurantService Role = "restaurant_service"
)

func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleCourier, RoleAdmin, RoleRestaurantService:
		return true
	}
	return false
}

type User struct {
	ID        uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	Username  string    `json:"username" gorm:"size:150;not null;uniqueIndex"`
	FirstName string    `json:"firstName" gorm:"size:150"`
	LastName  string    `json:"lastName" gorm:"size:150"`
	Email     string    `json:"email" gorm:"size:254"`
	Phone     string    `json:"phone" gorm:"size:18"`
	Address   string    `json:"address" gorm:"type:text"`
	Role      Role      `json:"role" gorm:"size:20;not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

var phonePattern = regexp.MustCompile(`^\+?1?\d{9,15}$`)

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Normalize strips separators from the phone number before validation.
func (u *User) Normalize() {
	u.Phone = strings.NewReplacer("-", "", " ", "").Replace(u.Phone)
	u.Username = strings.TrimSpace(u.Username)
}

func (u *User) Validate() error {
	if u.Username == "" {
		return NewValidationError("username", "username is required")
	}
	if !phonePattern.MatchString(u.Phone) {
		return NewValidationError("phone", "phone must look like +999999999 with up to 15 digits")
	}
	if !u.Role.Valid() {
		return NewValidationError("role", "unknown role "+string(u.Role))
	}
	return nil
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID uint64
	Role   Role
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// IsStaff reports whether the actor works on the fulfilment side.
func (a Actor) IsStaff() bool {
	return a.Role == RoleAdmin || a.Role == RoleRestaurantService || a.Role == RoleCourier
}
