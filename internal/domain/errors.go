package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderItemNotFound  = errors.New("order item not found")
	ErrMenuItemNotFound   = errors.New("menu item not found")
	ErrRestaurantNotFound = errors.New("restaurant not found")
	ErrCuisineNotFound    = errors.New("cuisine type not found")
	ErrCourierNotFound    = errors.New("courier not found")
	ErrDeliveryNotFound   = errors.New("delivery not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrOrderClosed        = errors.New("order is closed")
	ErrForbidden          = errors.New("forbidden")
	ErrConcurrentUpdate   = errors.New("order was modified concurrently")
	ErrConflict           = errors.New("resource already exists")
)

type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

type TransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }
