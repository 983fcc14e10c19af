package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MaxAmount is the largest value a decimal(10,2) column holds.
var MaxAmount = decimal.RequireFromString("99999999.99")

const MaxQuantity = 1000

// RecomputeTotal sums unit price × quantity over the given line items.
// Every item must have its menu item loaded.
func RecomputeTotal(items []OrderItem) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, item := range items {
		if err := ValidateQuantity(item.Quantity); err != nil {
			return decimal.Zero, err
		}
		price, ok := item.UnitPrice()
		if !ok {
			return decimal.Zero, fmt.Errorf("order item %d: %w", item.ID, ErrMenuItemNotFound)
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	if total.GreaterThan(MaxAmount) {
		return decimal.Zero, NewValidationError("totalPrice", "order total must not exceed "+MaxAmount.StringFixed(2))
	}
	return total, nil
}

func Subtotal(item OrderItem) decimal.Decimal {
	price, _ := item.UnitPrice()
	return price.Mul(decimal.NewFromInt(int64(item.Quantity)))
}

func ValidateQuantity(q int) error {
	if q < 1 {
		return NewValidationError("quantity", "quantity must be greater than zero")
	}
	if q > MaxQuantity {
		return NewValidationError("quantity", fmt.Sprintf("quantity must not exceed %d", MaxQuantity))
	}
	return nil
}
