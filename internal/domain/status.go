package domain

type OrderStatus string

const (
	StatusNew        OrderStatus = "new"
	StatusPreparing  OrderStatus = "preparing"
	StatusDelivering OrderStatus = "delivering"
	StatusCompleted  OrderStatus = "completed"
	StatusCancelled  OrderStatus = "cancelled"
)

var transitions = map[OrderStatus][]OrderStatus{
	StatusNew:        {StatusPreparing, StatusCancelled},
	StatusPreparing:  {StatusDelivering, StatusCancelled},
	StatusDelivering: {StatusCompleted, StatusCancelled},
	StatusCompleted:  nil,
	StatusCancelled:  nil,
}

func (s OrderStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s OrderStatus) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

func (s OrderStatus) CanTransitionTo(to OrderStatus) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// NonTerminalStatuses returns the statuses an order can still leave, in
// lifecycle order.
func NonTerminalStatuses() []OrderStatus {
	return []OrderStatus{StatusNew, StatusPreparing, StatusDelivering}
}

// ReachableFromAllOpen reports whether every non-terminal status may move to s.
// Bulk transitions are restricted to such targets.
func ReachableFromAllOpen(s OrderStatus) bool {
	for _, from := range NonTerminalStatuses() {
		if !from.CanTransitionTo(s) {
			return false
		}
	}
	return true
}

// Transition validates moving an order from one status to another.
func Transition(from, to OrderStatus) error {
	if !to.Valid() {
		return NewValidationError("status", "unknown order status "+string(to))
	}
	if from.Terminal() {
		return ErrOrderClosed
	}
	if !from.CanTransitionTo(to) {
		return &TransitionError{From: from, To: to}
	}
	return nil
}
