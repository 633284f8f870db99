package domain

import "fmt"

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPaid      OrderStatus = "paid"
	StatusCancelled OrderStatus = "cancelled"
)

// rank orders the forward chain; cancelled sits outside it.
var rank = map[OrderStatus]int{
	StatusPending:   1,
	StatusConfirmed: 2,
	StatusPaid:      3,
}

func ParseStatus(s string) (OrderStatus, error) {
	st := OrderStatus(s)
	if st.Valid() {
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown order status %q", ErrValidation, s)
}

func (s OrderStatus) Valid() bool {
	return s == StatusCancelled || rank[s] > 0
}

// Terminal statuses accept no further transitions.
func (s OrderStatus) Terminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// CanTransition allows forward moves along pending → confirmed → paid
// (steps may be skipped) and cancellation of any non-terminal order.
func CanTransition(from, to OrderStatus) bool {
	if !from.Valid() || !to.Valid() || from.Terminal() {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	return rank[to] > rank[from]
}
