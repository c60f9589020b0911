package models

import "errors"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusConfirmed  OrderStatus = "Confirmed"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusCompleted  OrderStatus = "Completed"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

var ErrInvalidStatusTransition = errors.New("invalid order status transition")

var validNext = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusPending:    {OrderStatusConfirmed: true, OrderStatusCancelled: true},
	OrderStatusConfirmed:  {OrderStatusProcessing: true, OrderStatusCancelled: true},
	OrderStatusProcessing: {OrderStatusCompleted: true},
	OrderStatusCompleted:  {},
	OrderStatusCancelled:  {},
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	_, ok := validNext[s]
	return ok
}

// Terminal reports whether no further transitions are possible from s.
func (s OrderStatus) Terminal() bool {
	return len(validNext[s]) == 0
}

func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

// Transition moves the order to the given status if the state machine allows it.
func (o *Order) Transition(to OrderStatus) error {
	if !CanTransition(o.StatusOrder, to) {
		return ErrInvalidStatusTransition
	}
	o.StatusOrder = to
	return nil
}
