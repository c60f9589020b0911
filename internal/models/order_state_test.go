package models

import (
	"errors"
	"testing"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPending, OrderStatusConfirmed, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusProcessing, false},
		{OrderStatusPending, OrderStatusCompleted, false},
		{OrderStatusConfirmed, OrderStatusProcessing, true},
		{OrderStatusConfirmed, OrderStatusCancelled, true},
		{OrderStatusConfirmed, OrderStatusPending, false},
		{OrderStatusProcessing, OrderStatusCompleted, true},
		{OrderStatusProcessing, OrderStatusCancelled, false},
		{OrderStatusCompleted, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusConfirmed, false},
		{"Unknown", OrderStatusConfirmed, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestOrderTransition(t *testing.T) {
	order := &Order{StatusOrder: OrderStatusPending}
	if err := order.Transition(OrderStatusConfirmed); err != nil {
		t.Fatalf("Transition(Confirmed) error = %v", err)
	}
	if err := order.Transition(OrderStatusPending); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Fatalf("Transition(Pending) error = %v, want ErrInvalidStatusTransition", err)
	}
	if order.StatusOrder != OrderStatusConfirmed {
		t.Errorf("status = %s after rejected transition, want Confirmed", order.StatusOrder)
	}
}

func TestStatusTerminalAndValid(t *testing.T) {
	for _, s := range []OrderStatus{OrderStatusCompleted, OrderStatusCancelled} {
		if !s.Terminal() {
			t.Errorf("%s.Terminal() = false", s)
		}
	}
	if OrderStatusPending.Terminal() {
		t.Error("Pending.Terminal() = true")
	}
	if OrderStatus("Shipped").Valid() {
		t.Error(`"Shipped".Valid() = true`)
	}
}
