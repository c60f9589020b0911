package events

import (
	"context"
	"encoding/json"
	"time"
)

const (
	EventOrderPlaced    = "OrderPlaced"
	EventOrderConfirmed = "OrderConfirmed"
	EventOrderCancelled = "OrderCancelled"
)

// Envelope wraps every order lifecycle event; CorrelationID is the order id.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id"`
	Payload       json.RawMessage `json:"payload"`
}

type OrderPlacedPayload struct {
	OrderID       uint   `json:"order_id"`
	CustomerID    *uint  `json:"customer_id,omitempty"`
	StoreID       *uint  `json:"store_id,omitempty"`
	PaymentMethod string `json:"payment_method"`
	FinalPrice    string `json:"final_price"`
	Status        string `json:"status"`
}

type OrderConfirmedPayload struct {
	OrderID       uint   `json:"order_id"`
	PaymentMethod string `json:"payment_method"`
	Source        string `json:"source"`
}

type OrderCancelledPayload struct {
	OrderID uint   `json:"order_id"`
	Reason  string `json:"reason"`
}

// Publisher delivers lifecycle events after the owning transaction has committed.
type Publisher interface {
	Publish(ctx context.Context, eventType string, orderID uint, payload any) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, uint, any) error { return nil }

// NopPublisher discards every event.
func NopPublisher() Publisher { return nopPublisher{} }
