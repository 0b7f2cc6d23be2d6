// Package events carries order and payment messages over AMQP.
package events

import (
	"context"
	"time"

	"pharmacy-api/internal/resilience"
)

type Type string

const (
	OrderCreated         Type = "order.created"
	OrderStatusChanged   Type = "order.status_changed"
	PaymentUpdated       Type = "payment.updated"
	PrescriptionReviewed Type = "prescription.reviewed"
)

const (
	OrderEventsQueue    = "order_events"
	PaymentUpdatesQueue = "payment_updates"
)

type Event struct {
	Type           Type      `json:"type"`
	UserID         string    `json:"user_id"`
	OrderID        string    `json:"order_id,omitempty"`
	PrescriptionID string    `json:"prescription_id,omitempty"`
	Status         string    `json:"status,omitempty"`
	Amount         float64   `json:"amount,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// PaymentUpdate is what the payment provider bridge posts to payment_updates.
type PaymentUpdate struct {
	OrderID        string `json:"order_id"`
	PaymentStatus  string `json:"payment_status"`
	TransactionRef string `json:"transaction_ref,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// NopPublisher drops events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// BreakerPublisher stops hitting a broker that keeps failing.
type BreakerPublisher struct {
	next Publisher
	cb   *resilience.CircuitBreaker
}

func NewBreakerPublisher(next Publisher, threshold int, cooldown time.Duration) *BreakerPublisher {
	return &BreakerPublisher{
		next: next,
		cb:   resilience.NewCircuitBreaker("amqp-publisher", threshold, cooldown),
	}
}

func (p *BreakerPublisher) Publish(ctx context.Context, e Event) error {
	return p.cb.Execute(func() error {
		return p.next.Publish(ctx, e)
	})
}
