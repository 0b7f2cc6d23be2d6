package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pharmacy_orders_created_total",
			Help: "Orders placed through checkout",
		},
	)

	OrderStatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pharmacy_order_status_changes_total",
			Help: "Order status updates by new status",
		},
		[]string{"status"},
	)

	PrescriptionsReviewed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pharmacy_prescriptions_reviewed_total",
			Help: "Prescription reviews by outcome",
		},
		[]string{"status"},
	)

	PaymentUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pharmacy_payment_updates_total",
			Help: "Payment status updates by new status",
		},
		[]string{"status"},
	)

	EventPublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pharmacy_event_publish_failures_total",
			Help: "Domain events that could not be published",
		},
	)
)
