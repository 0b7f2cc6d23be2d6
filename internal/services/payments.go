package services

import (
	"context"
	"fmt"
	"log/slog"

	"pharmacy-api/internal/events"
	"pharmacy-api/internal/models"
	"pharmacy-api/internal/store"
	"pharmacy-api/internal/telemetry"
)

func (s *Service) ListMyPayments(ctx context.Context, caller models.Profile) ([]models.Payment, error) {
	payments, err := s.store.ListPayments(ctx, store.PaymentFilter{UserID: caller.ID})
	return payments, storeErr(err, "payments")
}

func (s *Service) ListPayments(ctx context.Context, caller models.Profile, status models.PaymentStatus) ([]models.Payment, error) {
	if err := requireStaff(caller); err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, invalid("unknown payment status %q", status)
	}
	payments, err := s.store.ListPayments(ctx, store.PaymentFilter{Status: status})
	return payments, storeErr(err, "payments")
}

func (s *Service) UpdatePaymentStatus(ctx context.Context, caller models.Profile, id string, status models.PaymentStatus, ref string) (models.Payment, error) {
	if err := requireStaff(caller); err != nil {
		return models.Payment{}, err
	}
	if !status.Valid() {
		return models.Payment{}, invalid("unknown payment status %q", status)
	}
	p, err := s.setPaymentStatus(ctx, id, status, ref)
	if err != nil {
		return models.Payment{}, err
	}
	slog.Info("Payment status changed", "payment_id", id, "status", status, "by", caller.ID)
	return p, nil
}

// ApplyPaymentUpdate records a payment provider update for an order.
func (s *Service) ApplyPaymentUpdate(ctx context.Context, u events.PaymentUpdate) (models.Payment, error) {
	status := models.PaymentStatus(u.PaymentStatus)
	if u.OrderID == "" {
		return models.Payment{}, invalid("order_id is required")
	}
	if !status.Valid() {
		return models.Payment{}, invalid("unknown payment status %q", status)
	}
	p, err := s.store.GetPaymentByOrder(ctx, u.OrderID)
	if err != nil {
		return models.Payment{}, storeErr(err, "payment")
	}
	p, err = s.setPaymentStatus(ctx, p.ID, status, u.TransactionRef)
	if err != nil {
		return models.Payment{}, err
	}
	slog.Info("Applied payment update", "order_id", u.OrderID, "status", status)
	return p, nil
}

func (s *Service) setPaymentStatus(ctx context.Context, id string, status models.PaymentStatus, ref string) (models.Payment, error) {
	p, err := s.store.UpdatePaymentStatus(ctx, id, status, ref)
	if err != nil {
		return models.Payment{}, storeErr(err, "payment")
	}

	s.notify(ctx, p.UserID, models.NotificationPayment, "Payment update",
		fmt.Sprintf("Payment for order %s is %s.", shortID(p.OrderID), status))
	s.publish(ctx, events.Event{
		Type:    events.PaymentUpdated,
		UserID:  p.UserID,
		OrderID: p.OrderID,
		Status:  string(status),
		Amount:  p.Amount,
	})
	s.invalidateStats(ctx)
	telemetry.PaymentUpdates.WithLabelValues(string(status)).Inc()
	return p, nil
}
