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

var orderStatusMessages = map[models.OrderStatus]string{
	models.OrderPending:    "is pending",
	models.OrderProcessing: "is being prepared",
	models.OrderReady:      "is ready",
	models.OrderDelivered:  "has been delivered",
	models.OrderCancelled:  "has been cancelled",
}

func (s *Service) ListMyOrders(ctx context.Context, caller models.Profile, status models.OrderStatus) ([]models.Order, error) {
	if status != "" && !status.Valid() {
		return nil, invalid("unknown order status %q", status)
	}
	orders, err := s.store.ListOrders(ctx, store.OrderFilter{UserID: caller.ID, Status: status})
	return orders, storeErr(err, "orders")
}

// GetOrder returns an order the caller may see. Other customers' orders
// read as not found.
func (s *Service) GetOrder(ctx context.Context, caller models.Profile, id string) (models.Order, error) {
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return models.Order{}, storeErr(err, "order")
	}
	if o.UserID != caller.ID && !caller.Role.IsStaff() {
		return models.Order{}, fmt.Errorf("%w: order", ErrNotFound)
	}
	return o, nil
}

// CancelOrder lets a customer cancel their own order while it is pending.
func (s *Service) CancelOrder(ctx context.Context, caller models.Profile, id string) (models.Order, error) {
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return models.Order{}, storeErr(err, "order")
	}
	if o.UserID != caller.ID {
		return models.Order{}, fmt.Errorf("%w: order", ErrNotFound)
	}
	if o.Status != models.OrderPending {
		return models.Order{}, fmt.Errorf("%w: only pending orders can be cancelled, order is %s", ErrConflict, o.Status)
	}
	return s.setOrderStatus(ctx, caller, o, models.OrderCancelled)
}

func (s *Service) ListOrders(ctx context.Context, caller models.Profile, status models.OrderStatus) ([]models.Order, error) {
	if err := requireStaff(caller); err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, invalid("unknown order status %q", status)
	}
	orders, err := s.store.ListOrders(ctx, store.OrderFilter{Status: status})
	return orders, storeErr(err, "orders")
}

// UpdateOrderStatus assigns any known status. There is no transition check.
func (s *Service) UpdateOrderStatus(ctx context.Context, caller models.Profile, id string, status models.OrderStatus) (models.Order, error) {
	if err := requireStaff(caller); err != nil {
		return models.Order{}, err
	}
	if !status.Valid() {
		return models.Order{}, invalid("unknown order status %q", status)
	}
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return models.Order{}, storeErr(err, "order")
	}
	return s.setOrderStatus(ctx, caller, o, status)
}

func (s *Service) setOrderStatus(ctx context.Context, actor models.Profile, o models.Order, status models.OrderStatus) (models.Order, error) {
	updated, err := s.store.UpdateOrderStatus(ctx, o.ID, status)
	if err != nil {
		return models.Order{}, storeErr(err, "order")
	}

	s.notify(ctx, updated.UserID, models.NotificationOrder, "Order update",
		fmt.Sprintf("Your order %s %s.", shortID(updated.ID), orderStatusMessages[status]))
	s.publish(ctx, events.Event{
		Type:    events.OrderStatusChanged,
		UserID:  updated.UserID,
		OrderID: updated.ID,
		Status:  string(status),
		Amount:  updated.TotalAmount,
	})
	s.invalidateStats(ctx)
	telemetry.OrderStatusChanges.WithLabelValues(string(status)).Inc()

	slog.Info("Order status changed", "order_id", updated.ID, "from", o.Status, "to", status, "by", actor.ID)
	return updated, nil
}
