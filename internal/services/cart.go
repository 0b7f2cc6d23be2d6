package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"pharmacy-api/internal/events"
	"pharmacy-api/internal/models"
	"pharmacy-api/internal/telemetry"
)

const maxLineQuantity = 99

type CheckoutRequest struct {
	PaymentMethod   models.PaymentMethod   `json:"payment_method"`
	FulfillmentType models.FulfillmentType `json:"fulfillment_type"`
	AddressID       string                 `json:"address_id,omitempty"`
	ShippingAddress string                 `json:"shipping_address,omitempty"`
	PrescriptionID  string                 `json:"prescription_id,omitempty"`
	Notes           string                 `json:"notes,omitempty"`
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func (s *Service) Cart(ctx context.Context, caller models.Profile) (models.CartView, error) {
	items, err := s.carts.CartItems(ctx, caller.ID)
	if err != nil {
		return models.CartView{}, fmt.Errorf("load cart: %w", err)
	}

	view := models.CartView{Items: []models.CartLine{}}
	for id, qty := range items {
		p, ok := s.catalog.Product(id)
		if !ok {
			// Dropped from the catalog since it was added.
			continue
		}
		line := models.CartLine{Product: p, Quantity: qty, LineTotal: roundCents(p.Price * float64(qty))}
		view.Items = append(view.Items, line)
		view.Total += line.LineTotal
	}
	sort.Slice(view.Items, func(i, j int) bool { return view.Items[i].Product.Name < view.Items[j].Product.Name })
	view.Total = roundCents(view.Total)
	return view, nil
}

func (s *Service) purchasable(productID string) (models.Product, error) {
	p, ok := s.catalog.Product(productID)
	if !ok {
		return models.Product{}, fmt.Errorf("%w: product %s", ErrNotFound, productID)
	}
	if !p.InStock {
		return models.Product{}, fmt.Errorf("%w: %s", ErrOutOfStock, p.Name)
	}
	return p, nil
}

// AddToCart adds qty of a product to the caller's cart, on top of any
// quantity already there. Lines are capped at maxLineQuantity.
func (s *Service) AddToCart(ctx context.Context, caller models.Profile, productID string, qty int) (models.CartView, error) {
	if qty < 1 || qty > maxLineQuantity {
		return models.CartView{}, invalid("quantity must be between 1 and %d", maxLineQuantity)
	}
	if _, err := s.purchasable(productID); err != nil {
		return models.CartView{}, err
	}

	total, err := s.carts.AddCartItem(ctx, caller.ID, productID, qty)
	if err != nil {
		return models.CartView{}, fmt.Errorf("add cart item: %w", err)
	}
	if total > maxLineQuantity {
		if err := s.carts.SetCartItem(ctx, caller.ID, productID, maxLineQuantity); err != nil {
			return models.CartView{}, fmt.Errorf("cap cart item: %w", err)
		}
	}
	return s.Cart(ctx, caller)
}

// UpdateCartItem sets a line's quantity. Zero removes the line.
func (s *Service) UpdateCartItem(ctx context.Context, caller models.Profile, productID string, qty int) (models.CartView, error) {
	if qty < 0 || qty > maxLineQuantity {
		return models.CartView{}, invalid("quantity must be between 0 and %d", maxLineQuantity)
	}
	if qty > 0 {
		if _, err := s.purchasable(productID); err != nil {
			return models.CartView{}, err
		}
	}
	if err := s.carts.SetCartItem(ctx, caller.ID, productID, qty); err != nil {
		return models.CartView{}, fmt.Errorf("set cart item: %w", err)
	}
	return s.Cart(ctx, caller)
}

func (s *Service) RemoveFromCart(ctx context.Context, caller models.Profile, productID string) (models.CartView, error) {
	if err := s.carts.RemoveCartItem(ctx, caller.ID, productID); err != nil {
		return models.CartView{}, fmt.Errorf("remove cart item: %w", err)
	}
	return s.Cart(ctx, caller)
}

func (s *Service) ClearCart(ctx context.Context, caller models.Profile) error {
	if err := s.carts.ClearCart(ctx, caller.ID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// Checkout turns the caller's cart into an order with a pending payment.
func (s *Service) Checkout(ctx context.Context, caller models.Profile, req CheckoutRequest) (models.Order, error) {
	if req.PaymentMethod == "" {
		req.PaymentMethod = models.PaymentCashOnDelivery
	}
	if req.FulfillmentType == "" {
		req.FulfillmentType = models.FulfillmentDelivery
	}
	if !req.PaymentMethod.Valid() {
		return models.Order{}, invalid("unknown payment_method %q", req.PaymentMethod)
	}
	if !req.FulfillmentType.Valid() {
		return models.Order{}, invalid("unknown fulfillment_type %q", req.FulfillmentType)
	}

	cart, err := s.carts.CartItems(ctx, caller.ID)
	if err != nil {
		return models.Order{}, fmt.Errorf("load cart: %w", err)
	}
	if len(cart) == 0 {
		return models.Order{}, ErrEmptyCart
	}

	order := models.Order{
		UserID:          caller.ID,
		Status:          models.OrderPending,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   models.PaymentPending,
		FulfillmentType: req.FulfillmentType,
		Notes:           strings.TrimSpace(req.Notes),
	}

	var needsPrescription []models.Product
	for productID, qty := range cart {
		p, err := s.purchasable(productID)
		if err != nil {
			return models.Order{}, err
		}
		if p.RequiresPrescription {
			needsPrescription = append(needsPrescription, p)
		}
		order.Items = append(order.Items, models.OrderItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    qty,
			UnitPrice:   p.Price,
		})
		order.TotalAmount += p.Price * float64(qty)
	}
	order.TotalAmount = roundCents(order.TotalAmount)
	sort.Slice(order.Items, func(i, j int) bool { return order.Items[i].ProductName < order.Items[j].ProductName })

	if len(needsPrescription) > 0 {
		if err := s.checkPrescription(ctx, caller, req.PrescriptionID, needsPrescription); err != nil {
			return models.Order{}, err
		}
	} else if req.PrescriptionID != "" {
		if _, err := s.ownPrescription(ctx, caller, req.PrescriptionID); err != nil {
			return models.Order{}, err
		}
	}
	if req.PrescriptionID != "" {
		id := req.PrescriptionID
		order.PrescriptionID = &id
	}

	if order.FulfillmentType == models.FulfillmentDelivery {
		addr, err := s.shippingAddress(ctx, caller, req)
		if err != nil {
			return models.Order{}, err
		}
		order.ShippingAddress = addr
	}

	payment := models.Payment{
		Amount: order.TotalAmount,
		Method: order.PaymentMethod,
		Status: models.PaymentPending,
	}
	if err := s.store.CreateOrder(ctx, &order, &payment); err != nil {
		return models.Order{}, storeErr(err, "order")
	}

	if err := s.carts.ClearCart(ctx, caller.ID); err != nil {
		slog.Error("Failed to clear cart after checkout", "user_id", caller.ID, "order_id", order.ID, "error", err)
	}
	s.notify(ctx, caller.ID, models.NotificationOrder, "Order placed",
		fmt.Sprintf("Your order %s for %.2f has been placed.", shortID(order.ID), order.TotalAmount))
	s.publish(ctx, events.Event{
		Type:    events.OrderCreated,
		UserID:  caller.ID,
		OrderID: order.ID,
		Status:  string(order.Status),
		Amount:  order.TotalAmount,
	})
	s.invalidateStats(ctx)
	telemetry.OrdersCreated.Inc()

	slog.Info("Order placed", "order_id", order.ID, "user_id", caller.ID, "total", order.TotalAmount)
	return order, nil
}

// checkPrescription requires an approved prescription owned by the caller
// that lists every prescription-only product in the cart.
func (s *Service) checkPrescription(ctx context.Context, caller models.Profile, id string, products []models.Product) error {
	if id == "" {
		return fmt.Errorf("%w: %s", ErrPrescriptionRequired, products[0].Name)
	}
	p, err := s.ownPrescription(ctx, caller, id)
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: prescription %s not found", ErrPrescriptionRequired, id)
	}
	if err != nil {
		return err
	}
	if p.Status != models.PrescriptionApproved {
		return fmt.Errorf("%w: prescription is %s", ErrPrescriptionRequired, p.Status)
	}
	for _, product := range products {
		if !p.Covers(product.ID) {
			return fmt.Errorf("%w: prescription does not cover %s", ErrPrescriptionRequired, product.Name)
		}
	}
	return nil
}

// ownPrescription loads a prescription the caller submitted. Other users'
// prescriptions are reported as not found.
func (s *Service) ownPrescription(ctx context.Context, caller models.Profile, id string) (models.Prescription, error) {
	p, err := s.store.GetPrescription(ctx, id)
	if err != nil {
		return models.Prescription{}, storeErr(err, "prescription")
	}
	if p.UserID != caller.ID {
		return models.Prescription{}, fmt.Errorf("%w: prescription", ErrNotFound)
	}
	return p, nil
}

func (s *Service) shippingAddress(ctx context.Context, caller models.Profile, req CheckoutRequest) (string, error) {
	if req.AddressID != "" {
		a, err := s.store.GetAddress(ctx, caller.ID, req.AddressID)
		if err != nil {
			return "", storeErr(err, "address")
		}
		return a.Format(), nil
	}
	if addr := strings.TrimSpace(req.ShippingAddress); addr != "" {
		return addr, nil
	}
	return "", invalid("delivery requires address_id or shipping_address")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
