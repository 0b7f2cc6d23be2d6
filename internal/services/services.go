// Package services implements the pharmacy's business operations on top of
// the record store, the cart cache and the product catalog. Every operation
// takes the calling profile and enforces role rules itself.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pharmacy-api/internal/catalog"
	"pharmacy-api/internal/events"
	"pharmacy-api/internal/models"
	"pharmacy-api/internal/store"
	"pharmacy-api/internal/telemetry"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidInput         = errors.New("invalid input")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrOutOfStock           = errors.New("product out of stock")
	ErrPrescriptionRequired = errors.New("approved prescription required")
	ErrConflict             = errors.New("conflict")
)

// Store is the record store. store.Postgres and store.Memory implement it.
type Store interface {
	GetProfile(ctx context.Context, id string) (models.Profile, error)
	CreateProfile(ctx context.Context, p models.Profile) (models.Profile, error)
	UpdateProfile(ctx context.Context, p models.Profile) (models.Profile, error)
	UpdateProfileRole(ctx context.Context, id string, role models.Role) (models.Profile, error)
	ListProfiles(ctx context.Context, role models.Role) ([]models.Profile, error)

	CreateOrder(ctx context.Context, o *models.Order, p *models.Payment) error
	GetOrder(ctx context.Context, id string) (models.Order, error)
	ListOrders(ctx context.Context, f store.OrderFilter) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (models.Order, error)

	GetPayment(ctx context.Context, id string) (models.Payment, error)
	GetPaymentByOrder(ctx context.Context, orderID string) (models.Payment, error)
	ListPayments(ctx context.Context, f store.PaymentFilter) ([]models.Payment, error)
	UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus, ref string) (models.Payment, error)

	CreatePrescription(ctx context.Context, p models.Prescription) (models.Prescription, error)
	GetPrescription(ctx context.Context, id string) (models.Prescription, error)
	ListPrescriptions(ctx context.Context, f store.PrescriptionFilter) ([]models.Prescription, error)
	ReviewPrescription(ctx context.Context, id string, status models.PrescriptionStatus, reviewerID, notes string) (models.Prescription, error)

	ListAddresses(ctx context.Context, userID string) ([]models.SavedAddress, error)
	GetAddress(ctx context.Context, userID, id string) (models.SavedAddress, error)
	CreateAddress(ctx context.Context, a models.SavedAddress) (models.SavedAddress, error)
	UpdateAddress(ctx context.Context, a models.SavedAddress) (models.SavedAddress, error)
	DeleteAddress(ctx context.Context, userID, id string) error
	SetDefaultAddress(ctx context.Context, userID, id string) (models.SavedAddress, error)

	ListFavorites(ctx context.Context, userID string) ([]models.FavoriteProduct, error)
	AddFavorite(ctx context.Context, userID, productID string) (models.FavoriteProduct, error)
	RemoveFavorite(ctx context.Context, userID, productID string) error

	CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error)
	ListNotifications(ctx context.Context, userID string, f store.NotificationFilter) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkNotificationRead(ctx context.Context, userID, id string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error)
	DeleteNotification(ctx context.Context, userID, id string) error

	DashboardStats(ctx context.Context) (models.DashboardStats, error)
}

// CartStore persists carts. cache.Client implements it.
type CartStore interface {
	CartItems(ctx context.Context, userID string) (map[string]int, error)
	AddCartItem(ctx context.Context, userID, productID string, qty int) (int, error)
	SetCartItem(ctx context.Context, userID, productID string, qty int) error
	RemoveCartItem(ctx context.Context, userID, productID string) error
	ClearCart(ctx context.Context, userID string) error
}

// Cache holds short-lived dashboard reads. cache.Client implements it.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type Catalog interface {
	Product(id string) (models.Product, bool)
	List(f catalog.Filter) []models.Product
}

// Notifier pushes a stored notification to live clients.
type Notifier interface {
	Notify(n models.Notification)
}

type Deps struct {
	Store     Store
	Carts     CartStore
	Cache     Cache
	Catalog   Catalog
	Publisher events.Publisher
	Notifier  Notifier
	StatsTTL  time.Duration
}

type Service struct {
	store     Store
	carts     CartStore
	cache     Cache
	catalog   Catalog
	publisher events.Publisher
	notifier  Notifier
	statsTTL  time.Duration
	now       func() time.Time
}

func New(d Deps) *Service {
	s := &Service{
		store:     d.Store,
		carts:     d.Carts,
		cache:     d.Cache,
		catalog:   d.Catalog,
		publisher: d.Publisher,
		notifier:  d.Notifier,
		statsTTL:  d.StatsTTL,
		now:       func() time.Time { return time.Now().UTC() },
	}
	if s.publisher == nil {
		s.publisher = events.NopPublisher{}
	}
	return s
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// storeErr translates store sentinels into service sentinels.
func storeErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	case errors.Is(err, store.ErrConflict):
		return fmt.Errorf("%w: %s", ErrConflict, what)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func requireStaff(caller models.Profile) error {
	if !caller.Role.IsStaff() {
		return fmt.Errorf("%w: staff role required", ErrForbidden)
	}
	return nil
}

func requireAdmin(caller models.Profile) error {
	if caller.Role != models.RoleAdmin {
		return fmt.Errorf("%w: admin role required", ErrForbidden)
	}
	return nil
}

// publish emits a domain event. Failures are logged and counted; the
// triggering write has already succeeded.
func (s *Service) publish(ctx context.Context, e events.Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = s.now()
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		telemetry.EventPublishFailures.Inc()
		slog.Warn("Failed to publish event", "type", e.Type, "order_id", e.OrderID, "error", err)
	}
}
