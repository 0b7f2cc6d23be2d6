package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"pharmacy-api/internal/auth"
	"pharmacy-api/internal/models"
	"pharmacy-api/internal/realtime"
	"pharmacy-api/internal/services"
	"pharmacy-api/internal/telemetry"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 1 << 20

// Pinger is a dependency checked by /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	svc     *services.Service
	hub     *realtime.Hub
	auth    *auth.Middleware
	limiter *RateLimiter
	checks  map[string]Pinger
}

func NewHandler(svc *services.Service, hub *realtime.Hub, authMiddleware *auth.Middleware, limiter *RateLimiter, checks map[string]Pinger) *Handler {
	return &Handler{
		svc:     svc,
		hub:     hub,
		auth:    authMiddleware,
		limiter: limiter,
		checks:  checks,
	}
}

// profileHandlerFunc receives the caller's stored profile.
type profileHandlerFunc func(w http.ResponseWriter, r *http.Request, caller models.Profile)

func (h *Handler) public(next http.HandlerFunc) http.HandlerFunc {
	return telemetry.Middleware(h.limiter.Middleware(next))
}

func (h *Handler) private(next profileHandlerFunc) http.HandlerFunc {
	return h.public(h.auth.ValidateToken(h.withProfile(next)))
}

func (h *Handler) staff(next profileHandlerFunc) http.HandlerFunc {
	return h.private(func(w http.ResponseWriter, r *http.Request, caller models.Profile) {
		if !caller.Role.IsStaff() {
			writeError(w, http.StatusForbidden, "staff role required")
			return
		}
		next(w, r, caller)
	})
}

func (h *Handler) withProfile(next profileHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.FromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		caller, err := h.svc.EnsureProfile(r.Context(), id)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		next(w, r, caller)
	}
}

// Routes wires every endpoint onto a ServeMux and wraps it with CORS.
func (h *Handler) Routes(cors func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", telemetry.Middleware(h.Health))

	mux.HandleFunc("GET /api/products", h.public(h.ListProducts))
	mux.HandleFunc("GET /api/products/{id}", h.public(h.GetProduct))

	mux.HandleFunc("GET /api/profile", h.private(h.GetProfile))
	mux.HandleFunc("PUT /api/profile", h.private(h.UpdateProfile))

	mux.HandleFunc("GET /api/cart", h.private(h.GetCart))
	mux.HandleFunc("POST /api/cart/items", h.private(h.AddCartItem))
	mux.HandleFunc("PUT /api/cart/items/{productId}", h.private(h.UpdateCartItem))
	mux.HandleFunc("DELETE /api/cart/items/{productId}", h.private(h.RemoveCartItem))
	mux.HandleFunc("DELETE /api/cart", h.private(h.ClearCart))

	mux.HandleFunc("POST /api/orders", h.private(h.Checkout))
	mux.HandleFunc("GET /api/orders", h.private(h.ListMyOrders))
	mux.HandleFunc("GET /api/orders/{id}", h.private(h.GetOrder))
	mux.HandleFunc("POST /api/orders/{id}/cancel", h.private(h.CancelOrder))
	mux.HandleFunc("GET /api/payments", h.private(h.ListMyPayments))

	mux.HandleFunc("GET /api/prescriptions", h.private(h.ListMyPrescriptions))
	mux.HandleFunc("POST /api/prescriptions", h.private(h.SubmitPrescription))
	mux.HandleFunc("GET /api/prescriptions/{id}", h.private(h.GetPrescription))

	mux.HandleFunc("GET /api/addresses", h.private(h.ListAddresses))
	mux.HandleFunc("POST /api/addresses", h.private(h.CreateAddress))
	mux.HandleFunc("PUT /api/addresses/{id}", h.private(h.UpdateAddress))
	mux.HandleFunc("DELETE /api/addresses/{id}", h.private(h.DeleteAddress))
	mux.HandleFunc("POST /api/addresses/{id}/default", h.private(h.SetDefaultAddress))

	mux.HandleFunc("GET /api/favorites", h.private(h.ListFavorites))
	mux.HandleFunc("POST /api/favorites", h.private(h.AddFavorite))
	mux.HandleFunc("DELETE /api/favorites/{productId}", h.private(h.RemoveFavorite))

	mux.HandleFunc("GET /api/notifications", h.private(h.ListNotifications))
	mux.HandleFunc("GET /api/notifications/unread-count", h.private(h.UnreadCount))
	mux.HandleFunc("POST /api/notifications/{id}/read", h.private(h.MarkNotificationRead))
	mux.HandleFunc("POST /api/notifications/read-all", h.private(h.MarkAllNotificationsRead))
	mux.HandleFunc("DELETE /api/notifications/{id}", h.private(h.DeleteNotification))
	mux.HandleFunc("GET /api/notifications/stream", h.public(h.auth.ValidateToken(h.hub.ServeWS)))

	mux.HandleFunc("GET /api/dashboard/stats", h.staff(h.DashboardStats))
	mux.HandleFunc("GET /api/dashboard/orders", h.staff(h.ListOrders))
	mux.HandleFunc("PUT /api/dashboard/orders/{id}/status", h.staff(h.UpdateOrderStatus))
	mux.HandleFunc("GET /api/dashboard/payments", h.staff(h.ListPayments))
	mux.HandleFunc("PUT /api/dashboard/payments/{id}/status", h.staff(h.UpdatePaymentStatus))
	mux.HandleFunc("GET /api/dashboard/prescriptions", h.staff(h.ListPrescriptions))
	mux.HandleFunc("PUT /api/dashboard/prescriptions/{id}/review", h.staff(h.ReviewPrescription))
	mux.HandleFunc("GET /api/dashboard/profiles", h.staff(h.ListProfiles))
	mux.HandleFunc("PUT /api/dashboard/profiles/{id}/role", h.staff(h.SetRole))

	return cors(mux)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	result := map[string]string{}
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			slog.Warn("Health check failed", "dependency", name, "error", err)
			result[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		result[name] = "ok"
	}
	writeJSON(w, status, map[string]any{"status": http.StatusText(status), "checks": result})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("JSON encode error", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// fail maps service errors onto HTTP statuses. Anything unrecognised is
// logged and reported as a bare 500.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, services.ErrEmptyCart),
		errors.Is(err, services.ErrOutOfStock),
		errors.Is(err, services.ErrPrescriptionRequired):
		status = http.StatusUnprocessableEntity
	default:
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

// decode reads a JSON body into v, answering 400 itself on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		msg := "invalid JSON body"
		if errors.Is(err, io.EOF) {
			msg = "request body is required"
		}
		writeError(w, http.StatusBadRequest, msg)
		return false
	}
	return true
}

func queryInt(r *http.Request, key string) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	return n, err == nil
}

func queryBool(r *http.Request, key string) (bool, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return false, true
	}
	b, err := strconv.ParseBool(raw)
	return b, err == nil
}
