package api

import (
	"net/http"

	"pharmacy-api/internal/models"
)

func (h *Handler) ListMyOrders(w http.ResponseWriter, r *http.Request, caller models.Profile) {
	status := models.OrderStatus(r.URL.Query().Get("status"))
	out, err := h.svc.ListMyOrders(r.Context(), caller, status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request, caller models.Profile) {
	o, err := h.svc.GetOrder(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request, caller models.Profile) {
	o, err := h.svc.CancelOrder(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) ListMyPayments(w http.ResponseWriter, r *http.Request, caller models.Profile) {
	out, err := h.svc.ListMyPayments(r.Context(), caller)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
