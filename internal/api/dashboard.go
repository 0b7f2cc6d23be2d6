package api

import (
	"net/http"

	"pharmacy-api/internal/models"
)

func (h *Handler) DashboardStats(w http.ResponseWriter, r *http.Request, caller models.Profile) {
	stats, err := h.svc.DashboardStats(r.Context(), caller)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request, caller models.Profile) {
	status := models.OrderStatus(r.URL.Query().Get("status"))
	out, err := h.svc.ListOrders(r.Context(), caller, status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request, caller models.Profile) {
	var req struct {
		Status models.OrderStatus `json:"status"`
	}
	if !decode(w, r, &req) {
		return
	}
	o, err := h.svc.UpdateOrderStatus(r.Context(), caller, r.PathValue("id"), req.Status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request, caller models.Profile) {
	status := models.PaymentStatus(r.URL.Query().Get("status"))
	out, err := h.svc.ListPayments(r.Context(), caller, status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request, caller models.Profile) {
	var req struct {
		Status         models.PaymentStatus `json:"status"`
		TransactionRef string               `json:"transaction_ref"`
	}
	if !decode(w, r, &req) {
		return
	}
	p, err := h.svc.UpdatePaymentStatus(r.Context(), caller, r.PathValue("id"), req.Status, req.TransactionRef)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) ListPrescriptions(w http.ResponseWriter, r *http.Request, caller models.Profile) {
	status := models.PrescriptionStatus(r.URL.Query().Get("status"))
	out, err := h.svc.ListPrescriptions(r.Context(), caller, status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) ReviewPrescription(w http.ResponseWriter, r *http.Request, caller models.Profile) {
	var req struct {
		Status models.PrescriptionStatus `json:"status"`
		Notes  string                    `json:"notes"`
	}
	if !decode(w, r, &req) {
		return
	}
	p, err := h.svc.ReviewPrescription(r.Context(), caller, r.PathValue("id"), req.Status, req.Notes)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request, caller models.Profile) {
	out, err := h.svc.ListProfiles(r.Context(), caller, models.Role(r.URL.Query().Get("role")))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) SetRole(w http.ResponseWriter, r *http.Request, caller models.Profile) {
	var req struct {
		Role models.Role `json:"role"`
	}
	if !decode(w, r, &req) {
		return
	}
	p, err := h.svc.SetRole(r.Context(), caller, r.PathValue("id"), req.Role)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
