package api

import (
	"net/http"

	"pharmacy-api/internal/models"
	"pharmacy-api/internal/services"
)

func (h *Handler) ListMyPrescriptions(w http.ResponseWriter, r *http.Request, caller models.Profile) {
	status := models.PrescriptionStatus(r.URL.Query().Get("status"))
	out, err := h.svc.ListMyPrescriptions(r.Context(), caller, status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) SubmitPrescription(w http.ResponseWriter, r *http.Request, caller models.Profile) {
	var req services.PrescriptionInput
	if !decode(w, r, &req) {
		return
	}
	p, err := h.svc.SubmitPrescription(r.Context(), caller, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) GetPrescription(w http.ResponseWriter, r *http.Request, caller models.Profile) {
	p, err := h.svc.GetPrescription(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
