package api

import (
	"net/http"

	"pharmacy-api/internal/models"
	"pharmacy-api/internal/services"
)

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request, caller models.Profile) {
	writeJSON(w, http.StatusOK, caller)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request, caller models.Profile) {
	var req services.ProfileUpdate
	if !decode(w, r, &req) {
		return
	}
	p, err := h.svc.UpdateProfile(r.Context(), caller, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) ListAddresses(w http.ResponseWriter, r *http.Request, caller models.Profile) {
	out, err := h.svc.ListAddresses(r.Context(), caller)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) CreateAddress(w http.ResponseWriter, r *http.Request, caller models.Profile) {
	var req services.AddressInput
	if !decode(w, r, &req) {
		return
	}
	a, err := h.svc.CreateAddress(r.Context(), caller, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *Handler) UpdateAddress(w http.ResponseWriter, r *http.Request, caller models.Profile) {
	var req services.AddressInput
	if !decode(w, r, &req) {
		return
	}
	a, err := h.svc.UpdateAddress(r.Context(), caller, r.PathValue("id"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) DeleteAddress(w http.ResponseWriter, r *http.Request, caller models.Profile) {
	if err := h.svc.DeleteAddress(r.Context(), caller, r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SetDefaultAddress(w http.ResponseWriter, r *http.Request, caller models.Profile) {
	a, err := h.svc.SetDefaultAddress(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) ListFavorites(w http.ResponseWriter, r *http.Request, caller models.Profile) {
	out, err := h.svc.ListFavorites(r.Context(), caller)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request, caller models.Profile) {
	var req struct {
		ProductID string `json:"product_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	f, err := h.svc.AddFavorite(r.Context(), caller, req.ProductID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request, caller models.Profile) {
	if err := h.svc.RemoveFavorite(r.Context(), caller, r.PathValue("productId")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
