package api

import (
	"net/http"

	"pharmacy-api/internal/catalog"
	"pharmacy-api/internal/models"
	"pharmacy-api/internal/services"
)

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	products := h.svc.Products(catalog.Filter{Category: q.Get("category"), Query: q.Get("q")})
	writeJSON(w, http.StatusOK, products)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Product(r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request, caller models.Profile) {
	view, err := h.svc.Cart(r.Context(), caller)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request, caller models.Profile) {
	var req models.CartItem
	if !decode(w, r, &req) {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	view, err := h.svc.AddToCart(r.Context(), caller, req.ProductID, req.Quantity)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request, caller models.Profile) {
	var req struct {
		Quantity *int `json:"quantity"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Quantity == nil {
		writeError(w, http.StatusBadRequest, "quantity is required")
		return
	}
	view, err := h.svc.UpdateCartItem(r.Context(), caller, r.PathValue("productId"), *req.Quantity)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request, caller models.Profile) {
	view, err := h.svc.RemoveFromCart(r.Context(), caller, r.PathValue("productId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request, caller models.Profile) {
	if err := h.svc.ClearCart(r.Context(), caller); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request, caller models.Profile) {
	var req services.CheckoutRequest
	if !decode(w, r, &req) {
		return
	}
	order, err := h.svc.Checkout(r.Context(), caller, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}
