package api

import (
	"net/http"

	"pharmacy-api/internal/models"
)

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request, caller models.Profile) {
	unread, ok := queryBool(r, "unread")
	if !ok {
		writeError(w, http.StatusBadRequest, "unread must be a boolean")
		return
	}
	limit, ok := queryInt(r, "limit")
	if !ok {
		writeError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}
	out, err := h.svc.ListNotifications(r.Context(), caller, unread, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request, caller models.Profile) {
	n, err := h.svc.UnreadCount(r.Context(), caller)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request, caller models.Profile) {
	if err := h.svc.MarkNotificationRead(r.Context(), caller, r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request, caller models.Profile) {
	n, err := h.svc.MarkAllNotificationsRead(r.Context(), caller)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": n})
}

func (h *Handler) DeleteNotification(w http.ResponseWriter, r *http.Request, caller models.Profile) {
	if err := h.svc.DeleteNotification(r.Context(), caller, r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
