package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/benthanh-pos/api/internal/notify"
)

// NotificationsHandler exposes the live notification set to the terminals.
type NotificationsHandler struct {
	center *notify.Center
}

// NewNotificationsHandler creates a new NotificationsHandler.
func NewNotificationsHandler(center *notify.Center) *NotificationsHandler {
	return &NotificationsHandler{center: center}
}

// RegisterRoutes registers notification endpoints on the given Chi router.
func (h *NotificationsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/notifications", h.List)
	r.Delete("/notifications/{id}", h.Dismiss)
}

// List returns all live notifications, newest first.
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	items := h.center.Active()
	if items == nil {
		items = []notify.Notification{}
	}
	writeJSON(w, http.StatusOK, items)
}

// Dismiss removes a notification ahead of its auto-expiry. Dismissing an
// already-expired ID is a no-op.
func (h *NotificationsHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	h.center.Dismiss(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}
