package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/benthanh-pos/api/internal/storage"
)

// MenuStore defines the database methods needed by menu handlers.
// Satisfied by *storage.MenuStore; narrow interface for testability.
type MenuStore interface {
	ListMenuItems(ctx context.Context) ([]storage.MenuItem, error)
}

// MenuHandler serves the read-only menu surface used by order terminals.
type MenuHandler struct {
	store MenuStore
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(store MenuStore) *MenuHandler {
	return &MenuHandler{store: store}
}

// RegisterRoutes registers menu endpoints on the given Chi router.
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/menu/items", h.List)
}

type menuItemResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Price    string    `json:"price"`
	Category string    `json:"category"`
	MenuType string    `json:"menu_type"`
}

// List returns every menu item, grouped by category ordering.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListMenuItems(r.Context())
	if err != nil {
		log.Printf("ERROR: list menu items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	out := make([]menuItemResponse, len(items))
	for i, item := range items {
		out[i] = menuItemResponse{
			ID:       item.ID,
			Name:     item.Name,
			Price:    item.Price.StringFixed(2),
			Category: item.Category,
			MenuType: item.MenuType,
		}
	}
	writeJSON(w, http.StatusOK, out)
}
