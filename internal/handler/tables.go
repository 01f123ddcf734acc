package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/benthanh-pos/api/internal/ledger"
	"github.com/benthanh-pos/api/internal/storage"
)

// TableStore defines the database methods needed by table handlers.
// Satisfied by *storage.TableStore; narrow interface for testability.
type TableStore interface {
	GetTable(ctx context.Context, id uuid.UUID) (storage.Table, error)
	ListTables(ctx context.Context) ([]storage.Table, error)
}

// TablesHandler serves the floor overview: every table with a summary of
// its open order from the live ledger.
type TablesHandler struct {
	store  TableStore
	ledger *ledger.Ledger
}

// NewTablesHandler creates a new TablesHandler.
func NewTablesHandler(store TableStore, l *ledger.Ledger) *TablesHandler {
	return &TablesHandler{store: store, ledger: l}
}

// RegisterRoutes registers table endpoints on the given Chi router.
func (h *TablesHandler) RegisterRoutes(r chi.Router) {
	r.Get("/tables", h.List)
}

type tableResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Occupied  bool      `json:"occupied"`
	ItemCount int32     `json:"item_count"`
	Total     string    `json:"total"`
}

// List returns all tables with open-order summaries.
func (h *TablesHandler) List(w http.ResponseWriter, r *http.Request) {
	tables, err := h.store.ListTables(r.Context())
	if err != nil {
		log.Printf("ERROR: list tables: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	out := make([]tableResponse, len(tables))
	for i, t := range tables {
		lines := h.ledger.Order(t.ID)
		var count int32
		for _, line := range lines {
			count += line.Quantity
		}
		out[i] = tableResponse{
			ID:        t.ID,
			Name:      t.Name,
			Occupied:  len(lines) > 0,
			ItemCount: count,
			Total:     ledger.Total(lines).StringFixed(2),
		}
	}
	writeJSON(w, http.StatusOK, out)
}
