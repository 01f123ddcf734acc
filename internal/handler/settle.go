package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/benthanh-pos/api/internal/enum"
	"github.com/benthanh-pos/api/internal/middleware"
	"github.com/benthanh-pos/api/internal/notify"
	"github.com/benthanh-pos/api/internal/service"
	"github.com/benthanh-pos/api/internal/ws"
)

// SettleHandler handles settlement and ad-hoc printing for one table.
type SettleHandler struct {
	settle   *service.SettlementService
	tables   TableStore
	hub      Broadcaster
	notifier Notifier
}

// NewSettleHandler creates a new SettleHandler.
func NewSettleHandler(settle *service.SettlementService, tables TableStore, hub Broadcaster, notifier Notifier) *SettleHandler {
	return &SettleHandler{settle: settle, tables: tables, hub: hub, notifier: notifier}
}

// RegisterRoutes registers settlement endpoints on the given Chi router.
// Expected to be mounted inside a table-scoped subrouter: /tables/{tid}
func (h *SettleHandler) RegisterRoutes(r chi.Router) {
	r.Post("/settle", h.Settle)
	r.Post("/print", h.Print)
}

type printRequest struct {
	PrintType string `json:"print_type"`
}

type settledItemResponse struct {
	Name     string `json:"name"`
	Quantity int32  `json:"quantity"`
	Price    string `json:"price"`
}

type settleResponse struct {
	Table     string                `json:"table"`
	Cashier   string                `json:"cashier"`
	PrintType string                `json:"print_type"`
	Items     []settledItemResponse `json:"items"`
	Total     string                `json:"total"`
}

// Settle closes part or all of the table's open order.
func (h *SettleHandler) Settle(w http.ResponseWriter, r *http.Request) {
	tableID, err := parseTableID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table id"})
		return
	}

	var req service.SettleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	table, err := h.tables.GetTable(r.Context(), tableID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "table not found"})
			return
		}
		log.Printf("ERROR: get table: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	cashier := cashierName(r)
	data, err := h.settle.Settle(r.Context(), tableID, table.Name, req, cashier)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPrint):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid print_type"})
		case errors.Is(err, service.ErrNothingToSettle):
			h.notifier.Post(notify.Notification{
				ID:      fmt.Sprintf("settle-empty-%d", time.Now().UnixMilli()),
				Type:    enum.NotificationError,
				Message: fmt.Sprintf("Table %s has nothing to settle", table.Name),
			})
			writeJSON(w, http.StatusConflict, map[string]string{"error": "table has no open order"})
		default:
			log.Printf("ERROR: settle table %s: %v", table.Name, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	h.broadcastOrderChanged(tableID)

	items := make([]settledItemResponse, len(data.Items))
	for i, it := range data.Items {
		items[i] = settledItemResponse{Name: it.Name, Quantity: it.Quantity, Price: it.Price.StringFixed(2)}
	}
	writeJSON(w, http.StatusOK, settleResponse{
		Table:     data.Table,
		Cashier:   data.Cashier,
		PrintType: data.PrintType,
		Items:     items,
		Total:     data.Total.StringFixed(2),
	})
}

// Print produces a provisional bill or kitchen ticket for the table's
// current order. The order itself is untouched.
func (h *SettleHandler) Print(w http.ResponseWriter, r *http.Request) {
	tableID, err := parseTableID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table id"})
		return
	}

	var req printRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	table, err := h.tables.GetTable(r.Context(), tableID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "table not found"})
			return
		}
		log.Printf("ERROR: get table: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if err := h.settle.PrintCurrent(r.Context(), tableID, table.Name, req.PrintType, cashierName(r)); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPrint):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid print_type"})
		case errors.Is(err, service.ErrNothingToSettle):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "table has no open order"})
		default:
			log.Printf("ERROR: print table %s: %v", table.Name, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

// --- Helpers ---

func parseTableID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "tid"))
}

func cashierName(r *http.Request) string {
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		return claims.StaffName
	}
	return ""
}

func (h *SettleHandler) broadcastOrderChanged(tableID uuid.UUID) {
	if h.hub == nil {
		return
	}
	h.hub.Broadcast(ws.NewEvent(ws.EventOrderChanged, map[string]string{"table_id": tableID.String()}))
}
