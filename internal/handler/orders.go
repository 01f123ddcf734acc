package handler

import (
	"context"
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
	"github.com/benthanh-pos/api/internal/ledger"
	"github.com/benthanh-pos/api/internal/notify"
	"github.com/benthanh-pos/api/internal/service"
	"github.com/benthanh-pos/api/internal/storage"
	"github.com/benthanh-pos/api/internal/ws"
)

// MenuItemGetter resolves a menu item at line-add time.
// Satisfied by *storage.MenuStore; narrow interface for testability.
type MenuItemGetter interface {
	GetMenuItem(ctx context.Context, id uuid.UUID) (storage.MenuItem, error)
}

// Broadcaster pushes events to connected terminals. Satisfied by *ws.Hub.
type Broadcaster interface {
	Broadcast(event ws.Event)
}

// Notifier surfaces outcomes to the operator. Satisfied by *notify.Center.
type Notifier interface {
	Post(n notify.Notification)
}

// OrderHandler handles all mutations of a table's open order.
type OrderHandler struct {
	orders   *service.OrderService
	ledger   *ledger.Ledger
	menu     MenuItemGetter
	tables   TableStore
	hub      Broadcaster
	notifier Notifier
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orders *service.OrderService, l *ledger.Ledger, menu MenuItemGetter, tables TableStore, hub Broadcaster, notifier Notifier) *OrderHandler {
	return &OrderHandler{orders: orders, ledger: l, menu: menu, tables: tables, hub: hub, notifier: notifier}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted inside a table-scoped subrouter: /tables/{tid}
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/order", h.Get)
	r.Delete("/order", h.Clear)
	r.Post("/order/items", h.AddItem)
	r.Patch("/order/items/{lineID}", h.UpdateQuantity)
	r.Put("/note", h.SetTableNote)
	r.Put("/order/items/{lineID}/note", h.SetItemNote)
	r.Post("/transfer", h.Transfer)
}

// --- Request / Response types ---

type addItemRequest struct {
	MenuItemID string `json:"menu_item_id"`
}

type updateQuantityRequest struct {
	Delta int32 `json:"delta"`
}

type noteRequest struct {
	Text string `json:"text"`
}

type transferRequest struct {
	ToTableID string `json:"to_table_id"`
}

type lineResponse struct {
	ID         uuid.UUID `json:"id"`
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Name       string    `json:"name"`
	Price      string    `json:"price"`
	Quantity   int32     `json:"quantity"`
	Note       string    `json:"note,omitempty"`
}

type orderResponse struct {
	TableID   uuid.UUID      `json:"table_id"`
	Items     []lineResponse `json:"items"`
	TableNote string         `json:"table_note,omitempty"`
	Total     string         `json:"total"`
}

// --- Handlers ---

// Get returns the table's open order with notes and running total.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	tableID, ok := h.tableID(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.orderSnapshot(tableID))
}

// AddItem adds one unit of a menu item to the order, merging into an
// existing line for the same item.
func (h *OrderHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	tableID, ok := h.tableID(w, r)
	if !ok {
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	menuItemID, err := uuid.Parse(req.MenuItemID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu_item_id"})
		return
	}

	item, err := h.menu.GetMenuItem(r.Context(), menuItemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: get menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	line := h.orders.AddToOrder(tableID, service.MenuItemRef{
		ID:    item.ID,
		Name:  item.Name,
		Price: item.Price,
	})

	h.broadcastOrderChanged(tableID)
	writeJSON(w, http.StatusCreated, lineResponse{
		ID:         line.ID,
		MenuItemID: line.MenuItemID,
		Name:       line.Name,
		Price:      line.Price.StringFixed(2),
		Quantity:   line.Quantity,
	})
}

// UpdateQuantity adjusts a line's quantity by a signed delta. Dropping to
// zero or below removes the line.
func (h *OrderHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	tableID, ok := h.tableID(w, r)
	if !ok {
		return
	}
	lineID, err := uuid.Parse(chi.URLParam(r, "lineID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid line id"})
		return
	}

	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Delta == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "delta must be non-zero"})
		return
	}

	h.orders.UpdateQuantity(tableID, lineID, req.Delta)
	h.broadcastOrderChanged(tableID)
	writeJSON(w, http.StatusOK, h.orderSnapshot(tableID))
}

// Clear empties the table's order and notes.
func (h *OrderHandler) Clear(w http.ResponseWriter, r *http.Request) {
	tableID, ok := h.tableID(w, r)
	if !ok {
		return
	}
	h.orders.ClearTable(tableID)
	h.broadcastOrderChanged(tableID)
	w.WriteHeader(http.StatusNoContent)
}

// SetTableNote overwrites the table-level note. Empty text removes it.
func (h *OrderHandler) SetTableNote(w http.ResponseWriter, r *http.Request) {
	tableID, ok := h.tableID(w, r)
	if !ok {
		return
	}
	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	h.orders.SetTableNote(tableID, req.Text)
	h.broadcastOrderChanged(tableID)
	writeJSON(w, http.StatusOK, h.orderSnapshot(tableID))
}

// SetItemNote overwrites one line's note. Empty text removes it.
func (h *OrderHandler) SetItemNote(w http.ResponseWriter, r *http.Request) {
	tableID, ok := h.tableID(w, r)
	if !ok {
		return
	}
	lineID, err := uuid.Parse(chi.URLParam(r, "lineID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid line id"})
		return
	}
	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	h.orders.SetItemNote(tableID, lineID, req.Text)
	h.broadcastOrderChanged(tableID)
	writeJSON(w, http.StatusOK, h.orderSnapshot(tableID))
}

// Transfer moves the whole order to another table. An occupied destination
// fails the transfer and notifies the operator.
func (h *OrderHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	fromID, ok := h.tableID(w, r)
	if !ok {
		return
	}

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	toID, err := uuid.Parse(req.ToTableID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid to_table_id"})
		return
	}

	dest, err := h.tables.GetTable(r.Context(), toID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "destination table not found"})
			return
		}
		log.Printf("ERROR: get table: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if err := h.orders.Transfer(fromID, toID); err != nil {
		if errors.Is(err, service.ErrTableOccupied) {
			h.notifier.Post(notify.Notification{
				ID:      fmt.Sprintf("transfer-blocked-%d", time.Now().UnixMilli()),
				Type:    enum.NotificationError,
				Message: fmt.Sprintf("Cannot transfer: table %s already has an order", dest.Name),
			})
			writeJSON(w, http.StatusConflict, map[string]string{"error": "destination table already has an order"})
			return
		}
		log.Printf("ERROR: transfer: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.broadcastOrderChanged(fromID)
	h.broadcastOrderChanged(toID)
	writeJSON(w, http.StatusOK, h.orderSnapshot(toID))
}

// --- Helpers ---

func (h *OrderHandler) tableID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "tid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table id"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *OrderHandler) orderSnapshot(tableID uuid.UUID) orderResponse {
	lines := h.ledger.Order(tableID)
	notes := h.ledger.ItemNotes(tableID)
	tableNote, _ := h.ledger.TableNote(tableID)

	items := make([]lineResponse, len(lines))
	for i, line := range lines {
		items[i] = lineResponse{
			ID:         line.ID,
			MenuItemID: line.MenuItemID,
			Name:       line.Name,
			Price:      line.Price.StringFixed(2),
			Quantity:   line.Quantity,
			Note:       notes[line.ID],
		}
	}
	return orderResponse{
		TableID:   tableID,
		Items:     items,
		TableNote: tableNote,
		Total:     ledger.Total(lines).StringFixed(2),
	}
}

func (h *OrderHandler) broadcastOrderChanged(tableID uuid.UUID) {
	if h.hub == nil {
		return
	}
	h.hub.Broadcast(ws.NewEvent(ws.EventOrderChanged, h.orderSnapshot(tableID)))
}
