package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/benthanh-pos/api/internal/report"
)

var (
	errInvalidDate  = errors.New("invalid date, expected YYYY-MM-DD")
	errInvalidRange = errors.New("end must not be before start")
)

// ExpensesStore defines the database methods needed by expense handlers.
// Satisfied by *storage.HistoryStore; narrow interface for testability.
type ExpensesStore interface {
	InsertExpense(ctx context.Context, e report.Expense) error
	ListExpenses(ctx context.Context, start, end time.Time) ([]report.Expense, error)
}

// ExpensesHandler records and lists operating expenses.
type ExpensesHandler struct {
	store ExpensesStore
}

// NewExpensesHandler creates a new ExpensesHandler.
func NewExpensesHandler(store ExpensesStore) *ExpensesHandler {
	return &ExpensesHandler{store: store}
}

// RegisterRoutes registers expense endpoints on the given Chi router.
func (h *ExpensesHandler) RegisterRoutes(r chi.Router) {
	r.Post("/expenses", h.Create)
	r.Get("/expenses", h.List)
}

type createExpenseRequest struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

type expenseResponse struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	Amount      string    `json:"amount"`
	SpentAt     time.Time `json:"spent_at"`
}

// Create records an expense at the current time.
func (h *ExpensesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Description == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "description is required"})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.IsNegative() || amount.IsZero() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "amount must be a positive number"})
		return
	}

	e := report.Expense{
		ID:          uuid.New(),
		Description: req.Description,
		Amount:      amount,
		SpentAt:     time.Now().UTC(),
	}
	if err := h.store.InsertExpense(r.Context(), e); err != nil {
		log.Printf("ERROR: insert expense: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, expenseResponse{
		ID:          e.ID,
		Description: e.Description,
		Amount:      e.Amount.StringFixed(2),
		SpentAt:     e.SpentAt,
	})
}

// List returns expenses for an inclusive date range (same query parameters
// as the dashboard).
func (h *ExpensesHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	expenses, err := h.store.ListExpenses(r.Context(), f.Start, f.End.AddDate(0, 0, 1))
	if err != nil {
		log.Printf("ERROR: list expenses: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	out := make([]expenseResponse, len(expenses))
	for i, e := range expenses {
		out[i] = expenseResponse{
			ID:          e.ID,
			Description: e.Description,
			Amount:      e.Amount.StringFixed(2),
			SpentAt:     e.SpentAt,
		}
	}
	writeJSON(w, http.StatusOK, out)
}
