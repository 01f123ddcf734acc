package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/benthanh-pos/api/internal/report"
)

// ReportsStore defines the database methods needed by report handlers.
// Satisfied by *storage.HistoryStore; narrow interface for testability.
type ReportsStore interface {
	ListSettlements(ctx context.Context, start, end time.Time) ([]report.SettlementRecord, error)
	ListExpenses(ctx context.Context, start, end time.Time) ([]report.Expense, error)
}

// ReportsHandler serves the dashboard aggregation.
type ReportsHandler struct {
	store ReportsStore
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(store ReportsStore) *ReportsHandler {
	return &ReportsHandler{store: store}
}

// RegisterRoutes registers report endpoints on the given Chi router.
func (h *ReportsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/reports/dashboard", h.Dashboard)
}

type bucketResponse struct {
	Date       string `json:"date"`
	OrderCount int    `json:"order_count"`
	Revenue    string `json:"revenue"`
	Expenses   string `json:"expenses"`
	Net        string `json:"net"`
}

// Dashboard returns per-day totals for a date range. Accepts either
// ?date=YYYY-MM-DD for a single day, or ?start=...&end=... with both
// bounds inclusive. ?payment_method= filters revenue to one method.
func (h *ReportsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	// History rows are fetched with an exclusive upper bound one day past
	// the inclusive End date.
	upper := f.End.AddDate(0, 0, 1)
	records, err := h.store.ListSettlements(r.Context(), f.Start, upper)
	if err != nil {
		log.Printf("ERROR: list settlements: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	expenses, err := h.store.ListExpenses(r.Context(), f.Start, upper)
	if err != nil {
		log.Printf("ERROR: list expenses: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	buckets := report.Aggregate(records, expenses, f)
	out := make([]bucketResponse, len(buckets))
	for i, b := range buckets {
		out[i] = bucketResponse{
			Date:       b.Date,
			OrderCount: b.OrderCount,
			Revenue:    b.Revenue.StringFixed(2),
			Expenses:   b.Expenses.StringFixed(2),
			Net:        b.Net.StringFixed(2),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func parseFilter(r *http.Request) (report.Filter, error) {
	q := r.URL.Query()
	f := report.Filter{PaymentMethod: q.Get("payment_method")}

	if date := q.Get("date"); date != "" {
		day, err := time.Parse("2006-01-02", date)
		if err != nil {
			return f, errInvalidDate
		}
		f.Start, f.End = day, day
		return f, nil
	}

	start, err := time.Parse("2006-01-02", q.Get("start"))
	if err != nil {
		return f, errInvalidDate
	}
	end, err := time.Parse("2006-01-02", q.Get("end"))
	if err != nil {
		return f, errInvalidDate
	}
	if end.Before(start) {
		return f, errInvalidRange
	}
	f.Start, f.End = start, end
	return f, nil
}
