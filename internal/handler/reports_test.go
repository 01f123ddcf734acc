package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/benthanh-pos/api/internal/enum"
	"github.com/benthanh-pos/api/internal/handler"
	"github.com/benthanh-pos/api/internal/middleware"
	"github.com/benthanh-pos/api/internal/report"
)

// --- Mock store ---

type mockReportsStore struct {
	settlements []report.SettlementRecord
	expenses    []report.Expense
}

func (m *mockReportsStore) ListSettlements(_ context.Context, start, end time.Time) ([]report.SettlementRecord, error) {
	var out []report.SettlementRecord
	for _, rec := range m.settlements {
		if !rec.SettledAt.Before(start) && rec.SettledAt.Before(end) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *mockReportsStore) ListExpenses(_ context.Context, start, end time.Time) ([]report.Expense, error) {
	var out []report.Expense
	for _, e := range m.expenses {
		if !e.SpentAt.Before(start) && e.SpentAt.Before(end) {
			out = append(out, e)
		}
	}
	return out, nil
}

func setupReportsRouter(store *mockReportsStore) *chi.Mux {
	h := handler.NewReportsHandler(store)
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testSecret))
	h.RegisterRoutes(r)
	return r
}

func mustDay(day string) time.Time {
	t, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	return t
}

func decodeListResponse(t *testing.T, rr *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func settlementAt(day string, total string, method string) report.SettlementRecord {
	t, _ := time.Parse("2006-01-02", day)
	return report.SettlementRecord{
		ID:            uuid.New(),
		TableName:     "T1",
		Cashier:       "Mai",
		PaymentMethod: method,
		PrintType:     enum.PrintTypeFull,
		Total:         mustDecimal(total),
		SettledAt:     t.Add(12 * time.Hour),
	}
}

// --- Dashboard tests ---

func TestDashboard_SingleDay(t *testing.T) {
	store := &mockReportsStore{
		settlements: []report.SettlementRecord{
			settlementAt("2026-08-27", "100000", enum.PaymentMethodCash),
			settlementAt("2026-08-27", "50000", enum.PaymentMethodQRIS),
		},
		expenses: []report.Expense{
			{ID: uuid.New(), Description: "ice", Amount: mustDecimal("20000"), SpentAt: mustDay("2026-08-27").Add(8 * time.Hour)},
		},
	}
	r := setupReportsRouter(store)

	rr := doAuthRequest(t, r, "GET", "/reports/dashboard?date=2026-08-27", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	buckets := decodeListResponse(t, rr)
	if len(buckets) != 1 {
		t.Fatalf("buckets = %d, want 1", len(buckets))
	}
	b := buckets[0]
	if b["date"] != "2026-08-27" {
		t.Errorf("date: got %v", b["date"])
	}
	if b["order_count"] != float64(2) {
		t.Errorf("order_count: got %v, want 2", b["order_count"])
	}
	if b["revenue"] != "150000.00" {
		t.Errorf("revenue: got %v, want 150000.00", b["revenue"])
	}
	if b["net"] != "130000.00" {
		t.Errorf("net: got %v, want 130000.00", b["net"])
	}
}

func TestDashboard_RangeHasBucketPerDay(t *testing.T) {
	store := &mockReportsStore{
		settlements: []report.SettlementRecord{
			settlementAt("2026-08-25", "100000", enum.PaymentMethodCash),
		},
	}
	r := setupReportsRouter(store)

	rr := doAuthRequest(t, r, "GET", "/reports/dashboard?start=2026-08-25&end=2026-08-27", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}

	buckets := decodeListResponse(t, rr)
	if len(buckets) != 3 {
		t.Fatalf("buckets = %d, want 3", len(buckets))
	}
	if buckets[2]["revenue"] != "0.00" {
		t.Errorf("empty day revenue: got %v, want 0.00", buckets[2]["revenue"])
	}
}

func TestDashboard_PaymentMethodFiltersRevenueOnly(t *testing.T) {
	store := &mockReportsStore{
		settlements: []report.SettlementRecord{
			settlementAt("2026-08-27", "100000", enum.PaymentMethodCash),
			settlementAt("2026-08-27", "50000", enum.PaymentMethodQRIS),
		},
		expenses: []report.Expense{
			{ID: uuid.New(), Description: "gas", Amount: mustDecimal("10000"), SpentAt: mustDay("2026-08-27").Add(time.Hour)},
		},
	}
	r := setupReportsRouter(store)

	rr := doAuthRequest(t, r, "GET", "/reports/dashboard?date=2026-08-27&payment_method="+enum.PaymentMethodCash, nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d; body: %s", rr.Code, rr.Body.String())
	}

	buckets := decodeListResponse(t, rr)
	if buckets[0]["revenue"] != "100000.00" {
		t.Errorf("revenue: got %v, want 100000.00", buckets[0]["revenue"])
	}
	if buckets[0]["expenses"] != "10000.00" {
		t.Errorf("expenses: got %v, want 10000.00", buckets[0]["expenses"])
	}
}

func TestDashboard_BadDate(t *testing.T) {
	r := setupReportsRouter(&mockReportsStore{})

	rr := doAuthRequest(t, r, "GET", "/reports/dashboard?date=yesterday", nil)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestDashboard_InvertedRange(t *testing.T) {
	r := setupReportsRouter(&mockReportsStore{})

	rr := doAuthRequest(t, r, "GET", "/reports/dashboard?start=2026-08-27&end=2026-08-25", nil)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}
