package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SettledItem is one line of a closed, settled order.
type SettledItem struct {
	Name     string          `json:"name"`
	Quantity int32           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// SettlementRecord is the historical record written when a settlement
// completes. The dashboard reads only these records, never the live ledger,
// so in-flight orders cannot leak into reports.
type SettlementRecord struct {
	ID            uuid.UUID     `json:"id"`
	TableName     string        `json:"table_name"`
	Cashier       string        `json:"cashier"`
	PaymentMethod string        `json:"payment_method"`
	PrintType     string        `json:"print_type"`
	Total         decimal.Decimal `json:"total"`
	Items         []SettledItem `json:"items"`
	SettledAt     time.Time     `json:"settled_at"`
}

// Expense is an operating expense counted against revenue.
type Expense struct {
	ID          uuid.UUID       `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	SpentAt     time.Time       `json:"spent_at"`
}

// Filter scopes a dashboard query. Start and End are inclusive dates; a
// single-day report has Start == End. An empty PaymentMethod matches all
// methods; otherwise it filters revenue only, expenses are always counted.
type Filter struct {
	Start         time.Time
	End           time.Time
	PaymentMethod string
}

// Bucket is one reporting day.
type Bucket struct {
	Date       string          `json:"date"`
	OrderCount int             `json:"order_count"`
	Revenue    decimal.Decimal `json:"revenue"`
	Expenses   decimal.Decimal `json:"expenses"`
	Net        decimal.Decimal `json:"net"`
}

// Aggregate folds settlement history and expenses into per-day buckets.
// Pure: identical inputs yield identical output, with one bucket per
// calendar day from Filter.Start through Filter.End in ascending order.
func Aggregate(records []SettlementRecord, expenses []Expense, f Filter) []Bucket {
	start := truncateDay(f.Start)
	end := truncateDay(f.End)
	if end.Before(start) {
		return nil
	}

	revenue := make(map[string]decimal.Decimal)
	counts := make(map[string]int)
	spent := make(map[string]decimal.Decimal)

	for _, rec := range records {
		day := truncateDay(rec.SettledAt)
		if day.Before(start) || day.After(end) {
			continue
		}
		if f.PaymentMethod != "" && rec.PaymentMethod != f.PaymentMethod {
			continue
		}
		key := day.Format("2006-01-02")
		revenue[key] = revenue[key].Add(rec.Total)
		counts[key]++
	}

	for _, e := range expenses {
		day := truncateDay(e.SpentAt)
		if day.Before(start) || day.After(end) {
			continue
		}
		key := day.Format("2006-01-02")
		spent[key] = spent[key].Add(e.Amount)
	}

	var out []Bucket
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		rev := revenue[key]
		exp := spent[key]
		out = append(out, Bucket{
			Date:       key,
			OrderCount: counts[key],
			Revenue:    rev,
			Expenses:   exp,
			Net:        rev.Sub(exp),
		})
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
