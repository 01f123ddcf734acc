package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/benthanh-pos/api/internal/report"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// HistoryStore persists closed settlements and expenses. The dashboard
// aggregator consumes these rows; the live ledger is never written here.
type HistoryStore struct{ db *pgxpool.Pool }

func NewHistoryStore(db *pgxpool.Pool) *HistoryStore { return &HistoryStore{db: db} }

func (s *HistoryStore) InsertSettlement(ctx context.Context, rec report.SettlementRecord) error {
	items, err := json.Marshal(rec.Items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}
	_, err = s.db.Exec(ctx, `
    INSERT INTO settlements (id, table_name, cashier, payment_method, print_type, total, items, settled_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
  `, rec.ID, rec.TableName, rec.Cashier, rec.PaymentMethod, rec.PrintType, rec.Total.StringFixed(2), items, rec.SettledAt)
	return err
}

// ListSettlements returns settlements with settled_at in [start, end).
func (s *HistoryStore) ListSettlements(ctx context.Context, start, end time.Time) ([]report.SettlementRecord, error) {
	rows, err := s.db.Query(ctx, `
    SELECT id, table_name, cashier, payment_method, print_type, total::text, items, settled_at
    FROM settlements
    WHERE settled_at >= $1 AND settled_at < $2
    ORDER BY settled_at
  `, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []report.SettlementRecord
	for rows.Next() {
		var rec report.SettlementRecord
		var total string
		var items []byte
		if err := rows.Scan(&rec.ID, &rec.TableName, &rec.Cashier, &rec.PaymentMethod, &rec.PrintType, &total, &items, &rec.SettledAt); err != nil {
			return nil, err
		}
		if rec.Total, err = decimal.NewFromString(total); err != nil {
			return nil, err
		}
		if len(items) > 0 {
			if err := json.Unmarshal(items, &rec.Items); err != nil {
				return nil, fmt.Errorf("unmarshal items: %w", err)
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *HistoryStore) InsertExpense(ctx context.Context, e report.Expense) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := s.db.Exec(ctx, `
    INSERT INTO expenses (id, description, amount, spent_at)
    VALUES ($1, $2, $3, $4)
  `, e.ID, e.Description, e.Amount.StringFixed(2), e.SpentAt)
	return err
}

// ListExpenses returns expenses with spent_at in [start, end).
func (s *HistoryStore) ListExpenses(ctx context.Context, start, end time.Time) ([]report.Expense, error) {
	rows, err := s.db.Query(ctx, `
    SELECT id, description, amount::text, spent_at
    FROM expenses
    WHERE spent_at >= $1 AND spent_at < $2
    ORDER BY spent_at
  `, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []report.Expense
	for rows.Next() {
		var e report.Expense
		var amount string
		if err := rows.Scan(&e.ID, &e.Description, &amount, &e.SpentAt); err != nil {
			return nil, err
		}
		if e.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
