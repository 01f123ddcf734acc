package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// MenuItem is read-only to the order engine: price and name are snapshotted
// into the ledger at add time.
type MenuItem struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
	MenuType string          `json:"menu_type"`
}

type MenuStore struct{ db *pgxpool.Pool }

func NewMenuStore(db *pgxpool.Pool) *MenuStore { return &MenuStore{db: db} }

func (s *MenuStore) GetMenuItem(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	var m MenuItem
	var price string
	err := s.db.QueryRow(ctx, `
    SELECT id, name, price::text, category, menu_type
    FROM menu_items WHERE id = $1
  `, id).Scan(&m.ID, &m.Name, &price, &m.Category, &m.MenuType)
	if err != nil {
		return MenuItem{}, err
	}
	m.Price, err = decimal.NewFromString(price)
	return m, err
}

func (s *MenuStore) ListMenuItems(ctx context.Context) ([]MenuItem, error) {
	rows, err := s.db.Query(ctx, `
    SELECT id, name, price::text, category, menu_type
    FROM menu_items ORDER BY category, name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MenuItem
	for rows.Next() {
		var m MenuItem
		var price string
		if err := rows.Scan(&m.ID, &m.Name, &price, &m.Category, &m.MenuType); err != nil {
			return nil, err
		}
		if m.Price, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
