package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Table is a physical seating unit. The ledger keys open orders by its ID;
// only the display name lives here.
type Table struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type TableStore struct{ db *pgxpool.Pool }

func NewTableStore(db *pgxpool.Pool) *TableStore { return &TableStore{db: db} }

func (s *TableStore) GetTable(ctx context.Context, id uuid.UUID) (Table, error) {
	var t Table
	err := s.db.QueryRow(ctx, `SELECT id, name FROM tables WHERE id = $1`, id).Scan(&t.ID, &t.Name)
	return t, err
}

func (s *TableStore) ListTables(ctx context.Context) ([]Table, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name FROM tables ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Table
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
