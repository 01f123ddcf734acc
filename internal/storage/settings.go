package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Well-known settings keys.
const (
	SettingsKeyPrint = "printSettings"
	SettingsKeyBank  = "bankSettings"
)

// SettingsStore is a small key-value store for user-configurable JSON blobs
// (print formatting, bank display). Values are merged over hard-coded
// defaults by the consumer, never here.
type SettingsStore struct{ db *pgxpool.Pool }

func NewSettingsStore(db *pgxpool.Pool) *SettingsStore { return &SettingsStore{db: db} }

// GetSetting returns the stored JSON for key, or nil when absent.
func (s *SettingsStore) GetSetting(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return value, err
}

// PutSetting upserts the JSON for key.
func (s *SettingsStore) PutSetting(ctx context.Context, key string, value []byte) error {
	_, err := s.db.Exec(ctx, `
    INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, NOW())
    ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
  `, key, value)
	return err
}
