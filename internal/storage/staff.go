package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Staff is an operator account. Business/admin accounts log in with email +
// bcrypt password; floor staff log in with a short PIN. PINs are stored as
// plaintext: they are low-entropy and only grant staff-level access, a
// tradeoff accepted for fast cashier login.
type Staff struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email,omitempty"`
	HashedPassword string    `json:"-"`
	Pin            string    `json:"-"`
	AuthLevel      string    `json:"auth_level"`
}

type StaffStore struct{ db *pgxpool.Pool }

func NewStaffStore(db *pgxpool.Pool) *StaffStore { return &StaffStore{db: db} }

func (s *StaffStore) GetStaffByEmail(ctx context.Context, email string) (Staff, error) {
	var st Staff
	err := s.db.QueryRow(ctx, `
    SELECT id, name, COALESCE(email,''), COALESCE(hashed_password,''), COALESCE(pin,''), auth_level
    FROM staff WHERE email = $1
  `, email).Scan(&st.ID, &st.Name, &st.Email, &st.HashedPassword, &st.Pin, &st.AuthLevel)
	return st, err
}

func (s *StaffStore) GetStaffByPin(ctx context.Context, pin string) (Staff, error) {
	var st Staff
	err := s.db.QueryRow(ctx, `
    SELECT id, name, COALESCE(email,''), COALESCE(hashed_password,''), COALESCE(pin,''), auth_level
    FROM staff WHERE pin = $1
  `, pin).Scan(&st.ID, &st.Name, &st.Email, &st.HashedPassword, &st.Pin, &st.AuthLevel)
	return st, err
}

func (s *StaffStore) GetStaffByID(ctx context.Context, id uuid.UUID) (Staff, error) {
	var st Staff
	err := s.db.QueryRow(ctx, `
    SELECT id, name, COALESCE(email,''), COALESCE(hashed_password,''), COALESCE(pin,''), auth_level
    FROM staff WHERE id = $1
  `, id).Scan(&st.ID, &st.Name, &st.Email, &st.HashedPassword, &st.Pin, &st.AuthLevel)
	return st, err
}
