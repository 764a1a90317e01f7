// Package users provides lookups over platform user accounts.
package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Roles assignable to a user account.
const (
	RoleAdmin   = "admin"
	RoleDoctor  = "doctor"
	RolePatient = "patient"
)

// ErrUserNotFound is returned when a user is not found.
var ErrUserNotFound = errors.New("user not found")

// User is a platform account. Doctors and patients link to a user row.
type User struct {
	ID        string    `json:"id"`
	ClinicID  string    `json:"clinic_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	Locale    string    `json:"locale"`
	CreatedAt time.Time `json:"created_at"`
}

// Querier abstracts pgxpool.Pool for tests.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store reads user accounts from postgres.
type Store struct {
	db Querier
}

// NewStore creates a user store backed by pgx.
func NewStore(db Querier) *Store {
	if db == nil {
		panic("users: pgx pool required")
	}
	return &Store{db: db}
}

// GetByID fetches a single user.
func (s *Store) GetByID(ctx context.Context, id string) (*User, error) {
	query := `
		SELECT id, clinic_id, name, email, phone, role, locale, created_at
		FROM users
		WHERE id = $1
	`
	var u User
	if err := s.db.QueryRow(ctx, query, id).Scan(
		&u.ID,
		&u.ClinicID,
		&u.Name,
		&u.Email,
		&u.Phone,
		&u.Role,
		&u.Locale,
		&u.CreatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("users: select failed: %w", err)
	}
	return &u, nil
}

// ListAdminsByClinic returns every admin account for the clinic. Used by the
// low-stock fan-out to pick recipients.
func (s *Store) ListAdminsByClinic(ctx context.Context, clinicID string) ([]*User, error) {
	query := `
		SELECT id, clinic_id, name, email, phone, role, locale, created_at
		FROM users
		WHERE clinic_id = $1 AND role = $2
		ORDER BY created_at
	`
	rows, err := s.db.Query(ctx, query, clinicID, RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("users: list admins failed: %w", err)
	}
	defer rows.Close()

	var out []*User
	for rows.Next() {
		var u User
		if err := rows.Scan(
			&u.ID,
			&u.ClinicID,
			&u.Name,
			&u.Email,
			&u.Phone,
			&u.Role,
			&u.Locale,
			&u.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("users: scan failed: %w", err)
		}
		out = append(out, &u)
	}
	return out, rows.Err()
}
