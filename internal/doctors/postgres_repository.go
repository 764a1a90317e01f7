package doctors

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Querier abstracts pgxpool.Pool for tests.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresRepository stores doctors in the relational database.
type PostgresRepository struct {
	db Querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(db Querier) *PostgresRepository {
	if db == nil {
		panic("doctors: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateDoctorRequest) (*Doctor, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	query := `
		INSERT INTO doctors (id, user_id, clinic_id, name, specialty, available_from, available_to)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.db.QueryRow(ctx, query,
		id,
		req.UserID,
		req.ClinicID,
		req.Name,
		req.Specialty,
		req.AvailableFrom,
		req.AvailableTo,
	).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("doctors: insert failed: %w", err)
	}

	return &Doctor{
		ID:            id.String(),
		UserID:        req.UserID,
		ClinicID:      req.ClinicID,
		Name:          req.Name,
		Specialty:     req.Specialty,
		AvailableFrom: req.AvailableFrom,
		AvailableTo:   req.AvailableTo,
		CreatedAt:     createdAt,
	}, nil
}

// GetByID fetches a doctor by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Doctor, error) {
	query := `
		SELECT id, user_id, clinic_id, name, specialty, available_from, available_to, created_at
		FROM doctors
		WHERE id = $1
	`
	row := r.db.QueryRow(ctx, query, id)
	var d Doctor
	if err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.ClinicID,
		&d.Name,
		&d.Specialty,
		&d.AvailableFrom,
		&d.AvailableTo,
		&d.CreatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("doctors: select failed: %w", err)
	}
	return &d, nil
}

// GetByUser fetches the doctor record linked to a user account.
func (r *PostgresRepository) GetByUser(ctx context.Context, userID string) (*Doctor, error) {
	query := `
		SELECT id, user_id, clinic_id, name, specialty, available_from, available_to, created_at
		FROM doctors
		WHERE user_id = $1
	`
	row := r.db.QueryRow(ctx, query, userID)
	var d Doctor
	if err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.ClinicID,
		&d.Name,
		&d.Specialty,
		&d.AvailableFrom,
		&d.AvailableTo,
		&d.CreatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("doctors: lookup by user failed: %w", err)
	}
	return &d, nil
}

// ListByClinic returns all doctors attached to a clinic.
func (r *PostgresRepository) ListByClinic(ctx context.Context, clinicID string) ([]*Doctor, error) {
	query := `
		SELECT id, user_id, clinic_id, name, specialty, available_from, available_to, created_at
		FROM doctors
		WHERE clinic_id = $1
		ORDER BY name
	`
	rows, err := r.db.Query(ctx, query, clinicID)
	if err != nil {
		return nil, fmt.Errorf("doctors: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Doctor
	for rows.Next() {
		var d Doctor
		if err := rows.Scan(
			&d.ID,
			&d.UserID,
			&d.ClinicID,
			&d.Name,
			&d.Specialty,
			&d.AvailableFrom,
			&d.AvailableTo,
			&d.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("doctors: scan failed: %w", err)
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

// UpdateAvailability changes the doctor's daily working window.
func (r *PostgresRepository) UpdateAvailability(ctx context.Context, id, from, to string) error {
	query := `
		UPDATE doctors
		SET available_from = $2, available_to = $3
		WHERE id = $1
		RETURNING id
	`
	var got string
	if err := r.db.QueryRow(ctx, query, id, from, to).Scan(&got); err != nil {
		if err == pgx.ErrNoRows {
			return ErrDoctorNotFound
		}
		return fmt.Errorf("doctors: update availability failed: %w", err)
	}
	return nil
}
