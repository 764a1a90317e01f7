package patients

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
}

// PostgresRepository stores patients in the relational database.
type PostgresRepository struct {
	db Querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(db Querier) *PostgresRepository {
	if db == nil {
		panic("patients: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, req *CreatePatientRequest) (*Patient, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	locale := req.Locale
	if locale == "" {
		locale = "en"
	}

	id := uuid.New()
	query := `
		INSERT INTO patients (id, user_id, clinic_id, name, phone, email, locale)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.db.QueryRow(ctx, query,
		id,
		req.UserID,
		req.ClinicID,
		req.Name,
		req.Phone,
		req.Email,
		locale,
	).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("patients: insert failed: %w", err)
	}

	return &Patient{
		ID:        id.String(),
		UserID:    req.UserID,
		ClinicID:  req.ClinicID,
		Name:      req.Name,
		Phone:     req.Phone,
		Email:     req.Email,
		Locale:    locale,
		CreatedAt: createdAt,
	}, nil
}

// GetByID fetches a patient by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Patient, error) {
	query := `
		SELECT id, COALESCE(user_id::text, ''), clinic_id, name, phone, email, locale, created_at
		FROM patients
		WHERE id = $1
	`
	row := r.db.QueryRow(ctx, query, id)
	var p Patient
	if err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.ClinicID,
		&p.Name,
		&p.Phone,
		&p.Email,
		&p.Locale,
		&p.CreatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("patients: select failed: %w", err)
	}
	return &p, nil
}

// GetByUser fetches the patient record linked to a user account.
func (r *PostgresRepository) GetByUser(ctx context.Context, userID string) (*Patient, error) {
	query := `
		SELECT id, COALESCE(user_id::text, ''), clinic_id, name, phone, email, locale, created_at
		FROM patients
		WHERE user_id = $1
	`
	row := r.db.QueryRow(ctx, query, userID)
	var p Patient
	if err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.ClinicID,
		&p.Name,
		&p.Phone,
		&p.Email,
		&p.Locale,
		&p.CreatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("patients: lookup by user failed: %w", err)
	}
	return &p, nil
}

// GetOrCreateByPhone finds a patient by phone within the clinic, creating a
// minimal record when none exists. Used by the public website booking path.
func (r *PostgresRepository) GetOrCreateByPhone(ctx context.Context, clinicID, phone, defaultName string) (*Patient, error) {
	query := `
		SELECT id, COALESCE(user_id::text, ''), clinic_id, name, phone, email, locale, created_at
		FROM patients
		WHERE clinic_id = $1 AND phone = $2
	`
	row := r.db.QueryRow(ctx, query, clinicID, phone)
	var p Patient
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.ClinicID,
		&p.Name,
		&p.Phone,
		&p.Email,
		&p.Locale,
		&p.CreatedAt,
	)
	if err == nil {
		return &p, nil
	}
	if err != pgx.ErrNoRows {
		return nil, fmt.Errorf("patients: lookup by phone failed: %w", err)
	}

	if defaultName == "" {
		defaultName = "Walk-in patient"
	}
	return r.Create(ctx, &CreatePatientRequest{
		ClinicID: clinicID,
		Name:     defaultName,
		Phone:    phone,
	})
}
