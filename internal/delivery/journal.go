package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Delivery statuses.
const (
	StatusQueued       = "queued"
	StatusSent         = "sent"
	StatusRetryPending = "retry_pending"
	StatusDead         = "dead"
)

// Delivery is one WhatsApp send attempt tracked through to completion.
type Delivery struct {
	ID           uuid.UUID
	ClinicID     string
	PhoneNumber  string
	PhoneNumber2 string
	Body         string
	Status       string
	Attempts     int
	NextRetryAt  *time.Time
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Querier covers pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Journal persists the lifecycle of each WhatsApp delivery so failed sends
// can be retried and exhausted ones inspected.
type Journal struct {
	pool Querier
}

// NewJournal creates a journal backed by pgx.
func NewJournal(pool Querier) *Journal {
	if pool == nil {
		panic("delivery: pgx pool required")
	}
	return &Journal{pool: pool}
}

// Insert records a freshly queued delivery.
func (j *Journal) Insert(ctx context.Context, d *Delivery) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.Status = StatusQueued
	query := `
		INSERT INTO whatsapp_deliveries
			(id, clinic_id, phone_number, phone_number2, body, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := j.pool.Exec(ctx, query, d.ID, d.ClinicID, d.PhoneNumber, d.PhoneNumber2, d.Body, d.Status); err != nil {
		return fmt.Errorf("delivery: insert journal row: %w", err)
	}
	return nil
}

// MarkSent finalizes a successful delivery.
func (j *Journal) MarkSent(ctx context.Context, id uuid.UUID, attempts int) error {
	query := `
		UPDATE whatsapp_deliveries
		SET status = 'sent', attempts = $2, last_error = '', updated_at = now()
		WHERE id = $1
	`
	if _, err := j.pool.Exec(ctx, query, id, attempts); err != nil {
		return fmt.Errorf("delivery: mark sent: %w", err)
	}
	return nil
}

// ScheduleRetry records a failed attempt and when the next one may run.
func (j *Journal) ScheduleRetry(ctx context.Context, id uuid.UUID, attempts int, nextRetry time.Time, lastError string) error {
	query := `
		UPDATE whatsapp_deliveries
		SET status = 'retry_pending', attempts = $2, next_retry_at = $3, last_error = $4, updated_at = now()
		WHERE id = $1
	`
	if _, err := j.pool.Exec(ctx, query, id, attempts, nextRetry, lastError); err != nil {
		return fmt.Errorf("delivery: schedule retry: %w", err)
	}
	return nil
}

// Requeue flips a retry candidate back to queued once it is on the wire, so
// the next retry pass does not enqueue a second copy.
func (j *Journal) Requeue(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE whatsapp_deliveries
		SET status = 'queued', next_retry_at = NULL, updated_at = now()
		WHERE id = $1
	`
	if _, err := j.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("delivery: requeue: %w", err)
	}
	return nil
}

// MarkDead parks a delivery that exhausted its attempts.
func (j *Journal) MarkDead(ctx context.Context, id uuid.UUID, attempts int, lastError string) error {
	query := `
		UPDATE whatsapp_deliveries
		SET status = 'dead', attempts = $2, next_retry_at = NULL, last_error = $3, updated_at = now()
		WHERE id = $1
	`
	if _, err := j.pool.Exec(ctx, query, id, attempts, lastError); err != nil {
		return fmt.Errorf("delivery: mark dead: %w", err)
	}
	return nil
}

// ListRetryCandidates returns deliveries whose retry window has opened.
func (j *Journal) ListRetryCandidates(ctx context.Context, limit int) ([]Delivery, error) {
	query := `
		SELECT id, clinic_id, phone_number, phone_number2, body, status, attempts,
		       next_retry_at, last_error, created_at, updated_at
		FROM whatsapp_deliveries
		WHERE status = 'retry_pending' AND next_retry_at <= now()
		ORDER BY next_retry_at
		LIMIT $1
	`
	rows, err := j.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("delivery: list retry candidates: %w", err)
	}
	defer rows.Close()

	var out []Delivery
	for rows.Next() {
		var d Delivery
		if err := rows.Scan(
			&d.ID, &d.ClinicID, &d.PhoneNumber, &d.PhoneNumber2, &d.Body,
			&d.Status, &d.Attempts, &d.NextRetryAt, &d.LastError,
			&d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("delivery: scan journal row: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListDead returns exhausted deliveries for inspection, newest first.
func (j *Journal) ListDead(ctx context.Context, limit int) ([]Delivery, error) {
	query := `
		SELECT id, clinic_id, phone_number, phone_number2, body, status, attempts,
		       next_retry_at, last_error, created_at, updated_at
		FROM whatsapp_deliveries
		WHERE status = 'dead'
		ORDER BY updated_at DESC
		LIMIT $1
	`
	rows, err := j.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("delivery: list dead: %w", err)
	}
	defer rows.Close()

	var out []Delivery
	for rows.Next() {
		var d Delivery
		if err := rows.Scan(
			&d.ID, &d.ClinicID, &d.PhoneNumber, &d.PhoneNumber2, &d.Body,
			&d.Status, &d.Attempts, &d.NextRetryAt, &d.LastError,
			&d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("delivery: scan journal row: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
