package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Recipient types stored alongside each notification row.
const (
	RecipientPatient = "patient"
	RecipientDoctor  = "doctor"
	RecipientAdmin   = "admin"
)

// ErrNotificationNotFound is returned when a notification row is missing or
// belongs to another recipient.
var ErrNotificationNotFound = errors.New("notification not found")

// Notification is one in-app notification row. The database record is the
// mandatory channel: fan-out fails if this row cannot be written.
type Notification struct {
	ID            uuid.UUID `json:"id"`
	ClinicID      string    `json:"clinic_id"`
	RecipientID   string    `json:"recipient_id"`
	RecipientType string    `json:"recipient_type"`
	EventType     string    `json:"event_type"`
	Title         string    `json:"title"`
	Body          string    `json:"body"`
	Read          bool      `json:"read"`
	CreatedAt     time.Time `json:"created_at"`
}

// Querier covers pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store persists notification rows.
type Store struct {
	db Querier
}

// NewStore creates a notification store backed by pgx.
func NewStore(db Querier) *Store {
	if db == nil {
		panic("notify: pgx pool required")
	}
	return &Store{db: db}
}

// Insert writes a notification row.
func (s *Store) Insert(ctx context.Context, n *Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	query := `
		INSERT INTO notifications
			(id, clinic_id, recipient_id, recipient_type, event_type, title, body)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	err := s.db.QueryRow(ctx, query,
		n.ID, n.ClinicID, n.RecipientID, n.RecipientType, n.EventType, n.Title, n.Body,
	).Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("notify: insert notification: %w", err)
	}
	return nil
}

// ListByRecipient returns the recipient's notifications, newest first.
func (s *Store) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]*Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, clinic_id, recipient_id, recipient_type, event_type, title, body, read, created_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.db.Query(ctx, query, recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("notify: list notifications: %w", err)
	}
	defer rows.Close()

	var out []*Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(
			&n.ID, &n.ClinicID, &n.RecipientID, &n.RecipientType,
			&n.EventType, &n.Title, &n.Body, &n.Read, &n.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("notify: scan notification: %w", err)
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

// UnreadCount returns the recipient's unread notification count.
func (s *Store) UnreadCount(ctx context.Context, recipientID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND read = false`
	if err := s.db.QueryRow(ctx, query, recipientID).Scan(&count); err != nil {
		return 0, fmt.Errorf("notify: count unread: %w", err)
	}
	return count, nil
}

// MarkRead flags one notification as read for the recipient.
func (s *Store) MarkRead(ctx context.Context, recipientID string, id uuid.UUID) error {
	query := `
		UPDATE notifications
		SET read = true
		WHERE id = $1 AND recipient_id = $2
	`
	ct, err := s.db.Exec(ctx, query, id, recipientID)
	if err != nil {
		return fmt.Errorf("notify: mark read: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead flags every unread notification for the recipient.
func (s *Store) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	query := `
		UPDATE notifications
		SET read = true
		WHERE recipient_id = $1 AND read = false
	`
	ct, err := s.db.Exec(ctx, query, recipientID)
	if err != nil {
		return 0, fmt.Errorf("notify: mark all read: %w", err)
	}
	return ct.RowsAffected(), nil
}

// Delete removes one notification for the recipient.
func (s *Store) Delete(ctx context.Context, recipientID string, id uuid.UUID) error {
	query := `DELETE FROM notifications WHERE id = $1 AND recipient_id = $2`
	ct, err := s.db.Exec(ctx, query, id, recipientID)
	if err != nil {
		return fmt.Errorf("notify: delete notification: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
