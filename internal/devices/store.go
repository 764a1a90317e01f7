// Package devices tracks push-capable mobile devices per user account.
package devices

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Platforms a device token may belong to.
const (
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
)

var (
	// ErrDeviceNotFound is returned when no active device matches.
	ErrDeviceNotFound = errors.New("device not found")
	// ErrBadPlatform is returned for an unknown platform value.
	ErrBadPlatform = errors.New("unknown device platform")
	// ErrMissingToken is returned when the push token is empty.
	ErrMissingToken = errors.New("device token required")
)

// Device is one registered push target. Unregistering deactivates the row
// instead of deleting it so token history stays auditable.
type Device struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	Platform  string    `json:"platform"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists device registrations over database/sql.
type Store struct {
	db *sql.DB
}

// NewStore creates a device store.
func NewStore(db *sql.DB) *Store {
	if db == nil {
		panic("devices: sql db required")
	}
	return &Store{db: db}
}

// Register upserts a device token for the user. Re-registering an existing
// token reactivates it and refreshes the platform.
func (s *Store) Register(ctx context.Context, userID, token, platform string) (*Device, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingToken
	}
	if platform != PlatformIOS && platform != PlatformAndroid {
		return nil, ErrBadPlatform
	}

	d := &Device{
		ID:       uuid.New(),
		UserID:   userID,
		Token:    token,
		Platform: platform,
		IsActive: true,
	}
	query := `
		INSERT INTO device_tokens (id, user_id, token, platform, is_active)
		VALUES ($1, $2, $3, $4, true)
		ON CONFLICT (user_id, token)
		DO UPDATE SET platform = EXCLUDED.platform, is_active = true, updated_at = now()
		RETURNING id, created_at, updated_at
	`
	err := s.db.QueryRowContext(ctx, query, d.ID, userID, token, platform).
		Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("devices: register failed: %w", err)
	}
	return d, nil
}

// Unregister deactivates a device token for the user.
func (s *Store) Unregister(ctx context.Context, userID, token string) error {
	query := `
		UPDATE device_tokens
		SET is_active = false, updated_at = now()
		WHERE user_id = $1 AND token = $2 AND is_active = true
	`
	res, err := s.db.ExecContext(ctx, query, userID, token)
	if err != nil {
		return fmt.Errorf("devices: unregister failed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("devices: rows affected: %w", err)
	}
	if affected == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// ListActiveByUser returns the user's active devices, newest first.
func (s *Store) ListActiveByUser(ctx context.Context, userID string) ([]*Device, error) {
	query := `
		SELECT id, user_id, token, platform, is_active, created_at, updated_at
		FROM device_tokens
		WHERE user_id = $1 AND is_active = true
		ORDER BY updated_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("devices: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Device
	for rows.Next() {
		var d Device
		if err := rows.Scan(&d.ID, &d.UserID, &d.Token, &d.Platform, &d.IsActive, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("devices: scan failed: %w", err)
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}
