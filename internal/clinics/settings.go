// Package clinics provides per-clinic settings backed by Redis.
package clinics

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Settings holds clinic-level configuration consulted by the scheduler and
// the notification fan-out.
type Settings struct {
	ClinicID string `json:"clinic_id"`
	Name     string `json:"name"`
	Timezone string `json:"timezone"` // e.g., "Africa/Cairo"

	// Scheduling
	SlotIntervalMinutes int    `json:"slot_interval_minutes"`
	DayStart            string `json:"day_start"` // "09:00" in 24-hour format
	DayEnd              string `json:"day_end"`   // "17:00" in 24-hour format

	// Notification channel toggles
	EmailEnabled    bool     `json:"email_enabled"`
	WhatsAppEnabled bool     `json:"whatsapp_enabled"`
	NotifyEmails    []string `json:"notify_emails,omitempty"`
}

// DefaultSettings returns settings used when a clinic has never been configured.
func DefaultSettings(clinicID string) *Settings {
	return &Settings{
		ClinicID:            clinicID,
		Name:                "Clinic",
		Timezone:            "Africa/Cairo",
		SlotIntervalMinutes: 30,
		DayStart:            "09:00",
		DayEnd:              "17:00",
		EmailEnabled:        true,
		WhatsAppEnabled:     true,
	}
}

// Store provides persistence for clinic settings.
type Store struct {
	redis *redis.Client
}

// NewStore creates a settings store backed by the given Redis client.
func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

func (s *Store) key(clinicID string) string {
	return fmt.Sprintf("clinic:settings:%s", clinicID)
}

// Get retrieves clinic settings, returning defaults if not found.
func (s *Store) Get(ctx context.Context, clinicID string) (*Settings, error) {
	data, err := s.redis.Get(ctx, s.key(clinicID)).Bytes()
	if err == redis.Nil {
		return DefaultSettings(clinicID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("clinics: get settings: %w", err)
	}

	var cfg Settings
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("clinics: unmarshal settings: %w", err)
	}
	return &cfg, nil
}

// Set saves clinic settings.
func (s *Store) Set(ctx context.Context, cfg *Settings) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("clinics: marshal settings: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(cfg.ClinicID), data, 0).Err(); err != nil {
		return fmt.Errorf("clinics: set settings: %w", err)
	}
	return nil
}
