package clinics

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewStore(client)
}

func TestGetReturnsDefaultsWhenMissing(t *testing.T) {
	store := newTestStore(t)

	cfg, err := store.Get(context.Background(), "clinic-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if cfg.ClinicID != "clinic-1" {
		t.Fatalf("expected clinic id to be set, got %s", cfg.ClinicID)
	}
	if cfg.SlotIntervalMinutes != 30 {
		t.Fatalf("expected default slot interval, got %d", cfg.SlotIntervalMinutes)
	}
	if cfg.DayStart != "09:00" || cfg.DayEnd != "17:00" {
		t.Fatalf("expected default day window, got %s-%s", cfg.DayStart, cfg.DayEnd)
	}
}

func TestSetThenGetRoundTrips(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	want := &Settings{
		ClinicID:            "clinic-2",
		Name:                "Nile Dental",
		Timezone:            "Africa/Cairo",
		SlotIntervalMinutes: 15,
		DayStart:            "10:00",
		DayEnd:              "18:00",
		EmailEnabled:        true,
		WhatsAppEnabled:     false,
		NotifyEmails:        []string{"owner@niledental.example"},
	}
	if err := store.Set(ctx, want); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	got, err := store.Get(ctx, "clinic-2")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Name != want.Name || got.SlotIntervalMinutes != 15 || got.WhatsAppEnabled {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if len(got.NotifyEmails) != 1 || got.NotifyEmails[0] != "owner@niledental.example" {
		t.Fatalf("expected notify emails to round trip, got %v", got.NotifyEmails)
	}
}
