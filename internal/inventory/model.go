package inventory

import (
	"errors"
	"time"
)

var (
	// ErrItemNotFound is returned when an item is missing.
	ErrItemNotFound = errors.New("inventory item not found")
	// ErrBadQuantity is returned for a zero or negative quantity.
	ErrBadQuantity = errors.New("quantity must be positive")
	// ErrInsufficientStock is returned when a consume would go negative.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidName is returned for a blank item name.
	ErrInvalidName = errors.New("item name required")
)

// Item is a consumable tracked per clinic.
type Item struct {
	ID           string    `json:"id"`
	ClinicID     string    `json:"clinic_id"`
	Name         string    `json:"name"`
	Quantity     int       `json:"quantity"`
	ReorderLevel int       `json:"reorder_level"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BelowReorder reports whether the quantity sits at or under the reorder level.
func (i *Item) BelowReorder() bool {
	return i.Quantity <= i.ReorderLevel
}
