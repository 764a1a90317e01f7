package invoices

import (
	"errors"
	"time"
)

// Invoice statuses.
const (
	StatusUnpaid = "unpaid"
	StatusPartly = "partially_paid"
	StatusPaid   = "paid"
)

var (
	// ErrInvoiceNotFound is returned when an invoice is missing.
	ErrInvoiceNotFound = errors.New("invoice not found")
	// ErrBadAmount is returned for a zero or negative amount.
	ErrBadAmount = errors.New("amount must be positive")
	// ErrOverpayment is returned when a payment exceeds the open balance.
	ErrOverpayment = errors.New("payment exceeds remaining balance")
)

// Invoice bills a patient, optionally tied to an appointment. Amounts are
// piasters (cents); the remaining balance is always computed, never stored.
type Invoice struct {
	ID            string    `json:"id"`
	ClinicID      string    `json:"clinic_id"`
	PatientID     string    `json:"patient_id"`
	AppointmentID string    `json:"appointment_id,omitempty"`
	TotalCents    int64     `json:"total_cents"`
	PaidCents     int64     `json:"paid_cents"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RemainingCents returns the open balance.
func (i *Invoice) RemainingCents() int64 {
	return i.TotalCents - i.PaidCents
}

// IsFullyPaid reports whether nothing remains to pay.
func (i *Invoice) IsFullyPaid() bool {
	return i.RemainingCents() <= 0
}
