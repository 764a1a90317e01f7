// Package events defines versioned domain events and the outbox that carries
// them to the notification fan-out.
package events

import "time"

// Event type names stored in the outbox.
const (
	TypeAppointmentCreated       = "appointment.created.v1"
	TypeAppointmentStatusChanged = "appointment.status_changed.v1"
	TypeInvoiceCreated           = "invoice.created.v1"
	TypePaymentReceived          = "payment.received.v1"
	TypeLowStockAlert            = "inventory.low_stock.v1"
)

type AppointmentCreatedV1 struct {
	EventID       string    `json:"event_id"`
	ClinicID      string    `json:"clinic_id"`
	AppointmentID string    `json:"appointment_id"`
	PatientID     string    `json:"patient_id"`
	DoctorID      string    `json:"doctor_id"`
	ServiceID     string    `json:"service_id,omitempty"`
	Date          string    `json:"date"`
	StartTime     string    `json:"start_time"`
	CreatedAt     time.Time `json:"created_at"`
}

type AppointmentStatusChangedV1 struct {
	EventID       string    `json:"event_id"`
	ClinicID      string    `json:"clinic_id"`
	AppointmentID string    `json:"appointment_id"`
	PatientID     string    `json:"patient_id"`
	DoctorID      string    `json:"doctor_id"`
	Date          string    `json:"date"`
	StartTime     string    `json:"start_time"`
	OldStatus     string    `json:"old_status"`
	NewStatus     string    `json:"new_status"`
	ChangedAt     time.Time `json:"changed_at"`
}

type InvoiceCreatedV1 struct {
	EventID    string    `json:"event_id"`
	ClinicID   string    `json:"clinic_id"`
	InvoiceID  string    `json:"invoice_id"`
	PatientID  string    `json:"patient_id"`
	TotalCents int64     `json:"total_cents"`
	CreatedAt  time.Time `json:"created_at"`
}

type PaymentReceivedV1 struct {
	EventID        string    `json:"event_id"`
	ClinicID       string    `json:"clinic_id"`
	InvoiceID      string    `json:"invoice_id"`
	PatientID      string    `json:"patient_id"`
	AmountCents    int64     `json:"amount_cents"`
	RemainingCents int64     `json:"remaining_cents"`
	OccurredAt     time.Time `json:"occurred_at"`
}

type LowStockAlertV1 struct {
	EventID      string    `json:"event_id"`
	ClinicID     string    `json:"clinic_id"`
	ItemID       string    `json:"item_id"`
	ItemName     string    `json:"item_name"`
	Quantity     int       `json:"quantity"`
	ReorderLevel int       `json:"reorder_level"`
	OccurredAt   time.Time `json:"occurred_at"`
}
