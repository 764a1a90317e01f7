package appointments

import (
	"time"
)

// Appointment statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// Appointment is a booked slot for a patient with a doctor.
type Appointment struct {
	ID                 string    `json:"id"`
	PatientID          string    `json:"patient_id"`
	DoctorID           string    `json:"doctor_id"`
	ClinicID           string    `json:"clinic_id"`
	ServiceID          string    `json:"service_id,omitempty"`
	Date               string    `json:"date"`       // "2006-01-02"
	StartTime          string    `json:"start_time"` // "15:04"
	Status             string    `json:"status"`
	Notes              string    `json:"notes,omitempty"`
	CancellationReason string    `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ValidStatus reports whether s is a known appointment status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// BlocksSlot reports whether an appointment in this status occupies its slot.
func BlocksSlot(status string) bool {
	return status == StatusPending || status == StatusConfirmed
}

// StartsAt combines the date and start time. The zero time is returned for
// malformed rows.
func (a *Appointment) StartsAt() time.Time {
	ts, err := time.Parse("2006-01-02 15:04", a.Date+" "+a.StartTime)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// CanBeCancelled reports whether the patient may still cancel: the
// appointment must be pending or confirmed and must not have started.
func (a *Appointment) CanBeCancelled(now time.Time) bool {
	if !BlocksSlot(a.Status) {
		return false
	}
	start := a.StartsAt()
	return !start.IsZero() && start.After(now)
}
