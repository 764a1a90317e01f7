package appointments

import "errors"

var (
	// ErrAppointmentNotFound is returned when an appointment is not found
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrSlotTaken is returned when the requested doctor/date/time is already booked
	ErrSlotTaken = errors.New("slot is no longer available")

	// ErrBadStatus is returned for unknown or disallowed status values
	ErrBadStatus = errors.New("invalid appointment status")

	// ErrNotCancellable is returned when cancellation rules reject the request
	ErrNotCancellable = errors.New("appointment can no longer be cancelled")

	// ErrMissingReason is returned when a cancellation carries no reason
	ErrMissingReason = errors.New("cancellation reason is required")

	// ErrBadTime is returned when the date or start time is malformed
	ErrBadTime = errors.New("date must be YYYY-MM-DD and time must be HH:MM")
)
