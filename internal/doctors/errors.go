package doctors

import "errors"

var (
	// ErrInvalidName is returned when the name is missing
	ErrInvalidName = errors.New("name is required")

	// ErrMissingClinicID is returned when the clinic scope is absent
	ErrMissingClinicID = errors.New("clinic id is required")

	// ErrDoctorNotFound is returned when a doctor is not found
	ErrDoctorNotFound = errors.New("doctor not found")
)
