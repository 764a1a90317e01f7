package patients

import (
	"strings"
	"time"
)

// Patient represents a person receiving care at a clinic.
type Patient struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	ClinicID  string    `json:"clinic_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email,omitempty"`
	Locale    string    `json:"locale"` // "en" or "ar"
	CreatedAt time.Time `json:"created_at"`
}

// CreatePatientRequest represents the request body for creating a patient.
type CreatePatientRequest struct {
	ClinicID string `json:"-"`
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Locale   string `json:"locale"`
}

// Validate validates the create patient request.
func (r *CreatePatientRequest) Validate() error {
	if strings.TrimSpace(r.ClinicID) == "" {
		return ErrMissingClinicID
	}
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidName
	}
	if r.Phone == "" && r.Email == "" {
		return ErrMissingContact
	}
	return nil
}
