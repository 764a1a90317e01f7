package doctors

import (
	"strings"
	"time"
)

// Doctor represents a practitioner attached to a clinic.
type Doctor struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	ClinicID      string    `json:"clinic_id"`
	Name          string    `json:"name"`
	Specialty     string    `json:"specialty,omitempty"`
	AvailableFrom string    `json:"available_from,omitempty"` // "09:00" in 24-hour format
	AvailableTo   string    `json:"available_to,omitempty"`   // "17:00" in 24-hour format
	CreatedAt     time.Time `json:"created_at"`
}

// CreateDoctorRequest represents the request body for creating a doctor.
type CreateDoctorRequest struct {
	ClinicID      string `json:"-"`
	UserID        string `json:"user_id"`
	Name          string `json:"name"`
	Specialty     string `json:"specialty"`
	AvailableFrom string `json:"available_from"`
	AvailableTo   string `json:"available_to"`
}

// Validate validates the create doctor request.
func (r *CreateDoctorRequest) Validate() error {
	if strings.TrimSpace(r.ClinicID) == "" {
		return ErrMissingClinicID
	}
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidName
	}
	return nil
}
