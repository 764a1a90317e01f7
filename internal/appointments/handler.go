package appointments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tabibah/clinic-platform/internal/doctors"
	"github.com/tabibah/clinic-platform/internal/http/middleware"
	"github.com/tabibah/clinic-platform/internal/observability/metrics"
	"github.com/tabibah/clinic-platform/internal/patients"
	"github.com/tabibah/clinic-platform/internal/scheduling"
	"github.com/tabibah/clinic-platform/pkg/logging"
)

// PatientDirectory resolves patients for booking endpoints.
type PatientDirectory interface {
	GetByUser(ctx context.Context, userID string) (*patients.Patient, error)
	GetOrCreateByPhone(ctx context.Context, clinicID, phone, defaultName string) (*patients.Patient, error)
}

// DoctorResolver resolves the doctor record for the authenticated user.
type DoctorResolver interface {
	GetByUser(ctx context.Context, userID string) (*doctors.Doctor, error)
}

// Handler handles HTTP requests for slots and appointments.
type Handler struct {
	svc      *Service
	slots    *scheduling.Service
	patients PatientDirectory
	doctors  DoctorResolver
	metrics  *metrics.BookingMetrics
	logger   *logging.Logger
}

// NewHandler creates an appointments handler.
func NewHandler(svc *Service, slots *scheduling.Service, pd PatientDirectory, dr DoctorResolver, m *metrics.BookingMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		svc:      svc,
		slots:    slots,
		patients: pd,
		doctors:  dr,
		metrics:  m,
		logger:   logger,
	}
}

// AvailableSlotsResponse is the payload for GET /api/website/available-slots.
type AvailableSlotsResponse struct {
	Date           string   `json:"date"`
	DoctorID       string   `json:"doctor_id"`
	AvailableSlots []string `json:"available_slots"`
}

// AvailableSlots handles GET /api/website/available-slots?doctor_id=&date=
func (h *Handler) AvailableSlots(w http.ResponseWriter, r *http.Request) {
	doctorID := r.URL.Query().Get("doctor_id")
	date := r.URL.Query().Get("date")
	if doctorID == "" || date == "" {
		http.Error(w, "doctor_id and date are required", http.StatusUnprocessableEntity)
		return
	}

	h.metrics.ObserveSlotQuery()
	slots, err := h.slots.AvailableSlots(r.Context(), doctorID, date)
	if err != nil {
		switch {
		case errors.Is(err, scheduling.ErrBadDate), errors.Is(err, scheduling.ErrPastDate):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		case errors.Is(err, doctors.ErrDoctorNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			h.logger.Error("slot query failed", "error", err, "doctor_id", doctorID)
			http.Error(w, "failed to compute slots", http.StatusInternalServerError)
		}
		return
	}
	if slots == nil {
		slots = []string{}
	}

	writeJSON(w, http.StatusOK, AvailableSlotsResponse{
		Date:           date,
		DoctorID:       doctorID,
		AvailableSlots: slots,
	})
}

// WebsiteBookingRequest is the public booking payload: the patient record is
// resolved (or created) from the phone number.
type WebsiteBookingRequest struct {
	ClinicID  string `json:"clinic_id"`
	DoctorID  string `json:"doctor_id"`
	ServiceID string `json:"service_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Notes     string `json:"notes"`
}

// CreateWebsiteBooking handles POST /api/website/booking
func (h *Handler) CreateWebsiteBooking(w http.ResponseWriter, r *http.Request) {
	var req WebsiteBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ClinicID == "" || req.DoctorID == "" || req.Phone == "" {
		http.Error(w, "clinic_id, doctor_id and phone are required", http.StatusUnprocessableEntity)
		return
	}

	patient, err := h.patients.GetOrCreateByPhone(r.Context(), req.ClinicID, req.Phone, req.Name)
	if err != nil {
		h.logger.Error("failed to resolve patient", "error", err, "phone", req.Phone)
		http.Error(w, "failed to resolve patient", http.StatusInternalServerError)
		return
	}

	appt, err := h.svc.Book(r.Context(), BookRequest{
		PatientID: patient.ID,
		DoctorID:  req.DoctorID,
		ClinicID:  req.ClinicID,
		ServiceID: req.ServiceID,
		Date:      req.Date,
		StartTime: req.Time,
		Notes:     req.Notes,
	})
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

// PatientBookingRequest is the authenticated mobile booking payload.
type PatientBookingRequest struct {
	DoctorID  string `json:"doctor_id"`
	ServiceID string `json:"service_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Notes     string `json:"notes"`
}

// CreatePatientAppointment handles POST /api/mobile/patient/appointments
func (h *Handler) CreatePatientAppointment(w http.ResponseWriter, r *http.Request) {
	patient, ok := h.patientFromRequest(w, r)
	if !ok {
		return
	}

	var req PatientBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.DoctorID == "" {
		http.Error(w, "doctor_id is required", http.StatusUnprocessableEntity)
		return
	}

	appt, err := h.svc.Book(r.Context(), BookRequest{
		PatientID: patient.ID,
		DoctorID:  req.DoctorID,
		ClinicID:  patient.ClinicID,
		ServiceID: req.ServiceID,
		Date:      req.Date,
		StartTime: req.Time,
		Notes:     req.Notes,
	})
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

// ListPatientAppointments handles GET /api/mobile/patient/appointments
func (h *Handler) ListPatientAppointments(w http.ResponseWriter, r *http.Request) {
	patient, ok := h.patientFromRequest(w, r)
	if !ok {
		return
	}
	appts, err := h.svc.Repo().ListByPatient(r.Context(), patient.ID)
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err, "patient_id", patient.ID)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	if appts == nil {
		appts = []*Appointment{}
	}
	writeJSON(w, http.StatusOK, appts)
}

// CancelRequest carries the mandatory cancellation reason.
type CancelRequest struct {
	CancellationReason string `json:"cancellation_reason"`
}

// CancelAppointment handles PUT /api/mobile/patient/appointments/{id}/cancel
func (h *Handler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	patient, ok := h.patientFromRequest(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	var req CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	current, err := h.svc.Repo().GetByID(r.Context(), id)
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	if current.PatientID != patient.ID {
		http.Error(w, "appointment not found", http.StatusNotFound)
		return
	}

	appt, err := h.svc.Cancel(r.Context(), id, req.CancellationReason)
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// StatusRequest carries the doctor's status transition.
type StatusRequest struct {
	Status string `json:"status"`
}

// UpdateAppointmentStatus handles PUT /api/mobile/doctor/appointments/{id}/status
func (h *Handler) UpdateAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	appt, err := h.svc.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// ListDoctorAppointments handles GET /api/mobile/doctor/appointments?date=
func (h *Handler) ListDoctorAppointments(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	doctor, err := h.doctors.GetByUser(r.Context(), userID)
	if err != nil {
		http.Error(w, "doctor not found", http.StatusNotFound)
		return
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		http.Error(w, "date is required", http.StatusUnprocessableEntity)
		return
	}

	appts, err := h.svc.Repo().ListByDoctorDate(r.Context(), doctor.ID, date)
	if err != nil {
		h.logger.Error("failed to list doctor day", "error", err, "doctor_id", doctor.ID)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	if appts == nil {
		appts = []*Appointment{}
	}
	writeJSON(w, http.StatusOK, appts)
}

func (h *Handler) patientFromRequest(w http.ResponseWriter, r *http.Request) (*patients.Patient, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return nil, false
	}
	patient, err := h.patients.GetByUser(r.Context(), userID)
	if err != nil {
		http.Error(w, "patient not found", http.StatusNotFound)
		return nil, false
	}
	return patient, true
}

func (h *Handler) writeBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSlotTaken):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrAppointmentNotFound), errors.Is(err, doctors.ErrDoctorNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrBadTime), errors.Is(err, ErrBadStatus), errors.Is(err, ErrMissingReason):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, ErrNotCancellable):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.logger.Error("appointment operation failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
