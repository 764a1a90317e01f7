package appointments

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tabibah/clinic-platform/internal/events"
	"github.com/tabibah/clinic-platform/internal/observability/metrics"
	"github.com/tabibah/clinic-platform/pkg/logging"
)

var apptTracer trace.Tracer = otel.Tracer("clinic.internal.appointments")

var nowFunc = time.Now

// Statuses a doctor may set directly.
var doctorSettableStatuses = map[string]struct{}{
	StatusConfirmed: {},
	StatusCompleted: {},
	StatusCancelled: {},
}

// BookRequest carries everything needed to create an appointment.
type BookRequest struct {
	PatientID string
	DoctorID  string
	ClinicID  string
	ServiceID string
	Date      string // "2006-01-02"
	StartTime string // "15:04"
	Notes     string
}

func (r *BookRequest) validate() error {
	if _, err := time.Parse("2006-01-02", r.Date); err != nil {
		return ErrBadTime
	}
	if _, err := time.Parse("15:04", r.StartTime); err != nil {
		return ErrBadTime
	}
	return nil
}

// Service owns appointment writes and the domain events they emit.
type Service struct {
	repo    *Repository
	logger  *logging.Logger
	metrics *metrics.BookingMetrics
}

// NewService constructs an appointments service.
func NewService(repo *Repository, logger *logging.Logger, m *metrics.BookingMetrics) *Service {
	if repo == nil {
		panic("appointments: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, logger: logger, metrics: m}
}

// Repo exposes the repository for read-only collaborators (slot queries).
func (s *Service) Repo() *Repository {
	return s.repo
}

// Book creates a pending appointment and appends appointment.created.v1 to
// the outbox in the same transaction. A lost slot race returns ErrSlotTaken.
func (s *Service) Book(ctx context.Context, req BookRequest) (*Appointment, error) {
	ctx, span := apptTracer.Start(ctx, "appointments.book")
	defer span.End()
	span.SetAttributes(
		attribute.String("clinic.doctor_id", req.DoctorID),
		attribute.String("clinic.date", req.Date),
		attribute.String("clinic.start_time", req.StartTime),
	)

	if err := req.validate(); err != nil {
		return nil, err
	}

	a := &Appointment{
		ID:        uuid.NewString(),
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
		ClinicID:  req.ClinicID,
		ServiceID: req.ServiceID,
		Date:      req.Date,
		StartTime: req.StartTime,
		Status:    StatusPending,
		Notes:     strings.TrimSpace(req.Notes),
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.repo.InsertTx(ctx, tx, a); err != nil {
		span.RecordError(err)
		if err == ErrSlotTaken {
			s.metrics.ObserveBooking("conflict")
		}
		return nil, err
	}

	evt := events.AppointmentCreatedV1{
		EventID:       uuid.NewString(),
		ClinicID:      a.ClinicID,
		AppointmentID: a.ID,
		PatientID:     a.PatientID,
		DoctorID:      a.DoctorID,
		ServiceID:     a.ServiceID,
		Date:          a.Date,
		StartTime:     a.StartTime,
		CreatedAt:     a.CreatedAt,
	}
	if _, err := events.Append(ctx, tx, a.ClinicID, events.TypeAppointmentCreated, evt); err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.metrics.ObserveBooking("created")
	s.logger.Info("appointment booked",
		"appointment_id", a.ID,
		"doctor_id", a.DoctorID,
		"date", a.Date,
		"start_time", a.StartTime,
	)
	return a, nil
}

// UpdateStatus lets a doctor move an appointment to confirmed, completed or
// cancelled, emitting appointment.status_changed.v1.
func (s *Service) UpdateStatus(ctx context.Context, id, newStatus string) (*Appointment, error) {
	ctx, span := apptTracer.Start(ctx, "appointments.update_status")
	defer span.End()

	if _, ok := doctorSettableStatuses[newStatus]; !ok {
		return nil, ErrBadStatus
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	oldStatus := current.Status

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.repo.UpdateStatusTx(ctx, tx, id, newStatus); err != nil {
		span.RecordError(err)
		return nil, err
	}

	evt := events.AppointmentStatusChangedV1{
		EventID:       uuid.NewString(),
		ClinicID:      current.ClinicID,
		AppointmentID: current.ID,
		PatientID:     current.PatientID,
		DoctorID:      current.DoctorID,
		Date:          current.Date,
		StartTime:     current.StartTime,
		OldStatus:     oldStatus,
		NewStatus:     newStatus,
		ChangedAt:     nowFunc().UTC(),
	}
	if _, err := events.Append(ctx, tx, current.ClinicID, events.TypeAppointmentStatusChanged, evt); err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	current.Status = newStatus
	s.logger.Info("appointment status changed",
		"appointment_id", id,
		"old_status", oldStatus,
		"new_status", newStatus,
	)
	return current, nil
}

// Cancel is the patient-side cancellation: it requires a reason and is only
// allowed while the appointment is pending or confirmed and not yet started.
func (s *Service) Cancel(ctx context.Context, id, reason string) (*Appointment, error) {
	ctx, span := apptTracer.Start(ctx, "appointments.cancel")
	defer span.End()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrMissingReason
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.CanBeCancelled(nowFunc()) {
		return nil, ErrNotCancellable
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.repo.CancelTx(ctx, tx, id, reason); err != nil {
		span.RecordError(err)
		return nil, err
	}

	evt := events.AppointmentStatusChangedV1{
		EventID:       uuid.NewString(),
		ClinicID:      current.ClinicID,
		AppointmentID: current.ID,
		PatientID:     current.PatientID,
		DoctorID:      current.DoctorID,
		Date:          current.Date,
		StartTime:     current.StartTime,
		OldStatus:     current.Status,
		NewStatus:     StatusCancelled,
		ChangedAt:     nowFunc().UTC(),
	}
	if _, err := events.Append(ctx, tx, current.ClinicID, events.TypeAppointmentStatusChanged, evt); err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	current.Status = StatusCancelled
	current.CancellationReason = reason
	s.logger.Info("appointment cancelled", "appointment_id", id)
	return current, nil
}
