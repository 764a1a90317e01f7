package appointments

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tabibah/clinic-platform/internal/observability/metrics"
	"github.com/tabibah/clinic-platform/pkg/logging"
)

func newTestService(t *testing.T) (*Service, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(mock.Close)
	repo := NewRepository(mock)
	return NewService(repo, logging.New("error"), metrics.NewBookingMetrics(prometheus.NewRegistry())), mock
}

func TestBookValidatesTimes(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Book(context.Background(), BookRequest{
		PatientID: "pat-1",
		DoctorID:  "doc-1",
		Date:      "not-a-date",
		StartTime: "09:00",
	})
	if !errors.Is(err, ErrBadTime) {
		t.Fatalf("Book error = %v, want ErrBadTime", err)
	}

	_, err = svc.Book(context.Background(), BookRequest{
		PatientID: "pat-1",
		DoctorID:  "doc-1",
		Date:      "2026-03-11",
		StartTime: "9am",
	})
	if !errors.Is(err, ErrBadTime) {
		t.Fatalf("Book error = %v, want ErrBadTime", err)
	}
}

func TestBookWritesAppointmentAndEvent(t *testing.T) {
	svc, mock := newTestService(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("doc-1", "2026-03-11", "10:00").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`INSERT INTO appointments`).
		WithArgs(pgxmock.AnyArg(), "pat-1", "doc-1", "clinic-1", "", "2026-03-11", "10:00", StatusPending, "").
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectExec(`INSERT INTO outbox`).
		WithArgs(pgxmock.AnyArg(), "clinic-1", "appointment.created.v1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	appt, err := svc.Book(context.Background(), BookRequest{
		PatientID: "pat-1",
		DoctorID:  "doc-1",
		ClinicID:  "clinic-1",
		Date:      "2026-03-11",
		StartTime: "10:00",
	})
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if appt.Status != StatusPending {
		t.Errorf("status = %q, want pending", appt.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestBookSlotConflictRollsBack(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("doc-1", "2026-03-11", "10:00").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := svc.Book(context.Background(), BookRequest{
		PatientID: "pat-1",
		DoctorID:  "doc-1",
		ClinicID:  "clinic-1",
		Date:      "2026-03-11",
		StartTime: "10:00",
	})
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("Book error = %v, want ErrSlotTaken", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.UpdateStatus(context.Background(), "appt-1", "rescheduled")
	if !errors.Is(err, ErrBadStatus) {
		t.Fatalf("UpdateStatus error = %v, want ErrBadStatus", err)
	}
	_, err = svc.UpdateStatus(context.Background(), "appt-1", StatusPending)
	if !errors.Is(err, ErrBadStatus) {
		t.Fatalf("UpdateStatus(pending) error = %v, want ErrBadStatus", err)
	}
}

func TestCancelRequiresReason(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Cancel(context.Background(), "appt-1", "   ")
	if !errors.Is(err, ErrMissingReason) {
		t.Fatalf("Cancel error = %v, want ErrMissingReason", err)
	}
}

func TestCancelRejectsCompletedAppointment(t *testing.T) {
	svc, mock := newTestService(t)

	restore := nowFunc
	nowFunc = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	defer func() { nowFunc = restore }()

	now := time.Now()
	mock.ExpectQuery(`FROM appointments WHERE id`).
		WithArgs("appt-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "patient_id", "doctor_id", "clinic_id", "service_id",
			"date", "start_time", "status", "notes", "cancellation_reason",
			"created_at", "updated_at",
		}).AddRow(
			"appt-1", "pat-1", "doc-1", "clinic-1", "",
			"2026-03-11", "10:00", StatusCompleted, "", "",
			now, now,
		))

	_, err := svc.Cancel(context.Background(), "appt-1", "cannot make it")
	if !errors.Is(err, ErrNotCancellable) {
		t.Fatalf("Cancel error = %v, want ErrNotCancellable", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
