package appointments

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier covers pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Pool additionally opens transactions.
type Pool interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository provides persistence for appointments.
type Repository struct {
	pool Pool
}

// NewRepository creates a repository backed by pgx pool.
func NewRepository(pool Pool) *Repository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &Repository{pool: pool}
}

// Begin opens a transaction for callers that need to combine the insert with
// an outbox append.
func (r *Repository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

const appointmentColumns = `
	id, patient_id, doctor_id, clinic_id, COALESCE(service_id::text, ''),
	to_char(date, 'YYYY-MM-DD'), to_char(start_time, 'HH24:MI'),
	status, notes, cancellation_reason, created_at, updated_at
`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.DoctorID,
		&a.ClinicID,
		&a.ServiceID,
		&a.Date,
		&a.StartTime,
		&a.Status,
		&a.Notes,
		&a.CancellationReason,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// InsertTx writes a new appointment inside the given transaction. The slot is
// re-checked under the transaction and the unique index on
// (doctor_id, date, start_time) for blocking statuses backstops concurrent
// inserts; both paths surface as ErrSlotTaken.
func (r *Repository) InsertTx(ctx context.Context, q Querier, a *Appointment) error {
	var taken bool
	checkQuery := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1 AND date = $2 AND start_time = $3
			  AND status IN ('pending', 'confirmed')
		)
	`
	if err := q.QueryRow(ctx, checkQuery, a.DoctorID, a.Date, a.StartTime).Scan(&taken); err != nil {
		return fmt.Errorf("appointments: conflict check failed: %w", err)
	}
	if taken {
		return ErrSlotTaken
	}

	insertQuery := `
		INSERT INTO appointments
			(id, patient_id, doctor_id, clinic_id, service_id, date, start_time, status, notes)
		VALUES ($1, $2, $3, $4, NULLIF($5, '')::uuid, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	err := q.QueryRow(ctx, insertQuery,
		a.ID,
		a.PatientID,
		a.DoctorID,
		a.ClinicID,
		a.ServiceID,
		a.Date,
		a.StartTime,
		a.Status,
		a.Notes,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrSlotTaken
		}
		return fmt.Errorf("appointments: insert failed: %w", err)
	}
	return nil
}

// GetByID fetches an appointment.
func (r *Repository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`
	a, err := scanAppointment(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointments: select failed: %w", err)
	}
	return a, nil
}

// ListBookedTimes returns start times blocking slots for the doctor on the date.
func (r *Repository) ListBookedTimes(ctx context.Context, doctorID, date string) ([]string, error) {
	query := `
		SELECT to_char(start_time, 'HH24:MI')
		FROM appointments
		WHERE doctor_id = $1 AND date = $2 AND status IN ('pending', 'confirmed')
		ORDER BY start_time
	`
	rows, err := r.pool.Query(ctx, query, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("appointments: list booked times failed: %w", err)
	}
	defer rows.Close()

	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("appointments: scan time failed: %w", err)
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

// UpdateStatusTx sets the status inside the given transaction.
func (r *Repository) UpdateStatusTx(ctx context.Context, q Querier, id, status string) error {
	query := `
		UPDATE appointments
		SET status = $2, updated_at = now()
		WHERE id = $1
	`
	ct, err := q.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("appointments: update status failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

// CancelTx cancels the appointment, recording the reason.
func (r *Repository) CancelTx(ctx context.Context, q Querier, id, reason string) error {
	query := `
		UPDATE appointments
		SET status = 'cancelled', cancellation_reason = $2, updated_at = now()
		WHERE id = $1
	`
	ct, err := q.Exec(ctx, query, id, reason)
	if err != nil {
		return fmt.Errorf("appointments: cancel failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

// ListByPatient returns the patient's appointments, newest first.
func (r *Repository) ListByPatient(ctx context.Context, patientID string) ([]*Appointment, error) {
	query := `SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE patient_id = $1
		ORDER BY date DESC, start_time DESC
	`
	return r.list(ctx, query, patientID)
}

// ListByDoctorDate returns a doctor's appointments for one day in slot order.
func (r *Repository) ListByDoctorDate(ctx context.Context, doctorID, date string) ([]*Appointment, error) {
	query := `SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE doctor_id = $1 AND date = $2
		ORDER BY start_time
	`
	return r.list(ctx, query, doctorID, date)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]*Appointment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan failed: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
