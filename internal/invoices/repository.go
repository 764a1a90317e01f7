package invoices

import (
	"context"
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

// Repository provides persistence for invoices.
type Repository struct {
	pool Pool
}

// NewRepository creates a repository backed by pgx pool.
func NewRepository(pool Pool) *Repository {
	if pool == nil {
		panic("invoices: pgx pool required")
	}
	return &Repository{pool: pool}
}

// Begin opens a transaction for callers combining writes with outbox appends.
func (r *Repository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

const invoiceColumns = `
	id, clinic_id, patient_id, COALESCE(appointment_id::text, ''),
	total_cents, paid_cents, status, created_at, updated_at
`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(
		&inv.ID,
		&inv.ClinicID,
		&inv.PatientID,
		&inv.AppointmentID,
		&inv.TotalCents,
		&inv.PaidCents,
		&inv.Status,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// InsertTx writes a new invoice inside the given transaction.
func (r *Repository) InsertTx(ctx context.Context, q Querier, inv *Invoice) error {
	query := `
		INSERT INTO invoices
			(id, clinic_id, patient_id, appointment_id, total_cents, paid_cents, status)
		VALUES ($1, $2, $3, NULLIF($4, '')::uuid, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	err := q.QueryRow(ctx, query,
		inv.ID, inv.ClinicID, inv.PatientID, inv.AppointmentID,
		inv.TotalCents, inv.PaidCents, inv.Status,
	).Scan(&inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("invoices: insert failed: %w", err)
	}
	return nil
}

// GetByID fetches an invoice.
func (r *Repository) GetByID(ctx context.Context, id string) (*Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	inv, err := scanInvoice(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("invoices: select failed: %w", err)
	}
	return inv, nil
}

// GetByIDTx fetches an invoice under the transaction with FOR UPDATE so a
// concurrent payment cannot slip past the overpayment check.
func (r *Repository) GetByIDTx(ctx context.Context, q Querier, id string) (*Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1 FOR UPDATE`
	inv, err := scanInvoice(q.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("invoices: select for update failed: %w", err)
	}
	return inv, nil
}

// ApplyPaymentTx adds the amount to paid_cents and refreshes the status.
func (r *Repository) ApplyPaymentTx(ctx context.Context, q Querier, id string, amountCents int64, status string) error {
	query := `
		UPDATE invoices
		SET paid_cents = paid_cents + $2, status = $3, updated_at = now()
		WHERE id = $1
	`
	ct, err := q.Exec(ctx, query, id, amountCents, status)
	if err != nil {
		return fmt.Errorf("invoices: apply payment failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

// ListByPatient returns the patient's invoices, newest first.
func (r *Repository) ListByPatient(ctx context.Context, patientID string) ([]*Invoice, error) {
	query := `SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE patient_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("invoices: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("invoices: scan failed: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}
