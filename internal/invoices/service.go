package invoices

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tabibah/clinic-platform/internal/events"
	"github.com/tabibah/clinic-platform/pkg/logging"
)

var nowFunc = time.Now

// CreateRequest carries everything needed to issue an invoice.
type CreateRequest struct {
	ClinicID      string `json:"-"`
	PatientID     string `json:"patient_id"`
	AppointmentID string `json:"appointment_id,omitempty"`
	TotalCents    int64  `json:"total_cents"`
}

// Service owns invoice writes and the domain events they emit.
type Service struct {
	repo   *Repository
	logger *logging.Logger
}

// NewService constructs an invoices service.
func NewService(repo *Repository, logger *logging.Logger) *Service {
	if repo == nil {
		panic("invoices: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Repo exposes the repository for read-only collaborators.
func (s *Service) Repo() *Repository {
	return s.repo
}

// Create issues an invoice and appends invoice.created.v1 to the outbox in
// the same transaction.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Invoice, error) {
	if req.TotalCents <= 0 {
		return nil, ErrBadAmount
	}

	inv := &Invoice{
		ID:            uuid.NewString(),
		ClinicID:      req.ClinicID,
		PatientID:     req.PatientID,
		AppointmentID: req.AppointmentID,
		TotalCents:    req.TotalCents,
		Status:        StatusUnpaid,
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.repo.InsertTx(ctx, tx, inv); err != nil {
		return nil, err
	}

	evt := events.InvoiceCreatedV1{
		EventID:    uuid.NewString(),
		ClinicID:   inv.ClinicID,
		InvoiceID:  inv.ID,
		PatientID:  inv.PatientID,
		TotalCents: inv.TotalCents,
		CreatedAt:  inv.CreatedAt,
	}
	if _, err := events.Append(ctx, tx, inv.ClinicID, events.TypeInvoiceCreated, evt); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("invoice created", "invoice_id", inv.ID, "patient_id", inv.PatientID, "total_cents", inv.TotalCents)
	return inv, nil
}

// RecordPayment applies a payment and appends payment.received.v1. Payments
// exceeding the open balance are rejected.
func (s *Service) RecordPayment(ctx context.Context, id string, amountCents int64) (*Invoice, error) {
	if amountCents <= 0 {
		return nil, ErrBadAmount
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	inv, err := s.repo.GetByIDTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if amountCents > inv.RemainingCents() {
		return nil, ErrOverpayment
	}

	inv.PaidCents += amountCents
	status := StatusPartly
	if inv.IsFullyPaid() {
		status = StatusPaid
	}
	inv.Status = status

	if err := s.repo.ApplyPaymentTx(ctx, tx, id, amountCents, status); err != nil {
		return nil, err
	}

	evt := events.PaymentReceivedV1{
		EventID:        uuid.NewString(),
		ClinicID:       inv.ClinicID,
		InvoiceID:      inv.ID,
		PatientID:      inv.PatientID,
		AmountCents:    amountCents,
		RemainingCents: inv.RemainingCents(),
		OccurredAt:     nowFunc(),
	}
	if _, err := events.Append(ctx, tx, inv.ClinicID, events.TypePaymentReceived, evt); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("payment recorded",
		"invoice_id", inv.ID,
		"amount_cents", amountCents,
		"remaining_cents", inv.RemainingCents(),
	)
	return inv, nil
}
