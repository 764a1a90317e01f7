package delivery

import (
	"context"
	"testing"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v3"
)

func newMockJournal(t *testing.T) (*Journal, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(mock.Close)
	return NewJournal(mock), mock
}

func TestJournalInsertSetsQueuedStatus(t *testing.T) {
	journal, mock := newMockJournal(t)

	mock.ExpectExec(`INSERT INTO whatsapp_deliveries`).
		WithArgs(pgxmock.AnyArg(), "clinic-1", "201012345678", "", "hello", StatusQueued).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	d := &Delivery{ClinicID: "clinic-1", PhoneNumber: "201012345678", Body: "hello"}
	if err := journal.Insert(context.Background(), d); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if d.Status != StatusQueued {
		t.Errorf("status = %q, want %q", d.Status, StatusQueued)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestJournalRequeueClearsRetryWindow(t *testing.T) {
	journal, mock := newMockJournal(t)

	id := uuid.New()
	mock.ExpectExec(`UPDATE whatsapp_deliveries`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := journal.Requeue(context.Background(), id); err != nil {
		t.Fatalf("Requeue: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
