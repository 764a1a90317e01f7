package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v3"
)

func newMockStore(t *testing.T) (*OutboxStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(mock.Close)
	return NewOutboxStore(mock), mock
}

func TestAppendMarshalsPayload(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	payload := AppointmentCreatedV1{
		AppointmentID: "appt-1",
		PatientID:     "pat-1",
		DoctorID:      "doc-1",
	}
	data, _ := json.Marshal(payload)

	mock.ExpectExec(`INSERT INTO outbox`).
		WithArgs(pgxmock.AnyArg(), "clinic-1", "appointment.created.v1", data).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	id, err := Append(context.Background(), mock, "clinic-1", "appointment.created.v1", payload)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if id == uuid.Nil {
		t.Error("Append returned nil id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestAppendNilExec(t *testing.T) {
	if _, err := Append(context.Background(), nil, "clinic-1", "x", nil); err == nil {
		t.Fatal("Append with nil exec should fail")
	}
}

func TestFetchPending(t *testing.T) {
	store, mock := newMockStore(t)

	id := uuid.New()
	created := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, clinic_id, type, payload, created_at`).
		WithArgs(int32(10)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "clinic_id", "type", "payload", "created_at"}).
			AddRow(id, "clinic-1", "invoice.created.v1", []byte(`{"invoice_id":"inv-1"}`), created))

	entries, err := store.FetchPending(context.Background(), 10)
	if err != nil {
		t.Fatalf("FetchPending: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].ID != id || entries[0].Type != "invoice.created.v1" {
		t.Errorf("unexpected entry %+v", entries[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestMarkDelivered(t *testing.T) {
	store, mock := newMockStore(t)

	id := uuid.New()
	mock.ExpectExec(`UPDATE outbox`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ok, err := store.MarkDelivered(context.Background(), id)
	if err != nil {
		t.Fatalf("MarkDelivered: %v", err)
	}
	if !ok {
		t.Error("MarkDelivered = false, want true")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestMarkDeliveredAlreadyDone(t *testing.T) {
	store, mock := newMockStore(t)

	id := uuid.New()
	mock.ExpectExec(`UPDATE outbox`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ok, err := store.MarkDelivered(context.Background(), id)
	if err != nil {
		t.Fatalf("MarkDelivered: %v", err)
	}
	if ok {
		t.Error("MarkDelivered = true for already-delivered row")
	}
}

type ackingHandler struct {
	entries []OutboxEntry
	fail    map[string]bool
}

func (h *ackingHandler) Handle(_ context.Context, entry OutboxEntry) error {
	if h.fail[entry.Type] {
		return errors.New("handler failed")
	}
	h.entries = append(h.entries, entry)
	return nil
}

func TestDelivererDrain(t *testing.T) {
	store, mock := newMockStore(t)

	okID := uuid.New()
	badID := uuid.New()
	created := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, clinic_id, type, payload, created_at`).
		WithArgs(int32(25)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "clinic_id", "type", "payload", "created_at"}).
			AddRow(okID, "clinic-1", "appointment.created.v1", []byte(`{}`), created).
			AddRow(badID, "clinic-1", "payment.received.v1", []byte(`{}`), created))
	// Only the handled entry gets marked; the failed one stays pending for
	// the next poll.
	mock.ExpectExec(`UPDATE outbox`).
		WithArgs(okID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	handler := &ackingHandler{fail: map[string]bool{"payment.received.v1": true}}
	d := NewDeliverer(store, handler, nil)
	d.drain(context.Background())

	if len(handler.entries) != 1 || handler.entries[0].ID != okID {
		t.Fatalf("handled entries = %+v, want only %s", handler.entries, okID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
