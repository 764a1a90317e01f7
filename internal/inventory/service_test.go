package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"

	"github.com/tabibah/clinic-platform/pkg/logging"
)

func newTestService(t *testing.T) (*Service, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(mock.Close)
	return NewService(NewRepository(mock), logging.New("error")), mock
}

func itemRows(it *Item) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows([]string{
		"id", "clinic_id", "name", "quantity", "reorder_level", "created_at", "updated_at",
	}).AddRow(it.ID, it.ClinicID, it.Name, it.Quantity, it.ReorderLevel, now, now)
}

func TestConsumeEmitsAlertOnCrossing(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM inventory_items WHERE id`).
		WithArgs("item-1").
		WillReturnRows(itemRows(&Item{
			ID: "item-1", ClinicID: "clinic-1", Name: "Gauze",
			Quantity: 6, ReorderLevel: 5,
		}))
	mock.ExpectExec(`UPDATE inventory_items`).
		WithArgs("item-1", 4).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`INSERT INTO outbox`).
		WithArgs(pgxmock.AnyArg(), "clinic-1", "inventory.low_stock.v1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	it, err := svc.Consume(context.Background(), "item-1", 2)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if it.Quantity != 4 {
		t.Errorf("quantity = %d, want 4", it.Quantity)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestConsumeBelowThresholdDoesNotRealert(t *testing.T) {
	svc, mock := newTestService(t)

	// Already under the reorder level; decrementing further stays quiet.
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM inventory_items WHERE id`).
		WithArgs("item-1").
		WillReturnRows(itemRows(&Item{
			ID: "item-1", ClinicID: "clinic-1", Name: "Gauze",
			Quantity: 4, ReorderLevel: 5,
		}))
	mock.ExpectExec(`UPDATE inventory_items`).
		WithArgs("item-1", 3).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	if _, err := svc.Consume(context.Background(), "item-1", 1); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestConsumeRejectsNegativeStock(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM inventory_items WHERE id`).
		WithArgs("item-1").
		WillReturnRows(itemRows(&Item{
			ID: "item-1", ClinicID: "clinic-1", Name: "Gauze",
			Quantity: 1, ReorderLevel: 5,
		}))
	mock.ExpectRollback()

	_, err := svc.Consume(context.Background(), "item-1", 3)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("Consume error = %v, want ErrInsufficientStock", err)
	}
}

func TestRestockNeverAlerts(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM inventory_items WHERE id`).
		WithArgs("item-1").
		WillReturnRows(itemRows(&Item{
			ID: "item-1", ClinicID: "clinic-1", Name: "Gauze",
			Quantity: 2, ReorderLevel: 5,
		}))
	mock.ExpectExec(`UPDATE inventory_items`).
		WithArgs("item-1", 12).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	it, err := svc.Restock(context.Background(), "item-1", 10)
	if err != nil {
		t.Fatalf("Restock: %v", err)
	}
	if it.Quantity != 12 {
		t.Errorf("quantity = %d, want 12", it.Quantity)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
