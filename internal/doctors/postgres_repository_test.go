package doctors

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
)

func newMockRepo(t *testing.T) (*PostgresRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(mock.Close)
	return NewPostgresRepository(mock), mock
}

func TestCreateValidatesRequest(t *testing.T) {
	repo, _ := newMockRepo(t)

	if _, err := repo.Create(context.Background(), &CreateDoctorRequest{Name: "Hany Samir"}); !errors.Is(err, ErrMissingClinicID) {
		t.Errorf("missing clinic: err = %v, want ErrMissingClinicID", err)
	}
	if _, err := repo.Create(context.Background(), &CreateDoctorRequest{ClinicID: "clinic-1"}); !errors.Is(err, ErrInvalidName) {
		t.Errorf("missing name: err = %v, want ErrInvalidName", err)
	}
}

func TestCreateInsertsRow(t *testing.T) {
	repo, mock := newMockRepo(t)

	created := time.Now().UTC()
	mock.ExpectQuery(`INSERT INTO doctors`).
		WithArgs(pgxmock.AnyArg(), "user-1", "clinic-1", "Hany Samir", "Dermatology", "09:00", "17:00").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(created))

	doc, err := repo.Create(context.Background(), &CreateDoctorRequest{
		UserID:        "user-1",
		ClinicID:      "clinic-1",
		Name:          "Hany Samir",
		Specialty:     "Dermatology",
		AvailableFrom: "09:00",
		AvailableTo:   "17:00",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if doc.ID == "" || doc.AvailableFrom != "09:00" {
		t.Errorf("doctor = %+v", doc)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT id, user_id, clinic_id`).
		WithArgs("doc-404").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "user_id", "clinic_id", "name", "specialty",
			"available_from", "available_to", "created_at",
		}))

	if _, err := repo.GetByID(context.Background(), "doc-404"); !errors.Is(err, ErrDoctorNotFound) {
		t.Fatalf("err = %v, want ErrDoctorNotFound", err)
	}
}

func TestUpdateAvailability(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`UPDATE doctors`).
		WithArgs("doc-1", "10:00", "16:00").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("doc-1"))

	if err := repo.UpdateAvailability(context.Background(), "doc-1", "10:00", "16:00"); err != nil {
		t.Fatalf("UpdateAvailability: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpdateAvailabilityUnknownDoctor(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`UPDATE doctors`).
		WithArgs("doc-404", "10:00", "16:00").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	if err := repo.UpdateAvailability(context.Background(), "doc-404", "10:00", "16:00"); !errors.Is(err, ErrDoctorNotFound) {
		t.Fatalf("err = %v, want ErrDoctorNotFound", err)
	}
}
