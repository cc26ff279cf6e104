package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPostgresClientRepo_AssignTrainer_EmptyTrainerClearsAssignment(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresClientRepo(db)

	mock.ExpectExec(`UPDATE clients SET assigned_trainer_id = \$2 WHERE id = \$1`).
		WithArgs("client-1", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.AssignTrainer(context.Background(), "client-1", "")
	if err != nil {
		t.Fatalf("AssignTrainer() error: %v", err)
	}
	if !ok {
		t.Fatal("AssignTrainer() = false, want true")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestPostgresClientRepo_AssignTrainer_SetsTrainer(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresClientRepo(db)

	mock.ExpectExec("UPDATE clients SET assigned_trainer_id").
		WithArgs("client-1", "trainer-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if _, err := repo.AssignTrainer(context.Background(), "client-1", "trainer-1"); err != nil {
		t.Fatalf("AssignTrainer() error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestPostgresClientRepo_Delete_Missing_ReturnsFalse(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresClientRepo(db)

	mock.ExpectExec(`DELETE FROM clients WHERE id = \$1`).
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.Delete(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if ok {
		t.Fatal("Delete() = true, want false")
	}
}

func TestPostgresTrainerRepo_Delete_Existing_ReturnsTrue(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresTrainerRepo(db)

	mock.ExpectExec(`DELETE FROM trainers WHERE id = \$1`).
		WithArgs("trainer-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.Delete(context.Background(), "trainer-1")
	if err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if !ok {
		t.Fatal("Delete() = false, want true")
	}
}

func TestPostgresTrainerRepo_Count(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresTrainerRepo(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM trainers`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	n, err := repo.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if n != 4 {
		t.Errorf("Count() = %d, want 4", n)
	}
}
