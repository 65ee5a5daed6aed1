package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/medboxio/medbox/models"
)

func newTestBoxRepo(t *testing.T) (*boxRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	wrapped, mock, db := newTestDB(t)
	repo := &boxRepository{
		db:     wrapped,
		logger: wrapped.logger,
	}
	return repo, mock, db
}

func sampleBox() models.Box {
	now := time.Now()
	return models.Box{
		ID:        "box-1",
		BoxNumber: "A-101",
		Location:  "Station 3",
		Medications: []models.Medication{
			{Name: "Aspirin", Quantity: 20, Unit: "tablets"},
		},
		AssignedTo: []string{"alice"},
		Status:     models.BoxStatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
		CreatedBy:  "admin",
		UpdatedBy:  "admin",
	}
}

func boxRows(box models.Box, medications string) *sqlmock.Rows {
	return sqlmock.
		NewRows(boxColumns).
		AddRow(
			box.ID, box.BoxNumber, box.Description, box.Location, medications,
			box.Status, box.LastInventoryDate, box.CreatedAt, box.UpdatedAt,
			box.CreatedBy, box.UpdatedBy,
		)
}

func TestCreateBox_Success(t *testing.T) {
	repo, mock, db := newTestBoxRepo(t)
	defer db.Close()

	ctx := context.Background()
	box := sampleBox()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO boxes").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO box_assignments").
		WithArgs(box.ID, "alice").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	created, err := repo.CreateBox(ctx, box)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.BoxNumber != box.BoxNumber {
		t.Errorf("expected box number %s, got %s", box.BoxNumber, created.BoxNumber)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateBox_DuplicateNumber(t *testing.T) {
	repo, mock, db := newTestBoxRepo(t)
	defer db.Close()

	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO boxes").
		WillReturnError(pgError(pgerrcode.UniqueViolation))
	mock.ExpectRollback()

	_, err := repo.CreateBox(ctx, sampleBox())
	if !errors.Is(err, ErrBoxNumberTaken) {
		t.Fatalf("expected ErrBoxNumberTaken, got %v", err)
	}
}

func TestFindBoxByID_Success(t *testing.T) {
	repo, mock, db := newTestBoxRepo(t)
	defer db.Close()

	ctx := context.Background()
	box := sampleBox()

	mock.ExpectQuery("SELECT id, box_number").
		WithArgs(box.ID).
		WillReturnRows(boxRows(box, `[{"name":"Aspirin","quantity":20,"unit":"tablets","controlledSubstance":false}]`))
	mock.ExpectQuery("SELECT box_id, user_id").
		WithArgs(box.ID).
		WillReturnRows(sqlmock.NewRows([]string{"box_id", "user_id"}).AddRow(box.ID, "alice"))

	found, err := repo.FindBoxByID(ctx, box.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(found.Medications) != 1 || found.Medications[0].Name != "Aspirin" {
		t.Errorf("expected decoded medications, got %+v", found.Medications)
	}
	if len(found.AssignedTo) != 1 || found.AssignedTo[0] != "alice" {
		t.Errorf("expected assignment alice, got %v", found.AssignedTo)
	}
}

func TestFindBoxByID_NotFound(t *testing.T) {
	repo, mock, db := newTestBoxRepo(t)
	defer db.Close()

	ctx := context.Background()

	mock.ExpectQuery("SELECT id, box_number").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindBoxByID(ctx, "ghost")
	if !errors.Is(err, ErrBoxNotFound) {
		t.Fatalf("expected ErrBoxNotFound, got %v", err)
	}
}

func TestListBoxesAssignedTo_FiltersByUser(t *testing.T) {
	repo, mock, db := newTestBoxRepo(t)
	defer db.Close()

	ctx := context.Background()
	box := sampleBox()

	mock.ExpectQuery("SELECT id, box_number").
		WithArgs("alice").
		WillReturnRows(boxRows(box, `[]`))
	mock.ExpectQuery("SELECT box_id, user_id").
		WithArgs(box.ID).
		WillReturnRows(sqlmock.NewRows([]string{"box_id", "user_id"}).AddRow(box.ID, "alice"))

	boxes, err := repo.ListBoxesAssignedTo(ctx, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(boxes) != 1 {
		t.Fatalf("expected 1 box, got %d", len(boxes))
	}
	if boxes[0].AssignedTo[0] != "alice" {
		t.Errorf("expected assignment alice, got %v", boxes[0].AssignedTo)
	}
}

func TestUpdateBox_NotFound(t *testing.T) {
	repo, mock, db := newTestBoxRepo(t)
	defer db.Close()

	ctx := context.Background()
	location := "Station 5"

	mock.ExpectExec("UPDATE boxes").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.UpdateBox(ctx, "ghost", models.BoxUpdate{Location: &location}, "admin")
	if !errors.Is(err, ErrBoxNotFound) {
		t.Fatalf("expected ErrBoxNotFound, got %v", err)
	}
}

func TestUpdateBox_Success(t *testing.T) {
	repo, mock, db := newTestBoxRepo(t)
	defer db.Close()

	ctx := context.Background()
	box := sampleBox()
	location := "Station 5"

	mock.ExpectExec("UPDATE boxes").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT id, box_number").
		WithArgs(box.ID).
		WillReturnRows(boxRows(box, `[]`))
	mock.ExpectQuery("SELECT box_id, user_id").
		WithArgs(box.ID).
		WillReturnRows(sqlmock.NewRows([]string{"box_id", "user_id"}))

	updated, err := repo.UpdateBox(ctx, box.ID, models.BoxUpdate{Location: &location}, "admin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.ID != box.ID {
		t.Errorf("expected box %s, got %s", box.ID, updated.ID)
	}
}

func TestDeleteBox_NotFound(t *testing.T) {
	repo, mock, db := newTestBoxRepo(t)
	defer db.Close()

	ctx := context.Background()

	mock.ExpectExec("DELETE FROM boxes").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteBox(ctx, "ghost")
	if !errors.Is(err, ErrBoxNotFound) {
		t.Fatalf("expected ErrBoxNotFound, got %v", err)
	}
}

func TestSetAssignments_ReplacesAll(t *testing.T) {
	repo, mock, db := newTestBoxRepo(t)
	defer db.Close()

	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM box_assignments").
		WithArgs("box-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO box_assignments").
		WithArgs("box-1", "alice", "box-1", "bob").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := repo.SetAssignments(ctx, "box-1", []string{"alice", "bob"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSetAssignments_EmptyListClears(t *testing.T) {
	repo, mock, db := newTestBoxRepo(t)
	defer db.Close()

	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM box_assignments").
		WithArgs("box-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.SetAssignments(ctx, "box-1", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
