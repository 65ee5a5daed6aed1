package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/medboxio/medbox/internal/logger"
	"github.com/medboxio/medbox/models"
)

// boxColumns is the canonical column order used by every box SELECT and
// matched by scanBox.
var boxColumns = []string{
	"id", "box_number", "description", "location", "medications", "status",
	"last_inventory_date", "created_at", "updated_at", "created_by", "updated_by",
}

// boxRepository is the SQL-backed implementation of [BoxRepository]. Boxes
// live in the "boxes" table; the medication inventory is stored as one JSON
// document per box, and user assignments live in the "box_assignments" join
// table.
type boxRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewBoxRepository constructs a [BoxRepository] backed by the provided
// database connection and logger.
func NewBoxRepository(db *DB, logger *logger.Logger) BoxRepository {
	logger.Debug().Msg("creating box repository")
	return &boxRepository{
		db:     db,
		logger: logger,
	}
}

func scanBox(row rowScanner) (models.Box, error) {
	var box models.Box
	var medications string

	err := row.Scan(
		&box.ID, &box.BoxNumber, &box.Description, &box.Location, &medications,
		&box.Status, &box.LastInventoryDate, &box.CreatedAt, &box.UpdatedAt,
		&box.CreatedBy, &box.UpdatedBy,
	)
	if err != nil {
		return models.Box{}, err
	}

	if err := json.Unmarshal([]byte(medications), &box.Medications); err != nil {
		return models.Box{}, fmt.Errorf("error decoding medications: %w", err)
	}

	return box, nil
}

func marshalMedications(medications []models.Medication) (string, error) {
	if medications == nil {
		medications = []models.Medication{}
	}

	data, err := json.Marshal(medications)
	if err != nil {
		return "", fmt.Errorf("error encoding medications: %w", err)
	}

	return string(data), nil
}

// CreateBox persists a new box together with its user assignments in a single
// transaction.
//
// Error handling:
//   - unique constraint violation on box_number → [ErrBoxNumberTaken].
func (r *boxRepository) CreateBox(ctx context.Context, box models.Box) (models.Box, error) {
	log := logger.FromContext(ctx)

	medications, err := marshalMedications(box.Medications)
	if err != nil {
		return models.Box{}, err
	}

	query, args, err := r.db.Builder().
		Insert(box.TableName()).
		Columns(boxColumns...).
		Values(
			box.ID, box.BoxNumber, box.Description, box.Location, medications,
			box.Status, box.LastInventoryDate, box.CreatedAt, box.UpdatedAt,
			box.CreatedBy, box.UpdatedBy,
		).
		ToSql()
	if err != nil {
		log.Err(err).Str("func", "*boxRepository.CreateBox").Msg("error: building query")
		return models.Box{}, errors.Join(ErrBuildingSQLQuery, err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "*boxRepository.CreateBox").Msg("error: beginning transaction")
		return models.Box{}, errors.Join(ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).Str("func", "*boxRepository.CreateBox").Msg("error: executing insert")

		if r.db.IsUniqueViolation(err) {
			return models.Box{}, ErrBoxNumberTaken
		}

		return models.Box{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	if err := r.insertAssignments(ctx, tx, box.ID, box.AssignedTo); err != nil {
		log.Err(err).Str("func", "*boxRepository.CreateBox").Msg("error: inserting assignments")
		return models.Box{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Box{}, errors.Join(ErrCommitingTransaction, err)
	}

	return box, nil
}

// FindBoxByID retrieves a box and its assignments by primary key.
func (r *boxRepository) FindBoxByID(ctx context.Context, id string) (models.Box, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.db.Builder().
		Select(boxColumns...).
		From("boxes").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		log.Err(err).Str("func", "*boxRepository.FindBoxByID").Msg("error: building query")
		return models.Box{}, errors.Join(ErrBuildingSQLQuery, err)
	}

	box, err := scanBox(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Box{}, ErrBoxNotFound
		}

		log.Err(err).Str("func", "*boxRepository.FindBoxByID").Msg("error: scanning error")
		return models.Box{}, errors.Join(ErrScanningRow, err)
	}

	assignments, err := r.loadAssignments(ctx, []string{box.ID})
	if err != nil {
		return models.Box{}, err
	}
	box.AssignedTo = assignments[box.ID]

	return box, nil
}

// ListBoxes returns every box ordered by box number, assignments included.
func (r *boxRepository) ListBoxes(ctx context.Context) ([]models.Box, error) {
	return r.listBoxes(ctx, nil, "*boxRepository.ListBoxes")
}

// ListBoxesAssignedTo returns only the boxes assigned to the given user,
// ordered by box number.
func (r *boxRepository) ListBoxesAssignedTo(ctx context.Context, userID string) ([]models.Box, error) {
	pred := sq.Expr(
		"id IN (SELECT box_id FROM box_assignments WHERE user_id = ?)",
		userID,
	)

	return r.listBoxes(ctx, pred, "*boxRepository.ListBoxesAssignedTo")
}

func (r *boxRepository) listBoxes(ctx context.Context, pred sq.Sqlizer, funcName string) ([]models.Box, error) {
	log := logger.FromContext(ctx)

	builder := r.db.Builder().
		Select(boxColumns...).
		From("boxes").
		OrderBy("box_number ASC")
	if pred != nil {
		builder = builder.Where(pred)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		log.Err(err).Str("func", funcName).Msg("error: building query")
		return nil, errors.Join(ErrBuildingSQLQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", funcName).Msg("error: executing query")
		return nil, errors.Join(ErrExecutingQuery, err)
	}
	defer rows.Close()

	boxes := make([]models.Box, 0)
	ids := make([]string, 0)
	for rows.Next() {
		box, err := scanBox(rows)
		if err != nil {
			log.Err(err).Str("func", funcName).Msg("error: scanning error")
			return nil, errors.Join(ErrScanningRows, err)
		}
		boxes = append(boxes, box)
		ids = append(ids, box.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrScanningRows, err)
	}

	assignments, err := r.loadAssignments(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range boxes {
		boxes[i].AssignedTo = assignments[boxes[i].ID]
	}

	return boxes, nil
}

// UpdateBox applies a partial update and returns the refreshed box. Nil
// fields in update are left untouched.
func (r *boxRepository) UpdateBox(ctx context.Context, id string, update models.BoxUpdate, updatedBy string) (models.Box, error) {
	log := logger.FromContext(ctx)

	builder := r.db.Builder().
		Update("boxes").
		Set("updated_at", time.Now().UTC()).
		Set("updated_by", updatedBy).
		Where(sq.Eq{"id": id})

	if update.BoxNumber != nil {
		builder = builder.Set("box_number", *update.BoxNumber)
	}
	if update.Description != nil {
		builder = builder.Set("description", *update.Description)
	}
	if update.Location != nil {
		builder = builder.Set("location", *update.Location)
	}
	if update.Medications != nil {
		medications, err := marshalMedications(*update.Medications)
		if err != nil {
			return models.Box{}, err
		}
		builder = builder.Set("medications", medications)
	}
	if update.Status != nil {
		builder = builder.Set("status", *update.Status)
	}
	if update.LastInventoryDate != nil {
		builder = builder.Set("last_inventory_date", *update.LastInventoryDate)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		log.Err(err).Str("func", "*boxRepository.UpdateBox").Msg("error: building query")
		return models.Box{}, errors.Join(ErrBuildingSQLQuery, err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "*boxRepository.UpdateBox").Msg("error: executing update")

		if r.db.IsUniqueViolation(err) {
			return models.Box{}, ErrBoxNumberTaken
		}

		return models.Box{}, errors.Join(ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return models.Box{}, errors.Join(ErrExecutingStatement, err)
	}
	if affected == 0 {
		return models.Box{}, ErrBoxNotFound
	}

	return r.FindBoxByID(ctx, id)
}

// DeleteBox removes a box; its assignments go with it via ON DELETE CASCADE.
func (r *boxRepository) DeleteBox(ctx context.Context, id string) error {
	log := logger.FromContext(ctx)

	query, args, err := r.db.Builder().
		Delete("boxes").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		log.Err(err).Str("func", "*boxRepository.DeleteBox").Msg("error: building query")
		return errors.Join(ErrBuildingSQLQuery, err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "*boxRepository.DeleteBox").Msg("error: executing delete")
		return errors.Join(ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Join(ErrExecutingStatement, err)
	}
	if affected == 0 {
		return ErrBoxNotFound
	}

	return nil
}

// SetAssignments replaces the full assignment set of a box in one
// transaction.
func (r *boxRepository) SetAssignments(ctx context.Context, boxID string, userIDs []string) error {
	log := logger.FromContext(ctx)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "*boxRepository.SetAssignments").Msg("error: beginning transaction")
		return errors.Join(ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	query, args, err := r.db.Builder().
		Delete("box_assignments").
		Where(sq.Eq{"box_id": boxID}).
		ToSql()
	if err != nil {
		return errors.Join(ErrBuildingSQLQuery, err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).Str("func", "*boxRepository.SetAssignments").Msg("error: clearing assignments")
		return errors.Join(ErrExecutingStatement, err)
	}

	if err := r.insertAssignments(ctx, tx, boxID, userIDs); err != nil {
		log.Err(err).Str("func", "*boxRepository.SetAssignments").Msg("error: inserting assignments")
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Join(ErrCommitingTransaction, err)
	}

	return nil
}

func (r *boxRepository) insertAssignments(ctx context.Context, tx *sql.Tx, boxID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}

	builder := r.db.Builder().
		Insert("box_assignments").
		Columns("box_id", "user_id")
	for _, userID := range userIDs {
		builder = builder.Values(boxID, userID)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return errors.Join(ErrBuildingSQLQuery, err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return errors.Join(ErrExecutingStatement, err)
	}

	return nil
}

// loadAssignments fetches the assignment lists for the given box IDs in a
// single query, keyed by box ID.
func (r *boxRepository) loadAssignments(ctx context.Context, boxIDs []string) (map[string][]string, error) {
	assignments := make(map[string][]string, len(boxIDs))
	if len(boxIDs) == 0 {
		return assignments, nil
	}

	query, args, err := r.db.Builder().
		Select("box_id", "user_id").
		From("box_assignments").
		Where(sq.Eq{"box_id": boxIDs}).
		OrderBy("user_id ASC").
		ToSql()
	if err != nil {
		return nil, errors.Join(ErrBuildingSQLQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Join(ErrExecutingQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		var boxID, userID string
		if err := rows.Scan(&boxID, &userID); err != nil {
			return nil, errors.Join(ErrScanningRows, err)
		}
		assignments[boxID] = append(assignments[boxID], userID)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrScanningRows, err)
	}

	return assignments, nil
}
