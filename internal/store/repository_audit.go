package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/medboxio/medbox/internal/logger"
	"github.com/medboxio/medbox/models"
)

const defaultAuditLimit = 50

// auditRepository is the SQL-backed implementation of [AuditRepository].
// The audit trail is append-only; entries are never updated or deleted.
type auditRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewAuditRepository constructs an [AuditRepository] backed by the provided
// database connection and logger.
func NewAuditRepository(db *DB, logger *logger.Logger) AuditRepository {
	logger.Debug().Msg("creating audit repository")
	return &auditRepository{
		db:     db,
		logger: logger,
	}
}

// Append persists a single audit entry. The details map is stored as one
// JSON document.
func (r *auditRepository) Append(ctx context.Context, entry models.AuditEntry) error {
	log := logger.FromContext(ctx)

	details := entry.Details
	if details == nil {
		details = map[string]any{}
	}

	encodedDetails, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("error encoding audit details: %w", err)
	}

	query, args, err := r.db.Builder().
		Insert(entry.TableName()).
		Columns("id", "user_id", "username", "action", "target_type", "target_id",
			"details", "ip_address", "success", "ts").
		Values(entry.ID, entry.UserID, entry.Username, entry.Action, entry.TargetType,
			entry.TargetID, string(encodedDetails), entry.IPAddress, entry.Success, entry.Timestamp).
		ToSql()
	if err != nil {
		log.Err(err).Str("func", "*auditRepository.Append").Msg("error: building query")
		return errors.Join(ErrBuildingSQLQuery, err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).Str("func", "*auditRepository.Append").Msg("error: executing insert")
		return errors.Join(ErrExecutingStatement, err)
	}

	return nil
}

// List returns audit entries matching the filter, newest first. A zero limit
// falls back to the default page size.
func (r *auditRepository) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditEntry, error) {
	log := logger.FromContext(ctx)

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultAuditLimit
	}

	builder := r.db.Builder().
		Select("id", "user_id", "username", "action", "target_type", "target_id",
			"details", "ip_address", "success", "ts").
		From("audit_logs").
		OrderBy("ts DESC").
		Limit(uint64(limit))

	if filter.UserID != "" {
		builder = builder.Where(sq.Eq{"user_id": filter.UserID})
	}
	if filter.Action != "" {
		builder = builder.Where(sq.Eq{"action": filter.Action})
	}
	if filter.TargetID != "" {
		builder = builder.Where(sq.Eq{"target_id": filter.TargetID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		log.Err(err).Str("func", "*auditRepository.List").Msg("error: building query")
		return nil, errors.Join(ErrBuildingSQLQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "*auditRepository.List").Msg("error: executing query")
		return nil, errors.Join(ErrExecutingQuery, err)
	}
	defer rows.Close()

	entries := make([]models.AuditEntry, 0)
	for rows.Next() {
		var entry models.AuditEntry
		var details string

		err := rows.Scan(
			&entry.ID, &entry.UserID, &entry.Username, &entry.Action,
			&entry.TargetType, &entry.TargetID, &details, &entry.IPAddress,
			&entry.Success, &entry.Timestamp,
		)
		if err != nil {
			log.Err(err).Str("func", "*auditRepository.List").Msg("error: scanning error")
			return nil, errors.Join(ErrScanningRows, err)
		}

		if err := json.Unmarshal([]byte(details), &entry.Details); err != nil {
			return nil, fmt.Errorf("error decoding audit details: %w", err)
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrScanningRows, err)
	}

	return entries, nil
}
