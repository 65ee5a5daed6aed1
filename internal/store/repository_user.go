package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/medboxio/medbox/internal/logger"
	"github.com/medboxio/medbox/models"
)

// userColumns is the canonical column order used by every user SELECT and
// matched by scanUser.
var userColumns = []string{
	"id", "username", "display_name", "pin_hash", "role",
	"failed_attempts", "last_failed_at", "is_active",
	"created_at", "updated_at", "created_by",
}

// userRepository is the SQL-backed implementation of [UserRepository].
// It handles user account creation, lookup, and lockout bookkeeping against
// the "users" table.
//
// All methods obtain a context-scoped logger via [logger.FromContext] for
// structured, request-level tracing of database interactions.
type userRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewUserRepository constructs a [UserRepository] backed by the provided
// database connection and logger.
func NewUserRepository(db *DB, logger *logger.Logger) UserRepository {
	logger.Debug().Msg("creating user repository")
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Username, &user.DisplayName, &user.PINHash, &user.Role,
		&user.FailedAttempts, &user.LastFailedAt, &user.IsActive,
		&user.CreatedAt, &user.UpdatedAt, &user.CreatedBy,
	)

	return user, err
}

// CreateUser persists a new user record.
//
// Error handling:
//   - unique constraint violation on username/id → [ErrUsernameTaken].
//   - Any other driver-level error → wrapped as "unexpected DB error".
func (r *userRepository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.db.Builder().
		Insert(user.TableName()).
		Columns(userColumns...).
		Values(
			user.ID, user.Username, user.DisplayName, user.PINHash, user.Role,
			user.FailedAttempts, user.LastFailedAt, user.IsActive,
			user.CreatedAt, user.UpdatedAt, user.CreatedBy,
		).
		ToSql()
	if err != nil {
		log.Err(err).Str("func", "*userRepository.CreateUser").Msg("error: building query")
		return models.User{}, errors.Join(ErrBuildingSQLQuery, err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).Str("func", "*userRepository.CreateUser").Msg("error: executing insert")

		if r.db.IsUniqueViolation(err) {
			return models.User{}, ErrUsernameTaken
		}

		return models.User{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	return user, nil
}

// FindUserByID retrieves a user record by its primary key.
//
// Error handling:
//   - Empty result set → [ErrUserNotFound].
//   - Scan failure → wrapped as [ErrScanningRow].
func (r *userRepository) FindUserByID(ctx context.Context, id string) (models.User, error) {
	return r.findUserBy(ctx, sq.Eq{"id": id}, "*userRepository.FindUserByID")
}

// FindUserByUsername retrieves a user record by its normalized username.
func (r *userRepository) FindUserByUsername(ctx context.Context, username string) (models.User, error) {
	return r.findUserBy(ctx, sq.Eq{"username": username}, "*userRepository.FindUserByUsername")
}

func (r *userRepository) findUserBy(ctx context.Context, pred sq.Eq, funcName string) (models.User, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.db.Builder().
		Select(userColumns...).
		From("users").
		Where(pred).
		ToSql()
	if err != nil {
		log.Err(err).Str("func", funcName).Msg("error: building query")
		return models.User{}, errors.Join(ErrBuildingSQLQuery, err)
	}

	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}

		log.Err(err).Str("func", funcName).Msg("error: scanning error")
		return models.User{}, errors.Join(ErrScanningRow, err)
	}

	return user, nil
}

// ListUsers returns every user account ordered by username.
func (r *userRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.db.Builder().
		Select(userColumns...).
		From("users").
		Where(sq.Eq{"is_active": true}).
		OrderBy("username ASC").
		ToSql()
	if err != nil {
		log.Err(err).Str("func", "*userRepository.ListUsers").Msg("error: building query")
		return nil, errors.Join(ErrBuildingSQLQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "*userRepository.ListUsers").Msg("error: executing query")
		return nil, errors.Join(ErrExecutingQuery, err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			log.Err(err).Str("func", "*userRepository.ListUsers").Msg("error: scanning error")
			return nil, errors.Join(ErrScanningRows, err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrScanningRows, err)
	}

	return users, nil
}

// UpdateRole sets the user's role.
func (r *userRepository) UpdateRole(ctx context.Context, id string, role models.Role) error {
	return r.updateUser(ctx, id, map[string]any{"role": role}, "*userRepository.UpdateRole")
}

// UpdatePIN replaces the user's stored PIN hash.
func (r *userRepository) UpdatePIN(ctx context.Context, id string, pinHash string) error {
	return r.updateUser(ctx, id, map[string]any{"pin_hash": pinHash}, "*userRepository.UpdatePIN")
}

// SetActive toggles the user's active flag. Deactivation is a soft delete:
// the record stays in place so the audit trail keeps resolving the account.
func (r *userRepository) SetActive(ctx context.Context, id string, active bool) error {
	return r.updateUser(ctx, id, map[string]any{"is_active": active}, "*userRepository.SetActive")
}

func (r *userRepository) updateUser(ctx context.Context, id string, set map[string]any, funcName string) error {
	log := logger.FromContext(ctx)

	builder := r.db.Builder().
		Update("users").
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id})
	for column, value := range set {
		builder = builder.Set(column, value)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		log.Err(err).Str("func", funcName).Msg("error: building query")
		return errors.Join(ErrBuildingSQLQuery, err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", funcName).Msg("error: executing update")
		return errors.Join(ErrExecutingStatement, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Join(ErrExecutingStatement, err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// RecordFailedLogin atomically increments the failed attempt counter and
// stamps the failure time. The RETURNING clause gives the caller the new
// counter without a read-modify-write race between concurrent logins.
func (r *userRepository) RecordFailedLogin(ctx context.Context, id string, at time.Time) (int, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.db.Builder().
		Update("users").
		Set("failed_attempts", sq.Expr("failed_attempts + 1")).
		Set("last_failed_at", at).
		Set("updated_at", at).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING failed_attempts").
		ToSql()
	if err != nil {
		log.Err(err).Str("func", "*userRepository.RecordFailedLogin").Msg("error: building query")
		return 0, errors.Join(ErrBuildingSQLQuery, err)
	}

	var attempts int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&attempts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUserNotFound
		}

		log.Err(err).Str("func", "*userRepository.RecordFailedLogin").Msg("error: executing update")
		return 0, errors.Join(ErrExecutingStatement, err)
	}

	return attempts, nil
}

// ResetLockout clears the failed attempt counter and failure timestamp.
func (r *userRepository) ResetLockout(ctx context.Context, id string) error {
	return r.updateUser(ctx, id, map[string]any{
		"failed_attempts": 0,
		"last_failed_at":  nil,
	}, "*userRepository.ResetLockout")
}
