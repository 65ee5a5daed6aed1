package store

import (
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/medboxio/medbox/internal/logger"
	"github.com/medboxio/medbox/migrations"
)

// DB wraps an open *sql.DB together with the driver-specific pieces the
// repositories need: a squirrel statement builder configured with the right
// placeholder format and an [ErrorClassifier] for the active driver.
type DB struct {
	*sql.DB
	driver          string
	builder         sq.StatementBuilderType
	errorClassifier ErrorClassifier
	logger          *logger.Logger
}

// Migrate applies all pending schema migrations using the dialect matching
// the connection's driver.
func (db *DB) Migrate() error {
	return migrations.Migrate(db.DB, db.driver)
}

// Builder returns the squirrel statement builder configured for this
// connection's placeholder format ($1 for postgres, ? for sqlite).
func (db *DB) Builder() sq.StatementBuilderType {
	return db.builder
}

// IsUniqueViolation reports whether err was caused by a unique constraint
// violation on the active driver.
func (db *DB) IsUniqueViolation(err error) bool {
	if db.errorClassifier == nil {
		return false
	}

	return db.errorClassifier.IsUniqueViolation(err)
}
