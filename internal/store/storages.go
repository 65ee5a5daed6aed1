package store

import (
	"context"
	"fmt"

	"github.com/medboxio/medbox/internal/config"
	"github.com/medboxio/medbox/internal/logger"
)

// Storages bundles all repositories backed by a single database connection.
type Storages struct {
	Users UserRepository
	Boxes BoxRepository
	Audit AuditRepository
}

// NewConnect opens the database selected by cfg.Driver and returns the
// wrapped connection.
func NewConnect(ctx context.Context, cfg config.DB, log *logger.Logger) (*DB, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return NewConnectPostgres(ctx, cfg, log)
	case config.DriverSQLite:
		return NewConnectSQLite(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %q", cfg.Driver)
	}
}

// NewStorages constructs all repositories over the given connection.
func NewStorages(db *DB, log *logger.Logger) *Storages {
	return &Storages{
		Users: NewUserRepository(db, log),
		Boxes: NewBoxRepository(db, log),
		Audit: NewAuditRepository(db, log),
	}
}
