package store

import (
	"context"
	"time"

	"github.com/medboxio/medbox/models"
)

// UserRepository persists user accounts and their lockout state.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByID(ctx context.Context, id string) (models.User, error)
	FindUserByUsername(ctx context.Context, username string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateRole(ctx context.Context, id string, role models.Role) error
	UpdatePIN(ctx context.Context, id string, pinHash string) error
	SetActive(ctx context.Context, id string, active bool) error

	// RecordFailedLogin atomically increments the user's failed attempt
	// counter, stamps the failure time, and returns the new counter value.
	RecordFailedLogin(ctx context.Context, id string, at time.Time) (int, error)

	// ResetLockout clears the failed attempt counter and failure timestamp.
	ResetLockout(ctx context.Context, id string) error
}

// BoxRepository persists medication boxes and their user assignments.
type BoxRepository interface {
	CreateBox(ctx context.Context, box models.Box) (models.Box, error)
	FindBoxByID(ctx context.Context, id string) (models.Box, error)
	ListBoxes(ctx context.Context) ([]models.Box, error)
	ListBoxesAssignedTo(ctx context.Context, userID string) ([]models.Box, error)
	UpdateBox(ctx context.Context, id string, update models.BoxUpdate, updatedBy string) (models.Box, error)
	DeleteBox(ctx context.Context, id string) error

	// SetAssignments replaces the full set of user IDs assigned to a box.
	SetAssignments(ctx context.Context, boxID string, userIDs []string) error
}

// AuditRepository persists the append-only audit trail.
type AuditRepository interface {
	Append(ctx context.Context, entry models.AuditEntry) error
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditEntry, error)
}
