package service

import (
	"context"

	"github.com/medboxio/medbox/models"
)

// CreateUserRequest carries the fields an administrator supplies when
// provisioning a new account.
type CreateUserRequest struct {
	Username    string      `json:"username"`
	DisplayName string      `json:"displayName"`
	PIN         string      `json:"pin"`
	Role        models.Role `json:"role"`
}

// AuthService authenticates users and verifies bearer tokens.
type AuthService interface {
	// Login verifies the username/PIN pair, enforcing the failed-attempt
	// lockout, and returns the user together with a freshly minted token.
	Login(ctx context.Context, username, pin string) (models.User, string, error)

	// VerifyToken validates a raw bearer token and resolves the identity it
	// carries.
	VerifyToken(ctx context.Context, raw string) (models.Identity, error)
}

// UserService implements user administration.
type UserService interface {
	CreateUser(ctx context.Context, actor models.Identity, req CreateUserRequest) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id string) (models.User, error)
	UpdateRole(ctx context.Context, actor models.Identity, id string, role models.Role) (models.User, error)
	ResetPIN(ctx context.Context, actor models.Identity, id string, pin string) error
	Deactivate(ctx context.Context, actor models.Identity, id string) error

	// EnsureAdmin seeds an administrator account at startup when the
	// configured username does not exist yet.
	EnsureAdmin(ctx context.Context, username, pin string) error
}

// BoxService implements medication box management with assignment-based
// access control.
type BoxService interface {
	CreateBox(ctx context.Context, actor models.Identity, box models.Box) (models.Box, error)
	GetBox(ctx context.Context, actor models.Identity, id string) (models.Box, error)
	ListBoxes(ctx context.Context, actor models.Identity) ([]models.Box, error)
	UpdateBox(ctx context.Context, actor models.Identity, id string, update models.BoxUpdate) (models.Box, error)
	DeleteBox(ctx context.Context, actor models.Identity, id string) error
	AssignBox(ctx context.Context, actor models.Identity, id string, userIDs []string) (models.Box, error)
}

// AuditService records and exposes the audit trail.
type AuditService interface {
	// Record appends an audit entry. Failures are logged and swallowed: an
	// audit write must never fail the operation it documents.
	Record(ctx context.Context, entry models.AuditEntry)

	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditEntry, error)
}
