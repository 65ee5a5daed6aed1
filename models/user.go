package models

import (
	"strings"
	"time"
)

// Role is the access level assigned to a user account.
type Role string

const (
	// RoleAdmin grants unrestricted access, including user administration
	// and box deletion.
	RoleAdmin Role = "admin"

	// RoleUser grants access only to boxes the user is assigned to.
	RoleUser Role = "user"
)

// Valid reports whether the role is one of the known access levels.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User represents an account entity used for authentication and authorization.
// It contains identity attributes and credential-related data.
// Sensitive fields must never be exposed outside trusted boundaries.
type User struct {
	// ID is the stable identifier of the account, derived from the
	// normalized username at creation time.
	ID string `json:"id"`

	// Username is the unique, case-folded login identifier.
	Username string `json:"username"`

	// DisplayName is the human-readable name shown in the UI.
	DisplayName string `json:"displayName"`

	// PINHash is the bcrypt hash of the user's 4-digit PIN.
	// It is never serialized and must not leave the store/service boundary.
	PINHash string `json:"-"`

	// Role is the account's access level.
	Role Role `json:"role"`

	// FailedAttempts counts consecutive failed PIN checks since the last
	// successful login or PIN reset.
	FailedAttempts int `json:"failedAttempts"`

	// LastFailedAt is the time of the most recent failed attempt, if any.
	LastFailedAt *time.Time `json:"lastFailedAt,omitempty"`

	// IsActive is false for soft-deleted accounts. Deactivated users can
	// never authenticate and are excluded from listings.
	IsActive bool `json:"isActive"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is the timestamp of the last modification.
	UpdatedAt time.Time `json:"updatedAt"`

	// CreatedBy records the ID of the account that created this one.
	CreatedBy string `json:"createdBy"`
}

// NormalizeUsername case-folds a raw username into its canonical form.
// The normalized value doubles as the account ID.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// TableName returns the name of the database table
// associated with the User model.
func (u User) TableName() string {
	return "users"
}
