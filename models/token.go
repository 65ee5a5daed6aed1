package models

import "github.com/golang-jwt/jwt/v5"

// Claims is the JWT claim set minted for authenticated sessions. In addition
// to the registered claims it carries the application-specific identity
// attributes consumed by the access-control middleware.
type Claims struct {
	jwt.RegisteredClaims

	// UID is the account identifier (normalized username).
	UID string `json:"uid"`

	// Username is the login name at mint time.
	Username string `json:"username"`

	// Role is the account role at mint time. Role changes take effect when
	// the next token is minted.
	Role string `json:"role"`
}

// Identity is the verified caller identity attached to a request context by
// the authentication middleware.
type Identity struct {
	UID      string `json:"uid"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
