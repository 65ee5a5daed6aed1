// Package utils provides general-purpose helpers used across the
// application: type-safe context keys, HTTP response writing, PIN hashing,
// and identifier generation.
package utils

import (
	"context"

	"github.com/medboxio/medbox/models"
)

// contextKey is a private type for context keys. Using a dedicated type
// instead of a plain string prevents collisions with other packages.
type contextKey string

// String returns the string representation of the context key.
// Implements the fmt.Stringer interface.
func (c contextKey) String() string {
	return string(c)
}

// IdentityCtxKey is the key under which the authentication middleware stores
// the verified caller identity in the request context.
//
// Example of writing a value to the context:
//
//	ctx := context.WithValue(ctx, utils.IdentityCtxKey, identity)
var IdentityCtxKey = contextKey("identity")

// GetIdentityFromContext retrieves the verified caller identity from the
// context.
//
// Returns the identity and an ok flag:
//   - ok == true  — value is present and has the correct type
//   - ok == false — value is missing or has an unexpected type
func GetIdentityFromContext(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(IdentityCtxKey).(models.Identity)
	return identity, ok
}
