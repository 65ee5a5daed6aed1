// Package token defines the token authority: the component that mints signed
// bearer tokens for authenticated sessions and verifies tokens presented on
// incoming requests. The interface is injected wherever tokens are produced
// or consumed, so tests can substitute a stub authority.
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/medboxio/medbox/models"
)

// ErrInvalidToken is returned by Verify for any token that fails validation:
// bad signature, wrong issuer, expired, or malformed. Callers are not given
// the underlying reason.
var ErrInvalidToken = errors.New("token is expired or invalid")

// Authority mints and verifies bearer tokens carrying the application claim
// set {uid, username, role}.
//
// The context parameter is accepted on both methods so that network-backed
// implementations can honour caller deadlines; the JWT implementation
// performs no I/O.
type Authority interface {
	Mint(ctx context.Context, user models.User) (string, error)
	Verify(ctx context.Context, raw string) (models.Claims, error)
}

// JWTAuthority is the self-issuing implementation of Authority. Tokens are
// HMAC-SHA256 signed JWTs; the claim set is read from the user record at mint
// time, so a role change becomes visible when the next token is minted.
type JWTAuthority struct {
	signKey  string
	issuer   string
	duration time.Duration
}

// NewJWTAuthority constructs a JWTAuthority with the given signing secret,
// issuer name, and token lifetime.
func NewJWTAuthority(signKey, issuer string, duration time.Duration) *JWTAuthority {
	return &JWTAuthority{
		signKey:  signKey,
		issuer:   issuer,
		duration: duration,
	}
}

// Mint issues a signed token for the given user. The token carries the
// configured issuer, the user ID as subject, and the custom claims
// {uid, username, role}. It expires after the configured duration.
func (a *JWTAuthority) Mint(_ context.Context, user models.User) (string, error) {
	if a.signKey == "" || a.issuer == "" || a.duration == 0 {
		return "", errors.New("invalid params for generating token")
	}

	now := time.Now()
	claims := models.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(a.duration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UID:      user.ID,
		Username: user.Username,
		Role:     string(user.Role),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(a.signKey))
	if err != nil {
		return "", fmt.Errorf("error signing token: %w", err)
	}

	return signed, nil
}

// Verify validates a raw token string and returns its claims.
//
// Validation covers the HMAC signature, the signing method, the issuer claim,
// and expiry. Any failure is normalised to [ErrInvalidToken] so callers never
// have to inspect low-level JWT errors.
func (a *JWTAuthority) Verify(_ context.Context, raw string) (models.Claims, error) {
	var claims models.Claims

	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return []byte(a.signKey), nil
	},
		jwt.WithIssuer(a.issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return models.Claims{}, ErrInvalidToken
	}

	if claims.UID == "" {
		return models.Claims{}, ErrInvalidToken
	}

	return claims, nil
}
