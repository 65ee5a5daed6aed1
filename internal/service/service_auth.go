package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/medboxio/medbox/internal/logger"
	"github.com/medboxio/medbox/internal/store"
	"github.com/medboxio/medbox/internal/token"
	"github.com/medboxio/medbox/internal/utils"
	"github.com/medboxio/medbox/models"
)

const (
	// maxLoginAttempts is the number of consecutive PIN failures allowed
	// before the account locks.
	maxLoginAttempts = 5

	// lockoutDuration is how long a locked account stays locked. Expiry is
	// lazy: the lockout is cleared on the first login attempt after it ends.
	lockoutDuration = 15 * time.Minute
)

// authService is the concrete implementation of AuthService. It verifies
// username/PIN credentials against the user store, enforces the
// failed-attempt lockout, and exchanges successful logins for bearer tokens
// minted by the injected token authority.
type authService struct {
	// userRepository is the data-access layer used to look up users and
	// track failed attempts.
	userRepository store.UserRepository

	// tokens mints tokens on successful login and verifies presented ones.
	tokens token.Authority

	// now is the clock used for lockout arithmetic. Injectable for tests.
	now func() time.Time

	// logger is the structured logger used for diagnostic and error output.
	logger *logger.Logger
}

// NewAuthService constructs a new AuthService wired to the given
// UserRepository and token authority.
//
// The returned service is safe for concurrent use; all state is read-only
// after construction.
func NewAuthService(userRepository store.UserRepository, tokens token.Authority, logger *logger.Logger) AuthService {
	return &authService{
		userRepository: userRepository,
		tokens:         tokens,
		now:            time.Now,
		logger:         logger,
	}
}

// Login authenticates a username/PIN pair.
//
// The flow mirrors what the lockout rules require:
//  1. An unknown username fails with [ErrInvalidCredentials]; the caller
//     cannot tell it apart from a wrong PIN.
//  2. A deactivated account fails with [ErrAccountDisabled] before the PIN
//     is even checked.
//  3. A locked account fails with [AccountLockedError] until the lockout
//     window passes; the first attempt after expiry clears the counter and
//     proceeds as a fresh attempt.
//  4. A wrong PIN atomically increments the failure counter. The fifth
//     failure locks the account; earlier ones report the attempts left via
//     [PINMismatchError].
//  5. A correct PIN clears any failure state and returns the user together
//     with a minted bearer token.
func (a *authService) Login(ctx context.Context, username, pin string) (models.User, string, error) {
	log := logger.FromContext(ctx)

	if username == "" || pin == "" {
		log.Error().Msg("login called with empty username or PIN")
		return models.User{}, "", ErrInvalidDataProvided
	}

	normalized := models.NormalizeUsername(username)

	user, err := a.userRepository.FindUserByUsername(ctx, normalized)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug().Str("username", normalized).Msg("login for unknown username")
			return models.User{}, "", ErrInvalidCredentials
		}

		log.Err(err).Str("username", normalized).Msg("user search by username failed")
		return models.User{}, "", fmt.Errorf("user search by username failed: %w", err)
	}

	if !user.IsActive {
		log.Warn().Str("username", normalized).Msg("login attempt on disabled account")
		return models.User{}, "", ErrAccountDisabled
	}

	if user.FailedAttempts >= maxLoginAttempts && user.LastFailedAt != nil {
		elapsed := a.now().Sub(*user.LastFailedAt)
		if elapsed < lockoutDuration {
			log.Warn().Str("username", normalized).Msg("login attempt on locked account")
			return models.User{}, "", &AccountLockedError{RetryAfter: lockoutDuration - elapsed}
		}

		// lockout expired: clear state and treat this as a fresh attempt
		if err := a.userRepository.ResetLockout(ctx, user.ID); err != nil {
			log.Err(err).Str("username", normalized).Msg("error resetting expired lockout")
			return models.User{}, "", fmt.Errorf("error resetting expired lockout: %w", err)
		}
		user.FailedAttempts = 0
		user.LastFailedAt = nil
	}

	if !utils.VerifyPIN(pin, user.PINHash) {
		attempts, err := a.userRepository.RecordFailedLogin(ctx, user.ID, a.now())
		if err != nil {
			log.Err(err).Str("username", normalized).Msg("error recording failed login")
			return models.User{}, "", fmt.Errorf("error recording failed login: %w", err)
		}

		if attempts >= maxLoginAttempts {
			log.Warn().Str("username", normalized).Int("attempts", attempts).Msg("account locked after repeated failures")
			return models.User{}, "", &AccountLockedError{RetryAfter: lockoutDuration}
		}

		log.Debug().Str("username", normalized).Int("attempts", attempts).Msg("wrong PIN")
		return models.User{}, "", &PINMismatchError{AttemptsRemaining: maxLoginAttempts - attempts}
	}

	if user.FailedAttempts > 0 {
		if err := a.userRepository.ResetLockout(ctx, user.ID); err != nil {
			log.Err(err).Str("username", normalized).Msg("error clearing failed attempts")
			return models.User{}, "", fmt.Errorf("error clearing failed attempts: %w", err)
		}
		user.FailedAttempts = 0
		user.LastFailedAt = nil
	}

	signed, err := a.tokens.Mint(ctx, user)
	if err != nil {
		log.Err(err).Str("username", normalized).Msg("error minting token")
		return models.User{}, "", fmt.Errorf("error minting token: %w", err)
	}

	return user, signed, nil
}

// VerifyToken validates a raw bearer token and resolves the identity it
// carries.
//
// Any token-level failure is normalised to [ErrTokenIsExpiredOrInvalid]. A
// structurally valid token whose role claim is missing or unknown fails with
// [ErrForbidden]: an unrecognised role never falls back to a default.
func (a *authService) VerifyToken(ctx context.Context, raw string) (models.Identity, error) {
	log := logger.FromContext(ctx)

	claims, err := a.tokens.Verify(ctx, raw)
	if err != nil {
		return models.Identity{}, ErrTokenIsExpiredOrInvalid
	}

	role := models.Role(claims.Role)
	if !role.Valid() {
		log.Warn().Str("uid", claims.UID).Str("role", claims.Role).Msg("token carries unknown role")
		return models.Identity{}, ErrForbidden
	}

	return models.Identity{
		UID:      claims.UID,
		Username: claims.Username,
		Role:     role,
	}, nil
}
