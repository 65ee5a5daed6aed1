package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/medboxio/medbox/internal/logger"
	"github.com/medboxio/medbox/internal/store"
	"github.com/medboxio/medbox/internal/utils"
	"github.com/medboxio/medbox/models"
)

// userService is the concrete implementation of UserService. User IDs are
// the normalized usernames, so identity stays stable across display name
// changes and the uniqueness constraint doubles as the duplicate check.
type userService struct {
	userRepository store.UserRepository
	now            func() time.Time
	logger         *logger.Logger
}

// NewUserService constructs a UserService over the given repository.
func NewUserService(userRepository store.UserRepository, logger *logger.Logger) UserService {
	return &userService{
		userRepository: userRepository,
		now:            time.Now,
		logger:         logger,
	}
}

// CreateUser provisions a new account from an admin request.
//
// The username is normalized before validation, so "Alice" and "alice"
// collide. An empty role defaults to user; an unknown role is rejected.
func (s *userService) CreateUser(ctx context.Context, actor models.Identity, req CreateUserRequest) (models.User, error) {
	log := logger.FromContext(ctx)

	username := models.NormalizeUsername(req.Username)
	if !validUsername(username) {
		log.Error().Str("username", username).Msg("invalid username provided")
		return models.User{}, fmt.Errorf("%w: username must be 2-30 characters (letters, digits, underscore)", ErrInvalidDataProvided)
	}
	if !validPIN(req.PIN) {
		log.Error().Str("username", username).Msg("invalid PIN provided")
		return models.User{}, fmt.Errorf("%w: PIN must be exactly 4 digits", ErrInvalidDataProvided)
	}

	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		log.Error().Str("role", string(req.Role)).Msg("unknown role provided")
		return models.User{}, fmt.Errorf("%w: unknown role %q", ErrInvalidDataProvided, req.Role)
	}

	if !validDisplayName(req.DisplayName) {
		log.Error().Str("username", username).Msg("invalid display name provided")
		return models.User{}, fmt.Errorf("%w: display name must be 1-%d characters", ErrInvalidDataProvided, maxDisplayNameLength)
	}

	pinHash, err := utils.HashPIN(req.PIN)
	if err != nil {
		log.Err(err).Msg("error hashing PIN")
		return models.User{}, fmt.Errorf("error hashing PIN: %w", err)
	}

	now := s.now().UTC()
	user := models.User{
		ID:          username,
		Username:    username,
		DisplayName: req.DisplayName,
		PINHash:     pinHash,
		Role:        role,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
		CreatedBy:   actor.UID,
	}

	created, err := s.userRepository.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			return models.User{}, ErrDuplicateUsername
		}

		log.Err(err).Str("username", username).Msg("user creation ended with error")
		return models.User{}, fmt.Errorf("user creation ended with error: %w", err)
	}

	return created, nil
}

// ListUsers returns the active accounts ordered by username. Deactivated
// accounts never appear in listings.
func (s *userService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.userRepository.ListUsers(ctx)
	if err != nil {
		logger.FromContext(ctx).Err(err).Msg("error listing users")
		return nil, fmt.Errorf("error listing users: %w", err)
	}

	return users, nil
}

// GetUser fetches a single account by ID.
func (s *userService) GetUser(ctx context.Context, id string) (models.User, error) {
	user, err := s.userRepository.FindUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return models.User{}, ErrUserNotFound
		}

		logger.FromContext(ctx).Err(err).Str("id", id).Msg("error finding user")
		return models.User{}, fmt.Errorf("error finding user: %w", err)
	}

	return user, nil
}

// UpdateRole changes a user's role and returns the refreshed record. The
// change takes effect in tokens minted after the update; tokens already in
// the wild keep their old role claim until they expire.
func (s *userService) UpdateRole(ctx context.Context, actor models.Identity, id string, role models.Role) (models.User, error) {
	log := logger.FromContext(ctx)

	if !role.Valid() {
		log.Error().Str("role", string(role)).Msg("unknown role provided")
		return models.User{}, fmt.Errorf("%w: unknown role %q", ErrInvalidDataProvided, role)
	}

	if err := s.userRepository.UpdateRole(ctx, id, role); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return models.User{}, ErrUserNotFound
		}

		log.Err(err).Str("id", id).Msg("error updating role")
		return models.User{}, fmt.Errorf("error updating role: %w", err)
	}

	return s.GetUser(ctx, id)
}

// ResetPIN replaces a user's PIN and clears any lockout state, so an admin
// reset always reopens a locked account.
func (s *userService) ResetPIN(ctx context.Context, actor models.Identity, id string, pin string) error {
	log := logger.FromContext(ctx)

	if !validPIN(pin) {
		log.Error().Str("id", id).Msg("invalid PIN provided")
		return fmt.Errorf("%w: PIN must be exactly 4 digits", ErrInvalidDataProvided)
	}

	pinHash, err := utils.HashPIN(pin)
	if err != nil {
		log.Err(err).Msg("error hashing PIN")
		return fmt.Errorf("error hashing PIN: %w", err)
	}

	if err := s.userRepository.UpdatePIN(ctx, id, pinHash); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return ErrUserNotFound
		}

		log.Err(err).Str("id", id).Msg("error resetting PIN")
		return fmt.Errorf("error resetting PIN: %w", err)
	}

	if err := s.userRepository.ResetLockout(ctx, id); err != nil {
		log.Err(err).Str("id", id).Msg("error clearing lockout after PIN reset")
		return fmt.Errorf("error clearing lockout after PIN reset: %w", err)
	}

	return nil
}

// Deactivate soft-deletes an account. Admins cannot deactivate themselves,
// which keeps at least the acting admin able to undo mistakes.
func (s *userService) Deactivate(ctx context.Context, actor models.Identity, id string) error {
	log := logger.FromContext(ctx)

	if actor.UID == id {
		log.Warn().Str("id", id).Msg("admin attempted self-deactivation")
		return ErrCannotSelfDeactivate
	}

	if err := s.userRepository.SetActive(ctx, id, false); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return ErrUserNotFound
		}

		log.Err(err).Str("id", id).Msg("error deactivating user")
		return fmt.Errorf("error deactivating user: %w", err)
	}

	return nil
}

// EnsureAdmin seeds the bootstrap administrator account. An existing active
// admin under the username leaves everything untouched, so restarts never
// clobber a live account. A deactivated or demoted account is brought back
// as an active admin; otherwise the deployment would be stuck with no admin
// at all. The PIN of an existing account is never overwritten.
func (s *userService) EnsureAdmin(ctx context.Context, username, pin string) error {
	log := logger.FromContext(ctx)

	normalized := models.NormalizeUsername(username)

	existing, err := s.userRepository.FindUserByUsername(ctx, normalized)
	if err == nil {
		if existing.IsActive && existing.Role == models.RoleAdmin {
			log.Debug().Str("username", normalized).Msg("admin account already present")
			return nil
		}

		if !existing.IsActive {
			if err := s.userRepository.SetActive(ctx, existing.ID, true); err != nil {
				log.Err(err).Str("username", normalized).Msg("error reactivating admin account")
				return fmt.Errorf("error reactivating admin account: %w", err)
			}
		}
		if existing.Role != models.RoleAdmin {
			if err := s.userRepository.UpdateRole(ctx, existing.ID, models.RoleAdmin); err != nil {
				log.Err(err).Str("username", normalized).Msg("error restoring admin role")
				return fmt.Errorf("error restoring admin role: %w", err)
			}
		}

		log.Info().Str("username", normalized).Msg("restored admin account")
		return nil
	}
	if !errors.Is(err, store.ErrUserNotFound) {
		log.Err(err).Str("username", normalized).Msg("error checking for admin account")
		return fmt.Errorf("error checking for admin account: %w", err)
	}

	_, err = s.CreateUser(ctx, models.Identity{UID: "system", Username: "system", Role: models.RoleAdmin}, CreateUserRequest{
		Username:    normalized,
		DisplayName: "Administrator",
		PIN:         pin,
		Role:        models.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("error seeding admin account: %w", err)
	}

	log.Info().Str("username", normalized).Msg("seeded admin account")
	return nil
}
