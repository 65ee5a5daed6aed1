package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/medboxio/medbox/internal/logger"
	"github.com/medboxio/medbox/internal/store"
	"github.com/medboxio/medbox/internal/utils"
	"github.com/medboxio/medbox/models"
)

// boxService is the concrete implementation of BoxService. Access control is
// assignment-based: admins see and manage everything, regular users only the
// boxes they are assigned to.
type boxService struct {
	boxRepository  store.BoxRepository
	userRepository store.UserRepository
	uuid           *utils.UUIDGenerator
	now            func() time.Time
	logger         *logger.Logger
}

// NewBoxService constructs a BoxService over the given repositories.
func NewBoxService(boxRepository store.BoxRepository, userRepository store.UserRepository, logger *logger.Logger) BoxService {
	return &boxService{
		boxRepository:  boxRepository,
		userRepository: userRepository,
		uuid:           utils.NewUUIDGenerator(),
		now:            time.Now,
		logger:         logger,
	}
}

// CreateBox registers a new box. Admin only.
func (s *boxService) CreateBox(ctx context.Context, actor models.Identity, box models.Box) (models.Box, error) {
	log := logger.FromContext(ctx)

	if !actor.IsAdmin() {
		return models.Box{}, ErrForbidden
	}
	if !validBoxNumber(box.BoxNumber) {
		log.Error().Msg("invalid box number provided")
		return models.Box{}, fmt.Errorf("%w: box number must be 1-%d characters", ErrInvalidDataProvided, maxBoxNumberLength)
	}

	if err := s.checkUsersExist(ctx, box.AssignedTo); err != nil {
		return models.Box{}, err
	}

	now := s.now().UTC()
	box.ID = s.uuid.Generate()
	if box.Status == "" {
		box.Status = models.BoxStatusActive
	}
	box.CreatedAt = now
	box.UpdatedAt = now
	box.CreatedBy = actor.UID
	box.UpdatedBy = actor.UID

	created, err := s.boxRepository.CreateBox(ctx, box)
	if err != nil {
		if errors.Is(err, store.ErrBoxNumberTaken) {
			return models.Box{}, ErrDuplicateBoxNumber
		}

		log.Err(err).Str("boxNumber", box.BoxNumber).Msg("box creation ended with error")
		return models.Box{}, fmt.Errorf("box creation ended with error: %w", err)
	}

	return created, nil
}

// GetBox fetches a single box. Non-admin callers must be assigned to it.
func (s *boxService) GetBox(ctx context.Context, actor models.Identity, id string) (models.Box, error) {
	box, err := s.boxRepository.FindBoxByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrBoxNotFound) {
			return models.Box{}, ErrBoxNotFound
		}

		logger.FromContext(ctx).Err(err).Str("id", id).Msg("error finding box")
		return models.Box{}, fmt.Errorf("error finding box: %w", err)
	}

	if !actor.IsAdmin() && !slices.Contains(box.AssignedTo, actor.UID) {
		return models.Box{}, ErrForbidden
	}

	return box, nil
}

// ListBoxes returns all boxes for admins and only assigned boxes for
// everyone else.
func (s *boxService) ListBoxes(ctx context.Context, actor models.Identity) ([]models.Box, error) {
	var boxes []models.Box
	var err error

	if actor.IsAdmin() {
		boxes, err = s.boxRepository.ListBoxes(ctx)
	} else {
		boxes, err = s.boxRepository.ListBoxesAssignedTo(ctx, actor.UID)
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).Msg("error listing boxes")
		return nil, fmt.Errorf("error listing boxes: %w", err)
	}

	return boxes, nil
}

// UpdateBox applies a partial update. Non-admin callers must be assigned to
// the box and may not change its box number.
func (s *boxService) UpdateBox(ctx context.Context, actor models.Identity, id string, update models.BoxUpdate) (models.Box, error) {
	log := logger.FromContext(ctx)

	if !actor.IsAdmin() {
		if _, err := s.GetBox(ctx, actor, id); err != nil {
			return models.Box{}, err
		}

		if update.BoxNumber != nil {
			log.Warn().Str("id", id).Str("uid", actor.UID).Msg("non-admin attempted box number change")
			return models.Box{}, ErrForbidden
		}
	}

	if update.BoxNumber != nil && !validBoxNumber(*update.BoxNumber) {
		log.Error().Str("id", id).Msg("invalid box number provided")
		return models.Box{}, fmt.Errorf("%w: box number must be 1-%d characters", ErrInvalidDataProvided, maxBoxNumberLength)
	}

	updated, err := s.boxRepository.UpdateBox(ctx, id, update, actor.UID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrBoxNotFound):
			return models.Box{}, ErrBoxNotFound
		case errors.Is(err, store.ErrBoxNumberTaken):
			return models.Box{}, ErrDuplicateBoxNumber
		}

		log.Err(err).Str("id", id).Msg("error updating box")
		return models.Box{}, fmt.Errorf("error updating box: %w", err)
	}

	return updated, nil
}

// DeleteBox removes a box. Admin only.
func (s *boxService) DeleteBox(ctx context.Context, actor models.Identity, id string) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}

	if err := s.boxRepository.DeleteBox(ctx, id); err != nil {
		if errors.Is(err, store.ErrBoxNotFound) {
			return ErrBoxNotFound
		}

		logger.FromContext(ctx).Err(err).Str("id", id).Msg("error deleting box")
		return fmt.Errorf("error deleting box: %w", err)
	}

	return nil
}

// AssignBox replaces the full assignment list of a box. Admin only; every
// referenced user must exist.
func (s *boxService) AssignBox(ctx context.Context, actor models.Identity, id string, userIDs []string) (models.Box, error) {
	log := logger.FromContext(ctx)

	if !actor.IsAdmin() {
		return models.Box{}, ErrForbidden
	}

	if _, err := s.boxRepository.FindBoxByID(ctx, id); err != nil {
		if errors.Is(err, store.ErrBoxNotFound) {
			return models.Box{}, ErrBoxNotFound
		}

		log.Err(err).Str("id", id).Msg("error finding box")
		return models.Box{}, fmt.Errorf("error finding box: %w", err)
	}

	if err := s.checkUsersExist(ctx, userIDs); err != nil {
		return models.Box{}, err
	}

	if err := s.boxRepository.SetAssignments(ctx, id, userIDs); err != nil {
		log.Err(err).Str("id", id).Msg("error replacing assignments")
		return models.Box{}, fmt.Errorf("error replacing assignments: %w", err)
	}

	return s.boxRepository.FindBoxByID(ctx, id)
}

func (s *boxService) checkUsersExist(ctx context.Context, userIDs []string) error {
	for _, userID := range userIDs {
		if _, err := s.userRepository.FindUserByID(ctx, userID); err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				return fmt.Errorf("%w: unknown user %q", ErrInvalidDataProvided, userID)
			}

			return fmt.Errorf("error checking assigned user: %w", err)
		}
	}

	return nil
}
