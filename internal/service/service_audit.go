package service

import (
	"context"
	"fmt"
	"time"

	"github.com/medboxio/medbox/internal/logger"
	"github.com/medboxio/medbox/internal/store"
	"github.com/medboxio/medbox/internal/utils"
	"github.com/medboxio/medbox/models"
)

// auditService is the concrete implementation of AuditService.
type auditService struct {
	auditRepository store.AuditRepository
	uuid            *utils.UUIDGenerator
	now             func() time.Time
	logger          *logger.Logger
}

// NewAuditService constructs an AuditService over the given repository.
func NewAuditService(auditRepository store.AuditRepository, logger *logger.Logger) AuditService {
	return &auditService{
		auditRepository: auditRepository,
		uuid:            utils.NewUUIDGenerator(),
		now:             time.Now,
		logger:          logger,
	}
}

// Record appends an audit entry, filling in the ID and timestamp when the
// caller left them empty. A failed write is logged and swallowed: the audit
// trail must never take down the operation it documents.
func (s *auditService) Record(ctx context.Context, entry models.AuditEntry) {
	log := logger.FromContext(ctx)

	if !entry.Action.Valid() {
		log.Error().Str("action", string(entry.Action)).Msg("dropping audit entry with unknown action")
		return
	}

	if entry.ID == "" {
		entry.ID = s.uuid.Generate()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now().UTC()
	}

	if err := s.auditRepository.Append(ctx, entry); err != nil {
		log.Err(err).Str("action", string(entry.Action)).Msg("error writing audit entry")
	}
}

// List returns audit entries matching the filter, newest first.
func (s *auditService) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditEntry, error) {
	if filter.Action != "" && !filter.Action.Valid() {
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidDataProvided, filter.Action)
	}

	entries, err := s.auditRepository.List(ctx, filter)
	if err != nil {
		logger.FromContext(ctx).Err(err).Msg("error listing audit entries")
		return nil, fmt.Errorf("error listing audit entries: %w", err)
	}

	return entries, nil
}
