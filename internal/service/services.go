package service

import (
	"github.com/medboxio/medbox/internal/logger"
	"github.com/medboxio/medbox/internal/store"
	"github.com/medboxio/medbox/internal/token"
)

// Services bundles every application service behind one composition point.
type Services struct {
	AuthService  AuthService
	UserService  UserService
	BoxService   BoxService
	AuditService AuditService
}

// NewServices wires all services to the given storages and token authority.
func NewServices(storages *store.Storages, tokens token.Authority, logger *logger.Logger) *Services {
	return &Services{
		AuthService:  NewAuthService(storages.Users, tokens, logger),
		UserService:  NewUserService(storages.Users, logger),
		BoxService:   NewBoxService(storages.Boxes, storages.Users, logger),
		AuditService: NewAuditService(storages.Audit, logger),
	}
}
