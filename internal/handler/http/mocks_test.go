package http

import (
	"context"
	"testing"

	"github.com/medboxio/medbox/internal/logger"
	"github.com/medboxio/medbox/internal/service"
	"github.com/medboxio/medbox/models"
)

// mockAuthService implements service.AuthService for unit tests.
// Each method field can be overridden per test case.
type mockAuthService struct {
	loginFn       func(ctx context.Context, username, pin string) (models.User, string, error)
	verifyTokenFn func(ctx context.Context, raw string) (models.Identity, error)
}

func (m *mockAuthService) Login(ctx context.Context, username, pin string) (models.User, string, error) {
	return m.loginFn(ctx, username, pin)
}

func (m *mockAuthService) VerifyToken(ctx context.Context, raw string) (models.Identity, error) {
	return m.verifyTokenFn(ctx, raw)
}

// mockUserService implements service.UserService for unit tests.
type mockUserService struct {
	createUserFn  func(ctx context.Context, actor models.Identity, req service.CreateUserRequest) (models.User, error)
	listUsersFn   func(ctx context.Context) ([]models.User, error)
	getUserFn     func(ctx context.Context, id string) (models.User, error)
	updateRoleFn  func(ctx context.Context, actor models.Identity, id string, role models.Role) (models.User, error)
	resetPINFn    func(ctx context.Context, actor models.Identity, id string, pin string) error
	deactivateFn  func(ctx context.Context, actor models.Identity, id string) error
	ensureAdminFn func(ctx context.Context, username, pin string) error
}

func (m *mockUserService) CreateUser(ctx context.Context, actor models.Identity, req service.CreateUserRequest) (models.User, error) {
	return m.createUserFn(ctx, actor, req)
}

func (m *mockUserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return m.listUsersFn(ctx)
}

func (m *mockUserService) GetUser(ctx context.Context, id string) (models.User, error) {
	return m.getUserFn(ctx, id)
}

func (m *mockUserService) UpdateRole(ctx context.Context, actor models.Identity, id string, role models.Role) (models.User, error) {
	return m.updateRoleFn(ctx, actor, id, role)
}

func (m *mockUserService) ResetPIN(ctx context.Context, actor models.Identity, id string, pin string) error {
	return m.resetPINFn(ctx, actor, id, pin)
}

func (m *mockUserService) Deactivate(ctx context.Context, actor models.Identity, id string) error {
	return m.deactivateFn(ctx, actor, id)
}

func (m *mockUserService) EnsureAdmin(ctx context.Context, username, pin string) error {
	return m.ensureAdminFn(ctx, username, pin)
}

// mockBoxService implements service.BoxService for unit tests.
type mockBoxService struct {
	createBoxFn func(ctx context.Context, actor models.Identity, box models.Box) (models.Box, error)
	getBoxFn    func(ctx context.Context, actor models.Identity, id string) (models.Box, error)
	listBoxesFn func(ctx context.Context, actor models.Identity) ([]models.Box, error)
	updateBoxFn func(ctx context.Context, actor models.Identity, id string, update models.BoxUpdate) (models.Box, error)
	deleteBoxFn func(ctx context.Context, actor models.Identity, id string) error
	assignBoxFn func(ctx context.Context, actor models.Identity, id string, userIDs []string) (models.Box, error)
}

func (m *mockBoxService) CreateBox(ctx context.Context, actor models.Identity, box models.Box) (models.Box, error) {
	return m.createBoxFn(ctx, actor, box)
}

func (m *mockBoxService) GetBox(ctx context.Context, actor models.Identity, id string) (models.Box, error) {
	return m.getBoxFn(ctx, actor, id)
}

func (m *mockBoxService) ListBoxes(ctx context.Context, actor models.Identity) ([]models.Box, error) {
	return m.listBoxesFn(ctx, actor)
}

func (m *mockBoxService) UpdateBox(ctx context.Context, actor models.Identity, id string, update models.BoxUpdate) (models.Box, error) {
	return m.updateBoxFn(ctx, actor, id, update)
}

func (m *mockBoxService) DeleteBox(ctx context.Context, actor models.Identity, id string) error {
	return m.deleteBoxFn(ctx, actor, id)
}

func (m *mockBoxService) AssignBox(ctx context.Context, actor models.Identity, id string, userIDs []string) (models.Box, error) {
	return m.assignBoxFn(ctx, actor, id, userIDs)
}

// mockAuditService records entries in memory so tests can assert on the
// audit trail a handler produces.
type mockAuditService struct {
	recorded []models.AuditEntry
	listFn   func(ctx context.Context, filter models.AuditFilter) ([]models.AuditEntry, error)
}

func (m *mockAuditService) Record(_ context.Context, entry models.AuditEntry) {
	m.recorded = append(m.recorded, entry)
}

func (m *mockAuditService) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditEntry, error) {
	return m.listFn(ctx, filter)
}

// newTestHandler builds a Handler over the given mocks. Nil mocks are
// replaced with empty ones so every handler can at least record audit
// entries without panicking.
func newTestHandler(t *testing.T, svcs *service.Services) *Handler {
	t.Helper()
	if svcs.AuditService == nil {
		svcs.AuditService = &mockAuditService{}
	}
	return NewHandler(svcs, logger.Nop())
}

// bearerIdentity wires an auth mock that accepts the given token and
// resolves it to the given identity.
func bearerIdentity(identity models.Identity) *mockAuthService {
	return &mockAuthService{
		verifyTokenFn: func(_ context.Context, _ string) (models.Identity, error) {
			return identity, nil
		},
	}
}

var (
	adminIdentity = models.Identity{UID: "boss", Username: "boss", Role: models.RoleAdmin}
	userIdentity  = models.Identity{UID: "alice", Username: "alice", Role: models.RoleUser}
)
