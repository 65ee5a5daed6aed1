package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/medboxio/medbox/internal/service"
	"github.com/medboxio/medbox/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// doRequest routes the request through the full router so middleware and
// URL parameters behave as in production.
func doRequest(t *testing.T, h *Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Authorization", "Bearer some.jwt.token")
	rec := httptest.NewRecorder()

	h.Init().ServeHTTP(rec, req)
	return rec
}

func TestCreateBoxRoute_Success(t *testing.T) {
	boxes := &mockBoxService{
		createBoxFn: func(_ context.Context, actor models.Identity, box models.Box) (models.Box, error) {
			assert.Equal(t, adminIdentity, actor)
			box.ID = "box-1"
			return box, nil
		},
	}
	audit := &mockAuditService{}
	h := newTestHandler(t, &service.Services{
		AuthService:  bearerIdentity(adminIdentity),
		BoxService:   boxes,
		AuditService: audit,
	})

	rec := doRequest(t, h, http.MethodPost, "/api/boxes", `{"boxNumber":"A-101"}`)

	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Box
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "box-1", created.ID)

	require.Len(t, audit.recorded, 1)
	assert.Equal(t, models.ActionBoxCreate, audit.recorded[0].Action)
	assert.Equal(t, "box-1", audit.recorded[0].TargetID)
}

func TestCreateBoxRoute_Forbidden(t *testing.T) {
	boxes := &mockBoxService{
		createBoxFn: func(_ context.Context, _ models.Identity, _ models.Box) (models.Box, error) {
			return models.Box{}, service.ErrForbidden
		},
	}
	h := newTestHandler(t, &service.Services{
		AuthService: bearerIdentity(userIdentity),
		BoxService:  boxes,
	})

	rec := doRequest(t, h, http.MethodPost, "/api/boxes", `{"boxNumber":"A-101"}`)

	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Access denied", decodeError(t, rec))
}

func TestGetBoxRoute_PassesURLParam(t *testing.T) {
	boxes := &mockBoxService{
		getBoxFn: func(_ context.Context, _ models.Identity, id string) (models.Box, error) {
			assert.Equal(t, "box-7", id)
			return models.Box{ID: id, BoxNumber: "G-707"}, nil
		},
	}
	h := newTestHandler(t, &service.Services{
		AuthService: bearerIdentity(userIdentity),
		BoxService:  boxes,
	})

	rec := doRequest(t, h, http.MethodGet, "/api/boxes/box-7", "")

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestGetBoxRoute_NotFound(t *testing.T) {
	boxes := &mockBoxService{
		getBoxFn: func(_ context.Context, _ models.Identity, _ string) (models.Box, error) {
			return models.Box{}, service.ErrBoxNotFound
		},
	}
	h := newTestHandler(t, &service.Services{
		AuthService: bearerIdentity(userIdentity),
		BoxService:  boxes,
	})

	rec := doRequest(t, h, http.MethodGet, "/api/boxes/ghost", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Box not found", decodeError(t, rec))
}

func TestListBoxesRoute(t *testing.T) {
	boxes := &mockBoxService{
		listBoxesFn: func(_ context.Context, actor models.Identity) ([]models.Box, error) {
			assert.Equal(t, userIdentity, actor)
			return []models.Box{{ID: "box-1"}}, nil
		},
	}
	h := newTestHandler(t, &service.Services{
		AuthService: bearerIdentity(userIdentity),
		BoxService:  boxes,
	})

	rec := doRequest(t, h, http.MethodGet, "/api/boxes", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var listed []models.Box
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Len(t, listed, 1)
}

func TestUpdateBoxRoute_InventoryCheckAudited(t *testing.T) {
	boxes := &mockBoxService{
		updateBoxFn: func(_ context.Context, _ models.Identity, id string, update models.BoxUpdate) (models.Box, error) {
			require.NotNil(t, update.LastInventoryDate)
			return models.Box{ID: id, BoxNumber: "A-101"}, nil
		},
	}
	audit := &mockAuditService{}
	h := newTestHandler(t, &service.Services{
		AuthService:  bearerIdentity(userIdentity),
		BoxService:   boxes,
		AuditService: audit,
	})

	rec := doRequest(t, h, http.MethodPut, "/api/boxes/box-1",
		`{"lastInventoryDate":"2026-08-31T12:00:00Z"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, audit.recorded, 1)
	assert.Equal(t, models.ActionInventoryCheck, audit.recorded[0].Action)
}

func TestUpdateBoxRoute_PlainEditAudited(t *testing.T) {
	boxes := &mockBoxService{
		updateBoxFn: func(_ context.Context, _ models.Identity, id string, _ models.BoxUpdate) (models.Box, error) {
			return models.Box{ID: id}, nil
		},
	}
	audit := &mockAuditService{}
	h := newTestHandler(t, &service.Services{
		AuthService:  bearerIdentity(adminIdentity),
		BoxService:   boxes,
		AuditService: audit,
	})

	rec := doRequest(t, h, http.MethodPut, "/api/boxes/box-1", `{"location":"Station 5"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, audit.recorded, 1)
	assert.Equal(t, models.ActionBoxUpdate, audit.recorded[0].Action)
}

func TestDeleteBoxRoute(t *testing.T) {
	boxes := &mockBoxService{
		deleteBoxFn: func(_ context.Context, _ models.Identity, id string) error {
			assert.Equal(t, "box-1", id)
			return nil
		},
	}
	audit := &mockAuditService{}
	h := newTestHandler(t, &service.Services{
		AuthService:  bearerIdentity(adminIdentity),
		BoxService:   boxes,
		AuditService: audit,
	})

	rec := doRequest(t, h, http.MethodDelete, "/api/boxes/box-1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, audit.recorded, 1)
	assert.Equal(t, models.ActionBoxDelete, audit.recorded[0].Action)
}

func TestAssignBoxRoute(t *testing.T) {
	boxes := &mockBoxService{
		assignBoxFn: func(_ context.Context, _ models.Identity, id string, userIDs []string) (models.Box, error) {
			assert.Equal(t, []string{"alice", "bob"}, userIDs)
			return models.Box{ID: id, AssignedTo: userIDs}, nil
		},
	}
	audit := &mockAuditService{}
	h := newTestHandler(t, &service.Services{
		AuthService:  bearerIdentity(adminIdentity),
		BoxService:   boxes,
		AuditService: audit,
	})

	rec := doRequest(t, h, http.MethodPost, "/api/boxes/box-1/assign",
		`{"userIds":["alice","bob"]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, audit.recorded, 1)
	assert.Equal(t, models.ActionBoxAssign, audit.recorded[0].Action)
}

func TestAssignBoxRoute_MissingUserIDs(t *testing.T) {
	// a nil assignBoxFn panics if the service is reached, so a body without
	// userIds must never turn into an unassign-all
	h := newTestHandler(t, &service.Services{
		AuthService: bearerIdentity(adminIdentity),
		BoxService:  &mockBoxService{},
	})

	rec := doRequest(t, h, http.MethodPost, "/api/boxes/box-1/assign", `{}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "userIds must be an array", decodeError(t, rec))
}

func TestAssignBoxRoute_EmptyListUnassignsAll(t *testing.T) {
	boxes := &mockBoxService{
		assignBoxFn: func(_ context.Context, _ models.Identity, _ string, userIDs []string) (models.Box, error) {
			assert.Empty(t, userIDs)
			return models.Box{ID: "box-1"}, nil
		},
	}
	h := newTestHandler(t, &service.Services{
		AuthService: bearerIdentity(adminIdentity),
		BoxService:  boxes,
	})

	rec := doRequest(t, h, http.MethodPost, "/api/boxes/box-1/assign", `{"userIds":[]}`)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInventoryCheckRoute(t *testing.T) {
	boxes := &mockBoxService{
		updateBoxFn: func(_ context.Context, actor models.Identity, id string, update models.BoxUpdate) (models.Box, error) {
			assert.Equal(t, userIdentity, actor)
			require.NotNil(t, update.Medications)
			require.NotNil(t, update.LastInventoryDate)
			assert.Len(t, *update.Medications, 1)
			return models.Box{ID: id, BoxNumber: "A-101"}, nil
		},
	}
	audit := &mockAuditService{}
	h := newTestHandler(t, &service.Services{
		AuthService:  bearerIdentity(userIdentity),
		BoxService:   boxes,
		AuditService: audit,
	})

	rec := doRequest(t, h, http.MethodPost, "/api/boxes/box-1/inventory",
		`{"medications":[{"name":"Aspirin","quantity":20,"unit":"tablets"}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, audit.recorded, 1)
	assert.Equal(t, models.ActionInventoryCheck, audit.recorded[0].Action)
}

func TestInventoryCheckRoute_MissingMedications(t *testing.T) {
	h := newTestHandler(t, &service.Services{
		AuthService: bearerIdentity(userIdentity),
		BoxService:  &mockBoxService{},
	})

	rec := doRequest(t, h, http.MethodPost, "/api/boxes/box-1/inventory", `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBoxRoutes_Unauthenticated(t *testing.T) {
	h := newTestHandler(t, &service.Services{AuthService: &mockAuthService{}})

	req := httptest.NewRequest(http.MethodGet, "/api/boxes", nil)
	rec := httptest.NewRecorder()

	h.Init().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
