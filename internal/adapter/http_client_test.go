package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/medboxio/medbox/internal/service"
	"github.com/medboxio/medbox/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(HTTPClientConfig{BaseURL: srv.URL})
}

func TestLogin_StoresToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/auth/login", r.URL.Path)

		var payload loginPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "alice", payload.Username)

		json.NewEncoder(w).Encode(loginResult{
			Token: "signed.jwt.token",
			User:  models.User{ID: "alice", Username: "alice"},
		})
	})

	user, err := client.Login(context.Background(), "alice", "1234")
	require.NoError(t, err)

	assert.Equal(t, "alice", user.ID)
	assert.Equal(t, "signed.jwt.token", client.Token())
}

func TestLogin_ServerErrorMessageSurfaced(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "Invalid username or PIN. 2 attempts remaining."})
	})

	_, err := client.Login(context.Background(), "alice", "9999")
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, err.Error(), "2 attempts remaining")
}

func TestCreateUser_SendsBearerToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer admin.jwt.token", r.Header.Get("Authorization"))
		require.Equal(t, "/api/users", r.URL.Path)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(models.User{ID: "nurse1", Username: "nurse1"})
	})
	client.SetToken("admin.jwt.token")

	created, err := client.CreateUser(context.Background(), service.CreateUserRequest{
		Username: "nurse1",
		PIN:      "1234",
	})
	require.NoError(t, err)
	assert.Equal(t, "nurse1", created.ID)
}

func TestDeactivate_ForbiddenMapped(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"error": "Access denied"})
	})
	client.SetToken("user.jwt.token")

	err := client.Deactivate(context.Background(), "alice")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestListAudit_QueryParams(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "alice", r.URL.Query().Get("userId"))
		assert.Equal(t, "LOGIN", r.URL.Query().Get("action"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))

		json.NewEncoder(w).Encode([]models.AuditEntry{{ID: "entry-1"}})
	})
	client.SetToken("admin.jwt.token")

	entries, err := client.ListAudit(context.Background(), models.AuditFilter{
		UserID: "alice",
		Action: models.ActionLogin,
		Limit:  10,
	})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
