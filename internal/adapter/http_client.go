// Package adapter provides the HTTP client used by the medboxctl command to
// talk to a running medbox server. It wraps resty and translates the server's
// JSON error contract into Go errors.
package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/medboxio/medbox/internal/service"
	"github.com/medboxio/medbox/models"
)

var (
	// ErrUnauthorized is returned when the server rejects the credentials or
	// the bearer token.
	ErrUnauthorized = errors.New("client unauthorized")

	// ErrForbidden is returned when the authenticated account lacks the role
	// required by the operation.
	ErrForbidden = errors.New("access denied")
)

type HTTPClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Client is a thin API client over the medbox REST endpoints. It keeps the
// bearer token of the most recent login and attaches it to every request.
type Client struct {
	client *resty.Client

	mu    sync.RWMutex
	token string
}

func NewClient(cfg HTTPClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:3001"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout)

	return &Client{client: cli}
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = strings.TrimSpace(token)
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

type loginPayload struct {
	Username string `json:"username"`
	PIN      string `json:"pin"`
}

type loginResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Login authenticates against the server and stores the returned bearer
// token for subsequent calls.
func (c *Client) Login(ctx context.Context, username, pin string) (models.User, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(loginPayload{Username: username, PIN: pin}).
		Post("/api/auth/login")
	if err != nil {
		return models.User{}, fmt.Errorf("login request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.User{}, err
	}

	var result loginResult
	if err = json.Unmarshal(resp.Body(), &result); err != nil {
		return models.User{}, fmt.Errorf("decode login response: %w", err)
	}

	c.SetToken(result.Token)
	return result.User, nil
}

func (c *Client) CreateUser(ctx context.Context, req service.CreateUserRequest) (models.User, error) {
	resp, err := c.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post("/api/users")
	if err != nil {
		return models.User{}, fmt.Errorf("create user request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.User{}, err
	}

	var created models.User
	if err = json.Unmarshal(resp.Body(), &created); err != nil {
		return models.User{}, fmt.Errorf("decode create user response: %w", err)
	}
	return created, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	resp, err := c.authedRequest(ctx).Get("/api/users")
	if err != nil {
		return nil, fmt.Errorf("list users request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	var users []models.User
	if err = json.Unmarshal(resp.Body(), &users); err != nil {
		return nil, fmt.Errorf("decode list users response: %w", err)
	}
	return users, nil
}

func (c *Client) UpdateRole(ctx context.Context, id string, role models.Role) (models.User, error) {
	resp, err := c.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]models.Role{"role": role}).
		Put("/api/users/" + id + "/role")
	if err != nil {
		return models.User{}, fmt.Errorf("update role request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.User{}, err
	}

	var updated models.User
	if err = json.Unmarshal(resp.Body(), &updated); err != nil {
		return models.User{}, fmt.Errorf("decode update role response: %w", err)
	}
	return updated, nil
}

func (c *Client) ResetPIN(ctx context.Context, id, pin string) error {
	resp, err := c.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"pin": pin}).
		Put("/api/users/" + id + "/reset-pin")
	if err != nil {
		return fmt.Errorf("reset pin request: %w", err)
	}

	return mapHTTPError(resp)
}

func (c *Client) Deactivate(ctx context.Context, id string) error {
	resp, err := c.authedRequest(ctx).Delete("/api/users/" + id)
	if err != nil {
		return fmt.Errorf("deactivate request: %w", err)
	}

	return mapHTTPError(resp)
}

func (c *Client) ListBoxes(ctx context.Context) ([]models.Box, error) {
	resp, err := c.authedRequest(ctx).Get("/api/boxes")
	if err != nil {
		return nil, fmt.Errorf("list boxes request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	var boxes []models.Box
	if err = json.Unmarshal(resp.Body(), &boxes); err != nil {
		return nil, fmt.Errorf("decode list boxes response: %w", err)
	}
	return boxes, nil
}

func (c *Client) AssignBox(ctx context.Context, id string, userIDs []string) (models.Box, error) {
	resp, err := c.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string][]string{"userIds": userIDs}).
		Post("/api/boxes/" + id + "/assign")
	if err != nil {
		return models.Box{}, fmt.Errorf("assign box request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.Box{}, err
	}

	var box models.Box
	if err = json.Unmarshal(resp.Body(), &box); err != nil {
		return models.Box{}, fmt.Errorf("decode assign box response: %w", err)
	}
	return box, nil
}

func (c *Client) ListAudit(ctx context.Context, filter models.AuditFilter) ([]models.AuditEntry, error) {
	req := c.authedRequest(ctx)
	if filter.UserID != "" {
		req.SetQueryParam("userId", filter.UserID)
	}
	if filter.Action != "" {
		req.SetQueryParam("action", string(filter.Action))
	}
	if filter.TargetID != "" {
		req.SetQueryParam("targetId", filter.TargetID)
	}
	if filter.Limit > 0 {
		req.SetQueryParam("limit", fmt.Sprintf("%d", filter.Limit))
	}

	resp, err := req.Get("/api/audit-logs")
	if err != nil {
		return nil, fmt.Errorf("list audit request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	var entries []models.AuditEntry
	if err = json.Unmarshal(resp.Body(), &entries); err != nil {
		return nil, fmt.Errorf("decode list audit response: %w", err)
	}
	return entries, nil
}

func (c *Client) authedRequest(ctx context.Context) *resty.Request {
	req := c.client.R().SetContext(ctx)
	if token := c.Token(); token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	return req
}

// mapHTTPError converts a non-2xx response into an error, preferring the
// message from the server's {"error": ...} body when present.
func mapHTTPError(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}

	message := http.StatusText(resp.StatusCode())
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Error != "" {
		message = body.Error
	}

	switch resp.StatusCode() {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, message)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrForbidden, message)
	}

	return fmt.Errorf("http %d: %s", resp.StatusCode(), message)
}
