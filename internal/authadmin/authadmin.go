// Package authadmin is a thin, parameter-validated pass-through over the
// Management API for the handful of GoTrue admin operations the original's
// sdk_client.py wrapped (spec.md SUPPLEMENTED FEATURES): list/get/create/
// delete user. It contributes no risk or validation design of its own
// beyond checking required parameters; every call still flows through
// apimanager.Manager.Execute and its safety gate, which substitutes the
// "ref" and "id" path placeholders.
package authadmin

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrymomot/pgsentry/internal/apimanager"
	"github.com/dmitrymomot/pgsentry/internal/risk"
)

var ErrMissingUserID = errors.New("authadmin: user id is required")
var ErrMissingEmail = errors.New("authadmin: email is required")

const usersPath = "/v1/projects/{ref}/auth/users"
const userPath = "/v1/projects/{ref}/auth/users/{id}"

// Client wraps an apimanager.Manager scoped to the configured project's
// GoTrue admin endpoints.
type Client struct {
	api *apimanager.Manager
}

func New(api *apimanager.Manager) *Client {
	return &Client{api: api}
}

// ListUsers returns the raw Management API response for the admin user list.
func (c *Client) ListUsers(ctx context.Context, mode risk.Mode) (apimanager.Response, error) {
	return c.api.Execute(ctx, mode, http.MethodGet, usersPath, nil, nil, nil, "")
}

// GetUser fetches a single user by id.
func (c *Client) GetUser(ctx context.Context, mode risk.Mode, userID string) (apimanager.Response, error) {
	if userID == "" {
		return apimanager.Response{}, ErrMissingUserID
	}
	return c.api.Execute(ctx, mode, http.MethodGet, userPath, map[string]string{"id": userID}, nil, nil, "")
}

// CreateUser creates a new auth user with the given email.
func (c *Client) CreateUser(ctx context.Context, mode risk.Mode, email string, attrs map[string]any) (apimanager.Response, error) {
	if email == "" {
		return apimanager.Response{}, ErrMissingEmail
	}
	body := map[string]any{"email": email}
	for k, v := range attrs {
		body[k] = v
	}
	return c.api.Execute(ctx, mode, http.MethodPost, usersPath, nil, nil, body, "")
}

// DeleteUser deletes a user by id. token is a resubmitted confirmation
// token (deletion classifies as HIGH risk per apirisk.DefaultRules).
func (c *Client) DeleteUser(ctx context.Context, mode risk.Mode, userID, token string) (apimanager.Response, error) {
	if userID == "" {
		return apimanager.Response{}, ErrMissingUserID
	}
	return c.api.Execute(ctx, mode, http.MethodDelete, userPath, map[string]string{"id": userID}, nil, nil, token)
}
