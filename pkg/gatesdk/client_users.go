package gatesdk

import (
	"context"
	"net/http"
	"net/url"
)

// GetUserByExternalID fetches a directory user by its provider external id,
// roles attached, regardless of active state. Requires the directory:read
// scope.
func (c *Client) GetUserByExternalID(ctx context.Context, externalID string) (*UserResponse, error) {
	resp, err := c.doAuthRequest(ctx, http.MethodGet, "/v1/users/external/"+url.PathEscape(externalID), nil)
	if err != nil {
		return nil, err
	}

	var user UserResponse
	if err := decodeJSON(resp, &user, http.StatusOK); err != nil {
		return nil, err
	}

	return &user, nil
}

// GetUserByUsername fetches a directory user by username, roles attached.
// Requires the directory:read scope.
func (c *Client) GetUserByUsername(ctx context.Context, username string) (*UserResponse, error) {
	resp, err := c.doAuthRequest(ctx, http.MethodGet, "/v1/users/username/"+url.PathEscape(username), nil)
	if err != nil {
		return nil, err
	}

	var user UserResponse
	if err := decodeJSON(resp, &user, http.StatusOK); err != nil {
		return nil, err
	}

	return &user, nil
}

// UserExists reports whether any directory user, active or not, carries the
// given external id. Requires the directory:read scope.
func (c *Client) UserExists(ctx context.Context, externalID string) (*ExistsResponse, error) {
	resp, err := c.doAuthRequest(ctx, http.MethodGet, "/v1/users/external/"+url.PathEscape(externalID)+"/exists", nil)
	if err != nil {
		return nil, err
	}

	var exists ExistsResponse
	if err := decodeJSON(resp, &exists, http.StatusOK); err != nil {
		return nil, err
	}

	return &exists, nil
}

// DeactivateUser marks a directory user inactive. An unknown external id
// yields a not-found APIError. Requires the directory:admin scope.
func (c *Client) DeactivateUser(ctx context.Context, externalID string) (*DeactivateResponse, error) {
	resp, err := c.doAuthRequest(ctx, http.MethodPost, "/v1/users/external/"+url.PathEscape(externalID)+"/deactivate", nil)
	if err != nil {
		return nil, err
	}

	var out DeactivateResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}

	return &out, nil
}
