package gatesdk

import (
	"context"
	"net/http"
)

// Me returns the caller's raw provider claims merged with the gateway's
// enhancement claims. Requires the profile:read scope.
func (c *Client) Me(ctx context.Context) (MeResponse, error) {
	resp, err := c.doAuthRequest(ctx, http.MethodGet, "/v1/auth/me", nil)
	if err != nil {
		return nil, err
	}

	var me MeResponse
	if err := decodeJSON(resp, &me, http.StatusOK); err != nil {
		return nil, err
	}

	return me, nil
}

// EnhancedToken returns the standard claims envelope for the caller's token
// merged with the gateway's enhancement claims. Requires the profile:read
// scope.
func (c *Client) EnhancedToken(ctx context.Context) (EnhancedTokenResponse, error) {
	resp, err := c.doAuthRequest(ctx, http.MethodGet, "/v1/auth/token", nil)
	if err != nil {
		return nil, err
	}

	var token EnhancedTokenResponse
	if err := decodeJSON(resp, &token, http.StatusOK); err != nil {
		return nil, err
	}

	return token, nil
}

// LoginSuccess returns the login success payload for the caller's token.
// Requires the profile:read scope.
func (c *Client) LoginSuccess(ctx context.Context) (*LoginSuccessResponse, error) {
	resp, err := c.doAuthRequest(ctx, http.MethodGet, "/v1/auth/login/success", nil)
	if err != nil {
		return nil, err
	}

	var out LoginSuccessResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}

	return &out, nil
}
