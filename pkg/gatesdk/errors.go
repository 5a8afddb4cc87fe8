package gatesdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/clearhaven/idgate/pkg/httpx"
)

const (
	// Error codes used across the gateway's JSON error payloads.
	ErrorCodeInvalidRequest    = "invalid_request"
	ErrorCodeInvalidToken      = "invalid_token"
	ErrorCodeInsufficientScope = "insufficient_scope"
	ErrorCodeUserNotFound      = "user_not_found"
	ErrorCodeUnauthenticated   = "unauthenticated"
	ErrorCodeServerError       = "server_error"
)

// APIError represents a structured gateway error. It implements the error
// interface and is used both by the server (to write HTTP responses) and by
// the SDK client (to surface errors to callers).
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is the machine-readable error code (e.g. "user_not_found")
	Code string `json:"error"`

	// Description is a human-readable description of the error
	Description string `json:"error_description,omitempty"`

	// ExternalID identifies the subject of a failed directory lookup, if any.
	ExternalID string `json:"external_id,omitempty"`

	// Username identifies the subject of a failed username lookup, if any.
	Username string `json:"username,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes this APIError to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(e)
}

var (
	// ErrInvalidToken is returned when the access token is missing, invalid or expired.
	ErrInvalidToken = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidToken,
		Description: "the access token is missing, invalid or expired",
	}

	// ErrUnauthenticated is the login failure payload.
	ErrUnauthenticated = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeUnauthenticated,
		Description: "authentication failed",
	}

	// ErrServerError is returned when the gateway hit an unexpected condition.
	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
)

// NewUserNotFoundError builds the structured not-found payload for a failed
// external id lookup.
func NewUserNotFoundError(externalID string) *APIError {
	return &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeUserNotFound,
		Description: "user not found",
		ExternalID:  externalID,
	}
}

// NewUsernameNotFoundError builds the structured not-found payload for a
// failed username lookup.
func NewUsernameNotFoundError(username string) *APIError {
	return &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeUserNotFound,
		Description: "user not found",
		Username:    username,
	}
}

// parseErrorResponse attempts to parse an HTTP error response into a typed
// *APIError. Returns nil if the response indicates success (2xx status code).
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
			ExternalID:  errResp.ExternalID,
			Username:    errResp.Username,
		}
	}

	// Fallback: create generic error from status code
	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
