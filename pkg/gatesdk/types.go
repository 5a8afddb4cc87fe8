package gatesdk

// UserResponse is the serialized form of a directory user.
type UserResponse struct {
	UserID      int64    `json:"user_id"`
	ExternalID  string   `json:"external_id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	FirstName   string   `json:"first_name,omitempty"`
	LastName    string   `json:"last_name,omitempty"`
	Department  string   `json:"department,omitempty"`
	JobTitle    string   `json:"job_title,omitempty"`
	PhoneNumber string   `json:"phone_number,omitempty"`
	EmployeeID  string   `json:"employee_id,omitempty"`
	Active      bool     `json:"active"`
	Roles       []string `json:"roles"`
	CreatedAt   string   `json:"created_at,omitempty"`
	UpdatedAt   string   `json:"updated_at,omitempty"`
}

// ExistsResponse reports whether a directory user exists for an external id.
type ExistsResponse struct {
	ExternalID string `json:"external_id"`
	Exists     bool   `json:"exists"`
}

// DeactivateResponse confirms a deactivation.
type DeactivateResponse struct {
	ExternalID string `json:"external_id"`
	Active     bool   `json:"active"`
}

// LoginSuccessResponse mirrors the login success payload: the caller's
// provider identity plus any enhancement claims the gateway produced.
type LoginSuccessResponse struct {
	Status       string         `json:"status"`
	Message      string         `json:"message"`
	Username     string         `json:"username,omitempty"`
	Email        string         `json:"email,omitempty"`
	CustomClaims map[string]any `json:"custom_claims,omitempty"`
}

// MeResponse is the caller's raw provider claims merged with the gateway's
// enhancement claims. Enhancement keys overwrite provider keys on collision.
type MeResponse map[string]any

// EnhancedTokenResponse is the standard claims envelope merged with the
// gateway's enhancement claims.
type EnhancedTokenResponse map[string]any

// HealthChecks reports per-dependency readiness.
type HealthChecks struct {
	Database string `json:"database"`
	Keys     string `json:"keys"`
}

// HealthResponse is returned by the livez and readyz probes.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// ErrorResponse is the gateway's structured error payload.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	ExternalID       string `json:"external_id,omitempty"`
	Username         string `json:"username,omitempty"`
}
