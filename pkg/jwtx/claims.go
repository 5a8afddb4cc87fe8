package jwtx

import (
	"encoding/base64"
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the provider-issued token claims the gateway cares about: the
// registered set plus the OIDC profile claims used to build the inbound
// principal. Unknown claims are preserved separately (see Raw).
type Claims struct {
	jwt.RegisteredClaims

	// OIDC profile claims asserted by the identity provider.
	PreferredUsername string `json:"preferred_username,omitempty"`
	Email             string `json:"email,omitempty"`
	EmailVerified     bool   `json:"email_verified,omitempty"`
	GivenName         string `json:"given_name,omitempty"`
	FamilyName        string `json:"family_name,omitempty"`

	// Permission scopes, e.g. "profile:read directory:admin". Providers
	// disagree on the claim shape, so both "scope" (space-delimited) and
	// "scopes" (array) are accepted; see normalizeScopes.
	Scope  string   `json:"scope,omitempty"`
	Scopes []string `json:"scopes,omitempty"`

	// Raw is the full claim set of the original token, decoded without
	// interpretation. Populated by the verifiers after signature checks.
	Raw map[string]any `json:"-"`
}

// ScopeList returns the effective scope set regardless of claim shape.
func (c *Claims) ScopeList() []string {
	if len(c.Scopes) > 0 {
		return c.Scopes
	}
	s := strings.TrimSpace(c.Scope)
	if s == "" {
		return nil
	}
	return strings.Fields(s)
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateAudience checks if at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil // nothing to enforce
	}

	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}

	return ErrAudience
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't before nbf.
func (c *Claims) ValidateExpiry() error {
	now := time.Now().UTC()

	// Check expired (exp)
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}

	// Check if a valid token isn't used before it is valid (nbf)
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}

	return nil
}

// ValidateExpiryWithLeeway adds a small grace period for clock skew.
func (c *Claims) ValidateExpiryWithLeeway(leeway time.Duration) error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}

	return nil
}

// decodeRawClaims decodes the payload segment of a compact JWT into a map.
// Only called after the signature has been verified.
func decodeRawClaims(tokenStr string) map[string]any {
	parts := strings.Split(tokenStr, ".")
	if len(parts) != 3 {
		return nil
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil
	}
	return m
}
