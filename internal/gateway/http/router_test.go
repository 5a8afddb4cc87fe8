package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/clearhaven/idgate/internal/gateway/claims"
	"github.com/clearhaven/idgate/internal/gateway/domain"
	"github.com/clearhaven/idgate/internal/gateway/service"
	"github.com/clearhaven/idgate/internal/gateway/store"
	"github.com/clearhaven/idgate/internal/gateway/store/drivers/sqlite"
	"github.com/clearhaven/idgate/pkg/gatesdk"
	"github.com/clearhaven/idgate/pkg/jwtx"
)

// staticVerifier resolves tokens from a fixed table, standing in for a real
// provider-backed verifier.
type staticVerifier struct {
	tokens map[string]jwtx.Claims
}

func (v staticVerifier) Verify(token string) (jwtx.Claims, error) {
	c, ok := v.tokens[token]
	if !ok {
		return jwtx.Claims{}, jwtx.ErrInvalidSig
	}
	return c, nil
}

func memberClaims(sub, username, email, scope string) jwtx.Claims {
	return jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:  "https://idp.example.com/realms/test",
			Subject: sub,
		},
		PreferredUsername: username,
		Email:             email,
		EmailVerified:     true,
		GivenName:         "Alice",
		FamilyName:        "Brown",
		Scope:             scope,
		Raw: map[string]any{
			"iss":                "https://idp.example.com/realms/test",
			"sub":                sub,
			"preferred_username": username,
			"email":              email,
			"realm_access":       map[string]any{"roles": []any{"offline_access"}},
		},
	}
}

func newTestRouter(t *testing.T) (*Router, store.Store) {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	verifier := staticVerifier{tokens: map[string]jwtx.Claims{
		"member-token":  memberClaims("kc-1", "a.b", "a@b.com", "profile:read directory:read"),
		"admin-token":   memberClaims("kc-admin", "admin", "admin@b.com", "profile:read directory:read directory:admin"),
		"noscope-token": memberClaims("kc-2", "c.d", "c@d.com", ""),
	}}

	keys := jwtx.NewKeySet()

	logger := slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelError}))
	r := NewRouter(keys, verifier, "test", st, logger)

	directory := &service.DirectoryService{Store: st}
	r.DirectoryService = directory
	r.EnhanceService = &service.EnhanceService{
		Directory: directory,
		Mapper:    claims.NewMapper(),
		Config:    service.DefaultEnhanceConfig(),
	}
	r.ApplyRoutes()

	return r, st
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func doRequest(t *testing.T, r *Router, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func seedDirectoryUser(t *testing.T, st store.Store, externalID, username string, roles ...string) domain.User {
	t.Helper()
	ctx := context.Background()

	first, last := "Seed", "User"
	user, err := st.Users().Create(ctx, domain.User{
		ExternalID: externalID,
		Username:   username,
		Email:      username + "@example.com",
		FirstName:  &first,
		LastName:   &last,
		Active:     true,
	})
	require.NoError(t, err)
	if len(roles) > 0 {
		require.NoError(t, st.Users().ReplaceRoles(ctx, user.ID, roles))
	}
	return user
}

func TestRouterRejectsMissingToken(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doRequest(t, r, http.MethodGet, "/v1/auth/me", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")
}

func TestRouterRejectsUnknownToken(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doRequest(t, r, http.MethodGet, "/v1/auth/me", "forged")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouterEnforcesScopes(t *testing.T) {
	r, _ := newTestRouter(t)

	// No scopes at all
	rec := doRequest(t, r, http.MethodGet, "/v1/users/external/kc-1", "noscope-token")
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Header().Get("WWW-Authenticate"), "insufficient_scope")

	// directory:read is not enough for deactivation
	rec = doRequest(t, r, http.MethodPost, "/v1/users/external/kc-1/deactivate", "member-token")
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetUserByExternalID(t *testing.T) {
	r, st := newTestRouter(t)
	seedDirectoryUser(t, st, "kc-77", "lookup.user", "USER", "ADMIN")

	rec := doRequest(t, r, http.MethodGet, "/v1/users/external/kc-77", "member-token")
	require.Equal(t, http.StatusOK, rec.Code)

	user := decodeBody[gatesdk.UserResponse](t, rec)
	require.Equal(t, "kc-77", user.ExternalID)
	require.Equal(t, "lookup.user", user.Username)
	require.Equal(t, []string{"ADMIN", "USER"}, user.Roles)
	require.True(t, user.Active)
	require.NotEmpty(t, user.CreatedAt)
}

func TestGetUserByExternalIDNotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doRequest(t, r, http.MethodGet, "/v1/users/external/kc-404", "member-token")
	require.Equal(t, http.StatusNotFound, rec.Code)

	errResp := decodeBody[gatesdk.ErrorResponse](t, rec)
	require.Equal(t, gatesdk.ErrorCodeUserNotFound, errResp.Error)
	require.Equal(t, "kc-404", errResp.ExternalID)
}

func TestGetUserByUsername(t *testing.T) {
	r, st := newTestRouter(t)
	seedDirectoryUser(t, st, "kc-88", "by.name", "USER")

	// Deactivated users are still visible through the username lookup.
	require.NoError(t, st.Users().SetActive(context.Background(), "kc-88", false))

	rec := doRequest(t, r, http.MethodGet, "/v1/users/username/by.name", "member-token")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[gatesdk.UserResponse](t, rec)
	require.Equal(t, "by.name", resp.Username)
	require.False(t, resp.Active)
	require.Equal(t, []string{"USER"}, resp.Roles)

	rec = doRequest(t, r, http.MethodGet, "/v1/users/username/no.such", "member-token")
	require.Equal(t, http.StatusNotFound, rec.Code)
	errResp := decodeBody[gatesdk.ErrorResponse](t, rec)
	require.Equal(t, "no.such", errResp.Username)
}

func TestUserExists(t *testing.T) {
	r, st := newTestRouter(t)
	seedDirectoryUser(t, st, "kc-99", "exists.user")

	rec := doRequest(t, r, http.MethodGet, "/v1/users/external/kc-99/exists", "member-token")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[gatesdk.ExistsResponse](t, rec)
	require.True(t, resp.Exists)
	require.Equal(t, "kc-99", resp.ExternalID)

	rec = doRequest(t, r, http.MethodGet, "/v1/users/external/kc-0/exists", "member-token")
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decodeBody[gatesdk.ExistsResponse](t, rec)
	require.False(t, resp.Exists)
}

func TestDeactivateUser(t *testing.T) {
	r, st := newTestRouter(t)
	seedDirectoryUser(t, st, "kc-55", "victim")

	rec := doRequest(t, r, http.MethodPost, "/v1/users/external/kc-55/deactivate", "admin-token")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[gatesdk.DeactivateResponse](t, rec)
	require.Equal(t, "kc-55", resp.ExternalID)
	require.False(t, resp.Active)

	// Still retrievable by external id, flagged inactive
	rec = doRequest(t, r, http.MethodGet, "/v1/users/external/kc-55", "member-token")
	require.Equal(t, http.StatusOK, rec.Code)
	user := decodeBody[gatesdk.UserResponse](t, rec)
	require.False(t, user.Active)
}

func TestDeactivateMissingUserNotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doRequest(t, r, http.MethodPost, "/v1/users/external/kc-void/deactivate", "admin-token")
	require.Equal(t, http.StatusNotFound, rec.Code)

	errResp := decodeBody[gatesdk.ErrorResponse](t, rec)
	require.Equal(t, gatesdk.ErrorCodeUserNotFound, errResp.Error)
	require.Equal(t, "kc-void", errResp.ExternalID)
}

func TestMeMergesRawAndEnhancement(t *testing.T) {
	r, st := newTestRouter(t)

	rec := doRequest(t, r, http.MethodGet, "/v1/auth/me", "member-token")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[map[string]any](t, rec)

	// Raw provider claims survive
	require.Equal(t, "kc-1", body["sub"])
	require.Contains(t, body, "realm_access")

	// Enhancement claims are merged in; the token's caller was synced on miss
	require.Equal(t, "a.b", body["username"])
	require.Equal(t, "Alice Brown", body["full_name"])
	require.Equal(t, true, body["is_active"])

	// The sync created a directory record
	created, err := st.Users().GetByExternalID(context.Background(), "kc-1")
	require.NoError(t, err)
	require.True(t, created.Active)
}

func TestTokenEnvelope(t *testing.T) {
	r, st := newTestRouter(t)
	seedDirectoryUser(t, st, "kc-1", "a.b", "ADMIN")

	rec := doRequest(t, r, http.MethodGet, "/v1/auth/token", "member-token")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[map[string]any](t, rec)
	require.Equal(t, "kc-1", body["sub"])
	require.Equal(t, "a.b", body["preferred_username"])
	// The directory's email wins over the provider claim on merge
	require.Equal(t, "a.b@example.com", body["email"])
	require.Equal(t, true, body["email_verified"])
	require.Equal(t, "Alice", body["given_name"])
	require.Equal(t, "Brown", body["family_name"])

	// Enhancement rides along
	require.Equal(t, []any{"ADMIN"}, body["roles"])
	require.Equal(t, true, body["is_admin"])
}

func TestLoginSuccess(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doRequest(t, r, http.MethodGet, "/v1/auth/login/success", "member-token")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[gatesdk.LoginSuccessResponse](t, rec)
	require.Equal(t, "success", resp.Status)
	require.Equal(t, "a.b", resp.Username)
	require.Equal(t, "a@b.com", resp.Email)
	require.NotEmpty(t, resp.CustomClaims)
	require.Equal(t, "a.b", resp.CustomClaims["username"])
}

func TestLoginFailure(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doRequest(t, r, http.MethodGet, "/v1/auth/login/failure", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	errResp := decodeBody[gatesdk.ErrorResponse](t, rec)
	require.Equal(t, gatesdk.ErrorCodeUnauthenticated, errResp.Error)
}

func TestLivez(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doRequest(t, r, http.MethodGet, "/livez", "")
	require.Equal(t, http.StatusOK, rec.Code)

	health := decodeBody[gatesdk.HealthResponse](t, rec)
	require.Equal(t, "ok", health.Status)
	require.Equal(t, "test", health.Version)
}

func TestReadyzReportsMissingKeys(t *testing.T) {
	r, _ := newTestRouter(t)

	// The test key set is empty, so readiness must degrade.
	rec := doRequest(t, r, http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	health := decodeBody[gatesdk.HealthResponse](t, rec)
	require.Equal(t, "degraded", health.Status)
	require.Equal(t, "ok", health.Checks.Database)
	require.Contains(t, health.Checks.Keys, "error")
}
