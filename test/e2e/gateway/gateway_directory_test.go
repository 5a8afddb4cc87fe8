package gateway_test

import (
	"net/http"
	"testing"

	"github.com/clearhaven/idgate/pkg/gatesdk"
	"github.com/stretchr/testify/require"
)

// directoryToken mints a caller with full directory access.
func directoryToken(t *testing.T, subject, username string) string {
	t.Helper()
	return mintProviderToken(t, tokenOpts{
		subject:   subject,
		username:  username,
		email:     username + "@example.com",
		givenName: "Dir",
		family:    "User",
		scope:     "profile:read directory:read directory:admin",
	})
}

// TestDirectoryLookupAfterSync verifies a synced caller becomes visible
// through the directory lookup endpoints.
func TestDirectoryLookupAfterSync(t *testing.T) {
	baseURL, cleanup := setupGatewayContainer(t)
	defer cleanup()

	token := directoryToken(t, "e2e-dir-1", "dir.one")
	client := gatesdk.NewClient(baseURL, token)

	// Trigger sync-on-miss for the caller
	_, err := client.Me(t.Context())
	require.NoError(t, err)

	user, err := client.GetUserByExternalID(t.Context(), "e2e-dir-1")
	require.NoError(t, err)
	require.Equal(t, "e2e-dir-1", user.ExternalID)
	require.Equal(t, "dir.one", user.Username)
	require.Equal(t, "Dir", user.FirstName)
	require.Equal(t, "User", user.LastName)
	require.True(t, user.Active)
	require.NotEmpty(t, user.CreatedAt)

	byName, err := client.GetUserByUsername(t.Context(), "dir.one")
	require.NoError(t, err)
	require.Equal(t, user.UserID, byName.UserID)

	exists, err := client.UserExists(t.Context(), "e2e-dir-1")
	require.NoError(t, err)
	require.True(t, exists.Exists)
}

// TestDirectoryLookupNotFound verifies the structured not-found payloads.
func TestDirectoryLookupNotFound(t *testing.T) {
	baseURL, cleanup := setupGatewayContainer(t)
	defer cleanup()

	token := directoryToken(t, "e2e-dir-2", "dir.two")
	client := gatesdk.NewClient(baseURL, token)

	_, err := client.GetUserByExternalID(t.Context(), "unknown-subject")
	require.Error(t, err)
	apiErr, ok := err.(*gatesdk.APIError)
	require.True(t, ok)
	require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	require.Equal(t, gatesdk.ErrorCodeUserNotFound, apiErr.Code)
	require.Equal(t, "unknown-subject", apiErr.ExternalID)

	exists, err := client.UserExists(t.Context(), "unknown-subject")
	require.NoError(t, err)
	require.False(t, exists.Exists)
}

// TestDeactivateLifecycle walks a user through sync, deactivation and the
// resulting disappearance from active lookups.
func TestDeactivateLifecycle(t *testing.T) {
	baseURL, cleanup := setupGatewayContainer(t)
	defer cleanup()

	token := directoryToken(t, "e2e-dir-3", "dir.three")
	client := gatesdk.NewClient(baseURL, token)

	_, err := client.Me(t.Context())
	require.NoError(t, err)

	out, err := client.DeactivateUser(t.Context(), "e2e-dir-3")
	require.NoError(t, err)
	require.False(t, out.Active)

	// The record stays retrievable through every lookup, flagged inactive
	inactive, err := client.GetUserByExternalID(t.Context(), "e2e-dir-3")
	require.NoError(t, err)
	require.False(t, inactive.Active)

	exists, err := client.UserExists(t.Context(), "e2e-dir-3")
	require.NoError(t, err)
	require.True(t, exists.Exists)

	byName, err := client.GetUserByUsername(t.Context(), "dir.three")
	require.NoError(t, err)
	require.False(t, byName.Active)

	// Deactivating an unknown subject reports a structured not-found
	_, err = client.DeactivateUser(t.Context(), "e2e-dir-ghost")
	assertAPIError(t, err, http.StatusNotFound, "unknown subject cannot be deactivated")

	// A later visit from the same subject reactivates the record
	_, err = client.Me(t.Context())
	require.NoError(t, err)

	user, err := client.GetUserByExternalID(t.Context(), "e2e-dir-3")
	require.NoError(t, err)
	require.True(t, user.Active)
}

// TestDeactivateRequiresAdminScope verifies directory:read alone cannot
// deactivate.
func TestDeactivateRequiresAdminScope(t *testing.T) {
	baseURL, cleanup := setupGatewayContainer(t)
	defer cleanup()

	token := mintProviderToken(t, tokenOpts{
		subject:  "e2e-dir-4",
		username: "dir.four",
		email:    "dir.four@example.com",
		scope:    "profile:read directory:read",
	})
	client := gatesdk.NewClient(baseURL, token)

	_, err := client.DeactivateUser(t.Context(), "e2e-dir-4")
	assertAPIError(t, err, http.StatusForbidden, "deactivation needs directory:admin")
}
