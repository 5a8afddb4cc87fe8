package service

import (
	"context"
	"testing"

	"github.com/clearhaven/idgate/internal/gateway/store"
	"github.com/clearhaven/idgate/internal/gateway/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

func newTestDirectory(t *testing.T) (*DirectoryService, *sqlite.Store) {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return &DirectoryService{Store: st}, st
}

func TestSyncFromProviderCreatesOnMiss(t *testing.T) {
	t.Parallel()
	dir, _ := newTestDirectory(t)
	ctx := context.Background()

	user, err := dir.SyncFromProvider(ctx, "kc-999", "new.user", "new@x.com", "New", "User")
	require.NoError(t, err)
	require.NotZero(t, user.ID)
	require.True(t, user.Active)
	require.Equal(t, "new.user", user.Username)
	require.Equal(t, "new@x.com", user.Email)
	require.Equal(t, "New", *user.FirstName)
	require.Equal(t, "User", *user.LastName)
	require.Empty(t, user.Roles)
}

func TestSyncFromProviderUpdatesExisting(t *testing.T) {
	t.Parallel()
	dir, st := newTestDirectory(t)
	ctx := context.Background()

	created, err := dir.SyncFromProvider(ctx, "kc-1", "a.b", "a@b.com", "Alice", "Brown")
	require.NoError(t, err)
	require.NoError(t, st.Users().ReplaceRoles(ctx, created.ID, []string{"USER"}))
	found, err := dir.Deactivate(ctx, "kc-1")
	require.NoError(t, err)
	require.True(t, found)

	// Re-sync reactivates, refreshes the asserted fields and keeps the
	// same logical record, roles attached.
	synced, err := dir.SyncFromProvider(ctx, "kc-1", "a.brown", "alice@b.com", "Alice", "Brown")
	require.NoError(t, err)
	require.Equal(t, created.ID, synced.ID)
	require.True(t, synced.Active)
	require.Equal(t, "a.brown", synced.Username)
	require.Equal(t, "alice@b.com", synced.Email)
	require.Equal(t, []string{"USER"}, synced.RoleNames())
}

func TestSyncFromProviderIsIdempotent(t *testing.T) {
	t.Parallel()
	dir, _ := newTestDirectory(t)
	ctx := context.Background()

	first, err := dir.SyncFromProvider(ctx, "kc-1", "a.b", "a@b.com", "A", "B")
	require.NoError(t, err)
	second, err := dir.SyncFromProvider(ctx, "kc-1", "a.b", "a@b.com", "A", "B")
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	require.Equal(t, first.ExternalID, second.ExternalID)
	require.Equal(t, first.Username, second.Username)
	require.Equal(t, first.Email, second.Email)
}

func TestSyncFromProviderSurfacesUniquenessViolations(t *testing.T) {
	t.Parallel()
	dir, _ := newTestDirectory(t)
	ctx := context.Background()

	_, err := dir.SyncFromProvider(ctx, "kc-1", "taken", "taken@x.com", "", "")
	require.NoError(t, err)

	// A different subject asserting an already-taken username is a sync
	// failure, not silently merged.
	_, err = dir.SyncFromProvider(ctx, "kc-2", "taken", "other@x.com", "", "")
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	// The failed sync must not have created a half-written record.
	exists, err := dir.Exists(ctx, "kc-2")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestSyncFromProviderFallsBackToSubjectUsername(t *testing.T) {
	t.Parallel()
	dir, _ := newTestDirectory(t)
	ctx := context.Background()

	// A provider token without preferred_username still yields a valid
	// record; the subject id stands in so the UNIQUE constraint holds.
	user, err := dir.SyncFromProvider(ctx, "kc-7", "", "anon@x.com", "", "")
	require.NoError(t, err)
	require.Equal(t, "kc-7", user.Username)

	// A second anonymous subject does not collide on username.
	other, err := dir.SyncFromProvider(ctx, "kc-8", "", "other@x.com", "", "")
	require.NoError(t, err)
	require.Equal(t, "kc-8", other.Username)
}

func TestDeactivate(t *testing.T) {
	t.Parallel()
	dir, _ := newTestDirectory(t)
	ctx := context.Background()

	// Missing user is a no-op, never an error, but reported as a miss.
	found, err := dir.Deactivate(ctx, "missing")
	require.NoError(t, err)
	require.False(t, found)

	_, err = dir.SyncFromProvider(ctx, "kc-1", "a.b", "a@b.com", "", "")
	require.NoError(t, err)
	found, err = dir.Deactivate(ctx, "kc-1")
	require.NoError(t, err)
	require.True(t, found)

	_, err = dir.FindActiveWithRoles(ctx, "kc-1")
	require.ErrorIs(t, err, store.ErrNotFound)

	user, err := dir.FindByExternalID(ctx, "kc-1")
	require.NoError(t, err)
	require.False(t, user.Active)
}

func TestFindByExternalIDWithRolesIgnoresActiveFlag(t *testing.T) {
	t.Parallel()
	dir, st := newTestDirectory(t)
	ctx := context.Background()

	created, err := dir.SyncFromProvider(ctx, "kc-1", "a.b", "a@b.com", "", "")
	require.NoError(t, err)
	require.NoError(t, st.Users().ReplaceRoles(ctx, created.ID, []string{"USER", "SENIOR"}))
	_, err = dir.Deactivate(ctx, "kc-1")
	require.NoError(t, err)

	user, err := dir.FindByExternalIDWithRoles(ctx, "kc-1")
	require.NoError(t, err)
	require.False(t, user.Active)
	require.Equal(t, []string{"SENIOR", "USER"}, user.RoleNames())

	_, err = dir.FindByExternalIDWithRoles(ctx, "kc-404")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestFindByUsernameWithRolesIgnoresActiveFlag(t *testing.T) {
	t.Parallel()
	dir, st := newTestDirectory(t)
	ctx := context.Background()

	created, err := dir.SyncFromProvider(ctx, "kc-1", "a.b", "a@b.com", "", "")
	require.NoError(t, err)
	require.NoError(t, st.Users().ReplaceRoles(ctx, created.ID, []string{"USER", "SENIOR"}))
	_, err = dir.Deactivate(ctx, "kc-1")
	require.NoError(t, err)

	user, err := dir.FindByUsernameWithRoles(ctx, "a.b")
	require.NoError(t, err)
	require.False(t, user.Active)
	require.Equal(t, []string{"SENIOR", "USER"}, user.RoleNames())
}
