package service

import (
	"context"
	"errors"

	"github.com/clearhaven/idgate/internal/gateway/claims"
	"github.com/clearhaven/idgate/internal/gateway/domain"
	"github.com/clearhaven/idgate/internal/gateway/store"
	"github.com/clearhaven/idgate/pkg/slogx"
)

// Directory is the narrow slice of the directory the enhancement pipeline
// needs: the active-with-roles lookup and the sync-on-miss upsert.
type Directory interface {
	FindActiveWithRoles(ctx context.Context, externalID string) (domain.User, error)
	SyncFromProvider(ctx context.Context, externalID, username, email, firstName, lastName string) (domain.User, error)
}

// EnhanceConfig is the immutable enhancement policy, fixed at construction.
type EnhanceConfig struct {
	// Enabled is the master kill switch. When false, Enhance returns an
	// empty mapping without touching the directory.
	Enabled bool

	// IncludeUserRoles merges only the role-name set, without running the
	// full claim derivation. Ignored when IncludeUserAttributes is set,
	// since the full claim set already carries roles.
	IncludeUserRoles bool

	// IncludeUserAttributes merges the full derived claim set.
	IncludeUserAttributes bool
}

// DefaultEnhanceConfig enables enhancement with the full claim set.
func DefaultEnhanceConfig() EnhanceConfig {
	return EnhanceConfig{
		Enabled:               true,
		IncludeUserRoles:      true,
		IncludeUserAttributes: true,
	}
}

// EnhanceService resolves an authenticated principal into a local directory
// user and derives the additional claims to merge into the caller's response.
type EnhanceService struct {
	Directory Directory
	Mapper    *claims.Mapper
	Config    EnhanceConfig
}

// Enhance returns the enhancement claims for the principal. It never fails:
// lookup errors, sync failures and malformed provider data all degrade to an
// empty mapping so the surrounding authentication flow is untouched. The only
// side effect is sync-on-miss, which may create or update a user record.
func (s *EnhanceService) Enhance(ctx context.Context, p domain.Principal) map[string]any {
	enhanced := make(map[string]any)
	l := slogx.FromContext(ctx)

	if !s.Config.Enabled {
		l.Debug("token enhancement is disabled")
		return enhanced
	}

	l.Debug("enhancing token", "subject", p.Subject, "username", p.PreferredUsername)

	user, err := s.Directory.FindActiveWithRoles(ctx, p.Subject)
	switch {
	case errors.Is(err, store.ErrNotFound):
		l.Warn("user not found in directory, syncing from provider", "subject", p.Subject)
		user, err = s.Directory.SyncFromProvider(ctx,
			p.Subject, p.PreferredUsername, p.Email, p.GivenName, p.FamilyName)
		if err != nil {
			l.Error("failed to sync user from provider", "subject", p.Subject, "err", err)
			return enhanced
		}
	case err != nil:
		l.Error("directory lookup failed", "subject", p.Subject, "err", err)
		return enhanced
	}

	if s.Config.IncludeUserAttributes {
		for k, v := range s.Mapper.Map(user) {
			enhanced[k] = v
		}
	} else if s.Config.IncludeUserRoles {
		// Roles-only mode deliberately bypasses the full derivation.
		names := user.RoleNames()
		if names == nil {
			names = []string{}
		}
		enhanced["roles"] = names
	}

	l.Debug("token enhanced", "subject", p.Subject, "claims", len(enhanced))
	return enhanced
}
