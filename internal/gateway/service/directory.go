package service

import (
	"context"
	"errors"

	"github.com/clearhaven/idgate/internal/gateway/domain"
	"github.com/clearhaven/idgate/internal/gateway/store"
	"github.com/clearhaven/idgate/pkg/slogx"
)

// DirectoryService is the read/write façade over the directory store.
type DirectoryService struct {
	Store store.Store
}

// FindByExternalID fetches a user by the provider's subject id, without roles.
func (s *DirectoryService) FindByExternalID(ctx context.Context, externalID string) (domain.User, error) {
	return s.Store.Users().GetByExternalID(ctx, externalID)
}

// FindActiveWithRoles returns an active user with roles eagerly attached.
func (s *DirectoryService) FindActiveWithRoles(ctx context.Context, externalID string) (domain.User, error) {
	return s.Store.Users().GetActiveWithRoles(ctx, externalID)
}

// FindByExternalIDWithRoles returns a user by external id with roles
// attached, regardless of active state. Deactivated users stay retrievable
// here; only the enhancement path insists on an active record.
func (s *DirectoryService) FindByExternalIDWithRoles(ctx context.Context, externalID string) (domain.User, error) {
	user, err := s.FindByExternalID(ctx, externalID)
	if err != nil {
		return domain.User{}, err
	}
	user.Roles, err = s.Store.Users().ListRoles(ctx, user.ID)
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// FindByUsernameWithRoles returns a user by username with roles attached,
// regardless of active state.
func (s *DirectoryService) FindByUsernameWithRoles(ctx context.Context, username string) (domain.User, error) {
	return s.Store.Users().GetByUsernameWithRoles(ctx, username)
}

// Exists reports whether a user with the given external id is recorded.
func (s *DirectoryService) Exists(ctx context.Context, externalID string) (bool, error) {
	return s.Store.Users().Exists(ctx, externalID)
}

// SyncFromProvider upserts a user from provider-asserted attributes, keyed
// solely on the external id. An existing record has username, email and names
// overwritten and active reaffirmed; a missing record is created with
// active=true. A principal without a preferred username takes the subject id
// as username, since username carries a UNIQUE constraint. Other unique
// constraints (username/email/employee id) are NOT pre-checked here: a
// conflicting value from the provider surfaces as a store uniqueness
// violation, which the caller must treat as a sync failure.
func (s *DirectoryService) SyncFromProvider(
	ctx context.Context,
	externalID, username, email, firstName, lastName string,
) (domain.User, error) {
	if username == "" {
		username = externalID
	}

	l := slogx.FromContext(ctx)
	l.Debug("synchronizing user from provider", "external_id", externalID, "username", username)

	var synced domain.User
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		existing, err := tx.Users().GetByExternalID(ctx, externalID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}

		if errors.Is(err, store.ErrNotFound) {
			synced, err = tx.Users().Create(ctx, domain.User{
				ExternalID: externalID,
				Username:   username,
				Email:      email,
				FirstName:  optionalName(firstName),
				LastName:   optionalName(lastName),
				Active:     true,
			})
			return err
		}

		existing.Username = username
		existing.Email = email
		existing.FirstName = optionalName(firstName)
		existing.LastName = optionalName(lastName)
		existing.Active = true

		synced, err = tx.Users().Update(ctx, existing)
		if err != nil {
			return err
		}

		// Attach the existing role set so a re-sync returns the same shape
		// the eager read paths produce.
		synced.Roles, err = tx.Users().ListRoles(ctx, synced.ID)
		return err
	})
	if err != nil {
		return domain.User{}, err
	}
	return synced, nil
}

// Deactivate clears the active flag. A missing user is a no-op, never an
// error; the returned flag reports whether a record was found so callers can
// surface the miss themselves.
func (s *DirectoryService) Deactivate(ctx context.Context, externalID string) (bool, error) {
	err := s.Store.Users().SetActive(ctx, externalID, false)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func optionalName(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
