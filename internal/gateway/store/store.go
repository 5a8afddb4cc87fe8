package store

import (
	"context"
	"errors"

	"github.com/clearhaven/idgate/internal/gateway/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrConflict reports an optimistic-concurrency failure: the row was
	// updated by someone else between read and write. Retryable.
	ErrConflict = errors.New("store: version conflict")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement this. It exposes sub-repositories to keep concerns tidy
// and testable, and stops callers from accidentally nesting transactions.
type Store interface {
	Users() Users

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. This is the
	// recommended way to handle multi-step writes (e.g. sync + role replace).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources (optional for sqlite).
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetByExternalID returns the user for the provider subject, without roles.
	GetByExternalID(ctx context.Context, externalID string) (domain.User, error)

	// GetActiveWithRoles returns an active user with roles eagerly attached.
	// Inactive users report ErrNotFound. Single join fetch, no N+1.
	GetActiveWithRoles(ctx context.Context, externalID string) (domain.User, error)

	// GetByUsernameWithRoles returns the user by username with roles attached,
	// regardless of active state.
	GetByUsernameWithRoles(ctx context.Context, username string) (domain.User, error)

	// Exists reports whether a user with the given external id is recorded.
	Exists(ctx context.Context, externalID string) (bool, error)

	// Create inserts a new user and returns the stored row with the
	// store-assigned id, timestamps and version. Unique violations map to
	// ErrAlreadyExists.
	Create(ctx context.Context, u domain.User) (domain.User, error)

	// Update persists mutable fields guarded by the version counter
	// (WHERE id = ? AND version = ?). A stale version reports ErrConflict.
	// Returns the row as stored, with version bumped and updated_at refreshed.
	Update(ctx context.Context, u domain.User) (domain.User, error)

	// SetActive flips the active flag without touching other fields.
	SetActive(ctx context.Context, externalID string, active bool) error

	// ReplaceRoles swaps the user's role set wholesale.
	ReplaceRoles(ctx context.Context, userID int64, names []string) error

	// ListRoles returns the user's roles ordered by name.
	ListRoles(ctx context.Context, userID int64) ([]domain.Role, error)

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)
}
