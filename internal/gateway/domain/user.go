package domain

import (
	"slices"
	"time"
)

// AdminRole is the role name that marks a user as an administrator.
const AdminRole = "ADMIN"

type User struct {
	ID          int64  // Assigned by the store on insert
	ExternalID  string // Subject asserted by the identity provider, immutable
	Username    string
	Email       string
	FirstName   *string
	LastName    *string
	Department  *string
	JobTitle    *string
	PhoneNumber *string
	EmployeeID  *string // Unique when present (nullable)
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int64 // Optimistic concurrency counter, bumped on every update

	// Roles are owned by the user and eagerly attached by the store's
	// *WithRoles read paths. Lookups without roles leave this nil.
	Roles []Role
}

// RoleNames returns the user's role names sorted lexicographically.
func (u User) RoleNames() []string {
	if len(u.Roles) == 0 {
		return nil
	}
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	slices.Sort(names)
	return names
}

// HasRole reports whether the user holds the named role.
func (u User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// FullName is the literal fallback used when claim derivation fails:
// "first last" when both parts are set, otherwise the username.
func (u User) FullName() string {
	if u.FirstName != nil && u.LastName != nil {
		return *u.FirstName + " " + *u.LastName
	}
	return u.Username
}
