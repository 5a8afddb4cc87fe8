package domain

import "time"

// Role is a (user, role name) pair owned exclusively by its user. Roles are
// replaced wholesale when a user's persisted state changes; the enhancement
// pipeline only ever reads them.
type Role struct {
	ID        int64
	UserID    int64
	Name      string
	CreatedAt time.Time
}
