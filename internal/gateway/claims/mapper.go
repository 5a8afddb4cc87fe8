// Package claims derives token claims from a directory user record.
//
// The derivation rules are a fixed, ordered set of named pure functions
// evaluated against a user snapshot. A failing rule falls back to a literal
// field value or is omitted; it never aborts the whole mapping. The mapper
// holds no per-request state and is safe for concurrent reuse.
package claims

import (
	"errors"
	"log/slog"
	"time"

	"github.com/clearhaven/idgate/internal/gateway/domain"
)

// Mapper turns a resolved user into a flat claim mapping.
type Mapper struct{}

func NewMapper() *Mapper { return &Mapper{} }

// rule derives a single claim. A nil value (with nil error) means
// omit-if-absent; an error means the rule failed and fallback (if any)
// supplies the value instead.
type rule struct {
	name     string
	derive   func(domain.User) (any, error)
	fallback func(domain.User) any
}

// The rule table is fixed. Order is irrelevant to callers (the output is a
// map) but kept stable so the derivation is easy to audit against the schema.
var rules = []rule{
	{name: "user_id", derive: userID},
	{name: "external_id", derive: externalID},
	{name: "username", derive: username},
	{name: "email", derive: email},
	{name: "full_name", derive: fullName, fallback: fullNameLiteral},
	{name: "employee_id", derive: optional(func(u domain.User) *string { return u.EmployeeID })},
	{name: "department", derive: optional(func(u domain.User) *string { return u.Department })},
	{name: "job_title", derive: optional(func(u domain.User) *string { return u.JobTitle })},
	{name: "phone_number", derive: optional(func(u domain.User) *string { return u.PhoneNumber })},
	{name: "is_active", derive: isActive},
	{name: "created_at", derive: timestamp(func(u domain.User) time.Time { return u.CreatedAt })},
	{name: "updated_at", derive: timestamp(func(u domain.User) time.Time { return u.UpdatedAt })},
}

// Map derives the claim mapping for a user snapshot. It always succeeds;
// individual rule failures are logged and degrade to their fallback or to
// omission. The result is deterministic for a given snapshot.
func (m *Mapper) Map(user domain.User) map[string]any {
	out := make(map[string]any, len(rules)+2)

	for _, r := range rules {
		v, err := r.derive(user)
		if err != nil {
			if r.fallback == nil {
				slog.Default().Debug("claim rule failed, omitting",
					"claim", r.name, "err", err)
				continue
			}
			v = r.fallback(user)
		}
		if v != nil {
			out[r.name] = v
		}
	}

	// Role claims live outside the rule table: they emit two coupled claims
	// and are skipped entirely for users with no roles (no empty set, no
	// is_admin=false placeholder).
	if names := user.RoleNames(); len(names) > 0 {
		out["roles"] = names
		out["is_admin"] = user.HasRole(domain.AdminRole)
	}

	return out
}

var errAbsent = errors.New("claims: source value absent")

func userID(u domain.User) (any, error) {
	if u.ID == 0 {
		return nil, nil
	}
	return u.ID, nil
}

func externalID(u domain.User) (any, error) {
	if u.ExternalID == "" {
		return nil, nil
	}
	return u.ExternalID, nil
}

func username(u domain.User) (any, error) {
	if u.Username == "" {
		return nil, nil
	}
	return u.Username, nil
}

func email(u domain.User) (any, error) {
	if u.Email == "" {
		return nil, nil
	}
	return u.Email, nil
}

// fullName concatenates the name parts the way the original expression did:
// a missing part renders as the literal "null", so a user with only a first
// name yields "First null". Downstream consumers depend on that exact string,
// so it is preserved and pinned by tests rather than trimmed. Only when both
// parts are missing does the rule fail over to the literal fallback.
func fullName(u domain.User) (any, error) {
	if u.FirstName == nil && u.LastName == nil {
		return nil, errAbsent
	}
	return nameOrNull(u.FirstName) + " " + nameOrNull(u.LastName), nil
}

// fullNameLiteral is the fallback: "first last" when both parts are present,
// otherwise the username.
func fullNameLiteral(u domain.User) any {
	return u.FullName()
}

func nameOrNull(s *string) string {
	if s == nil {
		return "null"
	}
	return *s
}

func isActive(u domain.User) (any, error) {
	// Always present, even when false.
	return u.Active, nil
}

func optional(get func(domain.User) *string) func(domain.User) (any, error) {
	return func(u domain.User) (any, error) {
		v := get(u)
		if v == nil || *v == "" {
			return nil, nil
		}
		return *v, nil
	}
}

func timestamp(get func(domain.User) time.Time) func(domain.User) (any, error) {
	return func(u domain.User) (any, error) {
		t := get(u)
		if t.IsZero() {
			return nil, nil
		}
		return t.UTC().Format(time.RFC3339), nil
	}
}
