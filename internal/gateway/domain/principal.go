package domain

import "github.com/clearhaven/idgate/pkg/jwtx"

// Principal is the identity asserted by the provider's token after
// verification. All fields except Subject are optional; the provider decides
// what it asserts. Raw carries the full claim set of the original token for
// callers that echo it back (e.g. the /me endpoint).
type Principal struct {
	Subject           string
	PreferredUsername string
	Email             string
	EmailVerified     bool
	GivenName         string
	FamilyName        string

	Raw map[string]any
}

// PrincipalFromClaims builds the inbound principal from verified token
// claims, raw claim set included.
func PrincipalFromClaims(c *jwtx.Claims) Principal {
	return Principal{
		Subject:           c.Subject,
		PreferredUsername: c.PreferredUsername,
		Email:             c.Email,
		EmailVerified:     c.EmailVerified,
		GivenName:         c.GivenName,
		FamilyName:        c.FamilyName,
		Raw:               c.Raw,
	}
}
