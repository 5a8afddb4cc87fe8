// Package jwtx verifies identity-provider issued JWTs. The gateway never
// mints tokens itself; it only checks signatures against the provider's
// published keys and extracts the asserted claims.
package jwtx

import (
	"errors"
	"time"
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// VerifyOptions captures common expectations used by verifiers.
type VerifyOptions struct {
	// Issuer the token must have (claims.iss). Empty means "don't care".
	Issuer string

	// Audience values the token must contain (claims.aud). Empty means "don't care".
	Audience []string

	// Leeway allows small clock skew when validating exp/nbf/iat.
	// Because time sync is never perfect.
	Leeway time.Duration
}

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
	ErrUnknownKID  = errors.New("jwtx: unknown kid")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")

	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrAudience     = errors.New("jwtx: audience mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// NewVerifier returns a Verifier for the given signing algorithm backed by
// the provider KeySet. Supported: RS256, ES256, EdDSA.
func NewVerifier(alg string, keys *KeySet, issuer string, audience []string) (Verifier, error) {
	switch alg {
	case "RS256":
		return RS256Adapter{NewVerifierRS256(keys, issuer, audience)}, nil
	case "ES256":
		return ES256Adapter{NewVerifierES256(keys, issuer, audience)}, nil
	case "EdDSA":
		return EdDSAAdapter{NewVerifierEdDSA(keys, issuer, audience)}, nil
	default:
		return nil, errors.New("jwtx: unsupported algorithm " + alg)
	}
}

// RS256Adapter a Verifier wrapper for RS256.
type RS256Adapter struct{ *RS256Verifier }

func (a RS256Adapter) Verify(token string) (Claims, error) {
	c, err := a.RS256Verifier.Verify(token)
	if err != nil {
		return Claims{}, err
	}
	return *c, nil
}

// EdDSAAdapter a Verifier wrapper for EdDSA.
type EdDSAAdapter struct{ *EdDSAVerifier }

func (a EdDSAAdapter) Verify(token string) (Claims, error) {
	c, err := a.EdDSAVerifier.Verify(token)
	if err != nil {
		return Claims{}, err
	}
	return *c, nil
}

// ES256Adapter a Verifier wrapper for ES256.
type ES256Adapter struct{ *ES256Verifier }

func (a ES256Adapter) Verify(token string) (Claims, error) {
	c, err := a.ES256Verifier.Verify(token)
	if err != nil {
		return Claims{}, err
	}
	return *c, nil
}
