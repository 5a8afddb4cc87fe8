package httpx

import (
	"context"

	"github.com/clearhaven/idgate/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeySubject ctxKey = "subject"
	CtxKeyScopes  ctxKey = "scopes"
	CtxKeyClaims  ctxKey = "claims"
)

// SubjectFromContext returns the provider subject of the verified token,
// or "" when the request was not authenticated.
func SubjectFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeySubject).(string); ok {
		return v
	}
	return ""
}

// ClaimsFromContext returns the verified token claims, or nil when the
// request was not authenticated.
func ClaimsFromContext(ctx context.Context) *jwtx.Claims {
	if v, ok := ctx.Value(CtxKeyClaims).(*jwtx.Claims); ok {
		return v
	}
	return nil
}

func scopesFromCtx(ctx context.Context) []string {
	if v, ok := ctx.Value(CtxKeyScopes).([]string); ok {
		return v
	}
	return nil
}
