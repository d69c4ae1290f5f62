package middleware

import (
	"context"

	"github.com/beveragedistro/ops-backend/internal/policy"
)

type contextKey string

const (
	ctxPrincipal contextKey = "principal"
	ctxAccessID  contextKey = "access_id"
)

// PrincipalFromContext returns the caller placed on the context by Auth.
func PrincipalFromContext(ctx context.Context) (policy.Principal, bool) {
	if ctx == nil {
		return policy.Principal{}, false
	}
	p, ok := ctx.Value(ctxPrincipal).(policy.Principal)
	return p, ok && p.Valid()
}

// AccessIDFromContext returns the jti of the verified access token.
func AccessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAccessID).(string); ok {
		return v
	}
	return ""
}

// WithPrincipal injects the caller into the context.
func WithPrincipal(ctx context.Context, p policy.Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxPrincipal, p)
}

// WithAccessID injects the access token jti into the context.
func WithAccessID(ctx context.Context, accessID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAccessID, accessID)
}
