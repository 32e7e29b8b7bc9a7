package auth

import (
	"context"
	"time"

	"github.com/Infinity2209/user/pkg/access"
)

// Principal captures the authenticated caller propagated through the request context.
type Principal struct {
	Identity  access.Identity
	TokenID   string
	ExpiresAt time.Time
	// Claims is kept so logout can revoke the exact token presented.
	Claims *Claims
}

type principalContextKey struct{}

// SetPrincipalContext stores the authenticated principal on the context for downstream consumers.
func SetPrincipalContext(ctx context.Context, principal Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, principal)
}

// GetPrincipalFromContext retrieves the authenticated principal from the context.
func GetPrincipalFromContext(ctx context.Context) (Principal, bool) {
	principal, ok := ctx.Value(principalContextKey{}).(Principal)
	return principal, ok
}
