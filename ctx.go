package catalog

import (
	"context"

	"github.com/goliatone/go-router"
)

var userCtxKey = &contextKey{"user"}
var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithContext sets the User in the given context
func WithContext(r context.Context, user *User) context.Context {
	return context.WithValue(r, userCtxKey, user)
}

// FromContext finds the user from the context.
func FromContext(ctx context.Context) (*User, bool) {
	raw, ok := ctx.Value(userCtxKey).(*User)
	return raw, ok
}

// WithClaimsContext sets the AccessClaims in the given context
func WithClaimsContext(r context.Context, claims AccessClaims) context.Context {
	return context.WithValue(r, claimsCtxKey, claims)
}

// GetClaims extracts the AccessClaims from the standard context
func GetClaims(ctx context.Context) (AccessClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(AccessClaims)
	return raw, ok
}

// GetRouterClaims extracts the AccessClaims from the router context
func GetRouterClaims(ctx router.Context, key string) (AccessClaims, bool) {
	if key == "" {
		key = "user" // Default key used by the guard middleware
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return nil, false
	}
	claims, ok := raw.(AccessClaims)
	return claims, ok
}

// HasAuthorityFromRouter checks a role claim directly from the router context
func HasAuthorityFromRouter(ctx router.Context, authority string) bool {
	claims, ok := GetRouterClaims(ctx, "")
	if !ok {
		return false
	}
	return claims.HasAuthority(authority)
}
