package catalog

import (
	"context"

	"github.com/goliatone/go-catalog/middleware/guardware"
)

// ContextEnricherAdapter adapts guardware.AuthClaims to AccessClaims and
// stores the claims in the standard context for downstream usage.
func ContextEnricherAdapter(c context.Context, claims guardware.AuthClaims) context.Context {
	accessClaims, ok := claims.(AccessClaims)
	if !ok {
		return c
	}
	return WithClaimsContext(c, accessClaims)
}
