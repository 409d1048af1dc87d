package identity

import (
	"context"

	"github.com/hopeworks/smile/pkg/contextkeys"
)

// PrincipalFromContext returns the authenticated principal attached by
// the auth middleware, or nil for unauthenticated requests.
func PrincipalFromContext(ctx context.Context) *Principal {
	if p, ok := ctx.Value(contextkeys.PrincipalKey).(*Principal); ok {
		return p
	}
	return nil
}
