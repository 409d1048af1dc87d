// Package middleware provides HTTP middleware for authentication and
// login rate limiting.
package middleware

import (
	"net/http"
	"strings"

	"github.com/hopeworks/smile/pkg/auth"
	"github.com/hopeworks/smile/pkg/contextkeys"
	"github.com/hopeworks/smile/pkg/httputil"
	"github.com/hopeworks/smile/pkg/identity"
	"github.com/hopeworks/smile/pkg/observability"
)

// AuthMiddleware verifies Bearer access tokens and attaches a Principal
// to the request context. The principal's role comes from live group
// membership, never from token claims, so revoking a group takes effect
// within the directory cache TTL rather than at token expiry.
type AuthMiddleware struct {
	issuer    *auth.Issuer
	directory *identity.CachedDirectory
	logger    *observability.Logger
}

// NewAuthMiddleware creates the authentication middleware.
func NewAuthMiddleware(issuer *auth.Issuer, directory *identity.CachedDirectory, logger *observability.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		issuer:    issuer,
		directory: directory,
		logger:    logger,
	}
}

// Handler wraps next with Bearer token authentication. Requests without
// a valid access token get 401.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := bearerToken(r)
		if !ok {
			httputil.WriteUnauthorized(w, "authentication credentials were not provided")
			return
		}

		claims, err := m.issuer.ParseAccessToken(tokenString)
		if err != nil {
			m.logger.WithError(err).Debug("token verification failed")
			httputil.WriteUnauthorized(w, "invalid or expired token")
			return
		}

		user, groups, err := m.directory.Lookup(r.Context(), claims.UserID)
		if err != nil {
			if err == identity.ErrUserNotFound {
				httputil.WriteUnauthorized(w, "user no longer exists")
				return
			}
			m.logger.WithError(err).Error("failed to load user for token")
			httputil.WriteInternalError(w, err)
			return
		}
		if !user.IsActive {
			httputil.WriteUnauthorized(w, "user account is disabled")
			return
		}

		principal := &identity.Principal{
			UserID:      user.ID,
			Username:    user.Username,
			IsSuperuser: user.IsSuperuser,
			Groups:      groups,
			Role:        identity.ResolveRole(user.IsSuperuser, groups),
		}

		ctx := contextkeys.WithPrincipal(r.Context(), principal)
		ctx = observability.WithUsername(ctx, user.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken extracts the token from an Authorization: Bearer header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
