package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hopeworks/smile/pkg/audit"
	"github.com/hopeworks/smile/pkg/auth"
	"github.com/hopeworks/smile/pkg/httputil"
	"github.com/hopeworks/smile/pkg/identity"
)

// AuthHandlers serves the token and profile endpoints.
type AuthHandlers struct {
	server *Server
}

// tokenResponse mirrors the login payload clients already consume.
type tokenResponse struct {
	Access      string   `json:"access"`
	Refresh     string   `json:"refresh"`
	Username    string   `json:"username"`
	Groups      []string `json:"groups"`
	IsSuperuser bool     `json:"is_superuser"`
	Role        string   `json:"role"`
}

// login handles POST /api/token/
func (h *AuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		httputil.WriteValidationError(w, "username and password are required")
		return
	}

	s := h.server
	ctx := r.Context()

	user, err := s.identity.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			h.loginFailed(w, r, req.Username)
			return
		}
		s.logger.WithError(err).Error("login: user lookup failed")
		httputil.WriteInternalError(w, err)
		return
	}

	if !user.IsActive || !identity.CheckPassword(user.PasswordHash, req.Password) {
		h.loginFailed(w, r, req.Username)
		return
	}

	groups, err := s.identity.GetUserGroups(ctx, user.ID)
	if err != nil {
		s.logger.WithError(err).Error("login: group lookup failed")
		httputil.WriteInternalError(w, err)
		return
	}

	pair, err := s.issuer.IssueTokenPair(user, groups)
	if err != nil {
		if errors.Is(err, auth.ErrRoleNotFound) {
			if s.metrics != nil {
				s.metrics.RecordLogin("no_role")
			}
			httputil.WriteValidationError(w, "User role not found. Contact admin.")
			return
		}
		s.logger.WithError(err).Error("login: token issuing failed")
		httputil.WriteInternalError(w, err)
		return
	}

	if err := s.identity.RecordLogin(ctx, user.ID); err != nil {
		s.logger.WithError(err).Warn("login: failed to stamp last_login")
	}
	if s.metrics != nil {
		s.metrics.RecordLogin("success")
	}
	role := identity.ResolveRole(user.IsSuperuser, groups)
	h.recordAuthEvent(r, audit.EventLogin, user.Username, map[string]string{"role": string(role)})

	httputil.WriteSuccess(w, tokenResponse{
		Access:      pair.Access,
		Refresh:     pair.Refresh,
		Username:    user.Username,
		Groups:      groups,
		IsSuperuser: user.IsSuperuser,
		Role:        string(role),
	})
}

func (h *AuthHandlers) loginFailed(w http.ResponseWriter, r *http.Request, username string) {
	if h.server.metrics != nil {
		h.server.metrics.RecordLogin("failed")
	}
	h.recordAuthEvent(r, audit.EventLoginFailed, username, nil)
	// Same answer for unknown users and wrong passwords.
	httputil.WriteUnauthorized(w, "No active account found with the given credentials")
}

// refresh handles POST /api/token/refresh/
func (h *AuthHandlers) refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Refresh == "" {
		httputil.WriteValidationError(w, "refresh token is required")
		return
	}

	s := h.server
	ctx := r.Context()

	claims, err := s.issuer.ParseRefreshToken(req.Refresh)
	if err != nil {
		httputil.WriteUnauthorized(w, "invalid or expired refresh token")
		return
	}

	// Re-resolve the role from live membership so a refresh never
	// extends privileges the user no longer has.
	user, groups, err := s.directory.Lookup(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			httputil.WriteUnauthorized(w, "user no longer exists")
			return
		}
		s.logger.WithError(err).Error("refresh: user lookup failed")
		httputil.WriteInternalError(w, err)
		return
	}
	if !user.IsActive {
		httputil.WriteUnauthorized(w, "user account is disabled")
		return
	}

	pair, err := s.issuer.IssueTokenPair(user, groups)
	if err != nil {
		if errors.Is(err, auth.ErrRoleNotFound) {
			httputil.WriteValidationError(w, "User role not found. Contact admin.")
			return
		}
		s.logger.WithError(err).Error("refresh: token issuing failed")
		httputil.WriteInternalError(w, err)
		return
	}

	if s.metrics != nil {
		s.metrics.TokenRefreshTotal.WithLabelValues("success").Inc()
	}
	h.recordAuthEvent(r, audit.EventTokenRefresh, user.Username, nil)

	httputil.WriteSuccess(w, map[string]string{"access": pair.Access})
}

// profile handles GET /api/user/profile/
func (h *AuthHandlers) profile(w http.ResponseWriter, r *http.Request) {
	principal := identity.PrincipalFromContext(r.Context())
	if principal == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	groups := principal.Groups
	if groups == nil {
		groups = []string{}
	}
	httputil.WriteSuccess(w, map[string]interface{}{
		"username":     principal.Username,
		"groups":       groups,
		"is_superuser": principal.IsSuperuser,
	})
}

func (h *AuthHandlers) recordAuthEvent(r *http.Request, eventType audit.EventType, username string, detail map[string]string) {
	event := audit.Event{
		Type:     eventType,
		Username: username,
		Path:     r.URL.Path,
		RemoteIP: r.RemoteAddr,
	}
	if detail != nil {
		if b, err := json.Marshal(detail); err == nil {
			event.Detail = b
		}
	}
	if err := h.server.audit.Record(r.Context(), event); err != nil {
		h.server.logger.WithError(err).Warn("failed to record audit event")
	}
}
