package authz

import (
	"net/http"

	"github.com/hopeworks/smile/pkg/audit"
	"github.com/hopeworks/smile/pkg/httputil"
	"github.com/hopeworks/smile/pkg/identity"
	"github.com/hopeworks/smile/pkg/observability"
)

// Enforcer wraps handlers with per-resource access checks and records
// every decision to the audit log and metrics.
type Enforcer struct {
	logger      *observability.Logger
	auditLogger audit.Logger
	metrics     *observability.Metrics
}

// NewEnforcer creates an Enforcer. auditLogger and metrics may be nil.
func NewEnforcer(logger *observability.Logger, auditLogger audit.Logger, metrics *observability.Metrics) *Enforcer {
	if auditLogger == nil {
		auditLogger = audit.NopLogger{}
	}
	return &Enforcer{
		logger:      logger,
		auditLogger: auditLogger,
		metrics:     metrics,
	}
}

// Require returns middleware that permits the request only if the
// authenticated principal may perform the request's method against the
// given resource. Unauthenticated requests get 401, denied ones 403.
func (e *Enforcer) Require(resource Resource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := identity.PrincipalFromContext(r.Context())
			decision := Decide(principal, r.Method, resource)

			e.record(r, principal, resource, decision)

			if !decision.Allowed {
				if decision.Reason == ReasonUnauthenticated {
					httputil.WriteUnauthorized(w, "authentication required")
					return
				}
				httputil.WriteForbidden(w, "you do not have permission to perform this action")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (e *Enforcer) record(r *http.Request, principal *identity.Principal, resource Resource, decision Decision) {
	username := ""
	role := identity.RoleNone
	if principal != nil {
		username = principal.Username
		role = principal.Role
	}

	if e.metrics != nil {
		outcome := "denied"
		if decision.Allowed {
			outcome = "allowed"
		}
		e.metrics.RecordAuthzDecision(string(role), string(resource), outcome)
	}

	if decision.Allowed {
		// Granted decisions are high-volume; keep them out of the
		// audit table and at debug level in logs.
		e.logger.WithFields(map[string]interface{}{
			"username": username,
			"role":     string(role),
			"resource": string(resource),
			"method":   r.Method,
			"reason":   string(decision.Reason),
		}).Debug("access granted")
		return
	}

	e.logger.WithFields(map[string]interface{}{
		"username": username,
		"role":     string(role),
		"resource": string(resource),
		"method":   r.Method,
		"path":     r.URL.Path,
		"reason":   string(decision.Reason),
	}).Warn("access denied")

	if err := e.auditLogger.Record(r.Context(), audit.Event{
		Type:     audit.EventAccessDenied,
		Username: username,
		Resource: string(resource),
		Method:   r.Method,
		Path:     r.URL.Path,
		RemoteIP: r.RemoteAddr,
	}); err != nil {
		e.logger.WithError(err).Warn("failed to record audit event")
	}
}
