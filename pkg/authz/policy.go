package authz

import (
	"net/http"

	"github.com/hopeworks/smile/pkg/identity"
)

// safeMethods are the read-only HTTP methods.
var safeMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodOptions: true,
}

// viewerResources lists the resources a viewer may read. Viewers see
// the child-facing views and program catalog only; the full children
// record set, sponsors, donations, and staff stay out of reach.
var viewerResources = map[Resource]bool{
	ResourceChildSummary:  true,
	ResourceChildDetail:   true,
	ResourceChildPrograms: true,
	ResourcePrograms:      true,
}

// Decide evaluates whether a principal may perform an HTTP method
// against a resource. A nil principal is unauthenticated. The
// principal's Role must already reflect live group membership.
func Decide(p *identity.Principal, method string, resource Resource) Decision {
	if p == nil {
		return Decision{Allowed: false, Reason: ReasonUnauthenticated}
	}
	if p.IsSuperuser {
		return Decision{Allowed: true, Reason: ReasonSuperuser}
	}

	switch p.Role {
	case identity.RoleAdmin:
		return Decision{Allowed: true, Reason: ReasonRoleGrant}

	case identity.RoleManager:
		if method == http.MethodDelete {
			return Decision{Allowed: false, Reason: ReasonMethodDenied}
		}
		return Decision{Allowed: true, Reason: ReasonRoleGrant}

	case identity.RoleViewer:
		if !viewerResources[resource] {
			return Decision{Allowed: false, Reason: ReasonResourceDenied}
		}
		if !safeMethods[method] {
			return Decision{Allowed: false, Reason: ReasonMethodDenied}
		}
		return Decision{Allowed: true, Reason: ReasonRoleGrant}

	default:
		return Decision{Allowed: false, Reason: ReasonNoRole}
	}
}
