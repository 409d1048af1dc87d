// Package authz makes access decisions for API resources based on the
// caller's effective role.
package authz

// Resource identifies a protected API surface. Handlers are registered
// against a Resource, never against route names or URL strings.
type Resource string

const (
	ResourceChildren      Resource = "children"
	ResourceChildSummary  Resource = "child-summary"
	ResourceChildDetail   Resource = "child-detail"
	ResourceChildPrograms Resource = "childprograms"
	ResourcePrograms      Resource = "programs"
	ResourceSponsors      Resource = "sponsors"
	ResourceDonations     Resource = "donations"
	ResourceStaff         Resource = "staff"
	ResourceUsers         Resource = "users"
)

// Reason categorizes an access decision for audit logs and metrics.
type Reason string

const (
	// ReasonSuperuser means the caller is a superuser; always allowed.
	ReasonSuperuser Reason = "superuser"
	// ReasonRoleGrant means the caller's role permits the request.
	ReasonRoleGrant Reason = "role-grant"
	// ReasonUnauthenticated means no principal was attached.
	ReasonUnauthenticated Reason = "unauthenticated"
	// ReasonNoRole means the caller belongs to no recognized group.
	ReasonNoRole Reason = "no-role"
	// ReasonMethodDenied means the role may see the resource but not
	// with this HTTP method.
	ReasonMethodDenied Reason = "method-denied"
	// ReasonResourceDenied means the role has no access to the
	// resource at all.
	ReasonResourceDenied Reason = "resource-denied"
)

// Decision is the outcome of an access check.
type Decision struct {
	Allowed bool
	Reason  Reason
}
