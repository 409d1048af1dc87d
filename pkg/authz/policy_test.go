package authz

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hopeworks/smile/pkg/identity"
)

func principal(role identity.Role) *identity.Principal {
	return &identity.Principal{UserID: 1, Username: "test", Role: role}
}

func TestDecideUnauthenticated(t *testing.T) {
	d := Decide(nil, http.MethodGet, ResourcePrograms)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonUnauthenticated, d.Reason)
}

func TestDecideSuperuser(t *testing.T) {
	p := &identity.Principal{UserID: 1, Username: "root", IsSuperuser: true}
	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		d := Decide(p, method, ResourceChildren)
		assert.True(t, d.Allowed, method)
		assert.Equal(t, ReasonSuperuser, d.Reason)
	}
}

func TestDecideAdmin(t *testing.T) {
	allResources := []Resource{
		ResourceChildren, ResourceChildSummary, ResourceChildDetail,
		ResourceChildPrograms, ResourcePrograms, ResourceSponsors,
		ResourceDonations, ResourceStaff, ResourceUsers,
	}
	for _, res := range allResources {
		for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
			d := Decide(principal(identity.RoleAdmin), method, res)
			assert.True(t, d.Allowed, "%s %s", method, res)
			assert.Equal(t, ReasonRoleGrant, d.Reason)
		}
	}
}

func TestDecideManager(t *testing.T) {
	tests := []struct {
		method   string
		resource Resource
		allowed  bool
		reason   Reason
	}{
		{http.MethodGet, ResourceChildren, true, ReasonRoleGrant},
		{http.MethodPost, ResourceChildren, true, ReasonRoleGrant},
		{http.MethodPut, ResourceChildren, true, ReasonRoleGrant},
		{http.MethodPatch, ResourceChildren, true, ReasonRoleGrant},
		{http.MethodDelete, ResourceChildren, false, ReasonMethodDenied},
		{http.MethodPost, ResourceSponsors, true, ReasonRoleGrant},
		{http.MethodDelete, ResourceSponsors, false, ReasonMethodDenied},
		{http.MethodPatch, ResourceDonations, true, ReasonRoleGrant},
		{http.MethodDelete, ResourceDonations, false, ReasonMethodDenied},
		{http.MethodPost, ResourceStaff, true, ReasonRoleGrant},
		{http.MethodDelete, ResourcePrograms, false, ReasonMethodDenied},
		{http.MethodGet, ResourceUsers, true, ReasonRoleGrant},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+string(tt.resource), func(t *testing.T) {
			d := Decide(principal(identity.RoleManager), tt.method, tt.resource)
			assert.Equal(t, tt.allowed, d.Allowed)
			assert.Equal(t, tt.reason, d.Reason)
		})
	}
}

func TestDecideViewer(t *testing.T) {
	tests := []struct {
		method   string
		resource Resource
		allowed  bool
		reason   Reason
	}{
		// Viewers read the child-facing views and program catalog.
		{http.MethodGet, ResourceChildSummary, true, ReasonRoleGrant},
		{http.MethodGet, ResourceChildDetail, true, ReasonRoleGrant},
		{http.MethodGet, ResourceChildPrograms, true, ReasonRoleGrant},
		{http.MethodGet, ResourcePrograms, true, ReasonRoleGrant},
		{http.MethodHead, ResourcePrograms, true, ReasonRoleGrant},

		// Writes are denied even on permitted resources.
		{http.MethodPost, ResourcePrograms, false, ReasonMethodDenied},
		{http.MethodPut, ResourceChildPrograms, false, ReasonMethodDenied},
		{http.MethodDelete, ResourceChildSummary, false, ReasonMethodDenied},

		// Everything else is off limits, reads included.
		{http.MethodGet, ResourceChildren, false, ReasonResourceDenied},
		{http.MethodGet, ResourceSponsors, false, ReasonResourceDenied},
		{http.MethodGet, ResourceDonations, false, ReasonResourceDenied},
		{http.MethodGet, ResourceStaff, false, ReasonResourceDenied},
		{http.MethodGet, ResourceUsers, false, ReasonResourceDenied},
		{http.MethodPost, ResourceChildren, false, ReasonResourceDenied},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+string(tt.resource), func(t *testing.T) {
			d := Decide(principal(identity.RoleViewer), tt.method, tt.resource)
			assert.Equal(t, tt.allowed, d.Allowed)
			assert.Equal(t, tt.reason, d.Reason)
		})
	}
}

func TestDecideNoRole(t *testing.T) {
	d := Decide(principal(identity.RoleNone), http.MethodGet, ResourcePrograms)
	assert.False(t, d.Allowed)
	assert.Equal(t, ReasonNoRole, d.Reason)
}
