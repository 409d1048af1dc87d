package authz

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hopeworks/smile/pkg/audit"
	"github.com/hopeworks/smile/pkg/contextkeys"
	"github.com/hopeworks/smile/pkg/identity"
	"github.com/hopeworks/smile/pkg/observability"
)

// recordingAuditLogger captures events for assertions.
type recordingAuditLogger struct {
	mu     sync.Mutex
	events []audit.Event
}

func (l *recordingAuditLogger) Record(ctx context.Context, event audit.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	return nil
}

func newTestEnforcer(auditLogger audit.Logger) *Enforcer {
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	return NewEnforcer(logger, auditLogger, nil)
}

func doRequest(e *Enforcer, resource Resource, method string, p *identity.Principal) *httptest.ResponseRecorder {
	handler := e.Require(resource)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(method, "/api/test/", nil)
	if p != nil {
		req = req.WithContext(contextkeys.WithPrincipal(req.Context(), p))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRequireUnauthenticatedGets401(t *testing.T) {
	e := newTestEnforcer(nil)
	rec := doRequest(e, ResourcePrograms, http.MethodGet, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireDeniedGets403(t *testing.T) {
	e := newTestEnforcer(nil)
	p := &identity.Principal{UserID: 1, Username: "viewer", Role: identity.RoleViewer}
	rec := doRequest(e, ResourceSponsors, http.MethodGet, p)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAllowedPassesThrough(t *testing.T) {
	e := newTestEnforcer(nil)
	p := &identity.Principal{UserID: 1, Username: "manager", Role: identity.RoleManager}
	rec := doRequest(e, ResourceSponsors, http.MethodPost, p)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireDenialIsAudited(t *testing.T) {
	rec := &recordingAuditLogger{}
	e := newTestEnforcer(rec)
	p := &identity.Principal{UserID: 1, Username: "mwilson", Role: identity.RoleManager}

	doRequest(e, ResourceChildren, http.MethodDelete, p)

	assert.Len(t, rec.events, 1)
	assert.Equal(t, audit.EventAccessDenied, rec.events[0].Type)
	assert.Equal(t, "mwilson", rec.events[0].Username)
	assert.Equal(t, "children", rec.events[0].Resource)
	assert.Equal(t, http.MethodDelete, rec.events[0].Method)
}

func TestRequireGrantIsNotAudited(t *testing.T) {
	rec := &recordingAuditLogger{}
	e := newTestEnforcer(rec)
	p := &identity.Principal{UserID: 1, Username: "mwilson", Role: identity.RoleAdmin}

	doRequest(e, ResourceChildren, http.MethodDelete, p)

	assert.Empty(t, rec.events)
}
