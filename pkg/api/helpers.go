package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hopeworks/smile/pkg/audit"
	"github.com/hopeworks/smile/pkg/httputil"
	"github.com/hopeworks/smile/pkg/identity"
	"github.com/hopeworks/smile/pkg/records"
)

// writeValidation renders a validation error, preserving per-field
// messages when available.
func writeValidation(w http.ResponseWriter, err error) {
	var fields records.FieldErrors
	if errors.As(err, &fields) {
		httputil.WriteFieldErrors(w, fields)
		return
	}
	httputil.WriteValidationError(w, err.Error())
}

// writeRecordError maps store errors to HTTP responses: missing rows
// become 404, field errors 400, anything else 500.
func writeRecordError(w http.ResponseWriter, s *Server, err error, notFoundMsg string) {
	if errors.Is(err, records.ErrNotFound) {
		if notFoundMsg == "" {
			notFoundMsg = "not found"
		}
		httputil.WriteNotFoundError(w, notFoundMsg)
		return
	}
	var fields records.FieldErrors
	if errors.As(err, &fields) {
		httputil.WriteFieldErrors(w, fields)
		return
	}
	s.logger.WithError(err).Error("storage operation failed")
	httputil.WriteInternalError(w, err)
}

// recordDataEvent audits a data mutation performed by the caller.
func recordDataEvent(s *Server, r *http.Request, eventType audit.EventType, resource string, id int64) {
	username := ""
	if p := identity.PrincipalFromContext(r.Context()); p != nil {
		username = p.Username
	}
	detail, _ := json.Marshal(map[string]int64{"id": id})
	if err := s.audit.Record(r.Context(), audit.Event{
		Type:     eventType,
		Username: username,
		Resource: resource,
		Method:   r.Method,
		Path:     r.URL.Path,
		RemoteIP: r.RemoteAddr,
		Detail:   detail,
	}); err != nil {
		s.logger.WithError(err).Warn("failed to record audit event")
	}
}
