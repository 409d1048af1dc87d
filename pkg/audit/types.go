// Package audit records security-relevant events (logins, access
// decisions, data changes) for later review.
package audit

import (
	"encoding/json"
	"time"
)

// EventType categorizes audit events.
type EventType string

const (
	EventLogin        EventType = "auth.login"
	EventLoginFailed  EventType = "auth.login_failed"
	EventTokenRefresh EventType = "auth.refresh"

	EventAccessGranted EventType = "authz.access_granted"
	EventAccessDenied  EventType = "authz.access_denied"

	EventRecordCreated EventType = "data.created"
	EventRecordUpdated EventType = "data.updated"
	EventRecordDeleted EventType = "data.deleted"
)

// Event is a single audit log entry.
type Event struct {
	ID        int64           `json:"id"`
	Type      EventType       `json:"type"`
	Username  string          `json:"username"`
	Resource  string          `json:"resource,omitempty"`
	Method    string          `json:"method,omitempty"`
	Path      string          `json:"path,omitempty"`
	RemoteIP  string          `json:"remote_ip,omitempty"`
	Detail    json.RawMessage `json:"detail,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
