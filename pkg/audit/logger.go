package audit

import "context"

// Logger records audit events. Implementations must not block request
// handling on failure; a lost audit record is logged, never fatal.
type Logger interface {
	Record(ctx context.Context, event Event) error
}

// NopLogger discards all events. Used in tests and when auditing is
// disabled.
type NopLogger struct{}

// Record implements Logger.
func (NopLogger) Record(ctx context.Context, event Event) error {
	return nil
}
