package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DBLogger persists audit events to the audit_logs table.
type DBLogger struct {
	db *sql.DB
}

// NewDBLogger creates a database-backed audit logger.
func NewDBLogger(db *sql.DB) *DBLogger {
	return &DBLogger{db: db}
}

// Record implements Logger.
func (l *DBLogger) Record(ctx context.Context, event Event) error {
	var detail interface{}
	if len(event.Detail) > 0 {
		detail = []byte(event.Detail)
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO audit_logs (event_type, username, resource, method, path, remote_ip, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, string(event.Type), event.Username, event.Resource, event.Method, event.Path, event.RemoteIP, detail)
	if err != nil {
		return fmt.Errorf("failed to record audit event: %w", err)
	}
	return nil
}

// List returns the most recent events, newest first.
func (l *DBLogger) List(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, event_type, username, resource, method, path, remote_ip, detail, created_at
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var resource, method, path, remoteIP sql.NullString
		var detail []byte
		if err := rows.Scan(&e.ID, &e.Type, &e.Username, &resource, &method,
			&path, &remoteIP, &detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		e.Resource = resource.String
		e.Method = method.String
		e.Path = path.String
		e.RemoteIP = remoteIP.String
		e.Detail = detail
		events = append(events, e)
	}
	return events, rows.Err()
}

// CleanupBefore deletes audit events older than the cutoff and returns
// how many rows were removed. Run periodically to enforce retention.
func (l *DBLogger) CleanupBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := l.db.ExecContext(ctx,
		`DELETE FROM audit_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up audit events: %w", err)
	}
	return res.RowsAffected()
}
