package records

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Store provides database access to all domain records.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store backed by the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// foreignKeyError converts a Postgres foreign-key violation (23503)
// into a per-field validation error so handlers can return 400 instead
// of 500 when a referenced record does not exist.
func foreignKeyError(err error, field, message string) error {
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
		return FieldErrors{field: message}
	}
	return err
}

// patch accumulates SET clauses for a partial UPDATE.
type patch struct {
	sets []string
	args []interface{}
}

func (p *patch) set(column string, value interface{}) {
	p.args = append(p.args, value)
	p.sets = append(p.sets, fmt.Sprintf("%s = $%d", column, len(p.args)))
}

func (p *patch) empty() bool {
	return len(p.sets) == 0
}

// clause renders the SET list and appends the id as the final
// positional argument.
func (p *patch) clause(id int64) (string, []interface{}) {
	args := append(p.args, id)
	return strings.Join(p.sets, ", "), args
}
