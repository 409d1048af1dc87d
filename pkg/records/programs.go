package records

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateProgram inserts a program and returns it with its assigned ID.
func (s *Store) CreateProgram(ctx context.Context, p *Program) (*Program, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO programs (title, description, location)
		VALUES ($1, $2, $3)
		RETURNING id
	`, p.Title, p.Description, p.Location).Scan(&p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create program: %w", err)
	}
	return p, nil
}

// GetProgram looks up a program by ID.
func (s *Store) GetProgram(ctx context.Context, id int64) (*Program, error) {
	var p Program
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, location FROM programs WHERE id = $1`, id).
		Scan(&p.ID, &p.Title, &p.Description, &p.Location)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get program %d: %w", id, err)
	}
	return &p, nil
}

// ListPrograms returns all programs ordered by ID.
func (s *Store) ListPrograms(ctx context.Context) ([]Program, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description, location FROM programs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list programs: %w", err)
	}
	defer rows.Close()

	var programs []Program
	for rows.Next() {
		var p Program
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.Location); err != nil {
			return nil, fmt.Errorf("failed to scan program: %w", err)
		}
		programs = append(programs, p)
	}
	return programs, rows.Err()
}

// ProgramPatch holds optional field updates for a program.
type ProgramPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
}

// Validate checks only the fields present in the patch.
func (p *ProgramPatch) Validate() error {
	errs := FieldErrors{}

	if p.Title != nil {
		requireString(errs, "title", *p.Title, 100)
	}
	if p.Description != nil {
		requireString(errs, "description", *p.Description, 0)
	}
	if p.Location != nil {
		requireString(errs, "location", *p.Location, 0)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// UpdateProgram applies a partial update and returns the updated row.
func (s *Store) UpdateProgram(ctx context.Context, id int64, p *ProgramPatch) (*Program, error) {
	upd := &patch{}
	if p.Title != nil {
		upd.set("title", *p.Title)
	}
	if p.Description != nil {
		upd.set("description", *p.Description)
	}
	if p.Location != nil {
		upd.set("location", *p.Location)
	}

	if upd.empty() {
		return s.GetProgram(ctx, id)
	}

	setClause, args := upd.clause(id)
	var out Program
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		UPDATE programs SET %s
		WHERE id = $%d
		RETURNING id, title, description, location
	`, setClause, len(args)), args...).
		Scan(&out.ID, &out.Title, &out.Description, &out.Location)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update program %d: %w", id, err)
	}
	return &out, nil
}

// DeleteProgram removes a program. Enrollments cascade at the database
// level.
func (s *Store) DeleteProgram(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM programs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete program %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
