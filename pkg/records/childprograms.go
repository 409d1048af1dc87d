package records

import (
	"context"
	"database/sql"
	"fmt"
)

// childProgramJoinColumns selects the enrollment with its child and
// program embedded.
const childProgramJoinColumns = `cp.id, cp.child_id, cp.program_id, cp.level, cp.assesment,
	cp.location, cp.start_date, cp.end_date, cp.fees_per_term,
	c.id, c.first_name, c.last_name, c.gender, c.birth_date, c.status, c.entry_date,
	c.address, c.guardian_name, c.guardian_contact, c.image_data, c.reason, c.created_at, c.updated_at,
	p.id, p.title, p.description, p.location`

func scanChildProgram(row interface{ Scan(...interface{}) error }) (*ChildProgram, error) {
	var cp ChildProgram
	var c Child
	var p Program
	err := row.Scan(&cp.ID, &cp.ChildID, &cp.ProgramID, &cp.Level, &cp.Assesment,
		&cp.Location, &cp.StartDate, &cp.EndDate, &cp.FeesPerTerm,
		&c.ID, &c.FirstName, &c.LastName, &c.Gender, &c.BirthDate, &c.Status,
		&c.EntryDate, &c.Address, &c.GuardianName, &c.GuardianContact,
		&c.ImageData, &c.Reason, &c.CreatedAt, &c.UpdatedAt,
		&p.ID, &p.Title, &p.Description, &p.Location)
	if err != nil {
		return nil, err
	}
	cp.Child = &c
	cp.Program = &p
	return &cp, nil
}

// CreateChildProgram enrolls a child in a program. Missing children or
// programs surface as per-field validation errors.
func (s *Store) CreateChildProgram(ctx context.Context, cp *ChildProgram) (*ChildProgram, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO child_programs (child_id, program_id, level, assesment, location,
			start_date, end_date, fees_per_term)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, cp.ChildID, cp.ProgramID, cp.Level, cp.Assesment, cp.Location,
		cp.StartDate, cp.EndDate, cp.FeesPerTerm).Scan(&cp.ID)
	if err != nil {
		if fkErr := foreignKeyError(err, "child_id", "child or program does not exist"); fkErr != err {
			return nil, fkErr
		}
		return nil, fmt.Errorf("failed to create enrollment: %w", err)
	}
	return s.GetChildProgram(ctx, cp.ID)
}

// GetChildProgram looks up an enrollment by ID with the child and
// program embedded.
func (s *Store) GetChildProgram(ctx context.Context, id int64) (*ChildProgram, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+childProgramJoinColumns+`
		FROM child_programs cp
		JOIN children c ON c.id = cp.child_id
		JOIN programs p ON p.id = cp.program_id
		WHERE cp.id = $1
	`, id)
	cp, err := scanChildProgram(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment %d: %w", id, err)
	}
	return cp, nil
}

// ListChildPrograms returns all enrollments with children and programs
// embedded.
func (s *Store) ListChildPrograms(ctx context.Context) ([]ChildProgram, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ` + childProgramJoinColumns + `
		FROM child_programs cp
		JOIN children c ON c.id = cp.child_id
		JOIN programs p ON p.id = cp.program_id
		ORDER BY cp.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []ChildProgram
	for rows.Next() {
		cp, err := scanChildProgram(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		enrollments = append(enrollments, *cp)
	}
	return enrollments, rows.Err()
}

// ListChildProgramsForChild returns a child's enrollments with the
// programs embedded, for the child detail view.
func (s *Store) ListChildProgramsForChild(ctx context.Context, childID int64) ([]ChildProgram, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT cp.id, cp.child_id, cp.program_id, cp.level, cp.assesment,
		       cp.location, cp.start_date, cp.end_date, cp.fees_per_term,
		       p.id, p.title, p.description, p.location
		FROM child_programs cp
		JOIN programs p ON p.id = cp.program_id
		WHERE cp.child_id = $1
		ORDER BY cp.id
	`, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments for child %d: %w", childID, err)
	}
	defer rows.Close()

	var enrollments []ChildProgram
	for rows.Next() {
		var cp ChildProgram
		var p Program
		if err := rows.Scan(&cp.ID, &cp.ChildID, &cp.ProgramID, &cp.Level, &cp.Assesment,
			&cp.Location, &cp.StartDate, &cp.EndDate, &cp.FeesPerTerm,
			&p.ID, &p.Title, &p.Description, &p.Location); err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		cp.Program = &p
		enrollments = append(enrollments, cp)
	}
	return enrollments, rows.Err()
}

// ChildProgramPatch holds optional field updates for an enrollment.
type ChildProgramPatch struct {
	ChildID     *int64  `json:"child_id"`
	ProgramID   *int64  `json:"program_id"`
	Level       *string `json:"level"`
	Assesment   []byte  `json:"assesment"`
	Location    *string `json:"location"`
	StartDate   *Date   `json:"start_date"`
	EndDate     *Date   `json:"end_date"`
	FeesPerTerm *string `json:"fees_per_term"`
}

// Validate checks only the fields present in the patch.
func (p *ChildProgramPatch) Validate() error {
	errs := FieldErrors{}

	if p.ChildID != nil && *p.ChildID <= 0 {
		errs["child_id"] = "must be a valid child ID"
	}
	if p.ProgramID != nil && *p.ProgramID <= 0 {
		errs["program_id"] = "must be a valid program ID"
	}
	if p.Level != nil {
		requireString(errs, "level", *p.Level, 100)
	}
	if p.Location != nil {
		requireString(errs, "location", *p.Location, 0)
	}
	if p.FeesPerTerm != nil {
		checkAmount(errs, "fees_per_term", *p.FeesPerTerm)
	}
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(p.StartDate.Time) {
		errs["end_date"] = "must not be before start_date"
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// UpdateChildProgram applies a partial update and returns the updated
// row.
func (s *Store) UpdateChildProgram(ctx context.Context, id int64, p *ChildProgramPatch) (*ChildProgram, error) {
	upd := &patch{}
	if p.ChildID != nil {
		upd.set("child_id", *p.ChildID)
	}
	if p.ProgramID != nil {
		upd.set("program_id", *p.ProgramID)
	}
	if p.Level != nil {
		upd.set("level", *p.Level)
	}
	if p.Assesment != nil {
		upd.set("assesment", p.Assesment)
	}
	if p.Location != nil {
		upd.set("location", *p.Location)
	}
	if p.StartDate != nil {
		upd.set("start_date", *p.StartDate)
	}
	if p.EndDate != nil {
		upd.set("end_date", *p.EndDate)
	}
	if p.FeesPerTerm != nil {
		upd.set("fees_per_term", *p.FeesPerTerm)
	}

	if upd.empty() {
		return s.GetChildProgram(ctx, id)
	}

	setClause, args := upd.clause(id)
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(
		`UPDATE child_programs SET %s WHERE id = $%d`, setClause, len(args)), args...)
	if err != nil {
		if fkErr := foreignKeyError(err, "child_id", "child or program does not exist"); fkErr != err {
			return nil, fkErr
		}
		return nil, fmt.Errorf("failed to update enrollment %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return s.GetChildProgram(ctx, id)
}

// DeleteChildProgram removes an enrollment.
func (s *Store) DeleteChildProgram(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM child_programs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete enrollment %d: %w", id, err)
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
