package records

import (
	"context"
	"database/sql"
	"fmt"
)

const childColumns = `id, first_name, last_name, gender, birth_date, status, entry_date,
	address, guardian_name, guardian_contact, image_data, reason, created_at, updated_at`

func scanChild(row interface{ Scan(...interface{}) error }) (*Child, error) {
	var c Child
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Gender, &c.BirthDate,
		&c.Status, &c.EntryDate, &c.Address, &c.GuardianName, &c.GuardianContact,
		&c.ImageData, &c.Reason, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateChild inserts a child record and returns it with its ID and
// timestamps populated.
func (s *Store) CreateChild(ctx context.Context, c *Child) (*Child, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO children (first_name, last_name, gender, birth_date, status,
			entry_date, address, guardian_name, guardian_contact, image_data, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`, c.FirstName, c.LastName, c.Gender, c.BirthDate, c.Status, c.EntryDate,
		c.Address, c.GuardianName, c.GuardianContact, c.ImageData, c.Reason).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create child: %w", err)
	}
	return c, nil
}

// GetChild looks up a child by ID.
func (s *Store) GetChild(ctx context.Context, id int64) (*Child, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+childColumns+` FROM children WHERE id = $1`, id)
	c, err := scanChild(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get child %d: %w", id, err)
	}
	return c, nil
}

// ListChildren returns all children ordered by ID.
func (s *Store) ListChildren(ctx context.Context) ([]Child, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+childColumns+` FROM children ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}
	defer rows.Close()

	var children []Child
	for rows.Next() {
		c, err := scanChild(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan child: %w", err)
		}
		children = append(children, *c)
	}
	return children, rows.Err()
}

// ListChildSummaries returns the reduced child listing.
func (s *Store) ListChildSummaries(ctx context.Context) ([]ChildSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, first_name, last_name FROM children ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list child summaries: %w", err)
	}
	defer rows.Close()

	var summaries []ChildSummary
	for rows.Next() {
		var cs ChildSummary
		if err := rows.Scan(&cs.ID, &cs.FirstName, &cs.LastName); err != nil {
			return nil, fmt.Errorf("failed to scan child summary: %w", err)
		}
		summaries = append(summaries, cs)
	}
	return summaries, rows.Err()
}

// GetChildDetail returns a child with its program enrollments and the
// enrolled programs embedded.
func (s *Store) GetChildDetail(ctx context.Context, id int64) (*ChildDetail, error) {
	child, err := s.GetChild(ctx, id)
	if err != nil {
		return nil, err
	}

	enrollments, err := s.ListChildProgramsForChild(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &ChildDetail{
		Child:         *child,
		ChildPrograms: enrollments,
		Photo:         child.ImageData,
	}
	return detail, nil
}

// ChildPatch holds optional field updates for a child. Nil fields are
// left unchanged.
type ChildPatch struct {
	FirstName       *string `json:"first_name"`
	LastName        *string `json:"last_name"`
	Gender          *string `json:"gender"`
	BirthDate       *Date   `json:"birth_date"`
	Status          *string `json:"status"`
	EntryDate       *Date   `json:"entry_date"`
	Address         *string `json:"address"`
	GuardianName    *string `json:"guardian_name"`
	GuardianContact *string `json:"guardian_contact"`
	Reason          *string `json:"reason"`
}

// Validate checks only the fields present in the patch.
func (p *ChildPatch) Validate() error {
	errs := FieldErrors{}

	if p.FirstName != nil {
		requireString(errs, "first_name", *p.FirstName, 100)
	}
	if p.LastName != nil {
		requireString(errs, "last_name", *p.LastName, 100)
	}
	if p.GuardianName != nil {
		requireString(errs, "guardian_name", *p.GuardianName, 100)
	}
	if p.GuardianContact != nil {
		requireString(errs, "guardian_contact", *p.GuardianContact, 100)
	}
	if p.Reason != nil {
		requireString(errs, "reason", *p.Reason, 100)
	}
	if p.Gender != nil && *p.Gender != GenderMale && *p.Gender != GenderFemale {
		errs["gender"] = "must be one of: Male, Female"
	}
	if p.Status != nil && *p.Status != StatusFull && *p.Status != StatusHalf && *p.Status != StatusInactive {
		errs["status"] = "must be one of: Full, Half, Inactive"
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// UpdateChild applies a partial update and returns the updated row.
// updated_at is refreshed whenever at least one field changes.
func (s *Store) UpdateChild(ctx context.Context, id int64, p *ChildPatch) (*Child, error) {
	upd := &patch{}
	if p.FirstName != nil {
		upd.set("first_name", *p.FirstName)
	}
	if p.LastName != nil {
		upd.set("last_name", *p.LastName)
	}
	if p.Gender != nil {
		upd.set("gender", *p.Gender)
	}
	if p.BirthDate != nil {
		upd.set("birth_date", *p.BirthDate)
	}
	if p.Status != nil {
		upd.set("status", *p.Status)
	}
	if p.EntryDate != nil {
		upd.set("entry_date", *p.EntryDate)
	}
	if p.Address != nil {
		upd.set("address", *p.Address)
	}
	if p.GuardianName != nil {
		upd.set("guardian_name", *p.GuardianName)
	}
	if p.GuardianContact != nil {
		upd.set("guardian_contact", *p.GuardianContact)
	}
	if p.Reason != nil {
		upd.set("reason", *p.Reason)
	}

	if upd.empty() {
		return s.GetChild(ctx, id)
	}

	setClause, args := upd.clause(id)
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		UPDATE children SET %s, updated_at = NOW()
		WHERE id = $%d
		RETURNING `+childColumns, setClause, len(args)), args...)

	c, err := scanChild(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update child %d: %w", id, err)
	}
	return c, nil
}

// SetChildImage stores the media key of the child's photo.
func (s *Store) SetChildImage(ctx context.Context, id int64, key string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE children SET image_data = $1, updated_at = NOW() WHERE id = $2`, key, id)
	if err != nil {
		return fmt.Errorf("failed to set child image: %w", err)
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

// DeleteChild removes a child. Enrollments cascade at the database
// level.
func (s *Store) DeleteChild(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM children WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete child %d: %w", id, err)
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
