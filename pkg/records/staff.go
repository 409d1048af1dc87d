package records

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// staffJoinColumns selects the staff profile with account fields and
// group names aggregated from the user's memberships.
const staffJoinColumns = `st.id, st.user_id, u.username, u.email,
	COALESCE(array_agg(g.name ORDER BY g.name) FILTER (WHERE g.name IS NOT NULL), '{}'),
	st.position, st.is_volunteer, st.phone, st.created_at, st.updated_at`

const staffJoin = `
	FROM staff st
	JOIN users u ON u.id = st.user_id
	LEFT JOIN user_groups ug ON ug.user_id = u.id
	LEFT JOIN groups g ON g.id = ug.group_id`

func scanStaff(row interface{ Scan(...interface{}) error }) (*Staff, error) {
	var st Staff
	var groups pq.StringArray
	err := row.Scan(&st.ID, &st.UserID, &st.Username, &st.Email, &groups,
		&st.Position, &st.IsVolunteer, &st.Phone, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return nil, err
	}
	st.Groups = []string(groups)
	return &st, nil
}

// CreateStaff inserts a staff profile for an existing user. Each user
// can have at most one profile.
func (s *Store) CreateStaff(ctx context.Context, st *Staff) (*Staff, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO staff (user_id, position, is_volunteer, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, st.UserID, st.Position, st.IsVolunteer, st.Phone).Scan(&st.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23503":
				return nil, FieldErrors{"name_id": "user does not exist"}
			case "23505":
				return nil, FieldErrors{"name_id": "user already has a staff profile"}
			}
		}
		return nil, fmt.Errorf("failed to create staff profile: %w", err)
	}
	return s.GetStaff(ctx, st.ID)
}

// GetStaff looks up a staff profile by ID.
func (s *Store) GetStaff(ctx context.Context, id int64) (*Staff, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+staffJoinColumns+staffJoin+`
		WHERE st.id = $1
		GROUP BY st.id, u.id
	`, id)
	st, err := scanStaff(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get staff profile %d: %w", id, err)
	}
	return st, nil
}

// ListStaff returns all staff profiles, newest first.
func (s *Store) ListStaff(ctx context.Context) ([]Staff, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ` + staffJoinColumns + staffJoin + `
		GROUP BY st.id, u.id
		ORDER BY st.created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff profiles: %w", err)
	}
	defer rows.Close()

	var staff []Staff
	for rows.Next() {
		st, err := scanStaff(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan staff profile: %w", err)
		}
		staff = append(staff, *st)
	}
	return staff, rows.Err()
}

// StaffPatch holds optional field updates for a staff profile.
type StaffPatch struct {
	Position    *string `json:"position"`
	IsVolunteer *bool   `json:"is_volunteer"`
	Phone       *string `json:"phone"`
}

// Validate checks only the fields present in the patch.
func (p *StaffPatch) Validate() error {
	errs := FieldErrors{}

	if p.Position != nil {
		requireString(errs, "position", *p.Position, 100)
	}
	if p.Phone != nil {
		requireString(errs, "phone", *p.Phone, 20)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// UpdateStaff applies a partial update and returns the updated row.
func (s *Store) UpdateStaff(ctx context.Context, id int64, p *StaffPatch) (*Staff, error) {
	upd := &patch{}
	if p.Position != nil {
		upd.set("position", *p.Position)
	}
	if p.IsVolunteer != nil {
		upd.set("is_volunteer", *p.IsVolunteer)
	}
	if p.Phone != nil {
		upd.set("phone", *p.Phone)
	}

	if upd.empty() {
		return s.GetStaff(ctx, id)
	}

	setClause, args := upd.clause(id)
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(
		`UPDATE staff SET %s, updated_at = NOW() WHERE id = $%d`, setClause, len(args)), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update staff profile %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return s.GetStaff(ctx, id)
}

// DeleteStaff removes a staff profile. The user account is untouched.
func (s *Store) DeleteStaff(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM staff WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete staff profile %d: %w", id, err)
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
