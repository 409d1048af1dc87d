package records

import (
	"context"
	"database/sql"
	"fmt"
)

const sponsorColumns = `id, name, email, phone, address, sponsor_type, preferred_contact`

func scanSponsor(row interface{ Scan(...interface{}) error }) (*Sponsor, error) {
	var sp Sponsor
	err := row.Scan(&sp.ID, &sp.Name, &sp.Email, &sp.Phone, &sp.Address,
		&sp.SponsorType, &sp.PreferredContact)
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

// CreateSponsor inserts a sponsor and returns it with its assigned ID.
func (s *Store) CreateSponsor(ctx context.Context, sp *Sponsor) (*Sponsor, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO sponsors (name, email, phone, address, sponsor_type, preferred_contact)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, sp.Name, sp.Email, sp.Phone, sp.Address, sp.SponsorType, sp.PreferredContact).
		Scan(&sp.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create sponsor: %w", err)
	}
	return sp, nil
}

// GetSponsor looks up a sponsor by ID.
func (s *Store) GetSponsor(ctx context.Context, id int64) (*Sponsor, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sponsorColumns+` FROM sponsors WHERE id = $1`, id)
	sp, err := scanSponsor(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sponsor %d: %w", id, err)
	}
	return sp, nil
}

// ListSponsors returns all sponsors ordered by ID.
func (s *Store) ListSponsors(ctx context.Context) ([]Sponsor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sponsorColumns+` FROM sponsors ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sponsors: %w", err)
	}
	defer rows.Close()

	var sponsors []Sponsor
	for rows.Next() {
		sp, err := scanSponsor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sponsor: %w", err)
		}
		sponsors = append(sponsors, *sp)
	}
	return sponsors, rows.Err()
}

// SponsorPatch holds optional field updates for a sponsor.
type SponsorPatch struct {
	Name             *string `json:"name"`
	Email            *string `json:"email"`
	Phone            *string `json:"phone"`
	Address          *string `json:"address"`
	SponsorType      *string `json:"sponsor_type"`
	PreferredContact *string `json:"preferred_contact"`
}

// Validate checks only the fields present in the patch.
func (p *SponsorPatch) Validate() error {
	errs := FieldErrors{}

	if p.Name != nil {
		requireString(errs, "name", *p.Name, 200)
	}
	if p.Phone != nil {
		requireString(errs, "phone", *p.Phone, 20)
	}
	if p.Address != nil {
		requireString(errs, "address", *p.Address, 0)
	}
	if p.SponsorType != nil {
		requireString(errs, "sponsor_type", *p.SponsorType, 50)
	}
	if p.PreferredContact != nil {
		requireString(errs, "preferred_contact", *p.PreferredContact, 20)
	}
	if p.Email != nil && !emailPattern.MatchString(*p.Email) {
		errs["email"] = "must be a valid email address"
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// UpdateSponsor applies a partial update and returns the updated row.
func (s *Store) UpdateSponsor(ctx context.Context, id int64, p *SponsorPatch) (*Sponsor, error) {
	upd := &patch{}
	if p.Name != nil {
		upd.set("name", *p.Name)
	}
	if p.Email != nil {
		upd.set("email", *p.Email)
	}
	if p.Phone != nil {
		upd.set("phone", *p.Phone)
	}
	if p.Address != nil {
		upd.set("address", *p.Address)
	}
	if p.SponsorType != nil {
		upd.set("sponsor_type", *p.SponsorType)
	}
	if p.PreferredContact != nil {
		upd.set("preferred_contact", *p.PreferredContact)
	}

	if upd.empty() {
		return s.GetSponsor(ctx, id)
	}

	setClause, args := upd.clause(id)
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		UPDATE sponsors SET %s
		WHERE id = $%d
		RETURNING `+sponsorColumns, setClause, len(args)), args...)

	sp, err := scanSponsor(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update sponsor %d: %w", id, err)
	}
	return sp, nil
}

// DeleteSponsor removes a sponsor. Donations cascade at the database
// level.
func (s *Store) DeleteSponsor(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sponsors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete sponsor %d: %w", id, err)
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
