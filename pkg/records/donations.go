package records

import (
	"context"
	"database/sql"
	"fmt"
)

// donationJoinColumns selects the donation with its sponsor embedded.
const donationJoinColumns = `d.id, d.sponsor_id, d.amount, d.donation_date, d.payment_method, d.purpose,
	s.id, s.name, s.email, s.phone, s.address, s.sponsor_type, s.preferred_contact`

func scanDonation(row interface{ Scan(...interface{}) error }) (*Donation, error) {
	var d Donation
	var sp Sponsor
	err := row.Scan(&d.ID, &d.SponsorID, &d.Amount, &d.DonationDate,
		&d.PaymentMethod, &d.Purpose,
		&sp.ID, &sp.Name, &sp.Email, &sp.Phone, &sp.Address,
		&sp.SponsorType, &sp.PreferredContact)
	if err != nil {
		return nil, err
	}
	d.Sponsor = &sp
	return &d, nil
}

// CreateDonation inserts a donation. A missing sponsor surfaces as a
// per-field validation error, not a server error.
func (s *Store) CreateDonation(ctx context.Context, d *Donation) (*Donation, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO donations (sponsor_id, amount, donation_date, payment_method, purpose)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, d.SponsorID, d.Amount, d.DonationDate, d.PaymentMethod, d.Purpose).
		Scan(&d.ID)
	if err != nil {
		if fkErr := foreignKeyError(err, "sponsor_id", "sponsor does not exist"); fkErr != err {
			return nil, fkErr
		}
		return nil, fmt.Errorf("failed to create donation: %w", err)
	}
	return s.GetDonation(ctx, d.ID)
}

// GetDonation looks up a donation by ID with its sponsor embedded.
func (s *Store) GetDonation(ctx context.Context, id int64) (*Donation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+donationJoinColumns+`
		FROM donations d
		JOIN sponsors s ON s.id = d.sponsor_id
		WHERE d.id = $1
	`, id)
	d, err := scanDonation(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get donation %d: %w", id, err)
	}
	return d, nil
}

// ListDonations returns all donations with sponsors embedded.
func (s *Store) ListDonations(ctx context.Context) ([]Donation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ` + donationJoinColumns + `
		FROM donations d
		JOIN sponsors s ON s.id = d.sponsor_id
		ORDER BY d.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list donations: %w", err)
	}
	defer rows.Close()

	var donations []Donation
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan donation: %w", err)
		}
		donations = append(donations, *d)
	}
	return donations, rows.Err()
}

// DonationPatch holds optional field updates for a donation.
type DonationPatch struct {
	SponsorID     *int64  `json:"sponsor_id"`
	Amount        *string `json:"amount"`
	DonationDate  *Date   `json:"donation_date"`
	PaymentMethod *string `json:"payment_method"`
	Purpose       *string `json:"purpose"`
}

// Validate checks only the fields present in the patch.
func (p *DonationPatch) Validate() error {
	errs := FieldErrors{}

	if p.SponsorID != nil && *p.SponsorID <= 0 {
		errs["sponsor_id"] = "must be a valid sponsor ID"
	}
	if p.Amount != nil {
		checkAmount(errs, "amount", *p.Amount)
	}
	if p.PaymentMethod != nil {
		requireString(errs, "payment_method", *p.PaymentMethod, 100)
	}
	if p.Purpose != nil {
		requireString(errs, "purpose", *p.Purpose, 0)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// UpdateDonation applies a partial update and returns the updated row.
func (s *Store) UpdateDonation(ctx context.Context, id int64, p *DonationPatch) (*Donation, error) {
	upd := &patch{}
	if p.SponsorID != nil {
		upd.set("sponsor_id", *p.SponsorID)
	}
	if p.Amount != nil {
		upd.set("amount", *p.Amount)
	}
	if p.DonationDate != nil {
		upd.set("donation_date", *p.DonationDate)
	}
	if p.PaymentMethod != nil {
		upd.set("payment_method", *p.PaymentMethod)
	}
	if p.Purpose != nil {
		upd.set("purpose", *p.Purpose)
	}

	if upd.empty() {
		return s.GetDonation(ctx, id)
	}

	setClause, args := upd.clause(id)
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(
		`UPDATE donations SET %s WHERE id = $%d`, setClause, len(args)), args...)
	if err != nil {
		if fkErr := foreignKeyError(err, "sponsor_id", "sponsor does not exist"); fkErr != err {
			return nil, fkErr
		}
		return nil, fmt.Errorf("failed to update donation %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return s.GetDonation(ctx, id)
}

// DeleteDonation removes a donation.
func (s *Store) DeleteDonation(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM donations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete donation %d: %w", id, err)
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
