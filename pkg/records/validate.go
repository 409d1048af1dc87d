package records

import (
	"fmt"
	"regexp"
	"strings"
)

// FieldErrors maps field names to validation messages.
type FieldErrors map[string]string

// Error implements error.
func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for field, msg := range e {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	// NUMERIC(10,2): up to 8 integer digits plus an optional 2-place
	// decimal fraction.
	amountPattern = regexp.MustCompile(`^\d{1,8}(\.\d{1,2})?$`)
)

func requireString(errs FieldErrors, field, value string, maxLen int) {
	if value == "" {
		errs[field] = "this field is required"
		return
	}
	if maxLen > 0 && len(value) > maxLen {
		errs[field] = fmt.Sprintf("must be at most %d characters", maxLen)
	}
}

func checkAmount(errs FieldErrors, field, value string) {
	if value == "" {
		errs[field] = "this field is required"
		return
	}
	if !amountPattern.MatchString(value) {
		errs[field] = "must be a decimal with at most 10 digits and 2 decimal places"
	}
}

// Validate checks a child record for creation or full update.
func (c *Child) Validate() error {
	errs := FieldErrors{}

	requireString(errs, "first_name", c.FirstName, 100)
	requireString(errs, "last_name", c.LastName, 100)
	requireString(errs, "guardian_name", c.GuardianName, 100)
	requireString(errs, "guardian_contact", c.GuardianContact, 100)
	requireString(errs, "reason", c.Reason, 100)

	switch c.Gender {
	case GenderMale, GenderFemale:
	case "":
		errs["gender"] = "this field is required"
	default:
		errs["gender"] = "must be one of: Male, Female"
	}

	switch c.Status {
	case StatusFull, StatusHalf, StatusInactive:
	case "":
		// Status defaults to Full when omitted.
		c.Status = StatusFull
	default:
		errs["status"] = "must be one of: Full, Half, Inactive"
	}

	if c.BirthDate.IsZero() {
		errs["birth_date"] = "this field is required"
	}
	if c.EntryDate.IsZero() {
		errs["entry_date"] = "this field is required"
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Validate checks a sponsor record.
func (s *Sponsor) Validate() error {
	errs := FieldErrors{}

	requireString(errs, "name", s.Name, 200)
	requireString(errs, "phone", s.Phone, 20)
	requireString(errs, "address", s.Address, 0)
	requireString(errs, "sponsor_type", s.SponsorType, 50)
	requireString(errs, "preferred_contact", s.PreferredContact, 20)

	if s.Email == "" {
		errs["email"] = "this field is required"
	} else if !emailPattern.MatchString(s.Email) {
		errs["email"] = "must be a valid email address"
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Validate checks a donation record.
func (d *Donation) Validate() error {
	errs := FieldErrors{}

	if d.SponsorID <= 0 {
		errs["sponsor_id"] = "this field is required"
	}
	checkAmount(errs, "amount", d.Amount)
	requireString(errs, "payment_method", d.PaymentMethod, 100)
	requireString(errs, "purpose", d.Purpose, 0)
	if d.DonationDate.IsZero() {
		errs["donation_date"] = "this field is required"
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Validate checks a program record.
func (p *Program) Validate() error {
	errs := FieldErrors{}

	requireString(errs, "title", p.Title, 100)
	requireString(errs, "description", p.Description, 0)
	requireString(errs, "location", p.Location, 0)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Validate checks a program enrollment.
func (cp *ChildProgram) Validate() error {
	errs := FieldErrors{}

	if cp.ChildID <= 0 {
		errs["child_id"] = "this field is required"
	}
	if cp.ProgramID <= 0 {
		errs["program_id"] = "this field is required"
	}
	requireString(errs, "level", cp.Level, 100)
	requireString(errs, "location", cp.Location, 0)
	checkAmount(errs, "fees_per_term", cp.FeesPerTerm)

	if cp.StartDate.IsZero() {
		errs["start_date"] = "this field is required"
	}
	if cp.EndDate.IsZero() {
		errs["end_date"] = "this field is required"
	}
	if !cp.StartDate.IsZero() && !cp.EndDate.IsZero() && cp.EndDate.Before(cp.StartDate.Time) {
		errs["end_date"] = "must not be before start_date"
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Validate checks a staff profile.
func (s *Staff) Validate() error {
	errs := FieldErrors{}

	if s.UserID <= 0 {
		errs["name_id"] = "this field is required"
	}
	requireString(errs, "position", s.Position, 100)
	requireString(errs, "phone", s.Phone, 20)

	if len(errs) > 0 {
		return errs
	}
	return nil
}
