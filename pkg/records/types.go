// Package records holds the program's domain data: children, sponsors,
// donations, programs, enrollments, and staff profiles.
package records

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a record lookup matches no row.
var ErrNotFound = errors.New("record not found")

// Date is a calendar date serialized as "YYYY-MM-DD" in JSON and stored
// as a DATE column.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// NewDate builds a Date at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		return errors.New("date must not be empty")
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	d.Time = t
	return nil
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	return d.Time, nil
}

// Scan implements sql.Scanner.
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		d.Time = v
		return nil
	case []byte:
		t, err := time.Parse(dateLayout, string(v))
		if err != nil {
			return err
		}
		d.Time = t
		return nil
	case nil:
		d.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

// Child gender values.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)

// Child sponsorship status values. "Inactive" marks children who have
// exited the program.
const (
	StatusFull     = "Full"
	StatusHalf     = "Half"
	StatusInactive = "Inactive"
)

// Child is a sponsored child's record.
type Child struct {
	ID              int64     `json:"id"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Gender          string    `json:"gender"`
	BirthDate       Date      `json:"birth_date"`
	Status          string    `json:"status"`
	EntryDate       Date      `json:"entry_date"`
	Address         string    `json:"address"`
	GuardianName    string    `json:"guardian_name"`
	GuardianContact string    `json:"guardian_contact"`
	ImageData       *string   `json:"image_data"`
	Reason          string    `json:"reason"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ChildSummary is the reduced listing used by the summary view.
type ChildSummary struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// ChildDetail is a child with its program enrollments attached.
type ChildDetail struct {
	Child
	ChildPrograms []ChildProgram `json:"childprogram"`
	Photo         *string        `json:"photo"`
}

// Sponsor is a donor sponsoring one or more children.
type Sponsor struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	Address          string `json:"address"`
	SponsorType      string `json:"sponsor_type"`
	PreferredContact string `json:"preferred_contact"`
}

// Donation records a payment by a sponsor. Amount is a decimal string
// with at most 10 digits and 2 decimal places, stored as NUMERIC.
type Donation struct {
	ID            int64    `json:"id"`
	SponsorID     int64    `json:"sponsor_id"`
	Sponsor       *Sponsor `json:"sponsor,omitempty"`
	Amount        string   `json:"amount"`
	DonationDate  Date     `json:"donation_date"`
	PaymentMethod string   `json:"payment_method"`
	Purpose       string   `json:"purpose"`
}

// Program is an activity children can be enrolled in.
type Program struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

// ChildProgram enrolls a child in a program.
type ChildProgram struct {
	ID          int64    `json:"id"`
	ChildID     int64    `json:"child_id"`
	ProgramID   int64    `json:"program_id"`
	Child       *Child   `json:"child,omitempty"`
	Program     *Program `json:"program,omitempty"`
	Level       string   `json:"level"`
	Assesment   []byte   `json:"assesment"`
	Location    string   `json:"location"`
	StartDate   Date     `json:"start_date"`
	EndDate     Date     `json:"end_date"`
	FeesPerTerm string   `json:"fees_per_term"`
}

// Staff is an employee or volunteer profile linked to a user account.
type Staff struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"name_id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Groups      []string  `json:"groups"`
	Position    string    `json:"position"`
	IsVolunteer bool      `json:"is_volunteer"`
	Phone       string    `json:"phone"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"-"`
}
