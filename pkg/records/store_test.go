package records

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func childRowColumns() []string {
	return []string{"id", "first_name", "last_name", "gender", "birth_date", "status",
		"entry_date", "address", "guardian_name", "guardian_contact", "image_data",
		"reason", "created_at", "updated_at"}
}

func childRow(id int64) *sqlmock.Rows {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(childRowColumns()).
		AddRow(id, "Amina", "Okello", "Female",
			time.Date(2015, 3, 12, 0, 0, 0, 0, time.UTC), "Full",
			time.Date(2021, 1, 5, 0, 0, 0, 0, time.UTC), "Kampala",
			"Grace Okello", "+256-700-000000", nil, "Orphaned", now, now)
}

func TestCreateChild(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO children").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(3, now, now))

	c := validChild()
	created, err := store.CreateChild(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, int64(3), created.ID)
	assert.Equal(t, now, created.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetChildNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)

	mock.ExpectQuery("SELECT (.+) FROM children WHERE id").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(childRowColumns()))

	_, err = store.GetChild(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateChildPartial(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)

	// Only the status column appears in the SET list; updated_at is
	// always refreshed.
	mock.ExpectQuery(`UPDATE children SET status = \$1, updated_at = NOW\(\)`).
		WithArgs("Half", int64(3)).
		WillReturnRows(childRow(3))

	status := "Half"
	updated, err := store.UpdateChild(context.Background(), 3, &ChildPatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, int64(3), updated.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateChildEmptyPatchReadsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)

	mock.ExpectQuery("SELECT (.+) FROM children WHERE id").
		WithArgs(int64(3)).
		WillReturnRows(childRow(3))

	updated, err := store.UpdateChild(context.Background(), 3, &ChildPatch{})
	require.NoError(t, err)
	assert.Equal(t, "Amina", updated.FirstName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteChildNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)

	mock.ExpectExec("DELETE FROM children").
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = store.DeleteChild(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDonationUnknownSponsor(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)

	mock.ExpectQuery("INSERT INTO donations").
		WillReturnError(&pq.Error{Code: "23503"})

	d := &Donation{
		SponsorID:     42,
		Amount:        "100.00",
		DonationDate:  NewDate(2024, time.May, 1),
		PaymentMethod: "Cash",
		Purpose:       "General",
	}
	_, err = store.CreateDonation(context.Background(), d)
	require.Error(t, err)

	fields, ok := err.(FieldErrors)
	require.True(t, ok, "foreign key violation should map to a field error")
	assert.Contains(t, fields, "sponsor_id")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetChildDetail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)

	mock.ExpectQuery("SELECT (.+) FROM children WHERE id").
		WithArgs(int64(3)).
		WillReturnRows(childRow(3))
	mock.ExpectQuery("FROM child_programs cp").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "child_id", "program_id", "level", "assesment", "location",
			"start_date", "end_date", "fees_per_term",
			"p_id", "title", "description", "p_location"}).
			AddRow(10, 3, 2, "Primary 3", nil, "Main campus",
				time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2024, 11, 30, 0, 0, 0, 0, time.UTC),
				"250.00", 2, "Literacy", "Reading program", "Main campus"))

	detail, err := store.GetChildDetail(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Amina", detail.FirstName)
	require.Len(t, detail.ChildPrograms, 1)
	assert.Equal(t, "Literacy", detail.ChildPrograms[0].Program.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}
