package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func childRows() *sqlmock.Rows {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{"id", "first_name", "last_name", "gender",
		"birth_date", "status", "entry_date", "address", "guardian_name",
		"guardian_contact", "image_data", "reason", "created_at", "updated_at"}).
		AddRow(3, "Amina", "Okello", "Female",
			time.Date(2015, 3, 12, 0, 0, 0, 0, time.UTC), "Full",
			time.Date(2021, 1, 5, 0, 0, 0, 0, time.UTC), "Kampala",
			"Grace Okello", "+256-700-000000", nil, "Orphaned", now, now)
}

func TestUnauthenticatedRequestsGet401(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{"/api/children/", "/api/sponsors/", "/api/programs/"} {
		rec := f.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestManagerCannotDelete(t *testing.T) {
	f := newFixture(t)
	token := f.tokenFor(t, 7, false, "Manager")
	f.expectDirectoryLookup(7, false, "Manager")

	rec := f.do(http.MethodDelete, "/api/children/3/", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestManagerCanPatch(t *testing.T) {
	f := newFixture(t)
	token := f.tokenFor(t, 7, false, "Manager")
	f.expectDirectoryLookup(7, false, "Manager")

	f.mock.ExpectQuery(`UPDATE children SET status = \$1`).
		WithArgs("Half", int64(3)).
		WillReturnRows(childRows())

	rec := f.do(http.MethodPatch, "/api/children/3/", token, map[string]string{"status": "Half"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestAdminCanDelete(t *testing.T) {
	f := newFixture(t)
	token := f.tokenFor(t, 7, false, "Admin")
	f.expectDirectoryLookup(7, false, "Admin")

	f.mock.ExpectExec("DELETE FROM children").
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := f.do(http.MethodDelete, "/api/children/3/", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestViewerAccessMatrix(t *testing.T) {
	// Viewers read child summaries, child detail, programs and
	// enrollments; the raw children records stay off limits.
	f := newFixture(t)
	token := f.tokenFor(t, 7, false, "Viewer")
	f.expectDirectoryLookup(7, false, "Viewer")

	rec := f.do(http.MethodGet, "/api/children/", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodGet, "/api/sponsors/", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodGet, "/api/staffs/", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	f.mock.ExpectQuery("SELECT id, first_name, last_name FROM children").
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "last_name"}).
			AddRow(3, "Amina", "Okello"))
	rec = f.do(http.MethodGet, "/api/children-summary/", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	f.mock.ExpectQuery("SELECT id, title, description, location FROM programs").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "location"}))
	rec = f.do(http.MethodGet, "/api/programs/", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodPost, "/api/programs/", token, map[string]string{
		"title": "Literacy", "description": "x", "location": "y",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSuperuserBypassesRolePolicy(t *testing.T) {
	f := newFixture(t)
	token := f.tokenFor(t, 7, true)
	f.expectDirectoryLookup(7, true)

	f.mock.ExpectExec("DELETE FROM children").
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := f.do(http.MethodDelete, "/api/children/3/", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestGetChildNotFoundIs404(t *testing.T) {
	f := newFixture(t)
	token := f.tokenFor(t, 7, false, "Admin")
	f.expectDirectoryLookup(7, false, "Admin")

	f.mock.ExpectQuery("SELECT (.+) FROM children WHERE id").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rec := f.do(http.MethodGet, "/api/children/99/", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateChildValidationErrors(t *testing.T) {
	f := newFixture(t)
	token := f.tokenFor(t, 7, false, "Manager")
	f.expectDirectoryLookup(7, false, "Manager")

	rec := f.do(http.MethodPost, "/api/children/", token, map[string]string{
		"first_name": "Amina",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "validation failed", body["error"])
	fields, ok := body["fields"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, fields, "last_name")
	assert.Contains(t, fields, "gender")
	assert.Contains(t, fields, "birth_date")
}

func TestCreateDonationUnknownSponsorIs400(t *testing.T) {
	f := newFixture(t)
	token := f.tokenFor(t, 7, false, "Manager")
	f.expectDirectoryLookup(7, false, "Manager")

	f.mock.ExpectQuery("INSERT INTO donations").
		WillReturnError(&pq.Error{Code: "23503"})

	rec := f.do(http.MethodPost, "/api/donations/", token, map[string]interface{}{
		"sponsor_id":     42,
		"amount":         "100.00",
		"donation_date":  "2024-05-01",
		"payment_method": "Cash",
		"purpose":        "General",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	fields, ok := body["fields"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, fields, "sponsor_id")
}

func TestTrailingSlashTolerance(t *testing.T) {
	f := newFixture(t)
	token := f.tokenFor(t, 7, false, "Manager")

	rec := f.do(http.MethodGet, "/api/programs", token, nil)
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
}

func TestListChildrenReturnsEmptyArray(t *testing.T) {
	f := newFixture(t)
	token := f.tokenFor(t, 7, false, "Manager")
	f.expectDirectoryLookup(7, false, "Manager")

	f.mock.ExpectQuery("SELECT (.+) FROM children ORDER BY id").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rec := f.do(http.MethodGet, "/api/children/", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}
