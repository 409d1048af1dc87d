package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/hopeworks/smile/pkg/audit"
	"github.com/hopeworks/smile/pkg/auth"
	"github.com/hopeworks/smile/pkg/identity"
	"github.com/hopeworks/smile/pkg/observability"
	"github.com/hopeworks/smile/pkg/records"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fixture struct {
	server *Server
	issuer *auth.Issuer
	mock   sqlmock.Sqlmock
}

func newFixture(t *testing.T) *fixture {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	issuer := auth.NewIssuer(testSecret, 30*time.Minute, 7*24*time.Hour)
	identityStore := identity.NewStore(db)
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)

	server := NewServer(Deps{
		Logger:    logger,
		Issuer:    issuer,
		Identity:  identityStore,
		Directory: identity.NewCachedDirectory(identityStore, 0),
		Records:   records.NewStore(db),
		Audit:     audit.NopLogger{},
	})
	return &fixture{server: server, issuer: issuer, mock: mock}
}

func userColumns() []string {
	return []string{"id", "username", "email", "first_name", "last_name",
		"is_superuser", "is_active", "password_hash", "date_joined", "last_login"}
}

// expectDirectoryLookup mocks the live user+groups load done by the
// auth middleware. The directory caches the result, so expect one
// lookup per user per fixture.
func (f *fixture) expectDirectoryLookup(userID int64, superuser bool, groups ...string) {
	joined := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	f.mock.ExpectQuery("SELECT id, username, email").
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow(userID, "mwilson", "mwilson@example.org", "Mary", "Wilson",
				superuser, true, "$2a$12$hash", joined, nil))
	rows := sqlmock.NewRows([]string{"name"})
	for _, g := range groups {
		rows.AddRow(g)
	}
	f.mock.ExpectQuery("SELECT g.name").WithArgs(userID).WillReturnRows(rows)
}

// tokenFor issues an access token for a user in the given groups.
func (f *fixture) tokenFor(t *testing.T, userID int64, superuser bool, groups ...string) string {
	user := &identity.User{ID: userID, Username: "mwilson", IsSuperuser: superuser}
	pair, err := f.issuer.IssueTokenPair(user, groups)
	require.NoError(t, err)
	return pair.Access
}

func (f *fixture) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}
