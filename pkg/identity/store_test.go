package identity

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userColumns() []string {
	return []string{"id", "username", "email", "first_name", "last_name",
		"is_superuser", "is_active", "password_hash", "date_joined", "last_login"}
}

func TestGetUserByUsername(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)
	joined := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT id, username, email").
		WithArgs("mwilson").
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow(7, "mwilson", "mwilson@example.org", "Mary", "Wilson",
				false, true, "$2a$12$hash", joined, nil))

	user, err := store.GetUserByUsername(context.Background(), "mwilson")
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, "mwilson", user.Username)
	assert.False(t, user.IsSuperuser)
	assert.Nil(t, user.LastLogin)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByUsernameNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)

	mock.ExpectQuery("SELECT id, username, email").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(userColumns()))

	_, err = store.GetUserByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserGroups(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)

	mock.ExpectQuery("SELECT g.name").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).
			AddRow("Manager").
			AddRow("Viewer"))

	groups, err := store.GetUserGroups(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"Manager", "Viewer"}, groups)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddUserToGroupUnknownGroup(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)

	mock.ExpectQuery("SELECT id FROM groups").
		WithArgs("Nonexistent").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	err = store.AddUserToGroup(context.Background(), 7, "Nonexistent")
	assert.ErrorIs(t, err, ErrGroupNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetSuperuserNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)

	mock.ExpectExec("UPDATE users SET is_superuser").
		WithArgs(true, int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = store.SetSuperuser(context.Background(), 99, true)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedDirectoryHitsDatabaseOnce(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)
	dir := NewCachedDirectory(store, time.Minute)
	joined := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT id, username, email").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow(7, "mwilson", "mwilson@example.org", "Mary", "Wilson",
				false, true, "$2a$12$hash", joined, nil))
	mock.ExpectQuery("SELECT g.name").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Manager"))

	user, groups, err := dir.Lookup(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "mwilson", user.Username)
	assert.Equal(t, []string{"Manager"}, groups)

	// Second lookup served from cache; no additional expectations set.
	user, groups, err = dir.Lookup(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "mwilson", user.Username)
	assert.Equal(t, []string{"Manager"}, groups)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedDirectoryInvalidate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewStore(db)
	dir := NewCachedDirectory(store, time.Minute)
	joined := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	for range 2 {
		mock.ExpectQuery("SELECT id, username, email").
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows(userColumns()).
				AddRow(7, "mwilson", "mwilson@example.org", "Mary", "Wilson",
					false, true, "$2a$12$hash", joined, nil))
		mock.ExpectQuery("SELECT g.name").
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Manager"))
	}

	_, _, err = dir.Lookup(context.Background(), 7)
	require.NoError(t, err)

	dir.Invalidate(7)

	_, _, err = dir.Lookup(context.Background(), 7)
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}
