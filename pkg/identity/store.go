package identity

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// Store provides database access to users and groups.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store backed by the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// GetUserByUsername looks up an active user by username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, email, first_name, last_name,
		       is_superuser, is_active, password_hash, date_joined, last_login
		FROM users
		WHERE username = $1
	`, username).Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName,
		&u.IsSuperuser, &u.IsActive, &u.PasswordHash, &u.DateJoined, &u.LastLogin)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", username, err)
	}
	return &u, nil
}

// GetUserByID looks up a user by primary key.
func (s *Store) GetUserByID(ctx context.Context, id int64) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, email, first_name, last_name,
		       is_superuser, is_active, password_hash, date_joined, last_login
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName,
		&u.IsSuperuser, &u.IsActive, &u.PasswordHash, &u.DateJoined, &u.LastLogin)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return &u, nil
}

// ListUsers returns all users ordered by username.
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, email, first_name, last_name,
		       is_superuser, is_active, password_hash, date_joined, last_login
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName,
			&u.IsSuperuser, &u.IsActive, &u.PasswordHash, &u.DateJoined, &u.LastLogin); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetUserGroups returns the names of the groups the user belongs to.
func (s *Store) GetUserGroups(ctx context.Context, userID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT g.name
		FROM groups g
		JOIN user_groups ug ON ug.group_id = g.id
		WHERE ug.user_id = $1
		ORDER BY g.name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get groups for user %d: %w", userID, err)
	}
	defer rows.Close()

	var groups []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan group name: %w", err)
		}
		groups = append(groups, name)
	}
	return groups, rows.Err()
}

// CreateUser inserts a new user and returns it with its assigned ID.
func (s *Store) CreateUser(ctx context.Context, u *User) (*User, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (username, email, first_name, last_name, is_superuser, is_active, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, date_joined
	`, u.Username, u.Email, u.FirstName, u.LastName, u.IsSuperuser, u.IsActive, u.PasswordHash).
		Scan(&u.ID, &u.DateJoined)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, fmt.Errorf("username %s already exists", u.Username)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

// SetSuperuser updates a user's superuser flag.
func (s *Store) SetSuperuser(ctx context.Context, userID int64, isSuperuser bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET is_superuser = $1 WHERE id = $2`, isSuperuser, userID)
	if err != nil {
		return fmt.Errorf("failed to update superuser flag: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// RecordLogin stamps the user's last_login to now.
func (s *Store) RecordLogin(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET last_login = NOW() WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}
	return nil
}

// EnsureGroups creates the given groups if they do not already exist.
func (s *Store) EnsureGroups(ctx context.Context, names ...string) error {
	for _, name := range names {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO groups (name) VALUES ($1)
			ON CONFLICT (name) DO NOTHING
		`, name)
		if err != nil {
			return fmt.Errorf("failed to ensure group %s: %w", name, err)
		}
	}
	return nil
}

// AddUserToGroup adds a user to a named group. Adding twice is a no-op.
func (s *Store) AddUserToGroup(ctx context.Context, userID int64, groupName string) error {
	var groupID int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM groups WHERE name = $1`, groupName).Scan(&groupID)
	if err == sql.ErrNoRows {
		return ErrGroupNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up group %s: %w", groupName, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_groups (user_id, group_id) VALUES ($1, $2)
		ON CONFLICT (user_id, group_id) DO NOTHING
	`, userID, groupID)
	if err != nil {
		return fmt.Errorf("failed to add user %d to group %s: %w", userID, groupName, err)
	}
	return nil
}

// RemoveUserFromGroup removes a user from a named group.
func (s *Store) RemoveUserFromGroup(ctx context.Context, userID int64, groupName string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM user_groups
		WHERE user_id = $1
		  AND group_id = (SELECT id FROM groups WHERE name = $2)
	`, userID, groupName)
	if err != nil {
		return fmt.Errorf("failed to remove user %d from group %s: %w", userID, groupName, err)
	}
	return nil
}

// ListGroups returns all groups ordered by name.
func (s *Store) ListGroups(ctx context.Context) ([]Group, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM groups ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}
