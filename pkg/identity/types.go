// Package identity manages user accounts, group membership, and the
// role model that governs access to program records.
package identity

import (
	"errors"
	"time"
)

// Role is the effective access level of a user, derived from group
// membership at request time.
type Role string

const (
	// RoleNone means the user belongs to no recognized group.
	RoleNone Role = ""
	// RoleViewer grants read-only access to child-facing views.
	RoleViewer Role = "viewer"
	// RoleManager grants full access except deletion.
	RoleManager Role = "manager"
	// RoleAdmin grants unrestricted access.
	RoleAdmin Role = "admin"
)

// Group names recognized by the role resolver. Matching is
// case-insensitive.
const (
	GroupAdmin   = "Admin"
	GroupManager = "Manager"
	GroupViewer  = "Viewer"
)

// ErrUserNotFound is returned when a user lookup matches no row.
var ErrUserNotFound = errors.New("user not found")

// ErrGroupNotFound is returned when a group lookup matches no row.
var ErrGroupNotFound = errors.New("group not found")

// User is an account in the staff/user directory.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	IsSuperuser  bool      `json:"is_superuser"`
	IsActive     bool      `json:"is_active"`
	PasswordHash string    `json:"-"`
	DateJoined   time.Time `json:"date_joined"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// Group is a named collection of users used for role assignment.
type Group struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Principal is the authenticated caller attached to a request context.
// Role and Groups reflect live database state, not token claims.
type Principal struct {
	UserID      int64
	Username    string
	IsSuperuser bool
	Groups      []string
	Role        Role
}
