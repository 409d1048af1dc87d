// Package auth issues and verifies the JWT access/refresh token pairs
// used by the API.
package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hopeworks/smile/pkg/identity"
)

// Token types embedded in claims so a refresh token cannot be used as
// an access token and vice versa.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// ErrRoleNotFound is returned when a user authenticates successfully
// but belongs to no recognized group. Such users cannot obtain tokens.
var ErrRoleNotFound = errors.New("user role not found")

// ErrInvalidToken is returned when a token fails parsing, signature
// verification, or type checking.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the JWT claims carried by both token types. Role and
// Groups are informational for clients; the server re-resolves the
// role from live group membership on every request.
type Claims struct {
	UserID    int64         `json:"user_id"`
	Username  string        `json:"username"`
	Role      identity.Role `json:"role"`
	Groups    []string      `json:"groups"`
	TokenType string        `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}
