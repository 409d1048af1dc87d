package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hopeworks/smile/pkg/identity"
)

// Issuer signs and verifies token pairs with an HMAC-SHA256 secret.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration

	// now is swappable for tests
	now func() time.Time
}

// NewIssuer creates a token issuer with the given secret and TTLs.
func NewIssuer(secret string, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// IssueTokenPair creates an access/refresh token pair for a user. The
// role is resolved from the user's live groups; users with no
// recognized role are refused with ErrRoleNotFound.
func (i *Issuer) IssueTokenPair(user *identity.User, groups []string) (*TokenPair, error) {
	role := identity.ResolveRole(user.IsSuperuser, groups)
	if role == identity.RoleNone {
		return nil, ErrRoleNotFound
	}

	access, err := i.sign(user, groups, role, TokenTypeAccess, i.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	refresh, err := i.sign(user, groups, role, TokenTypeRefresh, i.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return &TokenPair{Access: access, Refresh: refresh}, nil
}

func (i *Issuer) sign(user *identity.User, groups []string, role identity.Role, tokenType string, ttl time.Duration) (string, error) {
	now := i.now()
	claims := Claims{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      role,
		Groups:    groups,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// ParseAccessToken verifies an access token and returns its claims.
func (i *Issuer) ParseAccessToken(tokenString string) (*Claims, error) {
	return i.parse(tokenString, TokenTypeAccess)
}

// ParseRefreshToken verifies a refresh token and returns its claims.
func (i *Issuer) ParseRefreshToken(tokenString string) (*Claims, error) {
	return i.parse(tokenString, TokenTypeRefresh)
}

func (i *Issuer) parse(tokenString, wantType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != wantType {
		return nil, fmt.Errorf("%w: expected %s token, got %s", ErrInvalidToken, wantType, claims.TokenType)
	}
	return claims, nil
}
