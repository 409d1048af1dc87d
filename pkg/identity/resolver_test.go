package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveRole(t *testing.T) {
	tests := []struct {
		name        string
		isSuperuser bool
		groups      []string
		expected    Role
	}{
		{
			name:        "superuser is always admin",
			isSuperuser: true,
			groups:      nil,
			expected:    RoleAdmin,
		},
		{
			name:        "superuser outranks viewer group",
			isSuperuser: true,
			groups:      []string{"Viewer"},
			expected:    RoleAdmin,
		},
		{
			name:     "admin group",
			groups:   []string{"Admin"},
			expected: RoleAdmin,
		},
		{
			name:     "manager group",
			groups:   []string{"Manager"},
			expected: RoleManager,
		},
		{
			name:     "viewer group",
			groups:   []string{"Viewer"},
			expected: RoleViewer,
		},
		{
			name:     "group matching is case-insensitive",
			groups:   []string{"VIEWER"},
			expected: RoleViewer,
		},
		{
			name:     "lowercase admin",
			groups:   []string{"admin"},
			expected: RoleAdmin,
		},
		{
			name:     "most privileged of multiple groups wins",
			groups:   []string{"Viewer", "Manager"},
			expected: RoleManager,
		},
		{
			name:     "admin wins regardless of order",
			groups:   []string{"Viewer", "Admin", "Manager"},
			expected: RoleAdmin,
		},
		{
			name:     "no groups means no role",
			groups:   nil,
			expected: RoleNone,
		},
		{
			name:     "unrecognized groups are ignored",
			groups:   []string{"Accounting", "Outreach"},
			expected: RoleNone,
		},
		{
			name:     "recognized group among unrecognized ones",
			groups:   []string{"Accounting", "Manager"},
			expected: RoleManager,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveRole(tt.isSuperuser, tt.groups))
		})
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-password", 4)
	assert.NoError(t, err)
	assert.NotEqual(t, "s3cret-password", hash)

	assert.True(t, CheckPassword(hash, "s3cret-password"))
	assert.False(t, CheckPassword(hash, "wrong-password"))
	assert.False(t, CheckPassword("not-a-hash", "s3cret-password"))
}
