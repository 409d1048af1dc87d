package records

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsAreOrderedAndUnique(t *testing.T) {
	migrations := GetMigrations()
	require.NotEmpty(t, migrations)

	seen := map[int]bool{}
	prev := 0
	for _, m := range migrations {
		assert.Greater(t, m.Version, prev, "versions must be ascending")
		assert.False(t, seen[m.Version], "duplicate version %d", m.Version)
		assert.NotEmpty(t, m.Description)
		assert.NotEmpty(t, m.SQL)
		seen[m.Version] = true
		prev = m.Version
	}
}

func allMigrationSQL() string {
	var b strings.Builder
	for _, m := range GetMigrations() {
		b.WriteString(m.SQL)
	}
	return b.String()
}

func TestChildDeletionCascadesToEnrollments(t *testing.T) {
	ddl := allMigrationSQL()
	assert.Contains(t, ddl, "child_id BIGINT NOT NULL REFERENCES children(id) ON DELETE CASCADE")
	assert.Contains(t, ddl, "program_id BIGINT NOT NULL REFERENCES programs(id) ON DELETE CASCADE")
}

func TestSponsorDeletionCascadesToDonations(t *testing.T) {
	ddl := allMigrationSQL()
	assert.Contains(t, ddl, "sponsor_id BIGINT NOT NULL REFERENCES sponsors(id) ON DELETE CASCADE")
}

func TestUserDeletionCascadesToStaffAndMemberships(t *testing.T) {
	ddl := allMigrationSQL()
	assert.Contains(t, ddl, "user_id BIGINT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE")
	assert.Contains(t, ddl, "user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE")
}

func TestMoneyColumnsUseNumeric(t *testing.T) {
	ddl := allMigrationSQL()
	assert.Contains(t, ddl, "amount NUMERIC(10,2) NOT NULL")
	assert.Contains(t, ddl, "fees_per_term NUMERIC(10,2) NOT NULL")
}
