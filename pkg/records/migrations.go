package records

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns all schema migrations in order.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create users and groups tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS users (
					id BIGSERIAL PRIMARY KEY,
					username VARCHAR(150) NOT NULL UNIQUE,
					email VARCHAR(254) NOT NULL DEFAULT '',
					first_name VARCHAR(150) NOT NULL DEFAULT '',
					last_name VARCHAR(150) NOT NULL DEFAULT '',
					is_superuser BOOLEAN NOT NULL DEFAULT FALSE,
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					password_hash VARCHAR(255) NOT NULL,
					date_joined TIMESTAMP NOT NULL DEFAULT NOW(),
					last_login TIMESTAMP
				);

				CREATE TABLE IF NOT EXISTS groups (
					id BIGSERIAL PRIMARY KEY,
					name VARCHAR(150) NOT NULL UNIQUE
				);

				CREATE TABLE IF NOT EXISTS user_groups (
					user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					group_id BIGINT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
					PRIMARY KEY (user_id, group_id)
				);

				CREATE INDEX idx_user_groups_user_id ON user_groups(user_id);
				CREATE INDEX idx_user_groups_group_id ON user_groups(group_id);
			`,
		},
		{
			Version:     2,
			Description: "Create children table",
			SQL: `
				CREATE TABLE IF NOT EXISTS children (
					id BIGSERIAL PRIMARY KEY,
					first_name VARCHAR(100) NOT NULL,
					last_name VARCHAR(100) NOT NULL,
					gender VARCHAR(10) NOT NULL,
					birth_date DATE NOT NULL,
					status VARCHAR(20) NOT NULL DEFAULT 'Full',
					entry_date DATE NOT NULL,
					address TEXT NOT NULL DEFAULT '',
					guardian_name VARCHAR(100) NOT NULL,
					guardian_contact VARCHAR(100) NOT NULL,
					image_data VARCHAR(255),
					reason VARCHAR(100) NOT NULL,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_children_status ON children(status);
				CREATE INDEX idx_children_last_name ON children(last_name);
			`,
		},
		{
			Version:     3,
			Description: "Create sponsors and donations tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS sponsors (
					id BIGSERIAL PRIMARY KEY,
					name VARCHAR(200) NOT NULL,
					email VARCHAR(254) NOT NULL,
					phone VARCHAR(20) NOT NULL,
					address TEXT NOT NULL,
					sponsor_type VARCHAR(50) NOT NULL,
					preferred_contact VARCHAR(20) NOT NULL
				);

				CREATE TABLE IF NOT EXISTS donations (
					id BIGSERIAL PRIMARY KEY,
					sponsor_id BIGINT NOT NULL REFERENCES sponsors(id) ON DELETE CASCADE,
					amount NUMERIC(10,2) NOT NULL,
					donation_date DATE NOT NULL,
					payment_method VARCHAR(100) NOT NULL,
					purpose TEXT NOT NULL
				);

				CREATE INDEX idx_donations_sponsor_id ON donations(sponsor_id);
				CREATE INDEX idx_donations_donation_date ON donations(donation_date);
			`,
		},
		{
			Version:     4,
			Description: "Create programs and child_programs tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS programs (
					id BIGSERIAL PRIMARY KEY,
					title VARCHAR(100) NOT NULL,
					description TEXT NOT NULL,
					location TEXT NOT NULL
				);

				CREATE TABLE IF NOT EXISTS child_programs (
					id BIGSERIAL PRIMARY KEY,
					child_id BIGINT NOT NULL REFERENCES children(id) ON DELETE CASCADE,
					program_id BIGINT NOT NULL REFERENCES programs(id) ON DELETE CASCADE,
					level VARCHAR(100) NOT NULL,
					assesment BYTEA,
					location TEXT NOT NULL,
					start_date DATE NOT NULL,
					end_date DATE NOT NULL,
					fees_per_term NUMERIC(10,2) NOT NULL
				);

				CREATE INDEX idx_child_programs_child_id ON child_programs(child_id);
				CREATE INDEX idx_child_programs_program_id ON child_programs(program_id);
			`,
		},
		{
			Version:     5,
			Description: "Create staff table",
			SQL: `
				CREATE TABLE IF NOT EXISTS staff (
					id BIGSERIAL PRIMARY KEY,
					user_id BIGINT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
					position VARCHAR(100) NOT NULL,
					is_volunteer BOOLEAN NOT NULL DEFAULT FALSE,
					phone VARCHAR(20) NOT NULL,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW()
				);
			`,
		},
		{
			Version:     6,
			Description: "Create audit_logs table",
			SQL: `
				CREATE TABLE IF NOT EXISTS audit_logs (
					id BIGSERIAL PRIMARY KEY,
					event_type VARCHAR(100) NOT NULL,
					username VARCHAR(150) NOT NULL DEFAULT '',
					resource VARCHAR(100),
					method VARCHAR(10),
					path VARCHAR(255),
					remote_ip VARCHAR(64),
					detail JSONB,
					created_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_audit_logs_created_at ON audit_logs(created_at);
				CREATE INDEX idx_audit_logs_event_type ON audit_logs(event_type);
				CREATE INDEX idx_audit_logs_username ON audit_logs(username);
			`,
		},
	}
}

// RunMigrations executes all pending migrations
func RunMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}

	appliedVersions := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		appliedVersions[version] = true
	}
	rows.Close()

	for _, migration := range GetMigrations() {
		if appliedVersions[migration.Version] {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}

		if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, description) VALUES ($1, $2)",
			migration.Version, migration.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
