// Command smile-setup prepares a fresh installation: it applies
// database migrations, seeds the role groups, and optionally creates
// the first superuser account.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/hopeworks/smile/pkg/identity"
	"github.com/hopeworks/smile/pkg/observability"
	"github.com/hopeworks/smile/pkg/records"
)

var (
	postgresURL = flag.String("postgres-url",
		getEnv("SMILE_POSTGRES_URL", "postgres://localhost/smile?sslmode=disable"),
		"PostgreSQL connection URL")
	username = flag.String("username", "",
		"Superuser account to create (skipped when empty)")
	email      = flag.String("email", "", "Superuser email address")
	password   = flag.String("password", os.Getenv("SMILE_SETUP_PASSWORD"), "Superuser password (or SMILE_SETUP_PASSWORD)")
	firstName  = flag.String("first-name", "", "Superuser first name")
	lastName   = flag.String("last-name", "", "Superuser last name")
	bcryptCost = flag.Int("bcrypt-cost", 12, "bcrypt cost for the superuser password")
)

func main() {
	flag.Parse()

	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)

	if err := run(logger); err != nil {
		logger.WithError(err).Error("Setup failed")
		os.Exit(1)
	}
	logger.Info("Setup complete")
}

func run(logger *observability.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := sql.Open("postgres", *postgresURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if err := records.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("Database migrations applied")

	store := identity.NewStore(db)
	if err := store.EnsureGroups(ctx,
		identity.GroupAdmin, identity.GroupManager, identity.GroupViewer); err != nil {
		return err
	}
	logger.Infof("Role groups ensured: %s, %s, %s",
		identity.GroupAdmin, identity.GroupManager, identity.GroupViewer)

	if *username == "" {
		logger.Info("No superuser requested, skipping account creation")
		return nil
	}
	return createSuperuser(ctx, store, logger)
}

func createSuperuser(ctx context.Context, store *identity.Store, logger *observability.Logger) error {
	if *password == "" {
		return fmt.Errorf("superuser password is required (use -password or SMILE_SETUP_PASSWORD)")
	}

	hash, err := identity.HashPassword(*password, *bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := store.CreateUser(ctx, &identity.User{
		Username:     *username,
		Email:        *email,
		FirstName:    *firstName,
		LastName:     *lastName,
		IsSuperuser:  true,
		IsActive:     true,
		PasswordHash: hash,
	})
	if err != nil {
		return err
	}

	logger.Infof("Created superuser %s (id %d)", user.Username, user.ID)
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
