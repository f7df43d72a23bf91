// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AssoConnect Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/hactazia/assoconnect/internal/auth"
	authpg "github.com/hactazia/assoconnect/internal/auth/postgres"
	"github.com/hactazia/assoconnect/internal/config"
	"github.com/hactazia/assoconnect/internal/store"
)

// Default timeout for seed command.
const defaultSeedTimeout = 30 * time.Second

// seedConfig holds configuration for the seed command.
type seedConfig struct {
	name     string
	display  string
	email    string
	password string
	timeout  time.Duration
}

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd() *cobra.Command {
	cfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the initial admin user",
		Long: `Creates the initial admin account. Registration requires an
invitation from an existing user, so a fresh database needs this bootstrap.
This command is idempotent - it will not create duplicates if run multiple times.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.name, "name", "admin", "admin login name")
	cmd.Flags().StringVar(&cfg.display, "display", "Administrator", "admin display name")
	cmd.Flags().StringVar(&cfg.email, "email", "", "admin email address")
	cmd.Flags().StringVar(&cfg.password, "password", "", "admin password (or ADMIN_PASSWORD env)")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")

	return cmd
}

func runSeed(cmd *cobra.Command, cfg *seedConfig) error {
	appCfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}
	if appCfg.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.url (or DATABASE_URL) is required")
	}

	password := cfg.password
	if password == "" {
		password = os.Getenv("ADMIN_PASSWORD")
	}
	if password == "" {
		return oops.Code("CONFIG_INVALID").Errorf("--password flag or ADMIN_PASSWORD environment variable is required")
	}
	if cfg.email == "" {
		return oops.Code("CONFIG_INVALID").Errorf("--email flag is required")
	}

	// Add timeout to prevent indefinite hangs.
	// Use cmd.Context() to respect SIGINT/SIGTERM signals.
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.timeout)
	defer cancel()

	cmd.Println("Connecting to database...")
	pool, err := store.Connect(ctx, appCfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	hasher := auth.NewPBKDF2Hasher()
	passwordHash, err := hasher.Hash(password)
	if err != nil {
		return err
	}

	admin, err := auth.NewUser(cfg.name, cfg.display, cfg.email, passwordHash, auth.RoleAdmin)
	if err != nil {
		return err
	}

	users := authpg.NewUserRepository(pool)
	if err := users.Create(ctx, admin); err != nil {
		// A previous run already created the account.
		if oopsErr, ok := oops.AsOops(err); ok && oopsErr.Code() == "USER_ALREADY_EXISTS" {
			cmd.Println("Admin user already exists, skipping seed")
			slog.Info("database already seeded", "name", cfg.name)
			return nil
		}
		return oops.Code("SEED_FAILED").With("operation", "create admin user").Wrap(err)
	}

	cmd.Println("Created admin user: " + cfg.name)
	slog.Info("created admin user", "id", admin.ID.String(), "name", admin.Name)
	return nil
}
