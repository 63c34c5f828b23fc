package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/fooddash/api/internal/config"
	"github.com/fooddash/api/internal/logging"
	"github.com/fooddash/api/internal/storage/postgres"
	"github.com/fooddash/api/migrations"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create or update the admin account from ADMIN_IDENTIFIER and ADMIN_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed()
		},
	}
}

func runSeed() error {
	ctx := context.Background()
	logger := logging.NewDefault()
	cfg := config.Load(ctx, logger)

	if cfg.AdminIdentifier == "" || cfg.AdminSecret == "" {
		return fmt.Errorf("ADMIN_IDENTIFIER and ADMIN_SECRET must be set")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to db: %w", err)
	}
	defer pool.Close()

	if err := migrations.Apply(ctx, pool); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	users := postgres.NewUserRepository(pool)
	if err := users.EnsureAdmin(ctx, uuid.NewString(), cfg.AdminIdentifier, cfg.AdminSecret); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	logger.Info(ctx, "admin account ready", "identifier", cfg.AdminIdentifier)
	return nil
}
