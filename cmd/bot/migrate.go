package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aliskhannn/flashquiz-bot/internal/config"
	"github.com/aliskhannn/flashquiz-bot/internal/infra/postgres"
	"github.com/aliskhannn/flashquiz-bot/internal/infra/sqlite"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create database tables for the configured storage driver",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err = cfg.RequireStorage(); err != nil {
			return err
		}

		if err = migrate(cmd.Context(), cfg); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "schema applied (%s)\n", cfg.Storage.Driver)
		return nil
	},
}

func migrate(ctx context.Context, cfg *config.Config) error {
	if cfg.Storage.Driver == config.DriverSQLite {
		// Open applies the schema.
		s, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return fmt.Errorf("open sqlite: %w", err)
		}
		return s.Close()
	}

	dsn, err := cfg.DB.DSN()
	if err != nil {
		return err
	}

	pool, err := postgres.NewPool(ctx, dsn, postgres.PoolConfig{
		MaxConns:        1,
		MaxConnLifetime: cfg.DB.MaxConnLifetime,
	})
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	return postgres.Migrate(ctx, pool)
}
