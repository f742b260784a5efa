package cmd

import (
	"context"
	"fmt"
	"os"

	"capriccio/internal/config"
	"capriccio/internal/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "capriccio-admin",
	Short: "Capriccio storefront administration",
	Long: `capriccio-admin runs maintenance tasks against the storefront database:
schema migrations, administrator accounts and catalog seeding.

Configuration is read from the environment and an optional .env file,
the same way the API server reads it.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env is the configuration and database shared by every subcommand.
type env struct {
	cfg    *config.Config
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func openEnv(ctx context.Context) (*env, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if !cfg.Database.Enabled() {
		return nil, fmt.Errorf("database is not configured")
	}

	logger := config.NewLogger(cfg.Logger)

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &env{cfg: cfg, pool: pool, logger: logger}, nil
}

func (e *env) Close() {
	e.pool.Close()
}
