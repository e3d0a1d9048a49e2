package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/santiyeai/sitechief/internal/config"
	"github.com/santiyeai/sitechief/internal/db"
	dbsqlc "github.com/santiyeai/sitechief/internal/db/sqlc"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sitechief",
		Short:         "Construction site assistant backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			runServe()
			return nil
		},
	}
	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newCompaniesCmd(),
		newTokenCmd(),
		newImportBudgetCmd(),
	)
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	}
}

// loadConfig loads .env and then the TOML file named by CONFIG_PATH.
func loadConfig() (config.Config, error) {
	if err := config.LoadEnvFile(os.Getenv("ENV_PATH")); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func openQueries(ctx context.Context, cfg config.Config) (*pgxpool.Pool, *dbsqlc.Queries, error) {
	conn, err := db.Open(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("db connect: %w", err)
	}
	return conn, dbsqlc.New(conn), nil
}
