// Command admin is the operator CLI: schema migrations, the initial ADMIN
// account, the plan catalog and quick subscription checks.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/menuboard/api/internal/config"
	"github.com/menuboard/api/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg         *config.Config
	databaseURL string
	logger      *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "admin",
	Short:         "Menuboard operator tooling",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(cfg.LogLevel, cfg.IsProduction())
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		logger = l
		zap.ReplaceGlobals(l)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	cfg = config.Load()
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", cfg.DatabaseURL, "Postgres connection URL")

	rootCmd.AddCommand(migrateCmd, seedCmd, plansCmd, statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func connect(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}
