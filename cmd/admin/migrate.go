package main

import (
	"fmt"

	"github.com/menuboard/api/internal/database"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var downSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back schema migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply every pending migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.MigrateUp(databaseURL); err != nil {
			return err
		}
		return reportVersion()
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.MigrateDown(databaseURL, downSteps); err != nil {
			return err
		}
		return reportVersion()
	},
}

func init() {
	migrateDownCmd.Flags().IntVar(&downSteps, "steps", 1, "number of migrations to roll back")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
}

func reportVersion() error {
	version, dirty, err := database.MigrationVersion(databaseURL)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	logger.Info("schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}
