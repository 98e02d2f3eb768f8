package main

import (
	"fmt"

	"storefront/internal/database"

	"github.com/spf13/cobra"
)

// migrateCmd groups the schema commands
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Run the embedded goose migrations against DB_* settings.

Subcommands:
  up      - Apply pending migrations
  status  - Show migration status`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE:  runMigrateUp,
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	RunE:  runMigrateStatus,
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateStatusCmd)
	rootCmd.AddCommand(migrateCmd)
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	dbService, err := database.New(cmd.Context(), cfg.Database, log)
	if err != nil {
		return err
	}
	defer dbService.Close()

	return database.RunMigrations(cmd.Context(), dbService.DB(), log)
}

func runMigrateStatus(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	dbService, err := database.New(cmd.Context(), cfg.Database, log)
	if err != nil {
		return err
	}
	defer dbService.Close()

	if err := database.GetMigrationStatus(cmd.Context(), dbService.DB()); err != nil {
		return fmt.Errorf("failed to read migration status: %w", err)
	}
	return nil
}
