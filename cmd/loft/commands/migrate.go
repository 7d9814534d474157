package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loftfs/loft/internal/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Run database migrations for the metadata database.

This command applies pending schema migrations to the configured metadata
database (SQLite or PostgreSQL). It is required after upgrading loft when
schema changes have been made.

Examples:
  # Run migrations with default config
  loft migrate

  # Run migrations with custom config
  loft migrate --config /etc/loft/config.yaml`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, s, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	logger.Info("Running database migrations", "type", cfg.Database.Type)

	// Opening the store triggers auto-migration; verify it worked.
	if err := s.Ping(context.Background()); err != nil {
		return fmt.Errorf("migration verification failed: %w", err)
	}

	fmt.Printf("Migrations completed successfully (database type: %s)\n", cfg.Database.Type)
	return nil
}
