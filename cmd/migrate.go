package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aadhi-11/careerguide/db"
	"github.com/aadhi-11/careerguide/internal/config"
	"github.com/aadhi-11/careerguide/internal/log"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long: `Applies all pending schema migrations to the configured PostgreSQL
database. Migrations are embedded in the binary and tracked in the
schema_migrations table; running migrate twice is a no-op.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate()
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.MemoryStore {
		return fmt.Errorf("migrate requires a PostgreSQL store, but memory_store is enabled")
	}

	logger := log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel), JSON: cfg.LogJSON})
	return db.Migrate(cfg.PostgresURL(), logger)
}
