package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"ledgerbook/internal/config"
	"ledgerbook/internal/log"
	"ledgerbook/internal/storage"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations to the configured database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			return runMigrate(cfg, logger)
		},
	}
}

func runMigrate(cfg *config.Config, logger *log.Logger) error {
	logger = logger.WithComponent(log.ComponentStorage)
	switch cfg.DataBackend {
	case config.DataBackendSQLite:
		if err := storage.RunSQLiteMigrations(cfg.SQLiteDBPath); err != nil {
			return err
		}
		logger.Info("Migrations applied", log.FieldOperation, log.OpMigrate, "db_path", cfg.SQLiteDBPath)
	case config.DataBackendPostgres:
		if err := storage.RunPostgresMigrations(cfg.PostgresDSN); err != nil {
			return err
		}
		logger.Info("Migrations applied", log.FieldOperation, log.OpMigrate, "backend", cfg.DataBackend)
	default:
		return fmt.Errorf("data backend %q has no schema to migrate", cfg.DataBackend)
	}
	return nil
}
