package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/sponsorwall/backend/internal/config"
	"github.com/sponsorwall/backend/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	addr := cfg.PostgresDSN
	if cfg.StorageDriver == config.StorageDriverSQLite {
		addr = db.SQLiteMigrateURL(cfg.SQLitePath)
	}
	if err := db.RunMigrations(cfg.StorageDriver, addr, log); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Migrations completed successfully (%s)\n", cfg.StorageDriver)
	return nil
}
