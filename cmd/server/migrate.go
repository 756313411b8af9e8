package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmynk/spendwise/internal/storage/postgres"
	"github.com/mmynk/spendwise/internal/storage/sqlite"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if cfg.DatabaseURL != "" {
		store, err := postgres.New(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer store.Close()
		fmt.Fprintln(cmd.OutOrStdout(), "postgres schema is up to date")
		return nil
	}

	if err := sqlite.RunMigrations(cfg.DBPath); err != nil {
		return err
	}
	version, dirty, err := sqlite.SchemaVersion(cfg.DBPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "sqlite schema at version %d (dirty=%t): %s\n", version, dirty, cfg.DBPath)
	return nil
}
