package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fintrack/internal/storage"
)

func migrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the SQLite schema",
		Long:  `Apply the embedded schema migrations to SQLITE_DB_PATH. Running it again is a no-op.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.DataBackend != "sqlite" {
				return fmt.Errorf("migrate needs the sqlite backend, got %q", a.cfg.DataBackend)
			}
			store, err := storage.NewSQLiteStore(a.cfg.SQLiteDBPath)
			if err != nil {
				return err
			}
			if err := store.Initialize(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date: %s\n", store.Path())
			return nil
		},
	}
}
