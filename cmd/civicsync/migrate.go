package main

import (
	"github.com/spf13/cobra"

	"github.com/mkoziy/civic/exporter/internal/migrations"
)

func migrateCmd(a *app) *cobra.Command {
	var rollback bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the store schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			if rollback {
				return migrations.Rollback(cmd.Context(), db)
			}
			return migrations.RunMigrations(cmd.Context(), db)
		},
	}
	cmd.Flags().BoolVar(&rollback, "rollback", false, "revert the last migration group")
	return cmd
}
