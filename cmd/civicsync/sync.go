package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/mkoziy/civic/exporter/internal/migrations"
)

func syncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync [dataset...]",
		Short: "Run a synchronization and print its summary",
		Long: `Fetch, parse and upsert one or more datasets, in order.

Datasets: deputes, senateurs, maires, communes, scrutins (or "all").
The summary is printed as JSON. The exit status is non-zero when any
dataset run failed.

Examples:
  civicsync sync
  civicsync sync deputes senateurs`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			db, err := a.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := migrations.RunMigrations(ctx, db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}

			orch, err := a.newOrchestrator(db)
			if err != nil {
				return err
			}
			summary, err := orch.Run(ctx, datasetArgs(args)...)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(summary, "", "  ")
			if err != nil {
				return fmt.Errorf("encode summary: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			if summary.Failed() {
				return errors.New("sync finished with failed datasets")
			}
			return nil
		},
	}
}
