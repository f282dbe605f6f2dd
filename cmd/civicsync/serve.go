package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mkoziy/civic/exporter/internal/api"
	"github.com/mkoziy/civic/exporter/internal/events"
	"github.com/mkoziy/civic/exporter/internal/logging"
	"github.com/mkoziy/civic/exporter/internal/migrations"
	"github.com/mkoziy/civic/exporter/internal/models"
	"github.com/mkoziy/civic/exporter/internal/pipeline"
	"github.com/mkoziy/civic/exporter/internal/scheduler"
)

func serveCmd(a *app) *cobra.Command {
	var runOnStart bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the admin API and run scheduled syncs",
		Long: `Start the admin HTTP API (sync triggers, job status, metrics) under a
supervisor. When schedule.enabled is set, syncs also run every
schedule.interval.`,
		Args: cobra.NoArgs,
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

			bus := events.NewBus()
			defer bus.Close()

			orch, err := a.newOrchestrator(db, pipeline.WithNotifier(events.NewPublisher(bus)))
			if err != nil {
				return err
			}

			httpCfg := a.cfg.HTTP
			server := &http.Server{
				Addr: httpCfg.Addr,
				Handler: api.NewRouter(api.Config{
					AdminToken:        httpCfg.AdminToken,
					RequestsPerMinute: httpCfg.RequestsPerMinute,
				}, db, orch),
				ReadHeaderTimeout: httpCfg.ReadTimeout,
				ReadTimeout:       httpCfg.ReadTimeout,
			}
			if httpCfg.AdminToken == "" {
				logging.Warn().Msg("http.admin_token is empty, admin endpoints are disabled")
			}

			tree := scheduler.NewTree(logging.NewSlogLogger(), scheduler.TreeConfig{
				ShutdownTimeout: httpCfg.ShutdownTimeout,
			})
			tree.Add(scheduler.NewHTTPService(server, httpCfg.ShutdownTimeout))
			tree.Add(scheduler.NewInvalidationService(bus))

			if sched := a.cfg.Schedule; sched.Enabled {
				datasets := make([]models.DatasetType, 0, len(sched.Datasets))
				for _, name := range sched.Datasets {
					datasets = append(datasets, models.DatasetType(name))
				}
				tree.Add(scheduler.NewSyncService(orch, sched.Interval, datasets, runOnStart))
				logging.Info().Dur("interval", sched.Interval).Strs("datasets", sched.Datasets).Msg("Scheduled syncs enabled")
			}

			logging.Info().Str("addr", httpCfg.Addr).Str("version", Version).Msg("civicsync serving")
			if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			logging.Info().Msg("civicsync stopped")
			return nil
		},
	}
	cmd.Flags().BoolVar(&runOnStart, "sync-on-start", false, "run a scheduled sync immediately instead of waiting one interval")
	return cmd
}
