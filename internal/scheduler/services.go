package scheduler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/mkoziy/civic/exporter/internal/events"
	"github.com/mkoziy/civic/exporter/internal/logging"
	"github.com/mkoziy/civic/exporter/internal/models"
	"github.com/mkoziy/civic/exporter/internal/pipeline"
)

// HTTPServer is the lifecycle subset of *http.Server.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPService runs an HTTP server until its context ends.
type HTTPService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
}

// NewHTTPService wraps server.
func NewHTTPService(server HTTPServer, shutdownTimeout time.Duration) *HTTPService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPService{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve implements suture.Service.
func (s *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return ctx.Err()
	}
}

func (s *HTTPService) String() string { return "http-server" }

// Syncer runs dataset synchronizations.
type Syncer interface {
	Run(ctx context.Context, datasets ...models.DatasetType) (*pipeline.Summary, error)
}

// SyncService triggers a sync every Interval.
type SyncService struct {
	syncer     Syncer
	interval   time.Duration
	datasets   []models.DatasetType
	runOnStart bool
}

// NewSyncService creates a periodic sync. An empty datasets list runs every dataset.
func NewSyncService(syncer Syncer, interval time.Duration, datasets []models.DatasetType, runOnStart bool) *SyncService {
	return &SyncService{syncer: syncer, interval: interval, datasets: datasets, runOnStart: runOnStart}
}

// Serve implements suture.Service.
func (s *SyncService) Serve(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("sync interval must be positive, got %s", s.interval)
	}
	if s.runOnStart {
		s.runOnce(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *SyncService) runOnce(ctx context.Context) {
	summary, err := s.syncer.Run(ctx, s.datasets...)
	if errors.Is(err, pipeline.ErrAlreadyRunning) {
		logging.Info().Err(err).Msg("Scheduled sync skipped")
		return
	}
	if err != nil {
		logging.Error().Err(err).Msg("Scheduled sync could not start")
		return
	}
	ev := logging.Info()
	if summary.Failed() {
		ev = logging.Warn()
	}
	ev.Int("seen", summary.Counts.Seen).
		Int("created", summary.Counts.Created).
		Int("updated", summary.Counts.Updated).
		Int("failed", summary.Counts.Failed).
		Bool("any_dataset_failed", summary.Failed()).
		Msg("Scheduled sync finished")
}

func (s *SyncService) String() string { return "sync-scheduler" }

// InvalidationService logs resource.changed notifications.
type InvalidationService struct {
	sub message.Subscriber
}

// NewInvalidationService consumes from sub.
func NewInvalidationService(sub message.Subscriber) *InvalidationService {
	return &InvalidationService{sub: sub}
}

// Serve implements suture.Service.
func (s *InvalidationService) Serve(ctx context.Context) error {
	return events.LogInvalidations(ctx, s.sub)
}

func (s *InvalidationService) String() string { return "invalidation-logger" }
