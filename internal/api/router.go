// Package api serves the admin surface: sync triggers, job status and metrics.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"

	"github.com/mkoziy/civic/exporter/internal/logging"
	"github.com/mkoziy/civic/exporter/internal/models"
	"github.com/mkoziy/civic/exporter/internal/pipeline"
	"github.com/mkoziy/civic/exporter/internal/repositories"
	"github.com/mkoziy/civic/exporter/internal/source"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// Syncer runs dataset synchronizations.
type Syncer interface {
	Run(ctx context.Context, datasets ...models.DatasetType) (*pipeline.Summary, error)
}

// Config configures the router.
type Config struct {
	AdminToken        string
	RequestsPerMinute int
}

// Handler serves the admin endpoints.
type Handler struct {
	db     bun.IDB
	syncer Syncer
}

// NewRouter builds the HTTP handler.
func NewRouter(cfg Config, db bun.IDB, syncer Syncer) http.Handler {
	h := &Handler{db: db, syncer: syncer}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/admin", func(r chi.Router) {
		if cfg.RequestsPerMinute > 0 {
			r.Use(httprate.LimitByIP(cfg.RequestsPerMinute, time.Minute))
		}
		r.Use(RequireToken(cfg.AdminToken))

		r.Get("/sync/jobs", h.LatestJobs)
		r.Get("/sync/jobs/{dataset}", h.JobHistory)
		r.Post("/sync/{dataset}", h.TriggerSync)
	})
	return r
}

// Health reports that the store answers.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.NewSelect().ColumnExpr("1").Scan(r.Context(), new(int)); err != nil {
		respondError(w, r, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", err.Error())
		return
	}
	respondData(w, http.StatusOK, map[string]string{"status": "ok"})
}

// TriggerSync runs one dataset, or every dataset for "all", and returns the summary.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "dataset")
	var datasets []models.DatasetType
	if name != "all" {
		datasets = append(datasets, models.DatasetType(name))
	}

	// The run outlives a client that hangs up.
	ctx := context.WithoutCancel(r.Context())
	summary, err := h.syncer.Run(ctx, datasets...)
	switch {
	case errors.Is(err, source.ErrUnknownDataset):
		respondError(w, r, http.StatusNotFound, "UNKNOWN_DATASET", err.Error())
		return
	case errors.Is(err, pipeline.ErrAlreadyRunning):
		respondError(w, r, http.StatusConflict, "ALREADY_RUNNING", err.Error())
		return
	case err != nil:
		logging.Error().Err(err).Str("dataset", name).Msg("Triggered sync could not start")
		respondError(w, r, http.StatusInternalServerError, "SYNC_ERROR", err.Error())
		return
	}
	respondData(w, http.StatusOK, summary)
}

// LatestJobs lists the most recent job of every dataset.
func (h *Handler) LatestJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := repositories.LatestJobs(r.Context(), h.db)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "QUERY_ERROR", err.Error())
		return
	}
	if jobs == nil {
		jobs = []models.SyncJob{}
	}
	respondData(w, http.StatusOK, jobs)
}

// JobHistory lists recent jobs of one dataset, newest first.
func (h *Handler) JobHistory(w http.ResponseWriter, r *http.Request) {
	dataset := models.DatasetType(chi.URLParam(r, "dataset"))
	if !knownDataset(dataset) {
		respondError(w, r, http.StatusNotFound, "UNKNOWN_DATASET", "unknown dataset "+string(dataset))
		return
	}

	limit := defaultHistoryLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			respondError(w, r, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	jobs, err := repositories.JobHistory(r.Context(), h.db, dataset, limit)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "QUERY_ERROR", err.Error())
		return
	}
	if jobs == nil {
		jobs = []models.SyncJob{}
	}
	respondData(w, http.StatusOK, jobs)
}

func knownDataset(t models.DatasetType) bool {
	for _, d := range models.AllDatasets() {
		if d == t {
			return true
		}
	}
	return false
}
