package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	runIDKey   contextKey = "run_id"
	datasetKey contextKey = "dataset"
)

// NewRunID returns a fresh identifier for one sync run.
func NewRunID() string {
	return uuid.NewString()
}

// WithRun tags ctx with the run id and dataset so every log line of the run carries them.
func WithRun(ctx context.Context, runID, dataset string) context.Context {
	ctx = context.WithValue(ctx, runIDKey, runID)
	return context.WithValue(ctx, datasetKey, dataset)
}

// RunIDFromContext returns the run id stored by WithRun, or "".
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey).(string)
	return id
}

// Ctx returns the global logger enriched with the run fields found in ctx.
func Ctx(ctx context.Context) *zerolog.Logger {
	c := Logger().With()
	if id, ok := ctx.Value(runIDKey).(string); ok && id != "" {
		c = c.Str("correlation_id", id)
	}
	if ds, ok := ctx.Value(datasetKey).(string); ok && ds != "" {
		c = c.Str("dataset", ds)
	}
	l := c.Logger()
	return &l
}
