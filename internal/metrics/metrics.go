// Package metrics exposes Prometheus instrumentation for sync runs and upstream fetches.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SyncJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civic_sync_jobs_total",
			Help: "Sync jobs by dataset and terminal status",
		},
		[]string{"dataset", "status"},
	)

	SyncRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civic_sync_records_total",
			Help: "Records processed by dataset and outcome (created, updated, failed)",
		},
		[]string{"dataset", "outcome"},
	)

	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "civic_sync_duration_seconds",
			Help:    "Wall time of one dataset sync",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"dataset"},
	)

	SyncLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "civic_sync_last_success_timestamp_seconds",
			Help: "Unix time of the last COMPLETED job per dataset",
		},
		[]string{"dataset"},
	)

	FetchAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civic_fetch_attempts_total",
			Help: "Upstream HTTP attempts by dataset and result (ok, retry, error, rejected)",
		},
		[]string{"dataset", "result"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "civic_circuit_breaker_state",
			Help: "Upstream circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"dataset"},
	)
)
