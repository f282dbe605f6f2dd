package models

import (
	"time"

	"github.com/uptrace/bun"
)

// SyncJob is the audit record of one pipeline run against one dataset.
// Rows are append-only; a job is mutated only by the run that opened it.
type SyncJob struct {
	bun.BaseModel `bun:"table:sync_jobs,alias:sj"`

	ID             int64       `bun:"id,pk,autoincrement" json:"id"`
	RunID          string      `bun:"run_id,unique,notnull" json:"run_id"`
	DatasetType    DatasetType `bun:"dataset_type,notnull" json:"dataset_type"`
	Status         JobStatus   `bun:"status,notnull" json:"status"`
	StartedAt      time.Time   `bun:"started_at,notnull" json:"started_at"`
	FinishedAt     *time.Time  `bun:"finished_at" json:"finished_at,omitempty"`
	RecordsSeen    int         `bun:"records_seen,notnull,default:0" json:"records_seen"`
	RecordsCreated int         `bun:"records_created,notnull,default:0" json:"records_created"`
	RecordsUpdated int         `bun:"records_updated,notnull,default:0" json:"records_updated"`
	RecordsFailed  int         `bun:"records_failed,notnull,default:0" json:"records_failed"`
	ErrorMessage   *string     `bun:"error_message" json:"error_message,omitempty"`
	DurationMs     *int64      `bun:"duration_ms" json:"duration_ms,omitempty"`
}

// Duration returns the run length, or zero while running.
func (j *SyncJob) Duration() time.Duration {
	if j.FinishedAt == nil {
		return 0
	}
	return j.FinishedAt.Sub(j.StartedAt)
}
