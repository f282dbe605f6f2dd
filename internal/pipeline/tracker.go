package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"github.com/mkoziy/civic/exporter/internal/logging"
	"github.com/mkoziy/civic/exporter/internal/models"
	"github.com/mkoziy/civic/exporter/internal/repositories"
)

// Counts are the per-run record counters.
type Counts struct {
	Seen    int `json:"traites"`
	Created int `json:"crees"`
	Updated int `json:"misAJour"`
	Failed  int `json:"erreurs"`
}

// RecordResult is the outcome of one record: either an upsert outcome or a failure.
type RecordResult struct {
	Outcome repositories.Outcome
	Failure *RecordFailure
}

// Fold adds one record result to the counters.
func (c *Counts) Fold(r RecordResult) {
	c.Seen++
	switch {
	case r.Failure != nil:
		c.Failed++
	case r.Outcome == repositories.Created:
		c.Created++
	case r.Outcome == repositories.Updated:
		c.Updated++
	}
}

// Add sums o into c.
func (c *Counts) Add(o Counts) {
	c.Seen += o.Seen
	c.Created += o.Created
	c.Updated += o.Updated
	c.Failed += o.Failed
}

// Tracker owns the SyncJob row of one run and performs its single terminal write.
type Tracker struct {
	db  bun.IDB
	job *models.SyncJob
}

// OpenJob inserts a RUNNING job with zero counts.
func OpenJob(ctx context.Context, db bun.IDB, dataset models.DatasetType, runID string) (*Tracker, error) {
	job := &models.SyncJob{
		RunID:       runID,
		DatasetType: dataset,
		Status:      models.JobRunning,
		StartedAt:   time.Now().UTC(),
	}
	// Opened even for a cancelled run so that the cancellation is audited.
	if err := repositories.CreateJob(context.WithoutCancel(ctx), db, job); err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().Int64("job_id", job.ID).Msg("Sync job opened")
	return &Tracker{db: db, job: job}, nil
}

// Job returns a copy of the tracked job.
func (t *Tracker) Job() models.SyncJob {
	return *t.job
}

// Complete marks the job COMPLETED with counts.
func (t *Tracker) Complete(ctx context.Context, counts Counts) error {
	return t.finish(ctx, models.JobCompleted, counts, nil)
}

// Fail marks the job FAILED with counts and the cause.
func (t *Tracker) Fail(ctx context.Context, counts Counts, cause error) error {
	return t.finish(ctx, models.JobFailed, counts, cause)
}

func (t *Tracker) finish(ctx context.Context, status models.JobStatus, counts Counts, cause error) error {
	if t.job.Status.Terminal() {
		return ErrJobFinished
	}

	finished := time.Now().UTC()
	ms := finished.Sub(t.job.StartedAt).Milliseconds()
	next := *t.job
	next.Status = status
	next.FinishedAt = &finished
	next.DurationMs = &ms
	next.RecordsSeen = counts.Seen
	next.RecordsCreated = counts.Created
	next.RecordsUpdated = counts.Updated
	next.RecordsFailed = counts.Failed
	if cause != nil {
		msg := cause.Error()
		next.ErrorMessage = &msg
	}

	// The terminal write must land even when the run was cancelled.
	if err := repositories.FinishJob(context.WithoutCancel(ctx), t.db, &next); err != nil {
		if errors.Is(err, repositories.ErrJobNotRunning) {
			return ErrJobFinished
		}
		return err
	}
	*t.job = next
	return nil
}
