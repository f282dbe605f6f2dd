package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/uptrace/bun"

	"github.com/mkoziy/civic/exporter/internal/events"
	"github.com/mkoziy/civic/exporter/internal/logging"
	"github.com/mkoziy/civic/exporter/internal/metrics"
	"github.com/mkoziy/civic/exporter/internal/models"
	"github.com/mkoziy/civic/exporter/internal/parse"
	"github.com/mkoziy/civic/exporter/internal/repositories"
	"github.com/mkoziy/civic/exporter/internal/source"
)

// Fetcher retrieves a dataset payload and hands it to fn for the duration of the call.
type Fetcher interface {
	Fetch(ctx context.Context, ep source.Endpoint, fn func(*source.Payload) error) error
}

// ChangeNotifier announces that a resource type was written to.
type ChangeNotifier interface {
	ResourceChanged(ctx context.Context, ev events.ResourceChanged) error
}

// GroupCount is a political group's member count after a recount.
type GroupCount struct {
	Acronym     string `json:"sigle"`
	MemberCount int    `json:"membres"`
}

// DatasetResult reports one dataset's run.
type DatasetResult struct {
	Dataset models.DatasetType `json:"dataset"`
	JobID   int64              `json:"jobId,omitempty"`
	RunID   string             `json:"runId"`
	Status  models.JobStatus   `json:"status"`
	Counts
	Duration   time.Duration `json:"-"`
	DurationMs int64         `json:"dureeMs"`
	Error      string        `json:"erreur,omitempty"`
	Groups     []GroupCount  `json:"groupes,omitempty"`
}

// Summary aggregates a multi-dataset invocation. The embedded counts are totals.
type Summary struct {
	Counts
	Results []DatasetResult `json:"datasets"`
}

// Failed reports whether any dataset ended FAILED.
func (s *Summary) Failed() bool {
	for _, r := range s.Results {
		if r.Status == models.JobFailed {
			return true
		}
	}
	return false
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithNotifier publishes change notifications after runs that wrote rows.
func WithNotifier(n ChangeNotifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

// Orchestrator runs datasets sequentially against one store.
type Orchestrator struct {
	db       bun.IDB
	fetcher  Fetcher
	registry *Registry
	notifier ChangeNotifier

	mu      sync.Mutex
	running map[models.DatasetType]bool
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(db bun.IDB, fetcher Fetcher, registry *Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		db:       db,
		fetcher:  fetcher,
		registry: registry,
		running:  make(map[models.DatasetType]bool),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Datasets returns the runnable datasets in default order.
func (o *Orchestrator) Datasets() []models.DatasetType {
	return o.registry.Order()
}

// Run synchronizes the given datasets, or all registered datasets in default
// order when none are given. A failed dataset does not stop the following ones.
// It returns ErrAlreadyRunning, before doing any work, if one of the datasets
// is being synchronized by another caller.
func (o *Orchestrator) Run(ctx context.Context, datasets ...models.DatasetType) (*Summary, error) {
	if len(datasets) == 0 {
		datasets = o.registry.Order()
	}
	for _, t := range datasets {
		if _, ok := o.registry.Get(t); !ok {
			return nil, fmt.Errorf("%s: %w", t, source.ErrUnknownDataset)
		}
	}

	if err := o.acquire(datasets); err != nil {
		return nil, err
	}
	defer o.release(datasets)

	summary := &Summary{Results: make([]DatasetResult, 0, len(datasets))}
	for _, t := range datasets {
		ds, _ := o.registry.Get(t)
		res := o.runDataset(ctx, ds)
		summary.Counts.Add(res.Counts)
		summary.Results = append(summary.Results, res)
	}
	return summary, nil
}

func (o *Orchestrator) acquire(datasets []models.DatasetType) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, t := range datasets {
		if o.running[t] {
			return fmt.Errorf("%s: %w", t, ErrAlreadyRunning)
		}
	}
	for _, t := range datasets {
		o.running[t] = true
	}
	return nil
}

func (o *Orchestrator) release(datasets []models.DatasetType) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, t := range datasets {
		delete(o.running, t)
	}
}

func (o *Orchestrator) runDataset(ctx context.Context, ds Dataset) DatasetResult {
	runID := logging.NewRunID()
	ctx = logging.WithRun(ctx, runID, string(ds.Type))
	log := logging.Ctx(ctx)
	started := time.Now()

	res := DatasetResult{Dataset: ds.Type, RunID: runID}
	finish := func() DatasetResult {
		res.Duration = time.Since(started)
		res.DurationMs = res.Duration.Milliseconds()
		metrics.SyncJobs.WithLabelValues(string(ds.Type), string(res.Status)).Inc()
		metrics.SyncDuration.WithLabelValues(string(ds.Type)).Observe(res.Duration.Seconds())
		metrics.SyncRecords.WithLabelValues(string(ds.Type), "created").Add(float64(res.Created))
		metrics.SyncRecords.WithLabelValues(string(ds.Type), "updated").Add(float64(res.Updated))
		metrics.SyncRecords.WithLabelValues(string(ds.Type), "failed").Add(float64(res.Failed))
		if res.Status == models.JobCompleted {
			metrics.SyncLastSuccess.WithLabelValues(string(ds.Type)).SetToCurrentTime()
		}
		return res
	}

	tracker, err := OpenJob(ctx, o.db, ds.Type, runID)
	if err != nil {
		log.Error().Err(err).Msg("Could not open sync job")
		res.Status = models.JobFailed
		res.Error = err.Error()
		return finish()
	}
	res.JobID = tracker.Job().ID

	log.Info().Str("url", ds.Endpoint.URL).Str("format", ds.Format.Name()).Msg("Sync started")

	counts, err := o.load(ctx, ds)
	res.Counts = counts
	if err == nil && ds.Chamber != "" {
		res.Groups, err = o.recount(ctx, ds.Chamber)
	}

	if err != nil {
		res.Status = models.JobFailed
		res.Error = err.Error()
		if ferr := tracker.Fail(ctx, counts, err); ferr != nil {
			log.Error().Err(ferr).Msg("Could not record job failure")
		}
		log.Error().Err(err).
			Int("seen", counts.Seen).
			Int("created", counts.Created).
			Int("updated", counts.Updated).
			Int("failed", counts.Failed).
			Msg("Sync failed")
	} else {
		res.Status = models.JobCompleted
		if cerr := tracker.Complete(ctx, counts); cerr != nil {
			res.Status = models.JobFailed
			res.Error = cerr.Error()
			log.Error().Err(cerr).Msg("Could not record job completion")
		}
		log.Info().
			Int("seen", counts.Seen).
			Int("created", counts.Created).
			Int("updated", counts.Updated).
			Int("failed", counts.Failed).
			Msg("Sync completed")
	}

	if counts.Created+counts.Updated > 0 {
		o.announce(ctx, ds, res.JobID)
	}
	return finish()
}

// load streams the dataset through parse, map and upsert. Per-record problems
// are folded into the counts; the returned error is fatal to the run.
func (o *Orchestrator) load(ctx context.Context, ds Dataset) (Counts, error) {
	var counts Counts
	log := logging.Ctx(ctx)
	resolver := repositories.NewGroupResolver(o.db)

	err := o.fetcher.Fetch(ctx, ds.Endpoint, func(p *source.Payload) error {
		if p.Empty() {
			log.Warn().Msg("Upstream returned an empty payload, nothing to load")
			return nil
		}
		batch, err := ds.Format.Parse(p)
		if err != nil {
			return err
		}

		for _, f := range batch.Failures {
			counts.Fold(RecordResult{Failure: &RecordFailure{Kind: FailureParse, Index: f.Index, Origin: f.Origin, Err: f.Err}})
			log.Warn().Err(f.Err).Str("origin", f.Origin).Msg("Unreadable record skipped")
		}

		for _, rec := range batch.Records {
			if err := ctx.Err(); err != nil {
				return err
			}
			r := o.apply(ctx, ds, rec, resolver)
			if r.Failure != nil && IsFatal(r.Failure.Err) {
				return r.Failure.Err
			}
			if r.Failure != nil {
				log.Warn().Err(r.Failure.Err).
					Str("kind", string(r.Failure.Kind)).
					Str("origin", r.Failure.Origin).
					Msg("Record skipped")
			}
			counts.Fold(r)
		}
		return nil
	})
	if err == nil {
		err = ctx.Err()
	}
	return counts, err
}

func (o *Orchestrator) apply(ctx context.Context, ds Dataset, rec parse.Record, resolver *repositories.GroupResolver) RecordResult {
	entity, err := ds.Map(ctx, rec, resolver)
	if err != nil {
		return RecordResult{Failure: &RecordFailure{Kind: FailureMapping, Index: rec.Index, Origin: rec.Origin, Err: err}}
	}
	outcome, err := repositories.Upsert(ctx, o.db, entity)
	if err != nil {
		return RecordResult{Failure: &RecordFailure{Kind: FailureUpsert, Index: rec.Index, Origin: rec.Origin, Err: err}}
	}
	return RecordResult{Outcome: outcome}
}

func (o *Orchestrator) recount(ctx context.Context, chamber models.Chamber) ([]GroupCount, error) {
	if _, err := repositories.RecountGroupMembers(ctx, o.db, chamber); err != nil {
		return nil, &RecountError{Chamber: chamber, Err: err}
	}
	groups, err := repositories.GroupCounts(ctx, o.db, chamber)
	if err != nil {
		return nil, &RecountError{Chamber: chamber, Err: err}
	}
	out := make([]GroupCount, 0, len(groups))
	for _, g := range groups {
		out = append(out, GroupCount{Acronym: g.Acronym, MemberCount: g.MemberCount})
	}
	return out, nil
}

func (o *Orchestrator) announce(ctx context.Context, ds Dataset, jobID int64) {
	if o.notifier == nil || ds.Resource == "" {
		return
	}
	ev := events.ResourceChanged{
		Resource: ds.Resource,
		Dataset:  string(ds.Type),
		JobID:    jobID,
		At:       time.Now().UTC(),
	}
	if err := o.notifier.ResourceChanged(context.WithoutCancel(ctx), ev); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("resource", ds.Resource).Msg("Change notification not delivered")
	}
}

// IsFatal reports whether err belongs to a class that fails the whole run.
func IsFatal(err error) bool {
	var (
		fetchErr   *source.FetchError
		parseErr   *parse.ParseError
		recountErr *RecountError
	)
	return errors.As(err, &fetchErr) ||
		errors.As(err, &parseErr) ||
		errors.As(err, &recountErr) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
