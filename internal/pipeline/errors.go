package pipeline

import (
	"errors"
	"fmt"

	"github.com/mkoziy/civic/exporter/internal/models"
)

var (
	// ErrAlreadyRunning is returned when a dataset is triggered while a run of it is in progress.
	ErrAlreadyRunning = errors.New("dataset sync already running")
	// ErrJobFinished is returned by a Tracker whose job already reached a terminal status.
	ErrJobFinished = errors.New("sync job already finished")
)

// FailureKind classifies a skipped record.
type FailureKind string

const (
	FailureParse   FailureKind = "parse"
	FailureMapping FailureKind = "mapping"
	FailureUpsert  FailureKind = "upsert"
)

// RecordFailure is a record that was counted and skipped without aborting the run.
type RecordFailure struct {
	Kind   FailureKind
	Index  int
	Origin string
	Err    error
}

func (f *RecordFailure) Error() string {
	return fmt.Sprintf("%s failure at %s: %v", f.Kind, f.Origin, f.Err)
}

func (f *RecordFailure) Unwrap() error { return f.Err }

// RecountError reports that the aggregate recount failed after the load. It fails the job.
type RecountError struct {
	Chamber models.Chamber
	Err     error
}

func (e *RecountError) Error() string {
	return fmt.Sprintf("recount %s group members: %v", e.Chamber, e.Err)
}

func (e *RecountError) Unwrap() error { return e.Err }
