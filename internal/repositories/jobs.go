package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/mkoziy/civic/exporter/internal/models"
)

// ErrJobNotRunning is returned when finishing a job that already reached a terminal status.
var ErrJobNotRunning = errors.New("sync job is not running")

// CreateJob inserts a new job row and sets its id.
func CreateJob(ctx context.Context, db bun.IDB, job *models.SyncJob) error {
	if _, err := db.NewInsert().Model(job).Exec(ctx); err != nil {
		return fmt.Errorf("insert sync job: %w", err)
	}
	return nil
}

// FinishJob writes the terminal status and counters of job. Only a RUNNING row is updated.
func FinishJob(ctx context.Context, db bun.IDB, job *models.SyncJob) error {
	res, err := db.NewUpdate().
		Model(job).
		Column("status", "finished_at", "records_seen", "records_created", "records_updated",
			"records_failed", "error_message", "duration_ms").
		WherePK().
		Where("status = ?", models.JobRunning).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update sync job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrJobNotRunning
	}
	return nil
}

// GetJob fetches a job by id.
func GetJob(ctx context.Context, db bun.IDB, id int64) (*models.SyncJob, error) {
	job := new(models.SyncJob)
	err := db.NewSelect().Model(job).Where("id = ?", id).Scan(ctx)
	return job, err
}

// LatestJobs returns the most recent job of every dataset type.
func LatestJobs(ctx context.Context, db bun.IDB) ([]models.SyncJob, error) {
	var jobs []models.SyncJob
	latest := db.NewSelect().
		Model((*models.SyncJob)(nil)).
		ColumnExpr("MAX(id)").
		Group("dataset_type")
	err := db.NewSelect().
		Model(&jobs).
		Where("id IN (?)", latest).
		OrderExpr("dataset_type ASC").
		Scan(ctx)
	return jobs, err
}

// JobHistory returns up to limit jobs of dataset, newest first.
func JobHistory(ctx context.Context, db bun.IDB, dataset models.DatasetType, limit int) ([]models.SyncJob, error) {
	var jobs []models.SyncJob
	err := db.NewSelect().
		Model(&jobs).
		Where("dataset_type = ?", dataset).
		OrderExpr("id DESC").
		Limit(limit).
		Scan(ctx)
	return jobs, err
}
