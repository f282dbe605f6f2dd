package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		indexes := []string{
			"CREATE INDEX IF NOT EXISTS idx_officials_group ON officials(group_id)",
			"CREATE INDEX IF NOT EXISTS idx_officials_last_name ON officials(last_name)",
			"CREATE INDEX IF NOT EXISTS idx_municipal_officers_department ON municipal_officers(department_code)",
			"CREATE INDEX IF NOT EXISTS idx_communes_department ON communes(department_code)",
			"CREATE INDEX IF NOT EXISTS idx_votes_date ON votes(date DESC)",
			"CREATE INDEX IF NOT EXISTS idx_sync_jobs_dataset_started ON sync_jobs(dataset_type, started_at DESC)",
		}
		for _, idx := range indexes {
			if _, err := db.ExecContext(ctx, idx); err != nil {
				return err
			}
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		indexes := []string{
			"DROP INDEX IF EXISTS idx_officials_group",
			"DROP INDEX IF EXISTS idx_officials_last_name",
			"DROP INDEX IF EXISTS idx_municipal_officers_department",
			"DROP INDEX IF EXISTS idx_communes_department",
			"DROP INDEX IF EXISTS idx_votes_date",
			"DROP INDEX IF EXISTS idx_sync_jobs_dataset_started",
		}
		for _, idx := range indexes {
			if _, err := db.ExecContext(ctx, idx); err != nil {
				return err
			}
		}
		return nil
	})
}
