// Package dbtest provides a migrated throwaway store for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/uptrace/bun"

	"github.com/mkoziy/civic/exporter/internal/database"
	"github.com/mkoziy/civic/exporter/internal/migrations"
)

// New opens a fresh SQLite file under t.TempDir and applies all migrations.
func New(t testing.TB) *bun.DB {
	t.Helper()

	db, err := database.NewDB(database.Config{DSN: filepath.Join(t.TempDir(), "civic.db")})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	if err := migrations.RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}
