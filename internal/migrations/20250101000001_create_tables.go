package migrations

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/mkoziy/civic/exporter/internal/models"
)

func tables() []interface{} {
	return []interface{}{
		(*models.PoliticalGroup)(nil),
		(*models.Official)(nil),
		(*models.MunicipalOfficer)(nil),
		(*models.Commune)(nil),
		(*models.Vote)(nil),
		(*models.SyncJob)(nil),
	}
}

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		for _, model := range tables() {
			q := db.NewCreateTable().Model(model).IfNotExists()
			if _, ok := model.(*models.Official); ok {
				q = q.ForeignKey(`("group_id") REFERENCES "political_groups" ("id") ON DELETE SET NULL`)
			}
			if _, err := q.Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		list := tables()
		for i := len(list) - 1; i >= 0; i-- {
			if _, err := db.NewDropTable().Model(list[i]).IfExists().Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}
