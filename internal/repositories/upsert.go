// Package repositories holds the store queries used by the sync pipeline and the API.
package repositories

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/uptrace/bun"

	"github.com/mkoziy/civic/exporter/internal/models"
)

// Outcome tells whether an upsert created or replaced a row.
type Outcome int

const (
	Created Outcome = iota + 1
	Updated
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Updated:
		return "updated"
	default:
		return "unknown"
	}
}

// Upsert inserts e, or fully replaces the row with the same natural key.
// created_at of an existing row is preserved and updated_at is bumped.
func Upsert(ctx context.Context, db bun.IDB, e models.Entity) (Outcome, error) {
	if err := e.Validate(); err != nil {
		return 0, fmt.Errorf("validate: %w", err)
	}

	keyCols := e.KeyColumns()
	keyVals := e.KeyValues()
	if len(keyCols) == 0 || len(keyCols) != len(keyVals) {
		return 0, fmt.Errorf("invalid natural key for %T", e)
	}

	var outcome Outcome
	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		sel := tx.NewSelect().Model(e)
		for i, col := range keyCols {
			sel = sel.Where("? = ?", bun.Ident(col), keyVals[i])
		}
		exists, err := sel.Exists(ctx)
		if err != nil {
			return fmt.Errorf("check existence: %w", err)
		}

		ins := tx.NewInsert().
			Model(e).
			On(fmt.Sprintf("CONFLICT (%s) DO UPDATE", strings.Join(keyCols, ", ")))
		for _, col := range replaceColumns(tx, e) {
			ins = ins.Set("? = EXCLUDED.?", bun.Ident(col), bun.Ident(col))
		}
		ins = ins.Set("updated_at = CURRENT_TIMESTAMP")
		if _, err := ins.Exec(ctx); err != nil {
			return fmt.Errorf("upsert: %w", err)
		}

		outcome = Created
		if exists {
			outcome = Updated
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return outcome, nil
}

// replaceColumns lists the columns overwritten on conflict: everything but the
// primary key, the natural key and the timestamps.
func replaceColumns(db bun.IDB, e models.Entity) []string {
	typ := reflect.TypeOf(e)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	table := db.Dialect().Tables().Get(typ)

	skip := map[string]bool{"created_at": true, "updated_at": true}
	for _, col := range e.KeyColumns() {
		skip[col] = true
	}

	cols := make([]string, 0, len(table.Fields))
	for _, f := range table.Fields {
		if f.IsPK || skip[f.Name] {
			continue
		}
		cols = append(cols, f.Name)
	}
	return cols
}
