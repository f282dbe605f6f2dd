package repositories

import (
	"context"
	"fmt"
	"sync"

	"github.com/uptrace/bun"

	"github.com/mkoziy/civic/exporter/internal/models"
)

// GroupResolver looks up political groups by (acronym, chamber) and creates
// them on first sight. Resolved ids are cached for the resolver's lifetime.
type GroupResolver struct {
	db bun.IDB

	mu    sync.Mutex
	cache map[string]int64
}

// NewGroupResolver returns a resolver backed by db.
func NewGroupResolver(db bun.IDB) *GroupResolver {
	return &GroupResolver{db: db, cache: make(map[string]int64)}
}

// GroupID returns the group's id, inserting a new active group with no members if needed.
func (r *GroupResolver) GroupID(ctx context.Context, acronym string, chamber models.Chamber) (int64, error) {
	key := string(chamber) + "/" + acronym

	r.mu.Lock()
	id, ok := r.cache[key]
	r.mu.Unlock()
	if ok {
		return id, nil
	}

	group := &models.PoliticalGroup{Acronym: acronym, Chamber: chamber, Active: true}
	if _, err := r.db.NewInsert().
		Model(group).
		On("CONFLICT (acronym, chamber) DO NOTHING").
		Returning("NULL").
		Exec(ctx); err != nil {
		return 0, fmt.Errorf("insert group: %w", err)
	}

	if err := r.db.NewSelect().
		Model((*models.PoliticalGroup)(nil)).
		Column("id").
		Where("acronym = ?", acronym).
		Where("chamber = ?", chamber).
		Scan(ctx, &id); err != nil {
		return 0, fmt.Errorf("select group: %w", err)
	}

	r.mu.Lock()
	r.cache[key] = id
	r.mu.Unlock()
	return id, nil
}

// RecountGroupMembers recomputes member_count of every group of chamber from
// the officials whose mandate is active. It returns the number of groups updated.
func RecountGroupMembers(ctx context.Context, db bun.IDB, chamber models.Chamber) (int64, error) {
	res, err := db.ExecContext(ctx, `
        UPDATE political_groups
        SET member_count = (
                SELECT COUNT(*) FROM officials
                WHERE officials.group_id = political_groups.id
                  AND officials.mandate_active = TRUE
            ),
            updated_at = CURRENT_TIMESTAMP
        WHERE chamber = ?`, chamber)
	if err != nil {
		return 0, fmt.Errorf("recount %s groups: %w", chamber, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}

// GroupCounts returns the groups of chamber ordered by acronym.
func GroupCounts(ctx context.Context, db bun.IDB, chamber models.Chamber) ([]models.PoliticalGroup, error) {
	var groups []models.PoliticalGroup
	err := db.NewSelect().
		Model(&groups).
		Where("chamber = ?", chamber).
		OrderExpr("acronym ASC").
		Scan(ctx)
	return groups, err
}
