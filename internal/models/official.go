package models

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/bun"
)

// Official is a member of either chamber, keyed by (chamber, slug).
type Official struct {
	bun.BaseModel `bun:"table:officials,alias:o"`

	ID            int64      `bun:"id,pk,autoincrement" json:"id"`
	Chamber       Chamber    `bun:"chamber,notnull,unique:officials_natural_key" json:"chamber"`
	Slug          string     `bun:"slug,notnull,unique:officials_natural_key" json:"slug"`
	FirstName     string     `bun:"first_name,notnull" json:"first_name"`
	LastName      string     `bun:"last_name,notnull" json:"last_name"`
	Gender        *string    `bun:"gender" json:"gender,omitempty"`
	BirthDate     *time.Time `bun:"birth_date,type:date" json:"birth_date,omitempty"`
	Department    *string    `bun:"department" json:"department,omitempty"`
	Constituency  *string    `bun:"constituency" json:"constituency,omitempty"`
	GroupID       *int64     `bun:"group_id" json:"group_id,omitempty"`
	MandateStart  *time.Time `bun:"mandate_start,type:date" json:"mandate_start,omitempty"`
	MandateEnd    *time.Time `bun:"mandate_end,type:date" json:"mandate_end,omitempty"`
	MandateActive bool       `bun:"mandate_active,notnull" json:"mandate_active"`
	PresenceRate  *float64   `bun:"presence_rate" json:"presence_rate,omitempty"`
	Interventions *int       `bun:"interventions" json:"interventions,omitempty"`
	Amendments    *int       `bun:"amendments" json:"amendments,omitempty"`
	SourceURL     *string    `bun:"source_url" json:"source_url,omitempty"`
	CreatedAt     time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`

	Group *PoliticalGroup `bun:"rel:belongs-to,join:group_id=id" json:"group,omitempty"`
}

var _ Entity = (*Official)(nil)

func (o *Official) KeyColumns() []string { return []string{"chamber", "slug"} }
func (o *Official) KeyValues() []any     { return []any{o.Chamber, o.Slug} }

// BeforeUpdate updates the timestamp on modifications.
func (o *Official) BeforeUpdate(ctx context.Context, query *bun.UpdateQuery) error {
	o.UpdatedAt = time.Now()
	return nil
}

// Validate checks that the natural key and names are present.
func (o *Official) Validate() error {
	if o.Chamber == "" {
		return errors.New("chamber is required")
	}
	if o.Slug == "" {
		return errors.New("slug is required")
	}
	if o.LastName == "" {
		return errors.New("last name is required")
	}
	return nil
}
