package models

import (
	"time"

	"github.com/uptrace/bun"
)

// PoliticalGroup is referenced by officials and keyed by (acronym, chamber).
// MemberCount is a derived aggregate, recomputed after each bulk load.
type PoliticalGroup struct {
	bun.BaseModel `bun:"table:political_groups,alias:g"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	Acronym     string    `bun:"acronym,notnull,unique:political_groups_acronym_chamber" json:"acronym"`
	Chamber     Chamber   `bun:"chamber,notnull,unique:political_groups_acronym_chamber" json:"chamber"`
	Name        *string   `bun:"name" json:"name,omitempty"`
	MemberCount int       `bun:"member_count,notnull,default:0" json:"member_count"`
	Active      bool      `bun:"active,notnull,default:true" json:"active"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}
