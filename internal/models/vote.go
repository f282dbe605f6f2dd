package models

import (
	"errors"
	"time"

	"github.com/uptrace/bun"
)

// Vote is a public ballot (scrutin) on a legislative text.
type Vote struct {
	bun.BaseModel `bun:"table:votes,alias:v"`

	ID          int64      `bun:"id,pk,autoincrement" json:"id"`
	UID         string     `bun:"uid,notnull,unique" json:"uid"`
	Chamber     Chamber    `bun:"chamber,notnull" json:"chamber"`
	Legislature *int       `bun:"legislature" json:"legislature,omitempty"`
	Number      *int       `bun:"number" json:"number,omitempty"`
	Date        *time.Time `bun:"date,type:date" json:"date,omitempty"`
	Title       string     `bun:"title,notnull" json:"title"`
	Outcome     *string    `bun:"outcome" json:"outcome,omitempty"`
	For         *int       `bun:"votes_for" json:"for,omitempty"`
	Against     *int       `bun:"votes_against" json:"against,omitempty"`
	Abstentions *int       `bun:"abstentions" json:"abstentions,omitempty"`
	NonVoting   *int       `bun:"non_voting" json:"non_voting,omitempty"`
	CreatedAt   time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

var _ Entity = (*Vote)(nil)

func (v *Vote) KeyColumns() []string { return []string{"uid"} }
func (v *Vote) KeyValues() []any     { return []any{v.UID} }

// Validate checks that required vote fields are present.
func (v *Vote) Validate() error {
	if v.UID == "" {
		return errors.New("uid is required")
	}
	if v.Title == "" {
		return errors.New("title is required")
	}
	return nil
}
