package models

import (
	"errors"
	"time"

	"github.com/uptrace/bun"
)

// Commune is a municipality as published by the national statistics API.
type Commune struct {
	bun.BaseModel `bun:"table:communes,alias:cm"`

	ID             int64       `bun:"id,pk,autoincrement" json:"id"`
	Code           string      `bun:"code,notnull,unique" json:"code"`
	Name           string      `bun:"name,notnull" json:"name"`
	DepartmentCode *string     `bun:"department_code" json:"department_code,omitempty"`
	RegionCode     *string     `bun:"region_code" json:"region_code,omitempty"`
	Population     *int        `bun:"population" json:"population,omitempty"`
	PostalCodes    StringArray `bun:"postal_codes,type:json,notnull" json:"postal_codes"`
	CreatedAt      time.Time   `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt      time.Time   `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

var _ Entity = (*Commune)(nil)

func (c *Commune) KeyColumns() []string { return []string{"code"} }
func (c *Commune) KeyValues() []any     { return []any{c.Code} }

// Validate checks the INSEE code and name.
func (c *Commune) Validate() error {
	if c.Code == "" {
		return errors.New("code is required")
	}
	if c.Name == "" {
		return errors.New("name is required")
	}
	return nil
}
