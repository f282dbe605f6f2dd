package models

import (
	"errors"
	"time"

	"github.com/uptrace/bun"
)

// MunicipalOfficer is a municipal councillor from the national registry of elected officials.
// The natural key is the commune code plus an identity built from the normalized name and
// birth date, since the registry publishes no stable identifier.
type MunicipalOfficer struct {
	bun.BaseModel `bun:"table:municipal_officers,alias:mo"`

	ID              int64      `bun:"id,pk,autoincrement" json:"id"`
	CommuneCode     string     `bun:"commune_code,notnull,unique:municipal_officers_natural_key" json:"commune_code"`
	Identity        string     `bun:"identity,notnull,unique:municipal_officers_natural_key" json:"identity"`
	DepartmentCode  string     `bun:"department_code,notnull" json:"department_code"`
	DepartmentName  *string    `bun:"department_name" json:"department_name,omitempty"`
	CommuneName     string     `bun:"commune_name,notnull" json:"commune_name"`
	LastName        string     `bun:"last_name,notnull" json:"last_name"`
	FirstName       string     `bun:"first_name,notnull" json:"first_name"`
	Gender          *string    `bun:"gender" json:"gender,omitempty"`
	BirthDate       *time.Time `bun:"birth_date,type:date" json:"birth_date,omitempty"`
	ProfessionCode  *string    `bun:"profession_code" json:"profession_code,omitempty"`
	ProfessionLabel *string    `bun:"profession_label" json:"profession_label,omitempty"`
	Function        *string    `bun:"function" json:"function,omitempty"`
	MandateStart    *time.Time `bun:"mandate_start,type:date" json:"mandate_start,omitempty"`
	FunctionStart   *time.Time `bun:"function_start,type:date" json:"function_start,omitempty"`
	CreatedAt       time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt       time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

var _ Entity = (*MunicipalOfficer)(nil)

func (m *MunicipalOfficer) KeyColumns() []string { return []string{"commune_code", "identity"} }
func (m *MunicipalOfficer) KeyValues() []any     { return []any{m.CommuneCode, m.Identity} }

// Validate checks the natural key.
func (m *MunicipalOfficer) Validate() error {
	if m.CommuneCode == "" {
		return errors.New("commune code is required")
	}
	if m.Identity == "" || m.LastName == "" {
		return errors.New("name is required")
	}
	return nil
}
