// Package rne maps the national registry of municipal elected officials (CSV).
package rne

import (
	"context"

	"github.com/mkoziy/civic/exporter/internal/models"
	"github.com/mkoziy/civic/exporter/internal/parse"
	"github.com/mkoziy/civic/exporter/internal/sources"
)

// Registry column headers.
const (
	colDepartmentCode  = "Code du département"
	colDepartmentName  = "Libellé du département"
	colCommuneCode     = "Code de la commune"
	colCommuneName     = "Libellé de la commune"
	colLastName        = "Nom de l'élu"
	colFirstName       = "Prénom de l'élu"
	colGender          = "Code sexe"
	colBirthDate       = "Date de naissance"
	colProfessionCode  = "Code de la catégorie socio-professionnelle"
	colProfessionLabel = "Libellé de la catégorie socio-professionnelle"
	colMandateStart    = "Date de début du mandat"
	colFunction        = "Libellé de la fonction"
	colFunctionStart   = "Date de début de la fonction"
)

// MapMunicipalOfficer converts one registry row. The registry has no stable
// identifier, so identity is the normalized name plus the birth date.
func MapMunicipalOfficer(_ context.Context, rec parse.Record, _ sources.Lookup) (models.Entity, error) {
	commune := rec.Get(colCommuneCode)
	if commune == "" {
		return nil, sources.Missing(colCommuneCode)
	}
	last, first := rec.Get(colLastName), rec.Get(colFirstName)
	if last == "" {
		return nil, sources.Missing(colLastName)
	}
	birth := parse.ParseDate(rec.Get(colBirthDate))

	return &models.MunicipalOfficer{
		CommuneCode:     commune,
		Identity:        Identity(last, first, birth),
		DepartmentCode:  rec.Get(colDepartmentCode),
		DepartmentName:  sources.OptionalString(rec.Get(colDepartmentName)),
		CommuneName:     rec.Get(colCommuneName),
		LastName:        last,
		FirstName:       first,
		Gender:          sources.Gender(rec.Get(colGender)),
		BirthDate:       birth.Ptr(),
		ProfessionCode:  sources.OptionalString(rec.Get(colProfessionCode)),
		ProfessionLabel: sources.OptionalString(rec.Get(colProfessionLabel)),
		Function:        sources.OptionalString(rec.Get(colFunction)),
		MandateStart:    parse.ParseDate(rec.Get(colMandateStart)).Ptr(),
		FunctionStart:   parse.ParseDate(rec.Get(colFunctionStart)).Ptr(),
	}, nil
}

// Identity is the registry's natural key within a commune.
func Identity(last, first string, birth parse.Date) string {
	return sources.Slug(last, first) + "-" + birth.ISO()
}
