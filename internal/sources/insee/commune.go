// Package insee maps communes from the national statistics geographic API.
package insee

import (
	"context"

	"github.com/mkoziy/civic/exporter/internal/models"
	"github.com/mkoziy/civic/exporter/internal/parse"
	"github.com/mkoziy/civic/exporter/internal/sources"
)

// MapCommune converts one commune object.
func MapCommune(_ context.Context, rec parse.Record, _ sources.Lookup) (models.Entity, error) {
	code := rec.Get("code")
	if code == "" {
		return nil, sources.Missing("code")
	}
	name := rec.Get("nom")
	if name == "" {
		return nil, sources.Missing("nom")
	}
	return &models.Commune{
		Code:           code,
		Name:           name,
		DepartmentCode: sources.OptionalString(rec.Get("codeDepartement")),
		RegionCode:     sources.OptionalString(rec.Get("codeRegion")),
		Population:     sources.OptionalInt(rec.Get("population")),
		PostalCodes:    models.StringArray(rec.List("codesPostaux")),
	}, nil
}
