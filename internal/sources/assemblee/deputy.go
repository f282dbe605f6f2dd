// Package assemblee maps the lower chamber's deputy list and public votes.
package assemblee

import (
	"context"
	"fmt"

	"github.com/mkoziy/civic/exporter/internal/models"
	"github.com/mkoziy/civic/exporter/internal/parse"
	"github.com/mkoziy/civic/exporter/internal/sources"
)

// MapDeputy converts one deputy of the open-data deputy list.
func MapDeputy(ctx context.Context, rec parse.Record, lookup sources.Lookup) (models.Entity, error) {
	last := rec.Get("nom_de_famille", "nom")
	first := rec.Get("prenom")
	if last == "" {
		return nil, sources.Missing("nom_de_famille")
	}
	slug := rec.Get("slug")
	if slug == "" {
		slug = sources.Slug(first, last)
	}
	if slug == "" {
		return nil, sources.Missing("slug")
	}

	end := parse.ParseDate(rec.Get("mandat_fin"))
	d := &models.Official{
		Chamber:       models.ChamberAssembly,
		Slug:          slug,
		FirstName:     first,
		LastName:      last,
		Gender:        sources.Gender(rec.Get("sexe")),
		BirthDate:     parse.ParseDate(rec.Get("date_naissance")).Ptr(),
		Department:    sources.OptionalString(rec.Get("num_deptmt")),
		Constituency:  constituency(rec),
		MandateStart:  parse.ParseDate(rec.Get("mandat_debut")).Ptr(),
		MandateEnd:    end.Ptr(),
		MandateActive: !end.Known,
		PresenceRate:  sources.OptionalFloat(rec.Get("taux_presence", "semaines_presence")),
		Interventions: sources.OptionalInt(rec.Get("interventions", "nb_interventions")),
		Amendments:    sources.OptionalInt(rec.Get("amendements_proposes", "nb_amendements")),
		SourceURL:     sources.OptionalString(rec.Get("url_an", "url_nosdeputes")),
	}

	if acronym := rec.Get("groupe_sigle", "groupe.sigle"); acronym != "" {
		id, err := lookup.GroupID(ctx, acronym, models.ChamberAssembly)
		if err != nil {
			return nil, fmt.Errorf("resolve group %s: %w", acronym, err)
		}
		d.GroupID = &id
	}
	return d, nil
}

func constituency(rec parse.Record) *string {
	name, num := rec.Get("nom_circo"), rec.Get("num_circo")
	switch {
	case name != "" && num != "":
		return sources.OptionalString(fmt.Sprintf("%s (%s)", name, num))
	case name != "":
		return &name
	default:
		return sources.OptionalString(num)
	}
}
