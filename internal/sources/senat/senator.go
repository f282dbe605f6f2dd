// Package senat maps the upper chamber's bulk export of senators.
package senat

import (
	"context"
	"fmt"

	"github.com/mkoziy/civic/exporter/internal/models"
	"github.com/mkoziy/civic/exporter/internal/parse"
	"github.com/mkoziy/civic/exporter/internal/sources"
)

// MapSenator converts one <senateur> element. The slug is the registration
// number (matricule), which survives name corrections and tells homonyms apart;
// the normalized name is used only when the export carries no matricule.
func MapSenator(ctx context.Context, rec parse.Record, lookup sources.Lookup) (models.Entity, error) {
	last := rec.Get("nom", "nomUsuel")
	first := rec.Get("prenom", "prenomUsuel")
	if last == "" {
		return nil, sources.Missing("nom")
	}
	slug := sources.Slug(rec.Get("@matricule", "matricule"))
	if slug == "" {
		slug = sources.Slug(first, last)
	}
	if slug == "" {
		return nil, sources.Missing("matricule")
	}

	end := parse.ParseDate(rec.Get("mandat.fin", "mandat@fin"))
	s := &models.Official{
		Chamber:       models.ChamberSenate,
		Slug:          slug,
		FirstName:     first,
		LastName:      last,
		Gender:        sources.Gender(rec.Get("qualite", "civilite")),
		BirthDate:     parse.ParseDate(rec.Get("dateNaissance", "date_naissance")).Ptr(),
		Department:    sources.OptionalString(rec.Get("circonscription", "departement")),
		MandateStart:  parse.ParseDate(rec.Get("mandat.debut", "mandat@debut")).Ptr(),
		MandateEnd:    end.Ptr(),
		MandateActive: !end.Known,
		PresenceRate:  sources.OptionalFloat(rec.Get("activite.presence")),
		Interventions: sources.OptionalInt(rec.Get("activite.interventions")),
		Amendments:    sources.OptionalInt(rec.Get("activite.amendements")),
		SourceURL:     sources.OptionalString(rec.Get("url")),
	}

	if acronym := rec.Get("groupe@sigle", "groupe.sigle", "groupe"); acronym != "" {
		id, err := lookup.GroupID(ctx, acronym, models.ChamberSenate)
		if err != nil {
			return nil, fmt.Errorf("resolve group %s: %w", acronym, err)
		}
		s.GroupID = &id
	}
	return s, nil
}
