package assemblee

import (
	"context"
	"strings"

	"github.com/mkoziy/civic/exporter/internal/models"
	"github.com/mkoziy/civic/exporter/internal/parse"
	"github.com/mkoziy/civic/exporter/internal/sources"
)

// MapVote converts one public ballot from the bulk vote export, where each
// archive entry holds a single "scrutin" object.
func MapVote(_ context.Context, rec parse.Record, _ sources.Lookup) (models.Entity, error) {
	s := rec.Sub("scrutin")
	if len(s.Fields) == 0 {
		s = rec
	}

	uid := s.Get("uid")
	if uid == "" {
		return nil, sources.Missing("uid")
	}
	title := s.Get("titre", "objet.libelle")
	if title == "" {
		return nil, sources.Missing("titre")
	}

	tally := s.Sub("syntheseVote.decompte")
	return &models.Vote{
		UID:         uid,
		Chamber:     models.ChamberAssembly,
		Legislature: sources.OptionalInt(s.Get("legislature")),
		Number:      sources.OptionalInt(s.Get("numero")),
		Date:        parse.ParseDate(s.Get("dateScrutin")).Ptr(),
		Title:       title,
		Outcome:     sources.OptionalString(strings.ToLower(s.Get("sort.code"))),
		For:         sources.OptionalInt(tally.Get("pour")),
		Against:     sources.OptionalInt(tally.Get("contre")),
		Abstentions: sources.OptionalInt(tally.Get("abstentions")),
		NonVoting:   sources.OptionalInt(tally.Get("nonVotants")),
	}, nil
}
