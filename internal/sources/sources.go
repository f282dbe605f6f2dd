// Package sources holds the record mappers that turn parsed upstream records
// into store entities, one subpackage per publisher.
package sources

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/mkoziy/civic/exporter/internal/models"
	"github.com/mkoziy/civic/exporter/internal/parse"
)

// Lookup resolves cross-references while mapping.
type Lookup interface {
	// GroupID returns the id of the political group, creating it on first sight.
	GroupID(ctx context.Context, acronym string, chamber models.Chamber) (int64, error)
}

// Mapper converts one record into an entity.
type Mapper func(ctx context.Context, rec parse.Record, lookup Lookup) (models.Entity, error)

// MappingError reports a record that cannot become an entity. It is a per-record failure.
type MappingError struct {
	Field  string
	Reason string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("field %s: %s", e.Field, e.Reason)
}

// Missing returns a MappingError for an absent required field.
func Missing(field string) *MappingError {
	return &MappingError{Field: field, Reason: "missing required value"}
}

// OptionalString returns nil for a blank value.
func OptionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

// OptionalInt returns nil when v is absent or not an integer. It never returns a zero
// in place of an unknown value.
func OptionalInt(v string) *int {
	v = strings.ReplaceAll(strings.TrimSpace(v), " ", "")
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		f, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil || f != float64(int(f)) {
			return nil
		}
		n = int(f)
	}
	return &n
}

// OptionalFloat returns nil when v is absent or not a number. A decimal comma is accepted.
func OptionalFloat(v string) *float64 {
	v = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "%"))
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.Replace(v, ",", ".", 1), 64)
	if err != nil {
		return nil
	}
	return &f
}

// Gender maps the civility or sex code of a source to "F" or "M".
func Gender(v string) *string {
	var g string
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "F", "MME", "MADAME", "MLLE":
		g = "F"
	case "M", "H", "M.", "MONSIEUR":
		g = "M"
	default:
		return nil
	}
	return &g
}

// StripDiacritics removes combining marks, "Élise" becomes "Elise".
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Slug builds a lowercase, hyphen-separated, ASCII-only key from parts.
func Slug(parts ...string) string {
	s := strings.ToLower(StripDiacritics(strings.Join(parts, " ")))
	var b strings.Builder
	dash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
