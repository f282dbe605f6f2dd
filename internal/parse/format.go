package parse

import (
	"fmt"

	"github.com/mkoziy/civic/exporter/internal/source"
)

// Format converts one payload into records. Each dataset selects its Format
// once, from configuration.
type Format interface {
	Name() string
	Parse(p *source.Payload) (*Batch, error)
}

// Kind tags the Format variant.
type Kind string

const (
	KindJSON      Kind = "json"
	KindDelimited Kind = "csv"
	KindArchive   Kind = "archive"
)

// Config selects and tunes a Format.
type Config struct {
	Kind Kind `koanf:"kind" validate:"required,oneof=json csv archive"`
	// Field is the dotted path of the record array in a JSON document; empty means top-level array.
	Field string `koanf:"field"`
	// Unwrap names a single-key wrapper object around each JSON item.
	Unwrap string `koanf:"unwrap"`
	// Delimiter is the CSV field separator; defaults to ';'.
	Delimiter string `koanf:"delimiter" validate:"omitempty,len=1"`
	// RecordElement names the element (XML) or key (JSON) holding one record inside archive entries.
	RecordElement string `koanf:"record_element"`
}

// SourceKind is the payload packaging the format consumes.
func (c Config) SourceKind() source.Kind {
	if c.Kind == KindArchive {
		return source.KindArchive
	}
	return source.KindDocument
}

// New builds the Format described by cfg.
func New(cfg Config) (Format, error) {
	switch cfg.Kind {
	case KindJSON:
		return &JSONList{Field: cfg.Field, Unwrap: cfg.Unwrap}, nil
	case KindDelimited:
		comma := ';'
		if cfg.Delimiter != "" {
			comma = []rune(cfg.Delimiter)[0]
		}
		return &Delimited{Comma: comma}, nil
	case KindArchive:
		return &ArchivedMarkup{RecordElement: cfg.RecordElement}, nil
	default:
		return nil, fmt.Errorf("unknown format kind %q", cfg.Kind)
	}
}
