package parse

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/mkoziy/civic/exporter/internal/source"
)

// Delimited reads a header-driven delimited text registry. A leading UTF-8
// byte-order mark is dropped; rows whose column count differs from the header
// are recorded as failures.
type Delimited struct {
	Comma rune
}

func (f *Delimited) Name() string { return "csv" }

func (f *Delimited) Parse(p *source.Payload) (*Batch, error) {
	batch := &Batch{}
	if len(bytes.TrimSpace(p.Body)) == 0 {
		return batch, nil
	}

	decoded := transform.NewReader(bytes.NewReader(p.Body), unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	r := csv.NewReader(decoded)
	r.Comma = f.comma()
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return batch, nil
	}
	if err != nil {
		return nil, &ParseError{Format: f.Name(), Err: fmt.Errorf("read header: %w", err)}
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return batch, nil
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				batch.fail(fmt.Sprintf("line %d", perr.StartLine), perr.Err)
				continue
			}
			return nil, &ParseError{Format: f.Name(), Err: err}
		}
		line, _ := r.FieldPos(0)
		origin := fmt.Sprintf("line %d", line)
		if len(row) != len(header) {
			batch.fail(origin, fmt.Errorf("expected %d columns, got %d", len(header), len(row)))
			continue
		}

		fields := make(map[string]string, len(header))
		for i, name := range header {
			if name == "" {
				continue
			}
			if v := strings.TrimSpace(row[i]); v != "" {
				fields[name] = v
			}
		}
		batch.add(origin, fields)
	}
}

func (f *Delimited) comma() rune {
	if f.Comma == 0 {
		return ';'
	}
	return f.Comma
}
