package parse

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/mkoziy/civic/exporter/internal/source"
)

// JSONList reads a JSON document holding an array of records, either at the
// top level or under Field. Unknown fields are kept and ignored by mappers.
type JSONList struct {
	Field  string
	Unwrap string
}

func (f *JSONList) Name() string { return "json" }

func (f *JSONList) Parse(p *source.Payload) (*Batch, error) {
	batch := &Batch{}
	if len(bytes.TrimSpace(p.Body)) == 0 {
		return batch, nil
	}

	doc, err := decodeJSON(p.Body)
	if err != nil {
		return nil, &ParseError{Format: f.Name(), Err: err}
	}

	items, err := f.locate(doc)
	if err != nil {
		return nil, &ParseError{Format: f.Name(), Err: err}
	}

	for i, item := range items {
		origin := fmt.Sprintf("item %d", i+1)
		obj, ok := item.(map[string]any)
		if !ok {
			batch.fail(origin, fmt.Errorf("expected object, got %s", jsonType(item)))
			continue
		}
		if f.Unwrap != "" {
			if inner, ok := obj[f.Unwrap].(map[string]any); ok {
				obj = inner
			}
		}
		fields := make(map[string]string, len(obj))
		flattenJSON("", obj, fields)
		batch.add(origin, fields)
	}
	return batch, nil
}

func (f *JSONList) locate(doc any) ([]any, error) {
	if f.Field == "" {
		items, ok := doc.([]any)
		if !ok {
			return nil, fmt.Errorf("expected top-level array, got %s", jsonType(doc))
		}
		return items, nil
	}

	cur := doc
	for _, part := range strings.Split(f.Field, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field %q: expected object, got %s", f.Field, jsonType(cur))
		}
		cur, ok = obj[part]
		if !ok {
			return nil, fmt.Errorf("field %q not found", f.Field)
		}
	}
	items, ok := cur.([]any)
	if !ok {
		return nil, fmt.Errorf("field %q: expected array, got %s", f.Field, jsonType(cur))
	}
	return items, nil
}

func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if dec.More() {
		return nil, errors.New("decode: trailing data after document")
	}
	return doc, nil
}

// flattenJSON writes scalar leaves of v into out under dotted keys.
// Array elements after the first get an index suffix.
func flattenJSON(prefix string, v any, out map[string]string) {
	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			flattenJSON(joinKey(prefix, k), child, out)
		}
	case []any:
		for i, child := range val {
			flattenJSON(indexedKey(prefix, i), child, out)
		}
	case nil:
	case string:
		out[prefix] = val
	case json.Number:
		out[prefix] = val.String()
	case bool:
		if val {
			out[prefix] = "true"
		} else {
			out[prefix] = "false"
		}
	default:
		out[prefix] = fmt.Sprint(val)
	}
}

func jsonType(v any) string {
	switch v.(type) {
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case nil:
		return "null"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
