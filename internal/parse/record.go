// Package parse turns raw upstream payloads into flat, loosely-typed records.
package parse

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Record is one row or element of an upstream dataset. Nested structures are
// flattened to dotted keys; absent and null values are absent keys.
type Record struct {
	Index  int    // 1-based position in source order
	Origin string // e.g. "line 12" or "entry senateurs/0042.xml"
	Fields map[string]string
}

// Get returns the first non-blank value among keys, trimmed.
func (r Record) Get(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(r.Fields[k]); v != "" {
			return v
		}
	}
	return ""
}

// List returns the values of a repeated key: key, key.1, key.2, ...
func (r Record) List(key string) []string {
	var out []string
	if v := strings.TrimSpace(r.Fields[key]); v != "" {
		out = append(out, v)
	}
	for i := 1; ; i++ {
		v, ok := r.Fields[key+"."+strconv.Itoa(i)]
		if !ok {
			return out
		}
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
}

// Sub returns the fields below prefix with the prefix removed.
func (r Record) Sub(prefix string) Record {
	p := prefix + "."
	fields := make(map[string]string)
	for k, v := range r.Fields {
		if strings.HasPrefix(k, p) {
			fields[k[len(p):]] = v
		}
	}
	return Record{Index: r.Index, Origin: r.Origin, Fields: fields}
}

// Keys returns the field names in sorted order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RecordFailure is a row or entry that could not be read. It is counted and skipped.
type RecordFailure struct {
	Index  int
	Origin string
	Err    error
}

func (f RecordFailure) Error() string {
	return fmt.Sprintf("%s: %v", f.Origin, f.Err)
}

func (f RecordFailure) Unwrap() error { return f.Err }

// Batch is the parse result of one payload.
type Batch struct {
	Records  []Record
	Failures []RecordFailure
}

// Seen is the number of source items encountered, readable or not.
func (b *Batch) Seen() int {
	return len(b.Records) + len(b.Failures)
}

func (b *Batch) add(origin string, fields map[string]string) {
	b.Records = append(b.Records, Record{Index: b.Seen() + 1, Origin: origin, Fields: fields})
}

func (b *Batch) fail(origin string, err error) {
	b.Failures = append(b.Failures, RecordFailure{Index: b.Seen() + 1, Origin: origin, Err: err})
}

// ParseError reports that a payload's overall shape is not what the format expects.
// It is fatal to the dataset's run.
type ParseError struct {
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func indexedKey(key string, n int) string {
	if n == 0 {
		return key
	}
	return key + "." + strconv.Itoa(n)
}
