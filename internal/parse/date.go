package parse

import (
	"strings"
	"time"
)

// Date is a calendar date that may be unknown.
type Date struct {
	Time  time.Time
	Known bool
}

// Unknown is the zero Date.
var Unknown = Date{}

var dateLayouts = []string{
	"02/01/2006",
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000",
	"02-01-2006",
}

// ParseDate reads dd/mm/yyyy and ISO forms. Empty or invalid input yields Unknown.
func ParseDate(s string) Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return Unknown
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Known: true}
		}
	}
	return Unknown
}

// Ptr returns the date as a pointer, nil when unknown.
func (d Date) Ptr() *time.Time {
	if !d.Known {
		return nil
	}
	t := d.Time
	return &t
}

// ISO formats the date as yyyy-mm-dd, or "unknown".
func (d Date) ISO() string {
	if !d.Known {
		return "unknown"
	}
	return d.Time.Format("2006-01-02")
}
