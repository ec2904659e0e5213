// Package timestamp normalizes plant log date-time text into chronological values.
// Source logs write timestamps as dd.mm.YYYY-HH:MM; anything that does not match that
// shape exactly maps to an unparseable Stamp instead of an error.
package timestamp

import (
	"strings"
	"time"
)

// DefaultLayout is the Go reference layout for dd.mm.YYYY-HH:MM
const DefaultLayout = "02.01.2006-15:04"

// Stamp is a parsed timestamp. The zero Stamp is the unparseable sentinel.
type Stamp struct {
	t     time.Time
	valid bool
}

// Unparseable returns the sentinel Stamp used for rows whose timestamp could not be read
func Unparseable() Stamp {
	return Stamp{}
}

// Valid reports whether the stamp holds a parsed time
func (s Stamp) Valid() bool {
	return s.valid
}

// Time returns the parsed time and whether it is defined
func (s Stamp) Time() (time.Time, bool) {
	return s.t, s.valid
}

// CalendarDate returns midnight of the stamp's day in the stamp's location
func (s Stamp) CalendarDate() (time.Time, bool) {
	if !s.valid {
		return time.Time{}, false
	}
	return TruncateToDay(s.t), true
}

// HourOfDay returns the hour component, 0-23
func (s Stamp) HourOfDay() (int, bool) {
	if !s.valid {
		return 0, false
	}
	return s.t.Hour(), true
}

// String renders the stamp back in the default source layout
func (s Stamp) String() string {
	if !s.valid {
		return "unparseable"
	}
	return s.t.Format(DefaultLayout)
}

// Normalizer parses raw timestamp text with a fixed layout in a fixed location.
type Normalizer struct {
	layout string
	loc    *time.Location
}

// NewNormalizer creates a Normalizer. An empty layout selects DefaultLayout and a nil
// location selects UTC.
func NewNormalizer(layout string, loc *time.Location) *Normalizer {
	if layout == "" {
		layout = DefaultLayout
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{
		layout: layout,
		loc:    loc,
	}
}

// Location returns the location parsed times are placed in
func (n *Normalizer) Location() *time.Location {
	return n.loc
}

// Parse converts raw text into a Stamp. Malformed input returns the sentinel.
func (n *Normalizer) Parse(raw string) Stamp {
	value := strings.TrimSpace(raw)

	// time.Parse accepts a single-digit hour for "15"; the source format is fixed-width,
	// so anything shorter or longer than the layout is rejected up front.
	if len(value) != len(n.layout) {
		return Unparseable()
	}

	t, err := time.ParseInLocation(n.layout, value, n.loc)
	if err != nil {
		return Unparseable()
	}

	return Stamp{t: t, valid: true}
}

// TruncateToDay returns midnight of t's day in t's location
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
