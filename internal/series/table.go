// Package series loads delimited plant logs into an immutable, timestamp-indexed table.
package series

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/chrissnell/solarstats/internal/timestamp"
)

// Canonical column names. The configured timestamp header is renamed to ColumnDateTime and
// the two derived columns are appended after the source columns.
const (
	ColumnDateTime     = "DATE_TIME"
	ColumnCalendarDate = "CALENDAR_DATE"
	ColumnHourOfDay    = "HOUR_OF_DAY"
)

// Kind is the inferred type of a column
type Kind int

const (
	KindText Kind = iota
	KindNumeric
	KindTimestamp
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindTimestamp:
		return "timestamp"
	case KindDate:
		return "date"
	default:
		return "text"
	}
}

// Column describes one table column
type Column struct {
	Name    string `json:"name"`
	Kind    Kind   `json:"-"`
	Derived bool   `json:"derived,omitempty"`
	Missing int    `json:"missing"`

	// position in Row.cells; -1 for derived columns
	source int
}

// IsNumeric reports whether every non-missing value of the column is a number
func (c Column) IsNumeric() bool {
	return c.Kind == KindNumeric
}

// missingTokens are cell values treated as absent rather than as text
var missingTokens = map[string]bool{
	"":     true,
	"NA":   true,
	"N/A":  true,
	"NaN":  true,
	"nan":  true,
	"null": true,
	"NULL": true,
}

// cell is one parsed source field
type cell struct {
	raw     string
	value   float64
	numeric bool
	missing bool
}

func parseCell(raw string) cell {
	trimmed := strings.TrimSpace(raw)
	if missingTokens[trimmed] {
		return cell{raw: raw, value: math.NaN(), missing: true}
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return cell{raw: raw, value: math.NaN()}
	}
	return cell{raw: raw, value: v, numeric: true}
}

// Row is one record of the table, in source file order
type Row struct {
	// Line is the 1-based data row number in the source (header excluded)
	Line  int
	Stamp timestamp.Stamp
	cells []cell
}

// Diagnostics summarizes a load
type Diagnostics struct {
	LoadID      string    `json:"load_id"`
	Source      string    `json:"source"`
	LoadedAt    time.Time `json:"loaded_at"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	Rows        int       `json:"rows"`
	Unparseable int       `json:"unparseable_timestamps"`
}

// Table is the canonical representation of a loaded log. It is never mutated after the
// loader returns it, so it may be shared freely between goroutines.
type Table struct {
	columns []Column
	byName  map[string]int
	rows    []Row
	diag    Diagnostics

	minDate time.Time
	maxDate time.Time
	hasDate bool
}

// EmptyTable returns a table with no columns and no rows
func EmptyTable() *Table {
	return &Table{byName: map[string]int{}}
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.rows)
}

// Empty reports whether the table has no rows
func (t *Table) Empty() bool {
	return len(t.rows) == 0
}

// Columns returns the column metadata in table order
func (t *Table) Columns() []Column {
	out := make([]Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// ColumnNames returns the column names in table order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by exact name
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.byName[name]
	if !ok {
		return Column{}, false
	}
	return t.columns[i], true
}

// Row returns the i-th row in file order
func (t *Table) Row(i int) Row {
	return t.rows[i]
}

// Diagnostics returns load diagnostics
func (t *Table) Diagnostics() Diagnostics {
	return t.diag
}

// DateBounds returns the first and last calendar date among rows with a valid timestamp
func (t *Table) DateBounds() (time.Time, time.Time, bool) {
	return t.minDate, t.maxDate, t.hasDate
}

// Float returns the numeric value of column c in row r. ok is false when the value is
// missing, not a number, or undefined because the row's timestamp is unparseable.
func (r Row) Float(c Column) (float64, bool) {
	if c.Derived {
		if c.Name == ColumnHourOfDay {
			if h, ok := r.Stamp.HourOfDay(); ok {
				return float64(h), true
			}
		}
		return math.NaN(), false
	}
	if c.source < 0 || c.source >= len(r.cells) {
		return math.NaN(), false
	}
	v := r.cells[c.source]
	if !v.numeric {
		return math.NaN(), false
	}
	return v.value, true
}

// Missing reports whether column c holds no value in row r
func (r Row) Missing(c Column) bool {
	if c.Derived {
		return !r.Stamp.Valid()
	}
	if c.source < 0 || c.source >= len(r.cells) {
		return true
	}
	return r.cells[c.source].missing
}

// Text returns the display text of column c in row r
func (r Row) Text(c Column) string {
	if c.Derived {
		switch c.Name {
		case ColumnCalendarDate:
			if d, ok := r.Stamp.CalendarDate(); ok {
				return d.Format("2006-01-02")
			}
			return ""
		case ColumnHourOfDay:
			if h, ok := r.Stamp.HourOfDay(); ok {
				return strconv.Itoa(h)
			}
			return ""
		}
	}
	if c.source < 0 || c.source >= len(r.cells) {
		return ""
	}
	return r.cells[c.source].raw
}
