// Package columns discovers which table columns carry generation output and which can be
// used as numeric correlation partners.
package columns

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chrissnell/solarstats/internal/series"
)

var (
	// ErrNoGenerationColumn is returned when no column name matches a generation keyword.
	ErrNoGenerationColumn = errors.New("columns: no generation column found")
	// ErrInvalidColumnType is returned when a selected column is not numeric.
	ErrInvalidColumnType = errors.New("columns: column is not numeric")
	// ErrUnknownColumn is returned when a selected column does not exist.
	ErrUnknownColumn = errors.New("columns: unknown column")
)

// DefaultKeywords are matched case-insensitively against column names
var DefaultKeywords = []string{"GENERATION", "YIELD", "POWER", "PRODUCTION"}

// DefaultPreferredCorrelation is pre-selected as correlation partner when present
const DefaultPreferredCorrelation = "Radiation"

// Classifier applies naming heuristics to table columns
type Classifier struct {
	keywords  []string
	preferred string
}

// NewClassifier creates a Classifier. Empty arguments select the defaults.
func NewClassifier(keywords []string, preferred string) *Classifier {
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	upper := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToUpper(strings.TrimSpace(k))
		if k != "" {
			upper = append(upper, k)
		}
	}
	if preferred == "" {
		preferred = DefaultPreferredCorrelation
	}

	return &Classifier{
		keywords:  upper,
		preferred: preferred,
	}
}

// GenerationCandidates returns, in table order, the source columns whose name contains a
// generation keyword.
func (c *Classifier) GenerationCandidates(tbl *series.Table) ([]string, error) {
	var out []string
	for _, col := range tbl.Columns() {
		if col.Derived || col.Kind == series.KindTimestamp {
			continue
		}
		if c.matches(col.Name) {
			out = append(out, col.Name)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoGenerationColumn
	}
	return out, nil
}

func (c *Classifier) matches(name string) bool {
	upper := strings.ToUpper(name)
	for _, k := range c.keywords {
		if strings.Contains(upper, k) {
			return true
		}
	}
	return false
}

// NumericColumns returns all numeric columns in table order, derived ones included
func (c *Classifier) NumericColumns(tbl *series.Table) []string {
	var out []string
	for _, col := range tbl.Columns() {
		if col.IsNumeric() {
			out = append(out, col.Name)
		}
	}
	return out
}

// DefaultCorrelation picks the preferred column if it is among numeric, otherwise the
// first numeric column. It returns "" when numeric is empty.
func (c *Classifier) DefaultCorrelation(numeric []string) string {
	for _, name := range numeric {
		if name == c.preferred {
			return name
		}
	}
	if len(numeric) > 0 {
		return numeric[0]
	}
	return ""
}

// Validate checks that name exists and holds only numeric values
func (c *Classifier) Validate(tbl *series.Table, name string) (series.Column, error) {
	return Numeric(tbl, name)
}

// Numeric resolves name to a numeric column of tbl
func Numeric(tbl *series.Table, name string) (series.Column, error) {
	col, ok := tbl.Column(name)
	if !ok {
		return series.Column{}, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	if !col.IsNumeric() {
		return series.Column{}, fmt.Errorf("%w: %q is %s", ErrInvalidColumnType, name, col.Kind)
	}
	return col, nil
}
