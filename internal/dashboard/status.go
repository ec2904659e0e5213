package dashboard

import (
	"errors"

	"github.com/chrissnell/solarstats/internal/columns"
	"github.com/chrissnell/solarstats/internal/series"
)

// Status is the outcome of building a report
type Status string

const (
	StatusOK                      Status = "ok"
	StatusSourceUnavailable       Status = "source-unavailable"
	StatusSchemaMismatch          Status = "schema-mismatch"
	StatusMalformedInput          Status = "malformed-input"
	StatusNoGenerationColumnFound Status = "no-generation-column"
	StatusInvalidColumnType       Status = "invalid-column-type"
	StatusEmptyFilteredRange      Status = "empty-filtered-range"
	StatusMissingValues           Status = "missing-values"
)

var statusMessages = map[Status]string{
	StatusOK:                      "report complete",
	StatusSourceUnavailable:       "the data source could not be read",
	StatusSchemaMismatch:          "the data source has no timestamp column",
	StatusMalformedInput:          "the data source is not well-formed delimited text",
	StatusNoGenerationColumnFound: "no energy generation column found; expected a column name containing GENERATION, YIELD, POWER or PRODUCTION",
	StatusInvalidColumnType:       "the selected column does not hold numeric data",
	StatusEmptyFilteredRange:      "no data in the selected date range",
	StatusMissingValues:           "the selected column has missing values in the selected date range",
}

// Message returns a human-readable description of s
func (s Status) Message() string {
	if m, ok := statusMessages[s]; ok {
		return m
	}
	return "unknown status " + string(s)
}

// OK reports whether s is StatusOK
func (s Status) OK() bool {
	return s == StatusOK
}

// LoadFailure reports whether s means the source itself could not be used, as opposed to
// a problem with the caller's selection.
func (s Status) LoadFailure() bool {
	switch s {
	case StatusSourceUnavailable, StatusSchemaMismatch, StatusMalformedInput:
		return true
	}
	return false
}

// StatusFor maps a pipeline error to its status. Unrecognised errors are treated as an
// unreadable source.
func StatusFor(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, series.ErrSchemaMismatch):
		return StatusSchemaMismatch
	case errors.Is(err, series.ErrMalformedInput):
		return StatusMalformedInput
	case errors.Is(err, series.ErrSourceUnavailable):
		return StatusSourceUnavailable
	case errors.Is(err, columns.ErrNoGenerationColumn):
		return StatusNoGenerationColumnFound
	case errors.Is(err, columns.ErrInvalidColumnType), errors.Is(err, columns.ErrUnknownColumn):
		return StatusInvalidColumnType
	case errors.Is(err, ErrMissingValues):
		return StatusMissingValues
	default:
		return StatusSourceUnavailable
	}
}
