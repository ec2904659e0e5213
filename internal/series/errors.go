package series

import "errors"

var (
	// ErrSourceUnavailable is returned when the source cannot be opened, stat'ed or read.
	ErrSourceUnavailable = errors.New("series: source unavailable")
	// ErrSchemaMismatch is returned when the timestamp column header is absent.
	ErrSchemaMismatch = errors.New("series: schema mismatch")
	// ErrMalformedInput is returned for any other structural parse failure.
	ErrMalformedInput = errors.New("series: malformed input")
)
