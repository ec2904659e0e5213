package series

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chrissnell/solarstats/internal/timestamp"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultTimestampHeader is the header the plant logger writes for its timestamp column
const DefaultTimestampHeader = "Date-Hour(NMT)"

// Options controls how a source is read
type Options struct {
	TimestampHeader string // header naming the raw timestamp column
	Delimiter       rune   // field delimiter (default ',')
	Normalizer      *timestamp.Normalizer
}

// Loader builds Tables from delimited text
type Loader struct {
	opts   Options
	logger *zap.SugaredLogger
}

// NewLoader creates a Loader, filling unset options with defaults
func NewLoader(opts Options, logger *zap.SugaredLogger) *Loader {
	if opts.TimestampHeader == "" {
		opts.TimestampHeader = DefaultTimestampHeader
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	if opts.Normalizer == nil {
		opts.Normalizer = timestamp.NewNormalizer("", nil)
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Loader{
		opts:   opts,
		logger: logger,
	}
}

// Normalizer returns the timestamp normalizer used by this loader
func (l *Loader) Normalizer() *timestamp.Normalizer {
	return l.opts.Normalizer
}

// Fingerprint identifies one version of a source file
type Fingerprint struct {
	Size    int64
	ModTime time.Time
}

// Equal reports whether both fingerprints describe the same file version
func (f Fingerprint) Equal(o Fingerprint) bool {
	return f.Size == o.Size && f.ModTime.Equal(o.ModTime)
}

func (f Fingerprint) String() string {
	return fmt.Sprintf("%d@%d", f.Size, f.ModTime.UnixNano())
}

// Stat fingerprints the file at path
func Stat(path string) (Fingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	if info.IsDir() {
		return Fingerprint{}, fmt.Errorf("%w: %s is a directory", ErrSourceUnavailable, path)
	}
	return Fingerprint{Size: info.Size(), ModTime: info.ModTime()}, nil
}

// Load reads the file at path. On failure the returned table is empty, never partial.
func (l *Loader) Load(path string) (*Table, error) {
	fp, err := Stat(path)
	if err != nil {
		return EmptyTable(), err
	}

	file, err := os.Open(path)
	if err != nil {
		return EmptyTable(), fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer file.Close()

	t, err := l.read(file, path)
	if err != nil {
		return EmptyTable(), err
	}
	t.diag.Fingerprint = fp.String()

	return t, nil
}

// LoadReader reads a table from r. source is only used for diagnostics.
func (l *Loader) LoadReader(r io.Reader, source string) (*Table, error) {
	t, err := l.read(r, source)
	if err != nil {
		return EmptyTable(), err
	}
	return t, nil
}

func (l *Loader) read(r io.Reader, source string) (*Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = l.opts.Delimiter
	reader.TrimLeadingSpace = true
	// Short rows are padded with missing values below; long rows are rejected.
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: no header row", ErrMalformedInput)
	}
	if err != nil {
		return nil, classifyReadError(err)
	}

	names := make([]string, len(header))
	tsIdx := -1
	for i, h := range header {
		h = cleanHeader(h, i == 0)
		if h == "" {
			h = "Unnamed: " + strconv.Itoa(i)
		}
		if tsIdx == -1 && h == l.opts.TimestampHeader {
			tsIdx = i
			h = ColumnDateTime
		}
		names[i] = h
	}
	if tsIdx == -1 {
		return nil, fmt.Errorf("%w: column %q not found in header", ErrSchemaMismatch, l.opts.TimestampHeader)
	}
	names = dedupeNames(names, tsIdx, ColumnCalendarDate, ColumnHourOfDay)

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, classifyReadError(err)
		}

		line := len(rows) + 1
		if len(record) > len(names) {
			return nil, fmt.Errorf("%w: row %d has %d fields, header has %d", ErrMalformedInput, line, len(record), len(names))
		}

		cells := make([]cell, len(names))
		for i := range names {
			if i < len(record) {
				cells[i] = parseCell(record[i])
			} else {
				cells[i] = parseCell("")
			}
		}

		var raw string
		if tsIdx < len(record) {
			raw = record[tsIdx]
		}

		rows = append(rows, Row{
			Line:  line,
			Stamp: l.opts.Normalizer.Parse(raw),
			cells: cells,
		})
	}

	t := build(names, tsIdx, rows)
	t.diag.LoadID = uuid.NewString()
	t.diag.Source = source
	t.diag.LoadedAt = time.Now()

	if t.diag.Unparseable > 0 {
		l.logger.Warnf("%d of %d rows in %s have an unparseable timestamp and are excluded from time-based analysis",
			t.diag.Unparseable, t.diag.Rows, source)
	}
	l.logger.Infow("loaded source",
		"source", source,
		"rows", t.diag.Rows,
		"columns", len(t.columns),
		"load_id", t.diag.LoadID)

	return t, nil
}

// build assembles column metadata, derived columns and date bounds
func build(names []string, tsIdx int, rows []Row) *Table {
	t := &Table{
		byName: make(map[string]int, len(names)+2),
		rows:   rows,
	}

	for i, name := range names {
		col := Column{Name: name, source: i}
		numeric := len(rows) > 0
		for _, r := range rows {
			c := r.cells[i]
			if c.missing {
				col.Missing++
				continue
			}
			if !c.numeric {
				numeric = false
			}
		}

		switch {
		case i == tsIdx:
			col.Kind = KindTimestamp
		case numeric:
			col.Kind = KindNumeric
		default:
			col.Kind = KindText
		}
		t.columns = append(t.columns, col)
	}

	t.columns = append(t.columns,
		Column{Name: ColumnCalendarDate, Kind: KindDate, Derived: true, source: -1},
		Column{Name: ColumnHourOfDay, Kind: KindNumeric, Derived: true, source: -1},
	)

	for _, r := range rows {
		d, ok := r.Stamp.CalendarDate()
		if !ok {
			t.diag.Unparseable++
			continue
		}
		if !t.hasDate || d.Before(t.minDate) {
			t.minDate = d
		}
		if !t.hasDate || d.After(t.maxDate) {
			t.maxDate = d
		}
		t.hasDate = true
	}

	// Derived columns are missing wherever the timestamp is
	for i := len(t.columns) - 2; i < len(t.columns); i++ {
		t.columns[i].Missing = t.diag.Unparseable
	}
	if len(rows) == 0 {
		t.columns[len(t.columns)-1].Kind = KindText
	}

	for i, c := range t.columns {
		t.byName[c.Name] = i
	}
	t.diag.Rows = len(rows)

	return t
}

// cleanHeader strips whitespace, quotes and a leading byte order mark
func cleanHeader(h string, first bool) string {
	if first {
		h = strings.TrimPrefix(h, "\ufeff")
	}
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(h), "\""))
}

// dedupeNames suffixes repeated names with .1, .2, ... in order of appearance.
// names[keep] and the reserved names are never renamed and count as already taken.
func dedupeNames(names []string, keep int, reserved ...string) []string {
	seen := make(map[string]int, len(names)+len(reserved)+1)
	for _, r := range reserved {
		seen[r] = 0
	}
	seen[names[keep]] = 0

	out := make([]string, len(names))
	for i, name := range names {
		if i == keep {
			out[i] = name
			continue
		}
		n, taken := seen[name]
		if !taken {
			seen[name] = 0
			out[i] = name
			continue
		}
		for {
			n++
			candidate := name + "." + strconv.Itoa(n)
			if _, exists := seen[candidate]; !exists {
				seen[name] = n
				seen[candidate] = 0
				out[i] = candidate
				break
			}
		}
	}
	return out
}

func classifyReadError(err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
}
