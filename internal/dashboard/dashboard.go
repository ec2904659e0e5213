// Package dashboard runs the full analytics pipeline for one request: load the source,
// filter it to a date range, pick the generation column and compute every report section.
// Data problems never surface as Go errors here; they become a Status on the Report.
package dashboard

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/chrissnell/solarstats/internal/analysis"
	"github.com/chrissnell/solarstats/internal/columns"
	"github.com/chrissnell/solarstats/internal/series"
	"go.uber.org/zap"
)

var (
	// ErrInvalidRequest is returned by Build for request parameters that cannot be honoured.
	ErrInvalidRequest = errors.New("dashboard: invalid request")
	// ErrMissingValues is reported when the missing-value policy forbids gaps.
	ErrMissingValues = errors.New("dashboard: missing values")
)

// PreviewRows is the number of filtered rows included in a report preview
const PreviewRows = 5

// MissingPolicy decides what happens when the selected column has blank cells
type MissingPolicy string

const (
	// MissingExclude leaves blanks out of every statistic and reports how many were left out
	MissingExclude MissingPolicy = "exclude"
	// MissingError turns any blank in the selected column into StatusMissingValues
	MissingError MissingPolicy = "error"
)

// ParseMissingPolicy resolves a policy name. The empty string selects MissingExclude.
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch MissingPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", MissingExclude:
		return MissingExclude, nil
	case MissingError:
		return MissingError, nil
	}
	return "", fmt.Errorf("%w: unknown missing value policy %q", ErrInvalidRequest, s)
}

// Source returns the table for a path. *series.Cache and *series.Loader both satisfy it.
type Source interface {
	Load(path string) (*series.Table, error)
}

// Config holds the settings that apply to every request
type Config struct {
	SourcePath           string
	Keywords             []string
	PreferredCorrelation string
	DefaultBucket        analysis.Bucket
	HistogramBins        int
	MissingValues        MissingPolicy
}

// Dashboard builds reports over one configured source
type Dashboard struct {
	cfg        Config
	source     Source
	classifier *columns.Classifier
	logger     *zap.SugaredLogger
}

// New creates a Dashboard. Unset configuration fields take their defaults.
func New(cfg Config, source Source, logger *zap.SugaredLogger) *Dashboard {
	if cfg.DefaultBucket == "" {
		cfg.DefaultBucket = analysis.BucketDaily
	}
	if cfg.HistogramBins <= 0 {
		cfg.HistogramBins = analysis.DefaultHistogramBins
	}
	if cfg.MissingValues == "" {
		cfg.MissingValues = MissingExclude
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Dashboard{
		cfg:        cfg,
		source:     source,
		classifier: columns.NewClassifier(cfg.Keywords, cfg.PreferredCorrelation),
		logger:     logger,
	}
}

// Request selects what a report covers. Zero values select defaults.
type Request struct {
	// Dates bounds the calendar range; fewer than two dates means the whole source
	Dates     []time.Time
	Column    string
	Bucket    analysis.Bucket
	Correlate string
	Bins      int
}

// DateBounds is the first and last calendar date present in the source
type DateBounds struct {
	First time.Time `json:"first"`
	Last  time.Time `json:"last"`
}

// FilterInfo describes how the date range was applied
type FilterInfo struct {
	Status   string    `json:"status"`
	Start    time.Time `json:"start,omitempty"`
	End      time.Time `json:"end,omitempty"`
	Rows     int       `json:"rows"`
	Advisory string    `json:"advisory,omitempty"`
}

// Preview shows the first rows of the filtered table as text
type Preview struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Report is everything the presentation layer needs for one request. Sections after
// the column lists are only set when Status is StatusOK.
type Report struct {
	Status      Status             `json:"status"`
	Message     string             `json:"message"`
	Detail      string             `json:"detail,omitempty"`
	Diagnostics series.Diagnostics `json:"diagnostics"`
	Bounds      *DateBounds        `json:"date_bounds,omitempty"`
	Filter      *FilterInfo        `json:"filter,omitempty"`

	Candidates        []string `json:"generation_columns,omitempty"`
	NumericColumns    []string `json:"numeric_columns,omitempty"`
	Column            string   `json:"column,omitempty"`
	CorrelationColumn string   `json:"correlation_column,omitempty"`
	ExcludedMissing   int      `json:"excluded_missing"`

	Summary      *analysis.SummaryStats   `json:"summary,omitempty"`
	Distribution *analysis.Distribution   `json:"distribution,omitempty"`
	Trend        *analysis.BucketedSeries `json:"trend,omitempty"`
	Hourly       *analysis.HourlyProfile  `json:"hourly,omitempty"`
	Preview      *Preview                 `json:"preview,omitempty"`
	Correlation  *analysis.Correlation    `json:"correlation,omitempty"`
}

func (r *Report) fail(err error) *Report {
	r.Summary, r.Distribution, r.Trend, r.Hourly, r.Preview, r.Correlation = nil, nil, nil, nil, nil, nil
	r.Status = StatusFor(err)
	r.Message = r.Status.Message()
	r.Detail = err.Error()
	return r
}

func (d *Dashboard) normalize(req Request) (Request, error) {
	if req.Bucket == "" {
		req.Bucket = d.cfg.DefaultBucket
	}
	b, err := analysis.ParseBucket(string(req.Bucket))
	if err != nil {
		return req, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	req.Bucket = b

	if req.Bins == 0 {
		req.Bins = d.cfg.HistogramBins
	}
	if req.Bins < 0 {
		return req, fmt.Errorf("%w: histogram bins must be positive, got %d", ErrInvalidRequest, req.Bins)
	}
	return req, nil
}

// Build runs the pipeline for req. The returned error is non-nil only when req itself is
// invalid; every condition of the data is reported through Report.Status.
func (d *Dashboard) Build(req Request) (*Report, error) {
	req, err := d.normalize(req)
	if err != nil {
		return nil, err
	}

	report := &Report{}

	tbl, err := d.source.Load(d.cfg.SourcePath)
	report.Diagnostics = tbl.Diagnostics()
	if err != nil {
		d.logger.Warnf("loading %s: %v", d.cfg.SourcePath, err)
		return report.fail(err), nil
	}
	if first, last, ok := tbl.DateBounds(); ok {
		report.Bounds = &DateBounds{First: first, Last: last}
	}

	filtered := analysis.Filter(tbl, req.Dates...)
	report.Filter = &FilterInfo{
		Status:   filtered.Status.String(),
		Start:    filtered.Start,
		End:      filtered.End,
		Rows:     filtered.Len(),
		Advisory: filtered.Advisory,
	}
	if filtered.Status == analysis.FilterEmpty {
		report.Status = StatusEmptyFilteredRange
		report.Message = StatusEmptyFilteredRange.Message()
		report.Detail = filtered.Advisory
		return report, nil
	}

	candidates, err := d.classifier.GenerationCandidates(tbl)
	if err != nil {
		return report.fail(err), nil
	}
	report.Candidates = candidates
	report.NumericColumns = d.classifier.NumericColumns(tbl)

	column := req.Column
	if column == "" {
		column = candidates[0]
	}
	report.Column = column
	if !slices.Contains(candidates, column) {
		return report.fail(fmt.Errorf("%w: %q is not a generation column", columns.ErrUnknownColumn, column)), nil
	}
	if _, err := d.classifier.Validate(tbl, column); err != nil {
		return report.fail(err), nil
	}

	missing, err := analysis.MissingValues(filtered, column)
	if err != nil {
		return report.fail(err), nil
	}
	if missing > 0 && d.cfg.MissingValues == MissingError {
		return report.fail(fmt.Errorf("%w: %d rows of %q", ErrMissingValues, missing, column)), nil
	}
	report.ExcludedMissing = missing

	correlate := req.Correlate
	if correlate == "" {
		correlate = d.classifier.DefaultCorrelation(report.NumericColumns)
	}
	report.CorrelationColumn = correlate
	if _, err := d.classifier.Validate(tbl, correlate); err != nil {
		return report.fail(err), nil
	}

	if err := d.analyze(report, filtered, column, correlate, req); err != nil {
		return report.fail(err), nil
	}

	report.Status = StatusOK
	report.Message = StatusOK.Message()
	d.logger.Debugw("report built",
		"column", column,
		"rows", filtered.Len(),
		"bucket", req.Bucket,
		"correlate", correlate)

	return report, nil
}

func (d *Dashboard) analyze(report *Report, f *analysis.Filtered, column, correlate string, req Request) error {
	var err error
	if report.Summary, err = analysis.Summarize(f, column); err != nil {
		return err
	}
	if report.Distribution, err = analysis.Describe(f, column, req.Bins); err != nil {
		return err
	}
	if report.Trend, err = analysis.Resample(f, column, req.Bucket); err != nil {
		return err
	}
	if report.Hourly, err = analysis.Hourly(f, column); err != nil {
		return err
	}
	report.Preview = preview(f, PreviewRows)
	if report.Correlation, err = analysis.Correlate(f, column, correlate); err != nil {
		return err
	}
	return nil
}

// ColumnInfo lists what a caller may choose from before requesting a report
type ColumnInfo struct {
	Status             Status             `json:"status"`
	Message            string             `json:"message"`
	Detail             string             `json:"detail,omitempty"`
	Diagnostics        series.Diagnostics `json:"diagnostics"`
	Bounds             *DateBounds        `json:"date_bounds,omitempty"`
	Candidates         []string           `json:"generation_columns"`
	NumericColumns     []string           `json:"numeric_columns"`
	DefaultColumn      string             `json:"default_column,omitempty"`
	DefaultCorrelation string             `json:"default_correlation,omitempty"`
	DefaultBucket      analysis.Bucket    `json:"default_bucket"`
	Buckets            []analysis.Bucket  `json:"buckets"`
}

// Columns describes the selectable columns of the source
func (d *Dashboard) Columns() *ColumnInfo {
	info := &ColumnInfo{
		Candidates:     []string{},
		NumericColumns: []string{},
		DefaultBucket:  d.cfg.DefaultBucket,
		Buckets:        analysis.Buckets,
	}

	tbl, err := d.source.Load(d.cfg.SourcePath)
	info.Diagnostics = tbl.Diagnostics()
	if err != nil {
		info.Status = StatusFor(err)
		info.Message = info.Status.Message()
		info.Detail = err.Error()
		return info
	}
	if first, last, ok := tbl.DateBounds(); ok {
		info.Bounds = &DateBounds{First: first, Last: last}
	}

	info.NumericColumns = append(info.NumericColumns, d.classifier.NumericColumns(tbl)...)
	info.DefaultCorrelation = d.classifier.DefaultCorrelation(info.NumericColumns)

	candidates, err := d.classifier.GenerationCandidates(tbl)
	if err != nil {
		info.Status = StatusFor(err)
		info.Message = info.Status.Message()
		return info
	}
	info.Candidates = candidates
	info.DefaultColumn = candidates[0]
	info.Status = StatusOK
	info.Message = StatusOK.Message()

	return info
}

func preview(f *analysis.Filtered, n int) *Preview {
	cols := f.Table().Columns()
	p := &Preview{
		Columns: make([]string, len(cols)),
		Rows:    [][]string{},
	}
	for i, c := range cols {
		p.Columns[i] = c.Name
	}
	for i := 0; i < f.Len() && i < n; i++ {
		row := f.Row(i)
		values := make([]string, len(cols))
		for j, c := range cols {
			values[j] = row.Text(c)
		}
		p.Rows = append(p.Rows, values)
	}
	return p
}
