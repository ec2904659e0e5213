package analysis

import (
	"time"

	"github.com/chrissnell/solarstats/internal/series"
)

// FilterStatus describes how a date filter was applied
type FilterStatus int

const (
	// FilterApplied means a two-date range selected at least one row
	FilterApplied FilterStatus = iota
	// FilterPassThrough means fewer than two dates were supplied and the whole table passed
	FilterPassThrough
	// FilterEmpty means no rows remain; callers must stop before aggregating
	FilterEmpty
)

func (s FilterStatus) String() string {
	switch s {
	case FilterApplied:
		return "applied"
	case FilterPassThrough:
		return "pass-through"
	default:
		return "empty"
	}
}

// Advisory messages attached to a Filtered view
const (
	AdvisoryNeedTwoDates  = "select both a start and an end date; showing the full data set"
	AdvisoryExtraDates    = "more than two dates supplied; only the first two are used"
	AdvisoryStartAfterEnd = "start date is after end date"
	AdvisoryNoRows        = "no data in the selected date range"
)

// Filtered is a read-only subset of a table's rows, in table order
type Filtered struct {
	table    *series.Table
	rows     []int
	Status   FilterStatus
	Advisory string
	Start    time.Time
	End      time.Time
}

// Table returns the underlying table
func (f *Filtered) Table() *series.Table {
	return f.table
}

// Len returns the number of selected rows
func (f *Filtered) Len() int {
	return len(f.rows)
}

// Empty reports whether no rows were selected
func (f *Filtered) Empty() bool {
	return len(f.rows) == 0
}

// Row returns the i-th selected row
func (f *Filtered) Row(i int) series.Row {
	return f.table.Row(f.rows[i])
}

// All selects every row of tbl without filtering
func All(tbl *series.Table) *Filtered {
	f := &Filtered{table: tbl, rows: make([]int, tbl.Len()), Status: FilterPassThrough}
	for i := range f.rows {
		f.rows[i] = i
	}
	if f.Empty() {
		f.Status = FilterEmpty
		f.Advisory = AdvisoryNoRows
	}
	return f
}

// Filter restricts tbl to rows whose calendar date lies in [dates[0], dates[1]],
// both inclusive. Only the calendar date of each bound is used. With fewer than two
// dates the full table passes through with an advisory. Rows with an unparseable
// timestamp never fall inside a range.
func Filter(tbl *series.Table, dates ...time.Time) *Filtered {
	if len(dates) < 2 {
		f := All(tbl)
		if f.Status == FilterPassThrough {
			f.Advisory = AdvisoryNeedTwoDates
		}
		return f
	}

	f := &Filtered{
		table:  tbl,
		Status: FilterApplied,
		Start:  dates[0],
		End:    dates[1],
	}
	if len(dates) > 2 {
		f.Advisory = AdvisoryExtraDates
	}

	start, end := dayKey(dates[0]), dayKey(dates[1])
	if start > end {
		f.Status = FilterEmpty
		f.Advisory = AdvisoryStartAfterEnd
		return f
	}

	for i := 0; i < tbl.Len(); i++ {
		d, ok := tbl.Row(i).Stamp.CalendarDate()
		if !ok {
			continue
		}
		if k := dayKey(d); k >= start && k <= end {
			f.rows = append(f.rows, i)
		}
	}

	if f.Empty() {
		f.Status = FilterEmpty
		f.Advisory = AdvisoryNoRows
	}
	return f
}

// dayKey orders calendar dates independent of location
func dayKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
