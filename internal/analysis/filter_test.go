package analysis

import (
	"testing"
	"time"
)

func TestFilterSingleDay(t *testing.T) {
	tbl := loadSample(t, sampleCSV)

	f := Filter(tbl, date(2020, time.January, 6), date(2020, time.January, 6))
	if f.Status != FilterApplied {
		t.Fatalf("expected applied filter, got %v", f.Status)
	}
	if f.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", f.Len())
	}
	for i := 0; i < f.Len(); i++ {
		d, _ := f.Row(i).Stamp.CalendarDate()
		if d.Day() != 6 {
			t.Errorf("row %d is outside the selected day: %v", i, d)
		}
	}
}

func TestFilterInclusiveBounds(t *testing.T) {
	tbl := loadSample(t, sampleCSV)

	// Bounds carrying a time of day still select whole days
	start := time.Date(2020, time.January, 5, 18, 0, 0, 0, time.UTC)
	end := time.Date(2020, time.January, 7, 1, 0, 0, 0, time.UTC)

	f := Filter(tbl, start, end)
	if f.Len() != 6 {
		t.Errorf("expected all 6 timestamped rows, got %d", f.Len())
	}

	// Rows keep file order
	prev := 0
	for i := 0; i < f.Len(); i++ {
		if f.Row(i).Line <= prev {
			t.Errorf("rows out of file order at %d", i)
		}
		prev = f.Row(i).Line
	}
}

func TestFilterEmptyOutcomes(t *testing.T) {
	tbl := loadSample(t, sampleCSV)

	tests := []struct {
		name     string
		dates    []time.Time
		advisory string
	}{
		{"start after end", []time.Time{date(2020, time.January, 7), date(2020, time.January, 5)}, AdvisoryStartAfterEnd},
		{"range without data", []time.Time{date(2021, time.March, 1), date(2021, time.March, 31)}, AdvisoryNoRows},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Filter(tbl, tt.dates...)
			if f.Status != FilterEmpty || !f.Empty() {
				t.Fatalf("expected empty result, got %v with %d rows", f.Status, f.Len())
			}
			if f.Advisory != tt.advisory {
				t.Errorf("expected advisory %q, got %q", tt.advisory, f.Advisory)
			}
		})
	}
}

func TestFilterPassThrough(t *testing.T) {
	tbl := loadSample(t, sampleCSV)

	for _, dates := range [][]time.Time{nil, {date(2020, time.January, 5)}} {
		f := Filter(tbl, dates...)
		if f.Status != FilterPassThrough {
			t.Fatalf("expected pass-through, got %v", f.Status)
		}
		if f.Len() != tbl.Len() {
			t.Errorf("expected the full table (%d rows), got %d", tbl.Len(), f.Len())
		}
		if f.Advisory != AdvisoryNeedTwoDates {
			t.Errorf("expected advisory, got %q", f.Advisory)
		}
	}
}

func TestFilterExtraDates(t *testing.T) {
	tbl := loadSample(t, sampleCSV)

	f := Filter(tbl, date(2020, time.January, 5), date(2020, time.January, 5), date(2020, time.January, 7))
	if f.Len() != 2 {
		t.Errorf("expected only the first two dates to be used, got %d rows", f.Len())
	}
	if f.Advisory != AdvisoryExtraDates {
		t.Errorf("expected extra dates advisory, got %q", f.Advisory)
	}
}

func TestFilterEmptyTable(t *testing.T) {
	tbl := loadSample(t, "Date-Hour(NMT),SystemProduction\n")

	f := Filter(tbl)
	if f.Status != FilterEmpty {
		t.Errorf("expected empty status for an empty table, got %v", f.Status)
	}
}
