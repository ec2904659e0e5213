package analysis

import (
	"errors"
	"testing"
	"time"
)

func TestDescribe(t *testing.T) {
	tbl := loadSample(t, sampleCSV)
	f := Filter(tbl, date(2020, time.January, 5), date(2020, time.January, 7))

	d, err := Describe(f, "SystemProduction", 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// sorted values 5, 10, 15, 20, 40
	box := d.Box
	if box.Q1 != 10 || box.Median != 15 || box.Q3 != 20 || box.IQR != 10 {
		t.Errorf("unexpected quartiles %+v", box)
	}
	if box.LowerWhisker != 5 || box.UpperWhisker != 20 || box.Outliers != 1 {
		t.Errorf("unexpected whiskers %+v", box)
	}

	if d.Count != 5 || d.Positive != 5 {
		t.Errorf("expected 5 values, all positive, got %d and %d", d.Count, d.Positive)
	}
	if len(d.Histogram) != 4 {
		t.Fatalf("expected 4 bins, got %d", len(d.Histogram))
	}
	wantCounts := []int{2, 2, 0, 1}
	total := 0
	for i, bin := range d.Histogram {
		if bin.Count != wantCounts[i] {
			t.Errorf("bin %d: expected %d, got %d", i, wantCounts[i], bin.Count)
		}
		total += bin.Count
	}
	if total != d.Positive {
		t.Errorf("histogram counts %d values, expected %d", total, d.Positive)
	}
	if d.Histogram[0].Lower != 5 || d.Histogram[3].Upper != 40 {
		t.Errorf("histogram should span [5, 40], got [%v, %v]", d.Histogram[0].Lower, d.Histogram[3].Upper)
	}
}

func TestDescribeSkipsNonPositive(t *testing.T) {
	data := `Date-Hour(NMT),SystemProduction
01.03.2020-00:00,0
01.03.2020-01:00,0
01.03.2020-12:00,6
01.03.2020-13:00,6
`
	d, err := Describe(All(loadSample(t, data)), "SystemProduction", DefaultHistogramBins)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Count != 4 || d.Positive != 2 {
		t.Errorf("expected 4 values with 2 positive, got %d and %d", d.Count, d.Positive)
	}
	// identical positive values collapse into one bin
	if len(d.Histogram) != 1 || d.Histogram[0].Count != 2 {
		t.Errorf("expected a single bin of 2, got %+v", d.Histogram)
	}
	if d.Box.Median != 3 {
		t.Errorf("box plot should include zeros, got median %v", d.Box.Median)
	}
}

func TestDescribeNoValues(t *testing.T) {
	data := `Date-Hour(NMT),SystemProduction
01.03.2020-00:00,
`
	d, err := Describe(All(loadSample(t, data)), "SystemProduction", DefaultHistogramBins)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.Histogram) != 0 || d.Box.Median.Defined() {
		t.Errorf("expected an empty distribution, got %+v", d)
	}
}

func TestDescribeInvalidBins(t *testing.T) {
	f := All(loadSample(t, sampleCSV))
	if _, err := Describe(f, "SystemProduction", 0); !errors.Is(err, ErrInvalidBins) {
		t.Errorf("expected ErrInvalidBins, got %v", err)
	}
}
