package analysis

import (
	"errors"
	"testing"
	"time"

	"github.com/chrissnell/solarstats/internal/columns"
)

func TestResampleDaily(t *testing.T) {
	tbl := loadSample(t, sampleCSV)
	f := Filter(tbl, date(2020, time.January, 5), date(2020, time.January, 7))

	s, err := Resample(f, "SystemProduction", BucketDaily)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []struct {
		day     int
		sum     float64
		rows    int
		missing int
	}{
		{5, 30, 2, 0},
		{6, 15, 2, 1},
		{7, 45, 2, 0},
	}
	if len(s.Points) != len(want) {
		t.Fatalf("expected %d points, got %d", len(want), len(s.Points))
	}
	for i, w := range want {
		p := s.Points[i]
		if !p.Start.Equal(date(2020, time.January, w.day)) {
			t.Errorf("point %d: expected start day %d, got %v", i, w.day, p.Start)
		}
		if float64(p.Value) != w.sum {
			t.Errorf("point %d: expected sum %v, got %v", i, w.sum, p.Value)
		}
		if p.Rows != w.rows || p.Missing != w.missing {
			t.Errorf("point %d: expected %d rows / %d missing, got %d / %d", i, w.rows, w.missing, p.Rows, p.Missing)
		}
	}
	if s.Missing != 1 || s.Skipped != 0 {
		t.Errorf("expected 1 missing and 0 skipped, got %d and %d", s.Missing, s.Skipped)
	}
	if s.Total() != 90 {
		t.Errorf("expected total 90, got %v", s.Total())
	}
	if peak, ok := s.Peak(); !ok || peak.Start.Day() != 7 {
		t.Errorf("expected peak on day 7, got %+v", peak)
	}
}

func TestResampleSparse(t *testing.T) {
	data := `Date-Hour(NMT),SystemProduction
01.03.2020-10:00,1
03.03.2020-10:00,2
03.03.2020-11:00,3
`
	tbl := loadSample(t, data)
	f := Filter(tbl, date(2020, time.March, 1), date(2020, time.March, 3))

	s, err := Resample(f, "SystemProduction", BucketDaily)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Points) != 2 {
		t.Fatalf("expected the empty day to be omitted, got %d points", len(s.Points))
	}
	if s.Points[0].Value != 1 || s.Points[1].Value != 5 {
		t.Errorf("unexpected sums %v, %v", s.Points[0].Value, s.Points[1].Value)
	}
}

func TestResampleWeeklyStartsMonday(t *testing.T) {
	tbl := loadSample(t, sampleCSV)

	s, err := Resample(All(tbl), "SystemProduction", BucketWeekly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Sunday 05.01.2020 belongs to the week of Monday 30.12.2019
	if len(s.Points) != 2 {
		t.Fatalf("expected 2 weeks, got %d", len(s.Points))
	}
	if !s.Points[0].Start.Equal(date(2019, time.December, 30)) || s.Points[0].Value != 30 {
		t.Errorf("unexpected first week %+v", s.Points[0])
	}
	if !s.Points[1].Start.Equal(date(2020, time.January, 6)) || s.Points[1].Value != 60 {
		t.Errorf("unexpected second week %+v", s.Points[1])
	}
	if s.Skipped != 1 {
		t.Errorf("expected the unparseable row to be skipped, got %d", s.Skipped)
	}
	for _, p := range s.Points {
		if p.Start.Weekday() != time.Monday {
			t.Errorf("week bucket starts on %v", p.Start.Weekday())
		}
	}
}

func TestResampleMonthly(t *testing.T) {
	data := `Date-Hour(NMT),SystemProduction
31.01.2020-23:00,1
01.02.2020-00:00,2
29.02.2020-12:00,3
15.01.2020-12:00,4
`
	tbl := loadSample(t, data)

	s, err := Resample(All(tbl), "SystemProduction", BucketMonthly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Points) != 2 {
		t.Fatalf("expected 2 months, got %d", len(s.Points))
	}
	if !s.Points[0].Start.Equal(date(2020, time.January, 1)) || s.Points[0].Value != 5 {
		t.Errorf("unexpected January bucket %+v", s.Points[0])
	}
	if !s.Points[1].Start.Equal(date(2020, time.February, 1)) || s.Points[1].Value != 5 {
		t.Errorf("unexpected February bucket %+v", s.Points[1])
	}
}

func TestResampleHourlyAndNone(t *testing.T) {
	data := `Date-Hour(NMT),SystemProduction
01.03.2020-10:00,1
01.03.2020-10:30,2
01.03.2020-10:00,4
01.03.2020-11:15,
`
	tbl := loadSample(t, data)
	f := All(tbl)

	hourly, err := Resample(f, "SystemProduction", BucketHourly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hourly.Points) != 2 {
		t.Fatalf("expected 2 hourly buckets, got %d", len(hourly.Points))
	}
	if hourly.Points[0].Value != 7 || hourly.Points[0].Rows != 3 {
		t.Errorf("unexpected 10:00 bucket %+v", hourly.Points[0])
	}
	// A bucket whose only row lacks a value still exists, with nothing summed
	if hourly.Points[1].Value != 0 || hourly.Points[1].Missing != 1 {
		t.Errorf("unexpected 11:00 bucket %+v", hourly.Points[1])
	}

	raw, err := Resample(f, "SystemProduction", BucketNone)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(raw.Points) != 4 {
		t.Fatalf("expected every row as a point, got %d", len(raw.Points))
	}
	// Duplicate timestamps are kept, in file order
	if raw.Points[0].Value != 1 || raw.Points[2].Value != 4 {
		t.Errorf("unexpected raw values %v, %v", raw.Points[0].Value, raw.Points[2].Value)
	}
	if raw.Points[3].Value.Defined() {
		t.Error("missing value should be undefined in raw mode")
	}
}

func TestResampleErrors(t *testing.T) {
	tbl := loadSample(t, sampleCSV)
	f := All(tbl)

	if _, err := Resample(f, "Status", BucketDaily); !errors.Is(err, columns.ErrInvalidColumnType) {
		t.Errorf("expected ErrInvalidColumnType, got %v", err)
	}
	if _, err := Resample(f, "Nope", BucketDaily); !errors.Is(err, columns.ErrUnknownColumn) {
		t.Errorf("expected ErrUnknownColumn, got %v", err)
	}
	if _, err := Resample(f, "SystemProduction", Bucket("fortnightly")); !errors.Is(err, ErrInvalidBucket) {
		t.Errorf("expected ErrInvalidBucket, got %v", err)
	}
}

func TestParseBucket(t *testing.T) {
	tests := map[string]Bucket{
		"none":    BucketNone,
		"Daily":   BucketDaily,
		" W ":     BucketWeekly,
		"month":   BucketMonthly,
		"hourly":  BucketHourly,
		"monthly": BucketMonthly,
	}
	for in, want := range tests {
		got, err := ParseBucket(in)
		if err != nil || got != want {
			t.Errorf("ParseBucket(%q): expected %v, got %v (%v)", in, want, got, err)
		}
	}
	if _, err := ParseBucket("yearly"); !errors.Is(err, ErrInvalidBucket) {
		t.Errorf("expected ErrInvalidBucket, got %v", err)
	}
}
