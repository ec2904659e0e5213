package analysis

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/chrissnell/solarstats/internal/series"
)

// sampleCSV spans three calendar days (Sunday 05.01.2020 - Tuesday 07.01.2020) plus an
// unparseable row and a row with a missing production value.
const sampleCSV = `Date-Hour(NMT),Radiation,SystemProduction,Status
05.01.2020-10:00,100,10,ok
05.01.2020-11:00,200,20,ok
06.01.2020-10:00,150,15,ok
06.01.2020-11:00,250,,ok
garbage,300,99,ok
07.01.2020-10:00,50,5,ok
07.01.2020-12:00,,40,ok
`

func loadSample(t *testing.T, data string) *series.Table {
	t.Helper()
	tbl, err := series.NewLoader(series.Options{}, nil).LoadReader(strings.NewReader(data), "sample.csv")
	if err != nil {
		t.Fatalf("failed to load sample: %v", err)
	}
	return tbl
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) <= epsilon
}

func TestValueJSON(t *testing.T) {
	b, err := Undefined().MarshalJSON()
	if err != nil || string(b) != "null" {
		t.Errorf("expected null, got %s (%v)", b, err)
	}
	b, err = Value(1.5).MarshalJSON()
	if err != nil || string(b) != "1.5" {
		t.Errorf("expected 1.5, got %s (%v)", b, err)
	}

	var v Value
	if err := v.UnmarshalJSON([]byte("null")); err != nil || v.Defined() {
		t.Errorf("expected undefined value from null, got %v (%v)", v, err)
	}
	if err := v.UnmarshalJSON([]byte("2.25")); err != nil || v != 2.25 {
		t.Errorf("expected 2.25, got %v (%v)", v, err)
	}
	if Undefined().String() != "undefined" {
		t.Errorf("unexpected string %q", Undefined().String())
	}
}
