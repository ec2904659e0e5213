package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultHistogramBins matches the bin count the plant dashboards have always used
const DefaultHistogramBins = 30

// ErrInvalidBins is returned for a non-positive bin count
var ErrInvalidBins = errors.New("analysis: histogram bins must be positive")

// BoxStats are the quantities drawn by a box plot. Whiskers reach the most extreme
// values within 1.5 IQR of the quartiles.
type BoxStats struct {
	Q1           Value `json:"q1"`
	Median       Value `json:"median"`
	Q3           Value `json:"q3"`
	IQR          Value `json:"iqr"`
	LowerWhisker Value `json:"lower_whisker"`
	UpperWhisker Value `json:"upper_whisker"`
	Outliers     int   `json:"outliers"`
}

// HistogramBin counts values in [Lower, Upper); the last bin also holds its upper edge
type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Distribution describes the shape of a column. The histogram only covers strictly
// positive values so that night-time zeros do not swamp the production hours.
type Distribution struct {
	Column    string         `json:"column"`
	Count     int            `json:"count"`
	Positive  int            `json:"positive"`
	Box       BoxStats       `json:"box"`
	Histogram []HistogramBin `json:"histogram"`
}

// Describe computes box statistics over all values of column and a histogram with the
// given number of bins over its positive values.
func Describe(f *Filtered, column string, bins int) (*Distribution, error) {
	if bins <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBins, bins)
	}

	values, _, err := columnValues(f, column)
	if err != nil {
		return nil, err
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	d := &Distribution{
		Column:    column,
		Count:     len(sorted),
		Box:       boxStats(sorted),
		Histogram: []HistogramBin{},
	}

	var positive []float64
	for _, v := range sorted {
		if v > 0 {
			positive = append(positive, v)
		}
	}
	d.Positive = len(positive)
	if len(positive) > 0 {
		d.Histogram = histogram(positive, bins)
	}

	return d, nil
}

func boxStats(sorted []float64) BoxStats {
	b := BoxStats{
		Q1:           Undefined(),
		Median:       Undefined(),
		Q3:           Undefined(),
		IQR:          Undefined(),
		LowerWhisker: Undefined(),
		UpperWhisker: Undefined(),
	}
	if len(sorted) == 0 {
		return b
	}

	q1 := quantile(sorted, 0.25)
	q3 := quantile(sorted, 0.75)
	iqr := q3 - q1
	lowFence := q1 - 1.5*iqr
	highFence := q3 + 1.5*iqr

	b.Q1 = Value(q1)
	b.Median = Value(median(sorted))
	b.Q3 = Value(q3)
	b.IQR = Value(iqr)

	lower, upper := math.Inf(1), math.Inf(-1)
	for _, v := range sorted {
		if v < lowFence || v > highFence {
			b.Outliers++
			continue
		}
		lower = math.Min(lower, v)
		upper = math.Max(upper, v)
	}
	b.LowerWhisker = Value(lower)
	b.UpperWhisker = Value(upper)

	return b
}

// quantile interpolates linearly between closest ranks, the default of most
// statistical packages
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	h := p * float64(n-1)
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// histogram bins sorted, non-empty data into equal-width bins spanning its range
func histogram(sorted []float64, bins int) []HistogramBin {
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		bins = 1
	}

	dividers := make([]float64, bins+1)
	if bins == 1 {
		dividers[0] = lo
	} else {
		floats.Span(dividers, lo, hi)
	}
	// stat.Histogram treats the last divider as exclusive
	dividers[bins] = math.Nextafter(hi, math.Inf(1))

	counts := stat.Histogram(nil, dividers, sorted, nil)

	out := make([]HistogramBin, bins)
	for i := range out {
		out[i] = HistogramBin{
			Lower: dividers[i],
			Upper: dividers[i+1],
			Count: int(counts[i]),
		}
	}
	out[bins-1].Upper = hi
	return out
}
