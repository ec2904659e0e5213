package analysis

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// SummaryStats describes a column over a filtered range. Every statistic is undefined
// when the column has no values; StdDev needs at least two.
type SummaryStats struct {
	Column  string `json:"column"`
	Count   int    `json:"count"`
	Missing int    `json:"missing"`
	Mean    Value  `json:"mean"`
	Median  Value  `json:"median"`
	StdDev  Value  `json:"std_dev"`
	Min     Value  `json:"min"`
	Max     Value  `json:"max"`
}

// Defined reports whether the summary was computed over at least one value
func (s *SummaryStats) Defined() bool {
	return s.Count > 0
}

// Summarize computes mean, median, sample standard deviation, min and max of column
func Summarize(f *Filtered, column string) (*SummaryStats, error) {
	values, missing, err := columnValues(f, column)
	if err != nil {
		return nil, err
	}

	s := &SummaryStats{
		Column:  column,
		Count:   len(values),
		Missing: missing,
		Mean:    Undefined(),
		Median:  Undefined(),
		StdDev:  Undefined(),
		Min:     Undefined(),
		Max:     Undefined(),
	}
	if len(values) == 0 {
		return s, nil
	}

	s.Mean = Value(stat.Mean(values, nil))
	s.Min = Value(floats.Min(values))
	s.Max = Value(floats.Max(values))
	if len(values) > 1 {
		// stat.StdDev is the unbiased (N-1) estimate
		s.StdDev = Value(stat.StdDev(values, nil))
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	s.Median = Value(median(sorted))

	return s, nil
}

// median of sorted, averaging the two middle values for even lengths
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
