package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/chrissnell/solarstats/internal/timestamp"
)

// ErrInvalidBucket is returned for an unrecognised bucket name
var ErrInvalidBucket = errors.New("analysis: invalid bucket")

// Bucket is a resampling granularity
type Bucket string

const (
	BucketNone    Bucket = "none"
	BucketHourly  Bucket = "hourly"
	BucketDaily   Bucket = "daily"
	BucketWeekly  Bucket = "weekly"
	BucketMonthly Bucket = "monthly"
)

// Buckets lists the supported granularities, finest first
var Buckets = []Bucket{BucketNone, BucketHourly, BucketDaily, BucketWeekly, BucketMonthly}

var bucketAliases = map[string]Bucket{
	"none":    BucketNone,
	"raw":     BucketNone,
	"hourly":  BucketHourly,
	"hour":    BucketHourly,
	"h":       BucketHourly,
	"daily":   BucketDaily,
	"day":     BucketDaily,
	"d":       BucketDaily,
	"weekly":  BucketWeekly,
	"week":    BucketWeekly,
	"w":       BucketWeekly,
	"monthly": BucketMonthly,
	"month":   BucketMonthly,
	"m":       BucketMonthly,
}

// ParseBucket resolves a bucket name or alias, case-insensitively
func ParseBucket(s string) (Bucket, error) {
	b, ok := bucketAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidBucket, s)
	}
	return b, nil
}

// Start returns the left edge of the bucket containing t. Weeks start on Monday.
// BucketNone returns t unchanged.
func (b Bucket) Start(t time.Time) time.Time {
	switch b {
	case BucketHourly:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
	case BucketDaily:
		return timestamp.TruncateToDay(t)
	case BucketWeekly:
		d := timestamp.TruncateToDay(t)
		offset := (int(d.Weekday()) + 6) % 7
		return d.AddDate(0, 0, -offset)
	case BucketMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	default:
		return t
	}
}

// Point is one bucket of a BucketedSeries
type Point struct {
	Start   time.Time `json:"start"`
	Value   Value     `json:"value"`
	Rows    int       `json:"rows"`
	Missing int       `json:"missing"`
}

// BucketedSeries is a resampled column, ascending by bucket start. Empty buckets are
// not present.
type BucketedSeries struct {
	Column  string  `json:"column"`
	Bucket  Bucket  `json:"bucket"`
	Points  []Point `json:"points"`
	Skipped int     `json:"skipped_rows"`
	Missing int     `json:"missing_values"`
}

// Resample sums column over buckets of the given granularity. Missing values are left
// out of the sum and counted; rows without a valid timestamp are skipped and counted.
// With BucketNone every timestamped row is returned as its own point, in filtered order.
func Resample(f *Filtered, column string, bucket Bucket) (*BucketedSeries, error) {
	col, err := numericColumn(f, column)
	if err != nil {
		return nil, err
	}
	bucket, err = ParseBucket(string(bucket))
	if err != nil {
		return nil, err
	}

	out := &BucketedSeries{
		Column: col.Name,
		Bucket: bucket,
		Points: []Point{},
	}

	index := make(map[int64]int)
	for i := 0; i < f.Len(); i++ {
		row := f.Row(i)
		ts, ok := row.Stamp.Time()
		if !ok {
			out.Skipped++
			continue
		}

		v, defined := row.Float(col)
		if !defined {
			out.Missing++
		}

		if bucket == BucketNone {
			p := Point{Start: ts, Value: Value(v), Rows: 1}
			if !defined {
				p.Value = Undefined()
				p.Missing = 1
			}
			out.Points = append(out.Points, p)
			continue
		}

		start := bucket.Start(ts)
		key := start.Unix()
		idx, seen := index[key]
		if !seen {
			idx = len(out.Points)
			index[key] = idx
			out.Points = append(out.Points, Point{Start: start})
		}

		p := &out.Points[idx]
		p.Rows++
		if defined {
			p.Value += Value(v)
		} else {
			p.Missing++
		}
	}

	if bucket != BucketNone {
		sort.Slice(out.Points, func(i, j int) bool {
			return out.Points[i].Start.Before(out.Points[j].Start)
		})
	}

	return out, nil
}

// Total returns the sum of all defined point values
func (s *BucketedSeries) Total() float64 {
	var total float64
	for _, p := range s.Points {
		if p.Value.Defined() {
			total += float64(p.Value)
		}
	}
	return total
}

// Peak returns the point with the largest defined value
func (s *BucketedSeries) Peak() (Point, bool) {
	best := -1
	top := math.Inf(-1)
	for i, p := range s.Points {
		if p.Value.Defined() && float64(p.Value) > top {
			best = i
			top = float64(p.Value)
		}
	}
	if best < 0 {
		return Point{}, false
	}
	return s.Points[best], true
}
