// Package analysis computes range filters, bucketed sums, hour-of-day profiles, summary
// statistics, distribution shape and correlation fits over a loaded series table.
// All functions are pure: they read a Filtered view and return new values.
package analysis

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"github.com/chrissnell/solarstats/internal/columns"
	"github.com/chrissnell/solarstats/internal/series"
)

// Value is a statistic that may be undefined. Undefined values are NaN in Go and
// null in JSON.
type Value float64

// Undefined returns an undefined Value
func Undefined() Value {
	return Value(math.NaN())
}

// Defined reports whether v holds a finite number
func (v Value) Defined() bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Float returns v as a float64
func (v Value) Float() float64 {
	return float64(v)
}

func (v Value) String() string {
	if !v.Defined() {
		return "undefined"
	}
	return strconv.FormatFloat(float64(v), 'f', 2, 64)
}

// MarshalJSON implements json.Marshaler
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Defined() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(v))
}

// UnmarshalJSON implements json.Unmarshaler
func (v *Value) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*v = Undefined()
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Value(f)
	return nil
}

// columnValues collects the defined values of column name over f, in filtered order,
// and counts the rows where it was missing.
func columnValues(f *Filtered, name string) ([]float64, int, error) {
	col, err := columns.Numeric(f.Table(), name)
	if err != nil {
		return nil, 0, err
	}

	values := make([]float64, 0, f.Len())
	missing := 0
	for i := 0; i < f.Len(); i++ {
		v, ok := f.Row(i).Float(col)
		if !ok {
			missing++
			continue
		}
		values = append(values, v)
	}
	return values, missing, nil
}

// MissingValues counts filtered rows where column name has no value
func MissingValues(f *Filtered, name string) (int, error) {
	_, missing, err := columnValues(f, name)
	return missing, err
}

func numericColumn(f *Filtered, name string) (series.Column, error) {
	return columns.Numeric(f.Table(), name)
}
