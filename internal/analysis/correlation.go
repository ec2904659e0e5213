package analysis

import (
	"gonum.org/v1/gonum/stat"
)

// Pair is one observation of the auxiliary (X) and generation (Y) columns
type Pair struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Fit is an ordinary least squares line Y = Intercept + Slope*X
type Fit struct {
	Defined   bool  `json:"defined"`
	N         int   `json:"n"`
	Slope     Value `json:"slope"`
	Intercept Value `json:"intercept"`
	RSquared  Value `json:"r_squared"`
	R         Value `json:"r"`
}

// Correlation pairs an auxiliary column with the generation column
type Correlation struct {
	Generation string `json:"generation"`
	Auxiliary  string `json:"auxiliary"`
	Pairs      []Pair `json:"pairs"`
	Dropped    int    `json:"dropped"`
	Fit        Fit    `json:"fit"`
}

// Correlate collects (auxiliary, generation) pairs from rows where both are defined and
// fits a least squares line through them. The fit is undefined with fewer than two pairs
// or when every auxiliary value is the same.
func Correlate(f *Filtered, generation, auxiliary string) (*Correlation, error) {
	gen, err := numericColumn(f, generation)
	if err != nil {
		return nil, err
	}
	aux, err := numericColumn(f, auxiliary)
	if err != nil {
		return nil, err
	}

	c := &Correlation{
		Generation: gen.Name,
		Auxiliary:  aux.Name,
		Pairs:      []Pair{},
	}

	xs := make([]float64, 0, f.Len())
	ys := make([]float64, 0, f.Len())
	for i := 0; i < f.Len(); i++ {
		row := f.Row(i)
		x, okX := row.Float(aux)
		y, okY := row.Float(gen)
		if !okX || !okY {
			c.Dropped++
			continue
		}
		xs = append(xs, x)
		ys = append(ys, y)
		c.Pairs = append(c.Pairs, Pair{X: x, Y: y})
	}

	c.Fit = fitLine(xs, ys)
	return c, nil
}

func fitLine(xs, ys []float64) Fit {
	fit := Fit{
		N:         len(xs),
		Slope:     Undefined(),
		Intercept: Undefined(),
		RSquared:  Undefined(),
		R:         Undefined(),
	}
	if len(xs) < 2 || stat.Variance(xs, nil) == 0 {
		return fit
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	fit.Defined = true
	fit.Intercept = Value(intercept)
	fit.Slope = Value(slope)
	fit.RSquared = Value(stat.RSquared(xs, ys, nil, intercept, slope))
	fit.R = Value(stat.Correlation(xs, ys, nil))

	return fit
}

// Predict evaluates the fitted line at x
func (f Fit) Predict(x float64) Value {
	if !f.Defined {
		return Undefined()
	}
	return f.Intercept + f.Slope*Value(x)
}
