package analysis

// HourMean is the average of one hour-of-day group
type HourMean struct {
	Hour    int   `json:"hour"`
	Mean    Value `json:"mean"`
	Samples int   `json:"samples"`
	Rows    int   `json:"rows"`
}

// HourlyProfile holds the mean of a column per hour of day, ascending by hour. Hours that
// never occur in the data are absent rather than zero.
type HourlyProfile struct {
	Column string     `json:"column"`
	Hours  []HourMean `json:"hours"`
}

// Hourly groups f by HOUR_OF_DAY and averages column within each group. An hour whose
// rows all lack a value is reported with an undefined mean and no samples.
func Hourly(f *Filtered, column string) (*HourlyProfile, error) {
	col, err := numericColumn(f, column)
	if err != nil {
		return nil, err
	}

	var (
		sum     [24]float64
		samples [24]int
		rows    [24]int
	)
	for i := 0; i < f.Len(); i++ {
		row := f.Row(i)
		h, ok := row.Stamp.HourOfDay()
		if !ok {
			continue
		}
		rows[h]++
		if v, ok := row.Float(col); ok {
			sum[h] += v
			samples[h]++
		}
	}

	profile := &HourlyProfile{Column: col.Name, Hours: []HourMean{}}
	for h := 0; h < 24; h++ {
		if rows[h] == 0 {
			continue
		}
		hm := HourMean{Hour: h, Samples: samples[h], Rows: rows[h], Mean: Undefined()}
		if samples[h] > 0 {
			hm.Mean = Value(sum[h] / float64(samples[h]))
		}
		profile.Hours = append(profile.Hours, hm)
	}

	return profile, nil
}

// Peak returns the hour with the highest defined mean
func (p *HourlyProfile) Peak() (HourMean, bool) {
	var best HourMean
	found := false
	for _, h := range p.Hours {
		if !h.Mean.Defined() {
			continue
		}
		if !found || h.Mean > best.Mean {
			best = h
			found = true
		}
	}
	return best, found
}
