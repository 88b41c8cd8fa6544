package toll

import (
	"github.com/ajitpratap0/tollframe/pkg/errors"
	"github.com/ajitpratap0/tollframe/pkg/frame"
)

// TimeRateColumn is the column added by ApplyTimeRates
const TimeRateColumn = "time_based_toll_rate"

// VehicleRate is the per-distance toll coefficient of a vehicle type
type VehicleRate struct {
	Vehicle     string
	Coefficient float64
}

// DefaultVehicleRates in output column order
var DefaultVehicleRates = []VehicleRate{
	{Vehicle: "moto", Coefficient: 0.8},
	{Vehicle: "car", Coefficient: 1.2},
	{Vehicle: "rv", Coefficient: 1.5},
	{Vehicle: "bus", Coefficient: 2.2},
	{Vehicle: "truck", Coefficient: 3.6},
}

// TimeBucket applies Rate to hours in [StartHour, EndHour)
type TimeBucket struct {
	StartHour int
	EndHour   int
	Rate      float64
}

// Contains reports whether hour falls in the bucket
func (b TimeBucket) Contains(hour int) bool {
	return b.StartHour <= hour && hour < b.EndHour
}

// DefaultTimeBuckets split the day into four six-hour bands
var DefaultTimeBuckets = []TimeBucket{
	{StartHour: 0, EndHour: 6, Rate: 0.1},
	{StartHour: 6, EndHour: 12, Rate: 0.2},
	{StartHour: 12, EndHour: 18, Rate: 0.3},
	{StartHour: 18, EndHour: 24, Rate: 0.4},
}

// DefaultFallbackRate applies to hours no bucket contains
const DefaultFallbackRate = 0.0

// ApplyVehicleRates returns a copy of t with one column per rate, named by
// the vehicle, holding distance times the coefficient. t is not modified.
func ApplyVehicleRates(t *frame.Table, distanceCol string, rates []VehicleRate) (*frame.Table, error) {
	dists, err := t.Float64s(distanceCol)
	if err != nil {
		return nil, err
	}

	out := t.Clone()
	for _, r := range rates {
		vals := make([]float64, len(dists))
		for i, d := range dists {
			vals[i] = d * r.Coefficient
		}
		if err := out.SetColumn(r.Vehicle, frame.NewFloatColumn(vals...)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// RateForHour returns the rate of the first bucket containing hour, or
// fallback.
func RateForHour(hour int, buckets []TimeBucket, fallback float64) float64 {
	for _, b := range buckets {
		if b.Contains(hour) {
			return b.Rate
		}
	}
	return fallback
}

// ApplyTimeRates returns a copy of t whose tsCol is parsed into a timestamp
// column and which carries a time_based_toll_rate column chosen by the hour
// of each timestamp. t is not modified.
func ApplyTimeRates(t *frame.Table, tsCol string, buckets []TimeBucket, fallback float64) (*frame.Table, error) {
	times, err := t.Times(tsCol)
	if err != nil {
		return nil, err
	}

	rates := make([]float64, len(times))
	for i, ts := range times {
		rates[i] = RateForHour(ts.Hour(), buckets, fallback)
	}

	out := t.Clone()
	if err := out.SetColumn(tsCol, frame.NewTimestampColumn(times...)); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "replace timestamp column")
	}
	if err := out.SetColumn(TimeRateColumn, frame.NewFloatColumn(rates...)); err != nil {
		return nil, err
	}
	return out, nil
}
