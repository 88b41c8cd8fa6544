// Package toll implements the analyses over unrolled distance tables:
// selecting ids whose distance is close to a reference id's mean distance,
// and deriving toll rates per vehicle type and per time of day.
package toll

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/ajitpratap0/tollframe/pkg/errors"
	"github.com/ajitpratap0/tollframe/pkg/frame"
	"github.com/ajitpratap0/tollframe/pkg/logger"
	"github.com/ajitpratap0/tollframe/pkg/matrix"
)

// DefaultTolerance is the relative band around the reference mean
const DefaultTolerance = 0.1

// NeighborsWithin returns the sorted unique id_start values, other than ref,
// whose distance lies within [mean*(1-tolerance), mean*(1+tolerance)] where
// mean is the average distance of the rows starting at ref.
//
// When ref has no rows, or all its distances are zero, a warning is logged
// and an empty slice is returned without error.
func NeighborsWithin(t *frame.Table, ref int64, tolerance float64) ([]int64, error) {
	if tolerance < 0 || math.IsNaN(tolerance) {
		return nil, errors.Newf(errors.ErrorTypeValidation, "tolerance must be >= 0, got %v", tolerance)
	}
	names := matrix.DefaultLongNames
	starts, err := t.Int64s(names.Start)
	if err != nil {
		return nil, err
	}
	dists, err := t.Float64s(names.Value)
	if err != nil {
		return nil, err
	}

	var sum float64
	n := 0
	nonzero := false
	for i, s := range starts {
		if s == ref && !math.IsNaN(dists[i]) {
			sum += dists[i]
			n++
			if dists[i] != 0 {
				nonzero = true
			}
		}
	}
	if n == 0 {
		logger.Warn("reference id not found", zap.Int64("reference_id", ref))
		return []int64{}, nil
	}
	if !nonzero {
		logger.Warn("reference id has no nonzero distances", zap.Int64("reference_id", ref))
		return []int64{}, nil
	}

	mean := sum / float64(n)
	lower, upper := mean*(1-tolerance), mean*(1+tolerance)
	logger.Debug("reference distance band",
		zap.Int64("reference_id", ref),
		zap.Float64("mean", mean),
		zap.Float64("lower", lower),
		zap.Float64("upper", upper))

	seen := make(map[int64]struct{})
	out := []int64{}
	for i, s := range starts {
		d := dists[i]
		if s == ref || math.IsNaN(d) || d < lower || d > upper {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// IDsWithinTenPercent is NeighborsWithin with DefaultTolerance
func IDsWithinTenPercent(t *frame.Table, ref int64) ([]int64, error) {
	return NeighborsWithin(t, ref, DefaultTolerance)
}
