// Package traffic implements the per-row analyses of the vehicle count and
// weekly span datasets: categorical bucketing, outlier selection, grouped
// mean filtering and the weekly coverage check.
package traffic

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/ajitpratap0/tollframe/pkg/errors"
	"github.com/ajitpratap0/tollframe/pkg/frame"
	"github.com/ajitpratap0/tollframe/pkg/logger"
)

// Category names produced by CountCategories.
const (
	CategoryLow    = "low"
	CategoryMedium = "medium"
	CategoryHigh   = "high"
)

// Bins are the inclusive upper bounds of the low and medium categories.
// Values above MediumMax are high.
type Bins struct {
	LowMax    float64
	MediumMax float64
}

// DefaultBins is low <= 15 < medium <= 25 < high.
var DefaultBins = Bins{LowMax: 15, MediumMax: 25}

// Category returns the category name for v
func (b Bins) Category(v float64) string {
	switch {
	case v <= b.LowMax:
		return CategoryLow
	case v <= b.MediumMax:
		return CategoryMedium
	default:
		return CategoryHigh
	}
}

// Validate checks that the bounds are ordered
func (b Bins) Validate() error {
	if math.IsNaN(b.LowMax) || math.IsNaN(b.MediumMax) || b.LowMax >= b.MediumMax {
		return errors.Newf(errors.ErrorTypeValidation,
			"bins must satisfy low_max < medium_max, got %v and %v", b.LowMax, b.MediumMax)
	}
	return nil
}

// CategoryCount is the number of values that fell in a category
type CategoryCount struct {
	Name  string
	Count int
}

// CountCategories buckets the values of col into low, medium and high and
// returns every category, zero counts included, sorted by name.
func CountCategories(t *frame.Table, col string, bins Bins) ([]CategoryCount, error) {
	if err := bins.Validate(); err != nil {
		return nil, err
	}
	values, err := t.Float64s(col)
	if err != nil {
		return nil, err
	}

	counts := map[string]int{CategoryLow: 0, CategoryMedium: 0, CategoryHigh: 0}
	skipped := 0
	for _, v := range values {
		if math.IsNaN(v) {
			skipped++
			continue
		}
		counts[bins.Category(v)]++
	}
	if skipped > 0 {
		logger.Debug("missing values not categorised",
			zap.String("column", col),
			zap.Int("skipped", skipped))
	}

	out := make([]CategoryCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, CategoryCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// TypeCount buckets the car column with DefaultBins
func TypeCount(t *frame.Table) ([]CategoryCount, error) {
	return CountCategories(t, "car", DefaultBins)
}

// OutlierIndexes returns the sorted index labels of rows whose col value is
// strictly greater than factor times the column mean. NaN values are left
// out of the mean and never selected.
func OutlierIndexes(t *frame.Table, col string, factor float64) ([]int, error) {
	values, err := t.Float64s(col)
	if err != nil {
		return nil, err
	}
	mean, ok := nanMean(values)
	if !ok {
		return []int{}, nil
	}

	limit := factor * mean
	index := t.Index()
	out := []int{}
	for i, v := range values {
		if v > limit {
			out = append(out, index[i])
		}
	}
	sort.Ints(out)
	return out, nil
}

// BusIndexes returns the rows whose bus value exceeds twice the mean
func BusIndexes(t *frame.Table) ([]int, error) {
	return OutlierIndexes(t, "bus", 2)
}

// GroupsAboveMean groups rows by key and returns the sorted keys whose mean
// target value is strictly greater than threshold.
func GroupsAboveMean(t *frame.Table, key, target string, threshold float64) ([]string, error) {
	keys, err := t.Strings(key)
	if err != nil {
		return nil, err
	}
	values, err := t.Float64s(target)
	if err != nil {
		return nil, err
	}

	type acc struct {
		sum float64
		n   int
	}
	groups := make(map[string]*acc)
	for i, k := range keys {
		g, ok := groups[k]
		if !ok {
			g = &acc{}
			groups[k] = g
		}
		if !math.IsNaN(values[i]) {
			g.sum += values[i]
			g.n++
		}
	}

	out := []string{}
	for k, g := range groups {
		if g.n > 0 && g.sum/float64(g.n) > threshold {
			out = append(out, k)
		}
	}
	sortKeys(out)
	return out, nil
}

// FilterRoutes returns the routes whose mean truck value is above 7
func FilterRoutes(t *frame.Table) ([]string, error) {
	return GroupsAboveMean(t, "route", "truck", 7)
}

func nanMean(values []float64) (float64, bool) {
	var sum float64
	n := 0
	for _, v := range values {
		if !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
