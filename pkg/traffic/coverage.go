package traffic

import (
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ajitpratap0/tollframe/pkg/frame"
	"github.com/ajitpratap0/tollframe/pkg/logger"
)

var weekdays = map[string]int{
	"monday":    0,
	"tuesday":   1,
	"wednesday": 2,
	"thursday":  3,
	"friday":    4,
	"saturday":  5,
	"sunday":    6,
}

// DayIndex maps a weekday name to 0 (Monday) .. 6 (Sunday). Matching ignores
// case and surrounding space.
func DayIndex(name string) (int, bool) {
	d, ok := weekdays[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}

// DayDistance is the number of days forward from start to end, in [0, 6]
func DayDistance(start, end int) int {
	return ((end-start)%7 + 7) % 7
}

// Span is one row kept by the weekly coverage check
type Span struct {
	ID       int64
	ID2      int64
	StartDay string
	EndDay   string
	Days     int
	// Label is the index label of the row in the input table
	Label int
	// Position is the place of the pair among all kept pairs in ascending
	// (id, id_2) order
	Position int
}

// CoverageSpans runs the weekly coverage check over the id, id_2, startDay
// and endDay columns. Rows whose end day is a nonzero number of days after
// the start day are kept, the first kept row of each (id, id_2) pair is taken
// with pairs in ascending order, and the result is ordered by day distance
// descending. Rows with an unknown day name are skipped.
//
// The check only looks at day names; it does not prove that a pair covers
// every hour of the week.
func CoverageSpans(t *frame.Table) ([]Span, error) {
	ids, err := t.Int64s("id")
	if err != nil {
		return nil, err
	}
	ids2, err := t.Int64s("id_2")
	if err != nil {
		return nil, err
	}
	starts, err := t.Strings("startDay")
	if err != nil {
		return nil, err
	}
	ends, err := t.Strings("endDay")
	if err != nil {
		return nil, err
	}

	type pair struct{ a, b int64 }
	index := t.Index()
	first := make(map[pair]Span)
	unknown := 0
	for i := range ids {
		s, okStart := DayIndex(starts[i])
		e, okEnd := DayIndex(ends[i])
		if !okStart || !okEnd {
			unknown++
			continue
		}
		d := DayDistance(s, e)
		if d == 0 {
			continue
		}
		k := pair{ids[i], ids2[i]}
		if _, seen := first[k]; seen {
			continue
		}
		first[k] = Span{
			ID:       ids[i],
			ID2:      ids2[i],
			StartDay: starts[i],
			EndDay:   ends[i],
			Days:     d,
			Label:    index[i],
		}
	}
	if unknown > 0 {
		logger.Debug("rows with unknown day names skipped", zap.Int("rows", unknown))
	}

	spans := make([]Span, 0, len(first))
	for _, s := range first {
		spans = append(spans, s)
	}
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].ID != spans[j].ID {
			return spans[i].ID < spans[j].ID
		}
		return spans[i].ID2 < spans[j].ID2
	})
	for i := range spans {
		spans[i].Position = i
	}
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].Days > spans[j].Days })
	return spans, nil
}

// TimeCheck returns the group positions of the pairs kept by CoverageSpans,
// in the same order. Positions count kept pairs in ascending (id, id_2) order
// and are unrelated to the input row labels.
func TimeCheck(t *frame.Table) ([]int, error) {
	spans, err := CoverageSpans(t)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(spans))
	for i, s := range spans {
		out[i] = s.Position
	}
	return out, nil
}

// sortKeys orders group keys numerically when every key is a number and
// lexically otherwise.
func sortKeys(keys []string) {
	nums := make(map[string]float64, len(keys))
	for _, k := range keys {
		f, err := strconv.ParseFloat(k, 64)
		if err != nil {
			sort.Strings(keys)
			return
		}
		nums[k] = f
	}
	sort.Slice(keys, func(i, j int) bool { return nums[keys[i]] < nums[keys[j]] })
}
