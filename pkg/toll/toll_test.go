package toll

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/ajitpratap0/tollframe/pkg/errors"
	"github.com/ajitpratap0/tollframe/pkg/frame"
	"github.com/ajitpratap0/tollframe/pkg/testutil"
)

func longTable(starts []int64, ends []int64, dists []float64) *frame.Table {
	return frame.MustFromColumns(
		[]string{"id_start", "id_end", "distance"},
		[]frame.Column{
			frame.NewIntColumn(starts...),
			frame.NewIntColumn(ends...),
			frame.NewFloatColumn(dists...),
		},
	)
}

func TestIDsWithinTenPercent(t *testing.T) {
	// reference 1 has distances 0, 10, 30: mean 40/3 ~ 13.33, band [12, 14.67]
	tbl := longTable(
		[]int64{1, 1, 1, 7, 7, 3, 5, 5, 9},
		[]int64{1, 2, 3, 1, 2, 1, 1, 2, 1},
		[]float64{0, 10, 30, 12.5, 13, 20, 14.6, 12.1, 11.9},
	)
	got, err := IDsWithinTenPercent(tbl, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 7}, got)
}

func TestNeighborsWithinExcludesReference(t *testing.T) {
	tbl := longTable([]int64{4, 4, 2}, []int64{5, 6, 4}, []float64{10, 10, 10})
	got, err := NeighborsWithin(tbl, 4, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, got)
}

func TestNeighborsWithinMissingReference(t *testing.T) {
	logs := testutil.ObserveLogs(t, zapcore.DebugLevel)
	tbl := longTable([]int64{1, 2}, []int64{2, 1}, []float64{3, 3})

	got, err := IDsWithinTenPercent(tbl, 99)
	require.NoError(t, err)
	assert.Empty(t, got)
	require.Equal(t, 1, logs.FilterLevelExact(zapcore.WarnLevel).Len())
	assert.Equal(t, int64(99), logs.All()[0].ContextMap()["reference_id"])
}

func TestNeighborsWithinZeroDistances(t *testing.T) {
	logs := testutil.ObserveLogs(t, zapcore.DebugLevel)
	tbl := longTable([]int64{1, 1, 2}, []int64{1, 2, 1}, []float64{0, 0, 0})

	got, err := IDsWithinTenPercent(tbl, 1)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 1, logs.FilterMessage("reference id has no nonzero distances").Len())
}

func TestNeighborsWithinMixedSignDistances(t *testing.T) {
	logs := testutil.ObserveLogs(t, zapcore.DebugLevel)
	// distances -1 and 1 sum to zero but are not all zero: mean 0, band [0, 0]
	tbl := longTable([]int64{1, 1, 2, 3}, []int64{2, 3, 1, 1}, []float64{-1, 1, 0, 5})

	got, err := IDsWithinTenPercent(tbl, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, got)
	assert.Zero(t, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestNeighborsWithinErrors(t *testing.T) {
	tbl := longTable([]int64{1}, []int64{1}, []float64{1})
	_, err := NeighborsWithin(tbl, 1, -0.5)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	noDist := frame.MustFromColumns([]string{"id_start"}, []frame.Column{frame.NewIntColumn(1)})
	_, err = IDsWithinTenPercent(noDist, 1)
	assert.ErrorIs(t, err, frame.ErrColumnNotFound)
}

func TestApplyVehicleRates(t *testing.T) {
	tbl := longTable([]int64{1, 2}, []int64{2, 1}, []float64{10, 0})

	out, err := ApplyVehicleRates(tbl, "distance", DefaultVehicleRates)
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"id_start", "id_end", "distance", "moto", "car", "rv", "bus", "truck"},
		out.Names())
	for _, r := range DefaultVehicleRates {
		vals, err := out.Float64s(r.Vehicle)
		require.NoError(t, err)
		assert.InDelta(t, 10*r.Coefficient, vals[0], 1e-9, r.Vehicle)
		assert.Zero(t, vals[1])
	}

	// input untouched
	assert.Equal(t, 3, tbl.Width())
}

func TestApplyVehicleRatesMissingColumn(t *testing.T) {
	tbl := frame.MustFromColumns([]string{"x"}, []frame.Column{frame.NewIntColumn(1)})
	_, err := ApplyVehicleRates(tbl, "distance", DefaultVehicleRates)
	assert.ErrorIs(t, err, frame.ErrColumnNotFound)
}

func TestRateForHourCoversDay(t *testing.T) {
	for h := 0; h < 24; h++ {
		want := 0.1 + 0.1*float64(h/6)
		assert.InDelta(t, want, RateForHour(h, DefaultTimeBuckets, DefaultFallbackRate), 1e-9, "hour %d", h)
	}
	assert.Equal(t, 0.0, RateForHour(24, DefaultTimeBuckets, DefaultFallbackRate))
	assert.Equal(t, 9.0, RateForHour(3, nil, 9))
}

func TestApplyTimeRates(t *testing.T) {
	tbl := frame.MustFromColumns(
		[]string{"start_time", "distance"},
		[]frame.Column{
			frame.NewStringColumn("2023-10-01 05:59:59", "2023-10-01 06:00:00", "2023-10-01T13:15:00Z", "2023-10-01 23:00:00"),
			frame.NewFloatColumn(1, 2, 3, 4),
		},
	)

	out, err := ApplyTimeRates(tbl, "start_time", DefaultTimeBuckets, DefaultFallbackRate)
	require.NoError(t, err)

	col, err := out.Column("start_time")
	require.NoError(t, err)
	assert.Equal(t, frame.ColumnTypeTimestamp, col.Type())

	rates, err := out.Float64s(TimeRateColumn)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3, 0.4}, rates)

	// input untouched
	orig, err := tbl.Column("start_time")
	require.NoError(t, err)
	assert.Equal(t, frame.ColumnTypeString, orig.Type())
	assert.False(t, tbl.Has(TimeRateColumn))
}

func TestApplyTimeRatesTimestampColumn(t *testing.T) {
	ts := time.Date(2024, 2, 29, 19, 0, 0, 0, time.UTC)
	tbl := frame.MustFromColumns([]string{"ts"}, []frame.Column{frame.NewTimestampColumn(ts)})

	out, err := ApplyTimeRates(tbl, "ts", []TimeBucket{{StartHour: 0, EndHour: 12, Rate: 1}}, 0.5)
	require.NoError(t, err)
	rates, err := out.Float64s(TimeRateColumn)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5}, rates)
}

func TestApplyTimeRatesBadTimestamp(t *testing.T) {
	tbl := frame.MustFromColumns([]string{"ts"}, []frame.Column{frame.NewStringColumn("noon-ish")})
	_, err := ApplyTimeRates(tbl, "ts", DefaultTimeBuckets, 0)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
}

func TestNaNDistanceIgnoredInMean(t *testing.T) {
	tbl := longTable([]int64{1, 1, 2}, []int64{2, 3, 1}, []float64{10, math.NaN(), 10})
	got, err := IDsWithinTenPercent(tbl, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, got)
}
