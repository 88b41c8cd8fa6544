package frame

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tollframe/pkg/errors"
)

func sampleTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := FromColumns(
		[]string{"route", "truck", "bus", "ok"},
		[]Column{
			NewStringColumn("A", "B", "A", "C"),
			NewIntColumn(8, 2, 9, 4),
			NewFloatColumn(1.5, math.NaN(), 3, 40),
			NewBoolColumn(true, false, true, false),
		},
	)
	require.NoError(t, err)
	return tbl
}

func TestTableShape(t *testing.T) {
	tbl := sampleTable(t)
	assert.Equal(t, 4, tbl.Len())
	assert.Equal(t, 4, tbl.Width())
	assert.Equal(t, []string{"route", "truck", "bus", "ok"}, tbl.Names())
	assert.Equal(t, []int{0, 1, 2, 3}, tbl.Index())
	assert.True(t, tbl.Has("bus"))
	assert.False(t, tbl.Has("car"))

	schema := tbl.Schema()
	require.Len(t, schema.Fields, 4)
	assert.Equal(t, Field{Name: "truck", Type: ColumnTypeInt}, schema.Fields[1])
}

func TestAddColumnInvariants(t *testing.T) {
	tbl := sampleTable(t)

	err := tbl.AddColumn("short", NewIntColumn(1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLengthMismatch))

	err = tbl.AddColumn("truck", NewIntColumn(1, 2, 3, 4))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrColumnExists))

	require.NoError(t, tbl.SetColumn("truck", NewFloatColumn(1, 2, 3, 4)))
	col, err := tbl.Column("truck")
	require.NoError(t, err)
	assert.Equal(t, ColumnTypeFloat, col.Type())
	assert.Equal(t, 4, tbl.Width())
}

func TestFromColumnsMismatch(t *testing.T) {
	_, err := FromColumns([]string{"a"}, nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestMissingColumn(t *testing.T) {
	tbl := sampleTable(t)
	_, err := tbl.Float64s("car")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrColumnNotFound))
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestTypedAccessors(t *testing.T) {
	tbl := sampleTable(t)

	trucks, err := tbl.Float64s("truck")
	require.NoError(t, err)
	assert.Equal(t, []float64{8, 2, 9, 4}, trucks)

	ints, err := tbl.Int64s("truck")
	require.NoError(t, err)
	assert.Equal(t, []int64{8, 2, 9, 4}, ints)

	_, err = tbl.Int64s("bus")
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	_, err = tbl.Float64s("route")
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	strs, err := tbl.Strings("truck")
	require.NoError(t, err)
	assert.Equal(t, []string{"8", "2", "9", "4"}, strs)
}

func TestTimes(t *testing.T) {
	tbl := MustFromColumns(
		[]string{"ts"},
		[]Column{NewStringColumn("2023-10-01 05:30:00", "2023-10-01T18:00:00Z")},
	)
	times, err := tbl.Times("ts")
	require.NoError(t, err)
	assert.Equal(t, 5, times[0].Hour())
	assert.Equal(t, 18, times[1].Hour())

	bad := MustFromColumns([]string{"ts"}, []Column{NewStringColumn("yesterday")})
	_, err = bad.Times("ts")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
}

func TestTakeKeepsLabels(t *testing.T) {
	tbl := sampleTable(t)
	sub := tbl.Take([]int{3, 1})

	assert.Equal(t, 2, sub.Len())
	assert.Equal(t, []int{3, 1}, sub.Index())
	routes, err := sub.Strings("route")
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "B"}, routes)

	sub.ResetIndex()
	assert.Equal(t, []int{0, 1}, sub.Index())
}

func TestCloneIsIndependent(t *testing.T) {
	tbl := sampleTable(t)
	clone := tbl.Clone()
	require.NoError(t, clone.AddColumn("extra", NewIntColumn(1, 2, 3, 4)))
	assert.False(t, tbl.Has("extra"))
	assert.True(t, clone.Has("extra"))
}

func TestSetIndex(t *testing.T) {
	tbl := sampleTable(t)
	require.NoError(t, tbl.SetIndex([]int{10, 11, 12, 13}))
	assert.Equal(t, []int{10, 11, 12, 13}, tbl.Index())
	assert.Error(t, tbl.SetIndex([]int{1}))
}

func TestRow(t *testing.T) {
	row := sampleTable(t).Row(2)
	assert.Equal(t, "A", row["route"])
	assert.Equal(t, int64(9), row["truck"])
	assert.Equal(t, 3.0, row["bus"])
	assert.Equal(t, true, row["ok"])
}

func TestColumnAppend(t *testing.T) {
	ints := NewIntColumn()
	require.NoError(t, ints.Append(3))
	require.NoError(t, ints.Append(float64(-2)))
	assert.Error(t, ints.Append(2.5))
	assert.Equal(t, int64(-2), ints.Min())
	assert.Equal(t, int64(3), ints.Max())

	floats := NewFloatColumn()
	require.NoError(t, floats.Append(""))
	require.NoError(t, floats.Append("2.5"))
	assert.True(t, math.IsNaN(floats.Values()[0]))
	assert.Equal(t, 2.5, floats.Values()[1])

	bools := NewBoolColumn()
	for i := 0; i < 70; i++ {
		require.NoError(t, bools.Append(i%3 == 0))
	}
	assert.Equal(t, 70, bools.Len())
	assert.True(t, bools.Bool(66))
	assert.False(t, bools.Bool(67))

	ts := NewTimestampColumn()
	require.NoError(t, ts.Append(time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC)))
	require.NoError(t, ts.Append("2023-01-02"))
	assert.Error(t, ts.Append("not a date"))
	assert.Equal(t, 2, ts.Len())
}

func TestNewColumn(t *testing.T) {
	for _, typ := range []ColumnType{ColumnTypeString, ColumnTypeInt, ColumnTypeFloat, ColumnTypeBool, ColumnTypeTimestamp} {
		assert.Equal(t, typ, NewColumn(typ).Type(), typ.String())
	}
	assert.True(t, ColumnTypeInt.IsNumeric())
	assert.False(t, ColumnTypeString.IsNumeric())
}
