package formats

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tollframe/pkg/errors"
	"github.com/ajitpratap0/tollframe/pkg/frame"
)

func tollTable() *frame.Table {
	return frame.MustFromColumns(
		[]string{"id_start", "1001402", "vehicle", "peak", "start_time"},
		[]frame.Column{
			frame.NewIntColumn(1001400, 1001402, 1001404),
			frame.NewFloatColumn(9.7, math.NaN(), 20.2),
			frame.NewStringColumn("car", "bus, double deck", "truck"),
			frame.NewBoolColumn(true, false, true),
			frame.NewTimestampColumn(
				time.Date(2023, 10, 1, 5, 30, 0, 0, time.UTC),
				time.Date(2023, 10, 2, 12, 0, 0, 0, time.UTC),
				time.Date(2023, 10, 3, 23, 59, 59, 0, time.UTC),
			),
		},
	)
}

func assertTollTable(t *testing.T, got *frame.Table) {
	t.Helper()
	require.Equal(t, 3, got.Len())
	assert.Equal(t, []string{"id_start", "1001402", "vehicle", "peak", "start_time"}, got.Names())

	ids, err := got.Int64s("id_start")
	require.NoError(t, err)
	assert.Equal(t, []int64{1001400, 1001402, 1001404}, ids)

	dists, err := got.Float64s("1001402")
	require.NoError(t, err)
	assert.Equal(t, 9.7, dists[0])
	assert.True(t, math.IsNaN(dists[1]))
	assert.Equal(t, 20.2, dists[2])

	vehicles, err := got.Strings("vehicle")
	require.NoError(t, err)
	assert.Equal(t, []string{"car", "bus, double deck", "truck"}, vehicles)

	times, err := got.Times("start_time")
	require.NoError(t, err)
	assert.True(t, times[0].Equal(time.Date(2023, 10, 1, 5, 30, 0, 0, time.UTC)))
	assert.Equal(t, 23, times[2].UTC().Hour())
}

func TestBinaryRoundTrip(t *testing.T) {
	for _, format := range []Format{Parquet, Arrow, Avro} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, tollTable(), format))

			got, err := Read(&buf, format)
			require.NoError(t, err)
			assertTollTable(t, got)

			col, err := got.Column("peak")
			require.NoError(t, err)
			assert.Equal(t, frame.ColumnTypeBool, col.Type())
			assert.Equal(t, []interface{}{true, false, true}, []interface{}{col.Get(0), col.Get(1), col.Get(2)})
		})
	}
}

func TestTextRoundTrip(t *testing.T) {
	for _, format := range []Format{CSV, JSON} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, tollTable(), format))

			got, err := Read(&buf, format)
			require.NoError(t, err)
			assertTollTable(t, got)
		})
	}
}

func TestMultipleWrites(t *testing.T) {
	for _, format := range Formats {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			w, err := NewWriter(&buf, format)
			require.NoError(t, err)
			assert.Equal(t, format, w.Format())

			require.NoError(t, w.Write(tollTable()))
			require.NoError(t, w.Write(tollTable()))

			other := frame.MustFromColumns([]string{"x"}, []frame.Column{frame.NewIntColumn(1)})
			assert.True(t, errors.IsType(w.Write(other), errors.ErrorTypeValidation))
			require.NoError(t, w.Close())

			got, err := Read(&buf, format)
			require.NoError(t, err)
			assert.Equal(t, 6, got.Len())
		})
	}
}

func TestReadCSVInference(t *testing.T) {
	in := strings.Join([]string{
		",car,bus,route,code,when",
		"0,12,1.5,A1,08,2023-10-01 05:30:00",
		"1,30,,B2,09,2023-10-01 18:00:00",
		"",
	}, "\n")

	got, err := ReadCSV(strings.NewReader(in), DefaultCSVOptions())
	require.NoError(t, err)

	schema := got.Schema()
	want := []frame.Field{
		{Name: "id", Type: frame.ColumnTypeInt},
		{Name: "car", Type: frame.ColumnTypeInt},
		{Name: "bus", Type: frame.ColumnTypeFloat},
		{Name: "route", Type: frame.ColumnTypeString},
		{Name: "code", Type: frame.ColumnTypeInt},
		{Name: "when", Type: frame.ColumnTypeString},
	}
	assert.Equal(t, want, schema.Fields)

	codes, err := got.Int64s("code")
	require.NoError(t, err)
	assert.Equal(t, []int64{8, 9}, codes)

	bus, err := got.Float64s("bus")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(bus[1]))
}

func TestReadCSVErrors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""), DefaultCSVOptions())
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))

	_, err = ReadCSV(strings.NewReader("a,b\n1\n"), DefaultCSVOptions())
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
}

func TestReadCSVDelimiter(t *testing.T) {
	got, err := ReadCSV(strings.NewReader("a;b\n1;x\n"), CSVOptions{Delimiter: ';'})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got.Names())
}

func TestReadJSON(t *testing.T) {
	in := `[
		{"id": 1, "rate": 0.5, "ok": true, "name": "a"},
		{"id": 2, "ok": false, "name": "b", "extra": [1, 2]},
		{"id": 3, "rate": 2, "ok": true, "name": null}
	]`
	got, err := ReadJSON(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "rate", "ok", "name", "extra"}, got.Names())
	schema := got.Schema()
	assert.Equal(t, frame.ColumnTypeInt, schema.Fields[0].Type)
	assert.Equal(t, frame.ColumnTypeFloat, schema.Fields[1].Type)
	assert.Equal(t, frame.ColumnTypeBool, schema.Fields[2].Type)
	assert.Equal(t, frame.ColumnTypeString, schema.Fields[3].Type)

	rates, err := got.Float64s("rate")
	require.NoError(t, err)
	assert.Equal(t, 0.5, rates[0])
	assert.True(t, math.IsNaN(rates[1]))
	assert.Equal(t, 2.0, rates[2])

	extra, err := got.Strings("extra")
	require.NoError(t, err)
	assert.Equal(t, []string{"", "[1,2]", ""}, extra)
}

func TestReadJSONRejectsObjects(t *testing.T) {
	_, err := ReadJSON(strings.NewReader(`{"id": 1}`))
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
}

func TestEmptyJSON(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, JSON)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.Equal(t, "[]\n", buf.String())

	got, err := ReadJSON(&buf)
	require.NoError(t, err)
	assert.Zero(t, got.Len())
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"dataset-1.csv":       CSV,
		"out/matrix.JSON":     JSON,
		"rates.parquet":       Parquet,
		"rates.parquet.zst":   Parquet,
		"trips.csv.gz":        CSV,
		"distances.arrow.lz4": Arrow,
		"distances.feather":   Arrow,
		"tolls.avro":          Avro,
	}
	for path, want := range tests {
		got, err := FormatFromPath(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	_, err := FormatFromPath("notes.txt")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	_, err = FormatFromPath("data.gz")
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" Parquet ")
	require.NoError(t, err)
	assert.Equal(t, Parquet, f)

	_, err = ParseFormat("orc")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestCompressedFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.csv.gz", "b.json.zst", "c.parquet.lz4", "d.avro.sz", "e.arrow"} {
		path := filepath.Join(dir, name)
		require.NoError(t, WriteFile(path, tollTable(), ""), name)

		got, err := ReadFile(path)
		require.NoError(t, err, name)
		assertTollTable(t, got)
	}
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}
