package formats

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/ajitpratap0/tollframe/pkg/errors"
	"github.com/ajitpratap0/tollframe/pkg/frame"
)

// CSVOptions configures CSV reading
type CSVOptions struct {
	// Delimiter separates fields, ',' when zero
	Delimiter rune
	// Comment starts a line that is skipped, disabled when zero
	Comment rune
	// UnnamedIndex names an empty header cell, as written by spreadsheet
	// tools for the row label column
	UnnamedIndex string
}

// DefaultCSVOptions returns options for comma separated files with an "id"
// row label column when the first header cell is empty.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{Delimiter: ',', UnnamedIndex: "id"}
}

// ReadCSV reads a CSV file with a header row. Each column becomes an int
// column when every cell is an integer, a float column when every non-empty
// cell is a number (empty cells become NaN), and a string column otherwise.
func ReadCSV(r io.Reader, opts CSVOptions) (*frame.Table, error) {
	cr := csv.NewReader(r)
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	cr.Comment = opts.Comment
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New(errors.ErrorTypeData, "csv input has no header row")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "read csv header")
	}
	header = append([]string(nil), header...)
	if len(header) > 0 && header[0] == "" && opts.UnnamedIndex != "" {
		header[0] = opts.UnnamedIndex
	}

	cells := make([][]string, len(header))
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "read csv record").WithDetail("line", line)
		}
		for i, v := range record {
			cells[i] = append(cells[i], v)
		}
	}

	cols := make([]frame.Column, len(header))
	for i := range header {
		cols[i] = inferColumn(cells[i])
	}
	t, err := frame.FromColumns(header, cols)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "build csv table")
	}
	return t, nil
}

func inferColumn(cells []string) frame.Column {
	if ints, ok := parseInts(cells); ok {
		return frame.NewIntColumn(ints...)
	}
	if floats, ok := parseFloats(cells); ok {
		return frame.NewFloatColumn(floats...)
	}
	return frame.NewStringColumn(cells...)
}

func parseInts(cells []string) ([]int64, bool) {
	if len(cells) == 0 {
		return nil, false
	}
	out := make([]int64, len(cells))
	for i, c := range cells {
		v, err := strconv.ParseInt(c, 10, 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func parseFloats(cells []string) ([]float64, bool) {
	out := make([]float64, len(cells))
	for i, c := range cells {
		if c == "" {
			out[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

type csvWriter struct {
	w      *csv.Writer
	schema *frame.Schema
}

func newCSVWriter(w io.Writer) *csvWriter {
	return &csvWriter{w: csv.NewWriter(w)}
}

func (cw *csvWriter) Write(t *frame.Table) error {
	if cw.schema == nil {
		s := t.Schema()
		cw.schema = &s
		if err := cw.w.Write(t.Names()); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "write csv header")
		}
	} else if err := checkSchema(cw.schema, t); err != nil {
		return err
	}

	row := make([]string, t.Width())
	for i := 0; i < t.Len(); i++ {
		for j := range row {
			row[j] = formatCell(t.ColumnAt(j).Get(i))
		}
		if err := cw.w.Write(row); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "write csv record").WithDetail("row", i)
		}
	}
	cw.w.Flush()
	return cw.w.Error()
}

func (cw *csvWriter) Close() error {
	cw.w.Flush()
	return cw.w.Error()
}

func (cw *csvWriter) Format() Format { return CSV }

// formatCell renders a cell for text output. NaN renders empty so that
// ReadCSV reads it back as a missing value.
func formatCell(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	default:
		return ""
	}
}
