package frame

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/ajitpratap0/tollframe/pkg/errors"
)

var (
	// ErrColumnNotFound is returned when a named column does not exist
	ErrColumnNotFound = fmt.Errorf("column not found")
	// ErrColumnExists is returned when adding a column under a taken name
	ErrColumnExists = fmt.Errorf("column already exists")
	// ErrLengthMismatch is returned when a column length differs from the table
	ErrLengthMismatch = fmt.Errorf("column length mismatch")
	// ErrTypeMismatch is returned when a column cannot be read as the requested type
	ErrTypeMismatch = fmt.Errorf("column type mismatch")
)

// Schema describes the columns of a table in order
type Schema struct {
	Fields []Field
}

// Field is a single named, typed column in a schema
type Field struct {
	Name string
	Type ColumnType
}

// Table is an ordered collection of named columns of equal length with an
// integer row index. The index starts as 0..n-1 and survives row selection,
// so rows keep their original labels after filtering.
type Table struct {
	names   []string
	columns []Column
	lookup  map[string]int
	index   []int
	rows    int
}

// New creates an empty table
func New() *Table {
	return &Table{lookup: make(map[string]int)}
}

// FromColumns builds a table from parallel name and column slices
func FromColumns(names []string, cols []Column) (*Table, error) {
	if len(names) != len(cols) {
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"got %d names for %d columns", len(names), len(cols))
	}
	t := New()
	for i, name := range names {
		if err := t.AddColumn(name, cols[i]); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// MustFromColumns is FromColumns for statically known tables; it panics on error
func MustFromColumns(names []string, cols []Column) *Table {
	t, err := FromColumns(names, cols)
	if err != nil {
		panic(err)
	}
	return t
}

// AddColumn appends a column. The first column fixes the row count.
func (t *Table) AddColumn(name string, col Column) error {
	if _, exists := t.lookup[name]; exists {
		return errors.Wrap(ErrColumnExists, errors.ErrorTypeValidation, "add column").
			WithDetail("column", name)
	}
	if len(t.columns) == 0 && t.index == nil {
		t.rows = col.Len()
		t.index = rangeIndex(t.rows)
	} else if col.Len() != t.rows {
		return errors.Wrap(ErrLengthMismatch, errors.ErrorTypeValidation, "add column").
			WithDetail("column", name).
			WithDetail("rows", t.rows).
			WithDetail("length", col.Len())
	}
	t.lookup[name] = len(t.columns)
	t.names = append(t.names, name)
	t.columns = append(t.columns, col)
	return nil
}

// SetColumn replaces the named column in place, or appends it when absent
func (t *Table) SetColumn(name string, col Column) error {
	pos, exists := t.lookup[name]
	if !exists {
		return t.AddColumn(name, col)
	}
	if col.Len() != t.rows {
		return errors.Wrap(ErrLengthMismatch, errors.ErrorTypeValidation, "set column").
			WithDetail("column", name)
	}
	t.columns[pos] = col
	return nil
}

// Len returns the number of rows
func (t *Table) Len() int { return t.rows }

// Width returns the number of columns
func (t *Table) Width() int { return len(t.columns) }

// Names returns the column names in order
func (t *Table) Names() []string {
	return append([]string(nil), t.names...)
}

// Has reports whether a column exists
func (t *Table) Has(name string) bool {
	_, ok := t.lookup[name]
	return ok
}

// Index returns the row labels
func (t *Table) Index() []int {
	return append([]int(nil), t.index...)
}

// SetIndex replaces the row labels
func (t *Table) SetIndex(index []int) error {
	if len(index) != t.rows {
		return errors.Wrap(ErrLengthMismatch, errors.ErrorTypeValidation, "set index").
			WithDetail("rows", t.rows).
			WithDetail("length", len(index))
	}
	t.index = append([]int(nil), index...)
	return nil
}

// ResetIndex relabels rows 0..n-1
func (t *Table) ResetIndex() {
	t.index = rangeIndex(t.rows)
}

// Schema returns the table schema
func (t *Table) Schema() Schema {
	fields := make([]Field, len(t.columns))
	for i, c := range t.columns {
		fields[i] = Field{Name: t.names[i], Type: c.Type()}
	}
	return Schema{Fields: fields}
}

// Column returns the named column
func (t *Table) Column(name string) (Column, error) {
	pos, ok := t.lookup[name]
	if !ok {
		return nil, errors.Wrap(ErrColumnNotFound, errors.ErrorTypeValidation, "lookup column").
			WithDetail("column", name)
	}
	return t.columns[pos], nil
}

// ColumnAt returns the column at position i
func (t *Table) ColumnAt(i int) Column {
	return t.columns[i]
}

// Float64s returns the named column as floats. Int columns are widened.
func (t *Table) Float64s(name string) ([]float64, error) {
	col, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	switch c := col.(type) {
	case *FloatColumn:
		return append([]float64(nil), c.values...), nil
	case *IntColumn:
		out := make([]float64, len(c.values))
		for i, v := range c.values {
			out[i] = float64(v)
		}
		return out, nil
	default:
		return nil, typeMismatch(name, col.Type(), "float")
	}
}

// Int64s returns the named column as integers. Float columns are accepted
// only when every value is integral.
func (t *Table) Int64s(name string) ([]int64, error) {
	col, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	switch c := col.(type) {
	case *IntColumn:
		return append([]int64(nil), c.values...), nil
	case *FloatColumn:
		out := make([]int64, len(c.values))
		for i, v := range c.values {
			if math.IsNaN(v) || v != math.Trunc(v) {
				return nil, typeMismatch(name, col.Type(), "int").WithDetail("row", i)
			}
			out[i] = int64(v)
		}
		return out, nil
	default:
		return nil, typeMismatch(name, col.Type(), "int")
	}
}

// Strings returns the named column formatted as strings
func (t *Table) Strings(name string) ([]string, error) {
	col, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, col.Len())
	switch c := col.(type) {
	case *StringColumn:
		copy(out, c.values)
	case *IntColumn:
		for i, v := range c.values {
			out[i] = strconv.FormatInt(v, 10)
		}
	case *FloatColumn:
		for i, v := range c.values {
			out[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}
	case *TimestampColumn:
		for i, v := range c.values {
			out[i] = v.Format(time.RFC3339)
		}
	default:
		for i := range out {
			out[i] = fmt.Sprint(col.Get(i))
		}
	}
	return out, nil
}

// Times returns the named column as timestamps. String columns are parsed.
func (t *Table) Times(name string) ([]time.Time, error) {
	col, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	switch c := col.(type) {
	case *TimestampColumn:
		return append([]time.Time(nil), c.values...), nil
	case *StringColumn:
		out := make([]time.Time, len(c.values))
		for i, v := range c.values {
			ts, err := ParseTime(v)
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeData, "parse timestamp").
					WithDetail("column", name).
					WithDetail("row", i)
			}
			out[i] = ts
		}
		return out, nil
	default:
		return nil, typeMismatch(name, col.Type(), "timestamp")
	}
}

// Row returns row i as a name to value map
func (t *Table) Row(i int) map[string]interface{} {
	row := make(map[string]interface{}, len(t.columns))
	for j, c := range t.columns {
		row[t.names[j]] = c.Get(i)
	}
	return row
}

// Take returns a new table with the rows at positions, keeping their labels
func (t *Table) Take(positions []int) *Table {
	out := New()
	for i, c := range t.columns {
		// names are unique and lengths equal, AddColumn cannot fail
		_ = out.AddColumn(t.names[i], c.Take(positions))
	}
	out.rows = len(positions)
	out.index = make([]int, len(positions))
	for i, p := range positions {
		out.index[i] = t.index[p]
	}
	return out
}

// Clone returns a table sharing column storage with t. Adding or replacing
// columns on the clone leaves t untouched.
func (t *Table) Clone() *Table {
	out := &Table{
		names:   append([]string(nil), t.names...),
		columns: append([]Column(nil), t.columns...),
		lookup:  make(map[string]int, len(t.lookup)),
		index:   append([]int(nil), t.index...),
		rows:    t.rows,
	}
	for k, v := range t.lookup {
		out.lookup[k] = v
	}
	return out
}

func rangeIndex(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func typeMismatch(name string, got ColumnType, want string) *errors.Error {
	return errors.Wrap(ErrTypeMismatch, errors.ErrorTypeValidation, "read column as "+want).
		WithDetail("column", name).
		WithDetail("type", got.String())
}
