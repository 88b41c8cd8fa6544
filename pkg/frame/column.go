package frame

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cast"
)

// ColumnType represents the data type of a column
type ColumnType int

const (
	ColumnTypeString ColumnType = iota
	ColumnTypeInt
	ColumnTypeFloat
	ColumnTypeBool
	ColumnTypeTimestamp
)

// String returns the lower-case name of the type
func (t ColumnType) String() string {
	switch t {
	case ColumnTypeString:
		return "string"
	case ColumnTypeInt:
		return "int"
	case ColumnTypeFloat:
		return "float"
	case ColumnTypeBool:
		return "bool"
	case ColumnTypeTimestamp:
		return "timestamp"
	default:
		return fmt.Sprintf("ColumnType(%d)", int(t))
	}
}

// IsNumeric reports whether values of the type widen to float64
func (t ColumnType) IsNumeric() bool {
	return t == ColumnTypeInt || t == ColumnTypeFloat
}

// Column is the base interface for all column types
type Column interface {
	Type() ColumnType
	Len() int
	Get(i int) interface{}
	Append(value interface{}) error
	// Take returns a new column holding the values at positions, in order
	Take(positions []int) Column
}

// NewColumn creates an empty column of the given type
func NewColumn(colType ColumnType) Column {
	switch colType {
	case ColumnTypeInt:
		return NewIntColumn()
	case ColumnTypeFloat:
		return NewFloatColumn()
	case ColumnTypeBool:
		return NewBoolColumn()
	case ColumnTypeTimestamp:
		return NewTimestampColumn()
	default:
		return NewStringColumn()
	}
}

// StringColumn stores string values
type StringColumn struct {
	values []string
}

// NewStringColumn creates a new string column
func NewStringColumn(values ...string) *StringColumn {
	return &StringColumn{values: append([]string(nil), values...)}
}

func (c *StringColumn) Type() ColumnType      { return ColumnTypeString }
func (c *StringColumn) Len() int              { return len(c.values) }
func (c *StringColumn) Get(i int) interface{} { return c.values[i] }

// Values returns the backing slice. Callers must not modify it.
func (c *StringColumn) Values() []string { return c.values }

func (c *StringColumn) Append(value interface{}) error {
	str, err := cast.ToStringE(value)
	if err != nil {
		return fmt.Errorf("expected string, got %T", value)
	}
	c.values = append(c.values, str)
	return nil
}

func (c *StringColumn) Take(positions []int) Column {
	out := make([]string, len(positions))
	for i, p := range positions {
		out[i] = c.values[p]
	}
	return &StringColumn{values: out}
}

// IntColumn stores integer values
type IntColumn struct {
	values   []int64
	min, max int64
}

// NewIntColumn creates a new integer column
func NewIntColumn(values ...int64) *IntColumn {
	c := &IntColumn{values: make([]int64, 0, len(values))}
	for _, v := range values {
		c.push(v)
	}
	return c
}

func (c *IntColumn) Type() ColumnType      { return ColumnTypeInt }
func (c *IntColumn) Len() int              { return len(c.values) }
func (c *IntColumn) Get(i int) interface{} { return c.values[i] }

// Values returns the backing slice. Callers must not modify it.
func (c *IntColumn) Values() []int64 { return c.values }

// Min returns the smallest value, or 0 for an empty column
func (c *IntColumn) Min() int64 { return c.min }

// Max returns the largest value, or 0 for an empty column
func (c *IntColumn) Max() int64 { return c.max }

func (c *IntColumn) Append(value interface{}) error {
	var intVal int64
	switch v := value.(type) {
	case float64, float32:
		f := cast.ToFloat64(v)
		if f != math.Trunc(f) {
			return fmt.Errorf("cannot store %v in int column", v)
		}
		intVal = int64(f)
	default:
		var err error
		intVal, err = cast.ToInt64E(value)
		if err != nil {
			return fmt.Errorf("cannot parse %v as int: %w", value, err)
		}
	}
	c.push(intVal)
	return nil
}

func (c *IntColumn) push(v int64) {
	if len(c.values) == 0 {
		c.min, c.max = v, v
	} else {
		if v < c.min {
			c.min = v
		}
		if v > c.max {
			c.max = v
		}
	}
	c.values = append(c.values, v)
}

func (c *IntColumn) Take(positions []int) Column {
	out := NewIntColumn()
	for _, p := range positions {
		out.push(c.values[p])
	}
	return out
}

// FloatColumn stores floating point values. NaN marks a missing value.
type FloatColumn struct {
	values []float64
}

// NewFloatColumn creates a new float column
func NewFloatColumn(values ...float64) *FloatColumn {
	return &FloatColumn{values: append([]float64(nil), values...)}
}

func (c *FloatColumn) Type() ColumnType      { return ColumnTypeFloat }
func (c *FloatColumn) Len() int              { return len(c.values) }
func (c *FloatColumn) Get(i int) interface{} { return c.values[i] }

// Values returns the backing slice. Callers must not modify it.
func (c *FloatColumn) Values() []float64 { return c.values }

func (c *FloatColumn) Append(value interface{}) error {
	if value == nil {
		c.values = append(c.values, math.NaN())
		return nil
	}
	if s, ok := value.(string); ok && s == "" {
		c.values = append(c.values, math.NaN())
		return nil
	}
	floatVal, err := cast.ToFloat64E(value)
	if err != nil {
		return fmt.Errorf("cannot parse %v as float: %w", value, err)
	}
	c.values = append(c.values, floatVal)
	return nil
}

func (c *FloatColumn) Take(positions []int) Column {
	out := make([]float64, len(positions))
	for i, p := range positions {
		out[i] = c.values[p]
	}
	return &FloatColumn{values: out}
}

// BoolColumn stores boolean values bit-packed, 64 per word
type BoolColumn struct {
	values []uint64
	count  int
}

// NewBoolColumn creates a new boolean column
func NewBoolColumn(values ...bool) *BoolColumn {
	c := &BoolColumn{values: make([]uint64, 0, len(values)/64+1)}
	for _, v := range values {
		c.push(v)
	}
	return c
}

func (c *BoolColumn) Type() ColumnType { return ColumnTypeBool }
func (c *BoolColumn) Len() int         { return c.count }

func (c *BoolColumn) Get(i int) interface{} {
	return c.Bool(i)
}

// Bool returns the value at position i
func (c *BoolColumn) Bool(i int) bool {
	return (c.values[i/64] & (1 << (i % 64))) != 0
}

func (c *BoolColumn) Append(value interface{}) error {
	b, err := cast.ToBoolE(value)
	if err != nil {
		return fmt.Errorf("cannot parse %v as bool: %w", value, err)
	}
	c.push(b)
	return nil
}

func (c *BoolColumn) push(v bool) {
	wordIndex := c.count / 64
	bitIndex := c.count % 64
	if wordIndex >= len(c.values) {
		c.values = append(c.values, 0)
	}
	if v {
		c.values[wordIndex] |= 1 << bitIndex
	}
	c.count++
}

func (c *BoolColumn) Take(positions []int) Column {
	out := NewBoolColumn()
	for _, p := range positions {
		out.push(c.Bool(p))
	}
	return out
}

// TimestampColumn stores timestamp values
type TimestampColumn struct {
	values []time.Time
}

// NewTimestampColumn creates a new timestamp column
func NewTimestampColumn(values ...time.Time) *TimestampColumn {
	return &TimestampColumn{values: append([]time.Time(nil), values...)}
}

func (c *TimestampColumn) Type() ColumnType      { return ColumnTypeTimestamp }
func (c *TimestampColumn) Len() int              { return len(c.values) }
func (c *TimestampColumn) Get(i int) interface{} { return c.values[i] }

// Values returns the backing slice. Callers must not modify it.
func (c *TimestampColumn) Values() []time.Time { return c.values }

func (c *TimestampColumn) Append(value interface{}) error {
	ts, err := ParseTime(value)
	if err != nil {
		return err
	}
	c.values = append(c.values, ts)
	return nil
}

func (c *TimestampColumn) Take(positions []int) Column {
	out := make([]time.Time, len(positions))
	for i, p := range positions {
		out[i] = c.values[p]
	}
	return &TimestampColumn{values: out}
}

// ParseTime converts strings, epoch seconds and time values to a time.Time.
// Strings without a zone are read as UTC.
func ParseTime(value interface{}) (time.Time, error) {
	ts, err := cast.ToTimeE(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot parse %v as timestamp: %w", value, err)
	}
	return ts, nil
}
