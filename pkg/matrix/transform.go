package matrix

import (
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/tollframe/pkg/errors"
	"github.com/ajitpratap0/tollframe/pkg/frame"
)

// LongNames names the three columns of a long-form table.
type LongNames struct {
	Start string
	End   string
	Value string
}

// DefaultLongNames are the column names of an unrolled distance matrix.
var DefaultLongNames = LongNames{Start: "id_start", End: "id_end", Value: "distance"}

// RescaleRule multiplies cells above Pivot by AboveFactor and all other
// cells by BelowFactor, then rounds to Precision decimal places.
type RescaleRule struct {
	Pivot       float64
	AboveFactor float64
	BelowFactor float64
	Precision   int32
}

// DefaultRescaleRule is x*0.75 above 20, x*1.25 otherwise, one decimal.
var DefaultRescaleRule = RescaleRule{Pivot: 20, AboveFactor: 0.75, BelowFactor: 1.25, Precision: 1}

// CarMatrix pivots the id_1, id_2 and car columns of t.
func CarMatrix(t *frame.Table) (*Matrix, error) {
	return Pivot(t, "id_1", "id_2", "car")
}

// Pivot builds a square matrix over the union of the rowKey and colKey
// values of t. A cell holds value where the (row, col) pair occurs in t and
// 0 otherwise; the diagonal is always 0. A pair occurring twice is rejected
// with ErrDuplicateEntry.
func Pivot(t *frame.Table, rowKey, colKey, value string) (*Matrix, error) {
	m, err := fromTriples(t, LongNames{Start: rowKey, End: colKey, Value: value})
	if err != nil {
		return nil, err
	}
	for i := range m.labels {
		m.Set(i, i, 0)
	}
	return m, nil
}

// FromLong rebuilds a matrix from a long-form table. Unlike Pivot it keeps
// the diagonal, so FromLong(Unroll(m)) reproduces m.
func FromLong(t *frame.Table, names LongNames) (*Matrix, error) {
	return fromTriples(t, names)
}

func fromTriples(t *frame.Table, names LongNames) (*Matrix, error) {
	rows, err := t.Int64s(names.Start)
	if err != nil {
		return nil, err
	}
	cols, err := t.Int64s(names.End)
	if err != nil {
		return nil, err
	}
	vals, err := t.Float64s(names.Value)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]struct{}, len(rows)+len(cols))
	labels := make([]int64, 0, len(rows))
	for _, keys := range [][]int64{rows, cols} {
		for _, k := range keys {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				labels = append(labels, k)
			}
		}
	}

	m, err := New(labels)
	if err != nil {
		return nil, err
	}

	filled := make(map[[2]int]struct{}, len(rows))
	for i := range rows {
		r, c := m.pos[rows[i]], m.pos[cols[i]]
		if _, dup := filled[[2]int{r, c}]; dup {
			return nil, errors.Wrap(
				fmt.Errorf("(%d, %d): %w", rows[i], cols[i], ErrDuplicateEntry),
				errors.ErrorTypeValidation, "pivot")
		}
		filled[[2]int{r, c}] = struct{}{}

		v := vals[i]
		if math.IsNaN(v) {
			v = 0
		}
		m.Set(r, c, v)
	}
	return m, nil
}

// Rescale applies rule to every cell of m and returns the result.
func Rescale(m *Matrix, rule RescaleRule) *Matrix {
	return m.Apply(func(x float64) float64 {
		if x > rule.Pivot {
			x *= rule.AboveFactor
		} else {
			x *= rule.BelowFactor
		}
		return Round(x, rule.Precision)
	})
}

// Round rounds x to places decimal places, halves away from zero.
func Round(x float64, places int32) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	f, _ := decimal.NewFromFloat(x).Round(places).Float64()
	return f
}

// Distance returns the pairwise Euclidean distances between the row vectors
// of m, labelled like m. The result is symmetric with a zero diagonal.
func Distance(m *Matrix) *Matrix {
	n := len(m.labels)
	out := m.Clone()
	for i := range out.data {
		out.data[i] = 0
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			var sum float64
			for k := 0; k < n; k++ {
				d := m.At(i, k) - m.At(j, k)
				sum += d * d
			}
			d := math.Sqrt(sum)
			out.Set(i, j, d)
			out.Set(j, i, d)
		}
	}
	return out
}

// Unroll flattens m into a long-form table with one (start, end, value) row
// per cell, ordered by start label then end label. The value of a row is
// the cell at (start, end), so FromLong(Unroll(m)) reproduces m.
func Unroll(m *Matrix, names LongNames) *frame.Table {
	n := len(m.labels)
	starts := make([]int64, 0, n*n)
	ends := make([]int64, 0, n*n)
	vals := make([]float64, 0, n*n)

	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			starts = append(starts, m.labels[r])
			ends = append(ends, m.labels[c])
			vals = append(vals, m.At(r, c))
		}
	}

	return frame.MustFromColumns(
		[]string{names.Start, names.End, names.Value},
		[]frame.Column{
			frame.NewIntColumn(starts...),
			frame.NewIntColumn(ends...),
			frame.NewFloatColumn(vals...),
		},
	)
}

// ToTable returns m in wide form: an int column of labels named indexName
// followed by one float column per label, named by the label.
func ToTable(m *Matrix, indexName string) (*frame.Table, error) {
	n := len(m.labels)
	t := frame.New()
	if err := t.AddColumn(indexName, frame.NewIntColumn(m.labels...)); err != nil {
		return nil, err
	}
	for c := 0; c < n; c++ {
		col := make([]float64, n)
		for r := 0; r < n; r++ {
			col[r] = m.At(r, c)
		}
		if err := t.AddColumn(strconv.FormatInt(m.labels[c], 10), frame.NewFloatColumn(col...)); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// FromWide is the inverse of ToTable. Every column other than indexName must
// be named by a label, and the column labels must equal the row labels.
func FromWide(t *frame.Table, indexName string) (*Matrix, error) {
	rows, err := t.Int64s(indexName)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.Wrap(ErrEmpty, errors.ErrorTypeValidation, "wide matrix")
	}

	m, err := New(rows)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeValidation, "wide matrix")
	}

	names := t.Names()
	if len(names)-1 != len(rows) {
		return nil, errors.Wrap(ErrNotSquare, errors.ErrorTypeValidation, "wide matrix").
			WithDetail("rows", len(rows)).
			WithDetail("columns", len(names)-1)
	}

	assigned := make(map[int]struct{}, len(rows))
	for _, name := range names {
		if name == indexName {
			continue
		}
		label, err := parseLabel(name)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeValidation, "wide matrix").
				WithDetail("column", name)
		}
		c, ok := m.pos[label]
		if _, dup := assigned[c]; !ok || dup {
			return nil, errors.Wrap(ErrNotSquare, errors.ErrorTypeValidation, "wide matrix").
				WithDetail("column", name)
		}
		assigned[c] = struct{}{}
		vals, err := t.Float64s(name)
		if err != nil {
			return nil, err
		}
		for i, v := range vals {
			m.Set(m.pos[rows[i]], c, v)
		}
	}
	return m, nil
}

// parseLabel accepts integer headers, including the "1001400.0" form some
// spreadsheet exports produce.
func parseLabel(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("%q is not an integer label: %w", s, ErrUnknownLabel)
	}
	return int64(f), nil
}
