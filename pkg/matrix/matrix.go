// Package matrix provides a labelled square float matrix and the matrix
// transformations of tollframe: pivoting long-form rows into a matrix,
// conditional rescaling, pairwise Euclidean distances, unrolling back to long
// form and conversion to and from wide tables.
//
// Rows and columns share a single label order, ascending by key, so a Matrix
// is always square over the union of its keys.
package matrix

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Sentinel errors.
var (
	// ErrNotSquare indicates that row and column labels differ.
	ErrNotSquare = errors.New("matrix: not square")
	// ErrDuplicateEntry indicates a (row, col) pair given more than once.
	ErrDuplicateEntry = errors.New("matrix: duplicate entry")
	// ErrUnknownLabel indicates a lookup of a label not in the matrix.
	ErrUnknownLabel = errors.New("matrix: unknown label")
	// ErrEmpty indicates a matrix with no labels where one is required.
	ErrEmpty = errors.New("matrix: empty")
)

// Matrix is a dense square matrix labelled by int64 keys.
// data is row-major: cell (r, c) lives at data[r*n+c].
type Matrix struct {
	labels []int64
	pos    map[int64]int
	data   []float64
}

// New creates a zero matrix over the given labels. Labels are sorted and
// must be unique.
func New(labels []int64) (*Matrix, error) {
	sorted := append([]int64(nil), labels...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	pos := make(map[int64]int, len(sorted))
	for i, l := range sorted {
		if _, dup := pos[l]; dup {
			return nil, fmt.Errorf("label %d: %w", l, ErrDuplicateEntry)
		}
		pos[l] = i
	}

	return &Matrix{
		labels: sorted,
		pos:    pos,
		data:   make([]float64, len(sorted)*len(sorted)),
	}, nil
}

// Size returns the number of rows (and columns).
func (m *Matrix) Size() int { return len(m.labels) }

// Labels returns a copy of the labels in order.
func (m *Matrix) Labels() []int64 { return append([]int64(nil), m.labels...) }

// Position returns the row/column position of label.
func (m *Matrix) Position(label int64) (int, bool) {
	p, ok := m.pos[label]
	return p, ok
}

// At returns the cell at positions (r, c).
func (m *Matrix) At(r, c int) float64 {
	return m.data[r*len(m.labels)+c]
}

// Set writes the cell at positions (r, c).
func (m *Matrix) Set(r, c int, v float64) {
	m.data[r*len(m.labels)+c] = v
}

// Get returns the cell addressed by labels.
func (m *Matrix) Get(row, col int64) (float64, error) {
	r, ok := m.pos[row]
	if !ok {
		return 0, fmt.Errorf("row %d: %w", row, ErrUnknownLabel)
	}
	c, ok := m.pos[col]
	if !ok {
		return 0, fmt.Errorf("column %d: %w", col, ErrUnknownLabel)
	}
	return m.At(r, c), nil
}

// Row returns a copy of row r.
func (m *Matrix) Row(r int) []float64 {
	n := len(m.labels)
	return append([]float64(nil), m.data[r*n:(r+1)*n]...)
}

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	out := &Matrix{
		labels: append([]int64(nil), m.labels...),
		pos:    make(map[int64]int, len(m.pos)),
		data:   append([]float64(nil), m.data...),
	}
	for k, v := range m.pos {
		out.pos[k] = v
	}
	return out
}

// Apply returns a new matrix with fn applied to every cell.
func (m *Matrix) Apply(fn func(float64) float64) *Matrix {
	out := m.Clone()
	for i, v := range out.data {
		out.data[i] = fn(v)
	}
	return out
}

// IsSymmetric reports whether |m[r][c] - m[c][r]| <= eps for all cells.
func (m *Matrix) IsSymmetric(eps float64) bool {
	n := len(m.labels)
	for r := 0; r < n; r++ {
		for c := r + 1; c < n; c++ {
			if math.Abs(m.At(r, c)-m.At(c, r)) > eps {
				return false
			}
		}
	}
	return true
}

// Equal reports whether both matrices have the same labels and cells
// within eps of each other.
func (m *Matrix) Equal(o *Matrix, eps float64) bool {
	if len(m.labels) != len(o.labels) {
		return false
	}
	for i, l := range m.labels {
		if o.labels[i] != l {
			return false
		}
	}
	for i, v := range m.data {
		if math.Abs(v-o.data[i]) > eps {
			return false
		}
	}
	return true
}
