package pipeline

import (
	"context"
	"strconv"

	"github.com/ajitpratap0/tollframe/pkg/errors"
	"github.com/ajitpratap0/tollframe/pkg/frame"
	"github.com/ajitpratap0/tollframe/pkg/matrix"
	"github.com/ajitpratap0/tollframe/pkg/toll"
	"github.com/ajitpratap0/tollframe/pkg/traffic"
)

// Column names of the tables built from non-table results.
const (
	// WideIndexColumn labels the rows of a matrix written in wide form
	WideIndexColumn   = "id"
	CategoryColumn    = "car_type"
	CountColumn       = "count"
	IndexColumn       = "index"
	RouteColumn       = "route"
	NeighborColumn    = "id"
	TimestampColumn   = "timestamp"
	DistanceColumn    = "distance"
	defaultInputCount = 1
)

// RunFunc is the body of a function-backed operation
type RunFunc func(ctx context.Context, inputs []*frame.Table, params Params) (*frame.Table, error)

type funcOperation struct {
	name        string
	description string
	inputs      int
	run         RunFunc
}

// NewOperation wraps fn as an Operation taking inputs tables.
func NewOperation(name, description string, inputs int, fn RunFunc) Operation {
	return &funcOperation{name: name, description: description, inputs: inputs, run: fn}
}

func (o *funcOperation) Name() string        { return o.name }
func (o *funcOperation) Description() string { return o.description }
func (o *funcOperation) Inputs() int         { return o.inputs }

func (o *funcOperation) Run(ctx context.Context, inputs []*frame.Table, params Params) (*frame.Table, error) {
	return o.run(ctx, inputs, params)
}

// Builtins returns a fresh instance of every built-in operation.
func Builtins() []Operation {
	return []Operation{
		NewOperation("car-matrix",
			"pivot id_1/id_2/car into a square matrix with a zero diagonal",
			defaultInputCount, runCarMatrix),
		NewOperation("type-count",
			"count car values per low/medium/high category",
			defaultInputCount, runTypeCount),
		NewOperation("bus-indexes",
			"index labels of rows whose bus value exceeds twice the mean",
			defaultInputCount, runBusIndexes),
		NewOperation("filter-routes",
			"routes whose mean truck value exceeds the threshold",
			defaultInputCount, runFilterRoutes),
		NewOperation("multiply-matrix",
			"rescale every cell of a wide matrix and round to one decimal",
			defaultInputCount, runMultiplyMatrix),
		NewOperation("time-check",
			"group positions of (id, id_2) pairs ordered by weekday distance",
			defaultInputCount, runTimeCheck),
		NewOperation("distance-matrix",
			"Euclidean distances between the rows of a wide or long matrix",
			defaultInputCount, runDistanceMatrix),
		NewOperation("unroll-distance-matrix",
			"flatten a wide matrix into id_start/id_end/distance rows",
			defaultInputCount, runUnroll),
		NewOperation("ids-within-threshold",
			"id_start values within the tolerance band of the reference mean distance",
			defaultInputCount, runNeighbors),
		NewOperation("toll-rate",
			"add one toll column per vehicle type from the distance column",
			defaultInputCount, runTollRate),
		NewOperation("time-based-toll-rate",
			"add the time-of-day toll rate of each timestamp",
			defaultInputCount, runTimeTollRate),
	}
}

func runCarMatrix(_ context.Context, in []*frame.Table, _ Params) (*frame.Table, error) {
	m, err := matrix.CarMatrix(in[0])
	if err != nil {
		return nil, err
	}
	return matrix.ToTable(m, WideIndexColumn)
}

func runTypeCount(_ context.Context, in []*frame.Table, p Params) (*frame.Table, error) {
	counts, err := traffic.CountCategories(in[0], "car", p.Bins)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(counts))
	values := make([]int64, len(counts))
	for i, c := range counts {
		names[i] = c.Name
		values[i] = int64(c.Count)
	}
	return frame.FromColumns(
		[]string{CategoryColumn, CountColumn},
		[]frame.Column{frame.NewStringColumn(names...), frame.NewIntColumn(values...)},
	)
}

func runBusIndexes(_ context.Context, in []*frame.Table, p Params) (*frame.Table, error) {
	idx, err := traffic.OutlierIndexes(in[0], "bus", p.OutlierFactor)
	if err != nil {
		return nil, err
	}
	return indexTable(idx)
}

func runFilterRoutes(_ context.Context, in []*frame.Table, p Params) (*frame.Table, error) {
	routes, err := traffic.GroupsAboveMean(in[0], "route", "truck", p.RouteThreshold)
	if err != nil {
		return nil, err
	}

	ints := make([]int64, 0, len(routes))
	for _, r := range routes {
		v, err := strconv.ParseInt(r, 10, 64)
		if err != nil {
			return frame.FromColumns([]string{RouteColumn}, []frame.Column{frame.NewStringColumn(routes...)})
		}
		ints = append(ints, v)
	}
	return frame.FromColumns([]string{RouteColumn}, []frame.Column{frame.NewIntColumn(ints...)})
}

func runMultiplyMatrix(_ context.Context, in []*frame.Table, p Params) (*frame.Table, error) {
	m, err := wideMatrix(in[0])
	if err != nil {
		return nil, err
	}
	return matrix.ToTable(matrix.Rescale(m, p.Rescale), WideIndexColumn)
}

func runTimeCheck(_ context.Context, in []*frame.Table, _ Params) (*frame.Table, error) {
	idx, err := traffic.TimeCheck(in[0])
	if err != nil {
		return nil, err
	}
	return indexTable(idx)
}

func runDistanceMatrix(_ context.Context, in []*frame.Table, _ Params) (*frame.Table, error) {
	var (
		m   *matrix.Matrix
		err error
	)
	names := matrix.DefaultLongNames
	t := in[0]
	if t.Has(names.Start) && t.Has(names.End) && t.Has(names.Value) {
		m, err = matrix.FromLong(t, names)
	} else {
		m, err = wideMatrix(t)
	}
	if err != nil {
		return nil, err
	}
	return matrix.ToTable(matrix.Distance(m), WideIndexColumn)
}

func runUnroll(_ context.Context, in []*frame.Table, _ Params) (*frame.Table, error) {
	m, err := wideMatrix(in[0])
	if err != nil {
		return nil, err
	}
	return matrix.Unroll(m, matrix.DefaultLongNames), nil
}

func runNeighbors(_ context.Context, in []*frame.Table, p Params) (*frame.Table, error) {
	if !p.HasReference {
		return nil, errors.New(errors.ErrorTypeValidation, "ids-within-threshold requires a reference id")
	}
	ids, err := toll.NeighborsWithin(in[0], p.ReferenceID, p.Tolerance)
	if err != nil {
		return nil, err
	}
	return frame.FromColumns([]string{NeighborColumn}, []frame.Column{frame.NewIntColumn(ids...)})
}

func runTollRate(_ context.Context, in []*frame.Table, p Params) (*frame.Table, error) {
	return toll.ApplyVehicleRates(in[0], DistanceColumn, p.VehicleRates)
}

func runTimeTollRate(_ context.Context, in []*frame.Table, p Params) (*frame.Table, error) {
	return toll.ApplyTimeRates(in[0], TimestampColumn, p.TimeBuckets, p.FallbackRate)
}

// wideMatrix reads a matrix whose first column holds the row labels.
func wideMatrix(t *frame.Table) (*matrix.Matrix, error) {
	if t.Width() == 0 {
		return nil, errors.Wrap(matrix.ErrEmpty, errors.ErrorTypeValidation, "wide matrix")
	}
	return matrix.FromWide(t, t.Names()[0])
}

func indexTable(idx []int) (*frame.Table, error) {
	vals := make([]int64, len(idx))
	for i, v := range idx {
		vals[i] = int64(v)
	}
	return frame.FromColumns([]string{IndexColumn}, []frame.Column{frame.NewIntColumn(vals...)})
}
