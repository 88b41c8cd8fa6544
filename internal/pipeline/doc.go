// Package pipeline runs one table transformation per invocation: it loads
// the input files, dispatches to a registered Operation and writes the
// result.
//
// # Overview
//
// Operations are stateless and never interact with each other. The Runner
// wraps a single call with:
//   - input loading through pkg/formats, compression inferred by extension
//   - a tracing span per stage (read, transform, write)
//   - run counters and a duration histogram in pkg/metrics
//   - structured logs carrying the operation name and run id
//
// # Basic Usage
//
//	reg := pipeline.NewDefaultRegistry()
//	runner := pipeline.NewRunner(reg, pipeline.WithDefaultFormat(formats.Parquet))
//
//	res, err := runner.Run(ctx, pipeline.Request{
//	    Operation: "distance-matrix",
//	    Inputs:    []string{"dataset-3.csv"},
//	    Output:    "distances.parquet",
//	    Params:    pipeline.DefaultParams(),
//	})
//
// Results that are not tables are converted before writing: category counts
// become car_type/count rows, index selections an "index" column, routes a
// "route" column and neighbour ids an "id" column. Matrices are written in
// wide form with the row labels in the first column.
package pipeline
