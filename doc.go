// Package tollframe is a toolkit of stateless transformations over tables of
// road traffic and toll data, with a batch runner and CLI that move the
// results between files.
//
// # Architecture
//
// The library packages work on in-memory tables and never share state:
//
//   - pkg/frame: ordered, typed, named columns with an integer row index
//   - pkg/matrix: labelled square matrices, pivoting, rescaling, Euclidean
//     distances and long-form unrolling
//   - pkg/traffic: category counts, outlier rows, route filtering and the
//     weekly coverage check
//   - pkg/toll: neighbour selection around a reference id and toll rates by
//     vehicle type and time of day
//
// The runner in internal/pipeline reads CSV, JSON, Parquet, Arrow or Avro
// files (pkg/formats), optionally compressed (pkg/compression), dispatches
// to one registered operation and writes the result. Runs are logged with
// zap (pkg/logger), counted in Prometheus metrics (pkg/metrics) and traced
// with OpenTelemetry (pkg/observability).
//
// # Quick Start
//
// Build a distance matrix from a wide segment table and unroll it:
//
//	tollframe run distance-matrix --input dataset-3.csv --output distances.parquet
//	tollframe run unroll-distance-matrix --input distances.parquet --output unrolled.csv
//	tollframe run ids-within-threshold --input unrolled.csv --reference-id 1001400
//
// Or call the library directly:
//
//	m, err := matrix.FromWide(table, "id")
//	if err != nil {
//	    return err
//	}
//	long := matrix.Unroll(matrix.Distance(m), matrix.DefaultLongNames)
//	ids, err := toll.IDsWithinTenPercent(long, 1001400)
//
// # Configuration
//
// Every tunable (category bins, outlier factor, rescale rule, tolerance,
// vehicle rates, time buckets) lives in a YAML file loaded by pkg/config.
// Config defaults reproduce the reference behaviour.
package tollframe
