// Package metrics records Prometheus metrics for tollframe operation runs.
//
// Metrics live in a private registry rather than the global default one, so
// importing the package never exposes anything by itself. The CLI prints a
// summary of the registry after a run when metrics are enabled.
//
// # Basic Usage
//
//	timer := metrics.NewTimer("car-matrix")
//	out, err := op.Run(ctx, inputs, params)
//	timer.ObserveDuration()
//	metrics.OperationsTotal.WithLabelValues("car-matrix", metrics.Status(err)).Inc()
//	metrics.RowsProcessed.WithLabelValues("car-matrix", metrics.DirectionOut).Add(float64(out.Len()))
package metrics

import (
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// Row directions for RowsProcessed
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

var (
	registry = prometheus.NewRegistry()
	factory  = promauto.With(registry)

	// OperationsTotal counts operation runs by outcome
	OperationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tollframe",
			Name:      "operations_total",
			Help:      "Total number of operation runs",
		},
		[]string{"operation", "status"},
	)

	// OperationDuration tracks how long the transformation step takes
	OperationDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tollframe",
			Name:      "operation_duration_seconds",
			Help:      "Duration of the transformation step in seconds",
			Buckets: []float64{
				0.0001, // 100µs
				0.001,  // 1ms
				0.01,   // 10ms
				0.1,    // 100ms
				1,      // 1s
				10,     // 10s
			},
		},
		[]string{"operation"},
	)

	// RowsProcessed counts rows read into and written out of operations
	RowsProcessed = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tollframe",
			Name:      "rows_processed_total",
			Help:      "Total number of table rows read or written by operations",
		},
		[]string{"operation", "direction"},
	)
)

// Registry returns the registry holding all tollframe metrics
func Registry() *prometheus.Registry {
	return registry
}

// Gather collects the current value of every metric
func Gather() ([]*dto.MetricFamily, error) {
	return registry.Gather()
}

// WriteText writes every metric in the Prometheus text exposition format
func WriteText(w io.Writer) error {
	families, err := Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// Status maps an operation error to the status label
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// Timer observes the elapsed time of one operation run
type Timer struct {
	operation string
	start     time.Time
}

// NewTimer starts a timer for operation
func NewTimer(operation string) *Timer {
	return &Timer{operation: operation, start: time.Now()}
}

// ObserveDuration records the elapsed time in OperationDuration and
// returns it.
func (t *Timer) ObserveDuration() time.Duration {
	d := time.Since(t.start)
	OperationDuration.WithLabelValues(t.operation).Observe(d.Seconds())
	return d
}

// RecordRun records the outcome and row counts of one operation run
func RecordRun(operation string, err error, rowsIn, rowsOut int) {
	OperationsTotal.WithLabelValues(operation, Status(err)).Inc()
	RowsProcessed.WithLabelValues(operation, DirectionIn).Add(float64(rowsIn))
	if err == nil {
		RowsProcessed.WithLabelValues(operation, DirectionOut).Add(float64(rowsOut))
	}
}
