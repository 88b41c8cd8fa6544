package metrics

import (
	"bytes"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRun(t *testing.T) {
	RecordRun("test-ok", nil, 10, 3)
	RecordRun("test-ok", nil, 5, 2)
	RecordRun("test-fail", errors.New("boom"), 7, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(OperationsTotal.WithLabelValues("test-ok", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(OperationsTotal.WithLabelValues("test-fail", "error")))
	assert.Equal(t, 15.0, testutil.ToFloat64(RowsProcessed.WithLabelValues("test-ok", DirectionIn)))
	assert.Equal(t, 5.0, testutil.ToFloat64(RowsProcessed.WithLabelValues("test-ok", DirectionOut)))
	assert.Equal(t, 7.0, testutil.ToFloat64(RowsProcessed.WithLabelValues("test-fail", DirectionIn)))
}

func TestTimer(t *testing.T) {
	d := NewTimer("test-timer").ObserveDuration()
	assert.GreaterOrEqual(t, d.Nanoseconds(), int64(0))
	assert.Equal(t, 1, testutil.CollectAndCount(OperationDuration, "tollframe_operation_duration_seconds"))
}

func TestWriteText(t *testing.T) {
	RecordRun("test-text", nil, 1, 1)

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf))
	assert.Contains(t, buf.String(), `tollframe_operations_total{operation="test-text",status="success"} 1`)
	assert.Contains(t, buf.String(), "# TYPE tollframe_rows_processed_total counter")
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "success", Status(nil))
	assert.Equal(t, "error", Status(errors.New("x")))
}
