package observability

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace/noop"
)

func resetProvider(t *testing.T) {
	t.Helper()
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })
}

func TestStartSpanWithoutInit(t *testing.T) {
	otel.SetTracerProvider(noop.NewTracerProvider())

	ctx, span := StartSpan(context.Background(), "noop")
	require.NotNil(t, ctx)
	span.SetAttribute("rows", 3)
	span.End(nil)
	assert.Empty(t, span.TraceID())
}

func TestInitTracingExportsSpans(t *testing.T) {
	resetProvider(t)
	var buf bytes.Buffer
	shutdown, err := InitTracing(TracingConfig{
		ServiceName:  "tollframe-test",
		SamplingRate: 1,
		Writer:       &buf,
	})
	require.NoError(t, err)

	ctx, parent := StartSpan(context.Background(), "run")
	parent.SetAttribute("operation", "car-matrix")
	parent.SetAttribute("rows", int64(12))
	parent.SetAttribute("ratio", 0.5)
	parent.SetAttribute("ok", true)
	parent.SetAttribute("labels", []int{1, 2})

	_, child := StartSpan(ctx, "transform")
	assert.Equal(t, parent.TraceID(), child.TraceID())
	assert.NotEmpty(t, child.TraceID())
	child.AddEvent("pivoted")
	child.End(errors.New("duplicate entry"))
	parent.End(nil)

	require.NoError(t, shutdown(context.Background()))

	out := buf.String()
	assert.Contains(t, out, `"Name":"run"`)
	assert.Contains(t, out, `"Name":"transform"`)
	assert.Contains(t, out, "car-matrix")
	assert.Contains(t, out, "duplicate entry")
	assert.Contains(t, out, "tollframe-test")
}

func TestInitTracingNeverSample(t *testing.T) {
	resetProvider(t)
	var buf bytes.Buffer
	shutdown, err := InitTracing(TracingConfig{ServiceName: "quiet", SamplingRate: 0, Writer: &buf})
	require.NoError(t, err)

	_, span := StartSpan(context.Background(), "dropped")
	span.End(nil)
	require.NoError(t, shutdown(context.Background()))
	assert.Empty(t, buf.String())
}

func TestInitTracingRejectsRate(t *testing.T) {
	_, err := InitTracing(TracingConfig{SamplingRate: 1.5})
	assert.Error(t, err)
}
