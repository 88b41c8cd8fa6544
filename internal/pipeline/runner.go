package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ajitpratap0/tollframe/pkg/compression"
	"github.com/ajitpratap0/tollframe/pkg/errors"
	"github.com/ajitpratap0/tollframe/pkg/formats"
	"github.com/ajitpratap0/tollframe/pkg/frame"
	"github.com/ajitpratap0/tollframe/pkg/logger"
	"github.com/ajitpratap0/tollframe/pkg/metrics"
	"github.com/ajitpratap0/tollframe/pkg/observability"
)

// Request describes one run of an operation.
type Request struct {
	Operation string
	// Inputs are file paths, one per input table of the operation
	Inputs []string
	// Output is the result path; the result goes to stdout when empty
	Output string
	// Format overrides the output format inferred from Output
	Format formats.Format
	Params Params
}

// Result summarises a completed run.
type Result struct {
	RunID     string
	Operation string
	// Output is the path written, empty for stdout
	Output   string
	Format   formats.Format
	RowsIn   int
	RowsOut  int
	Duration time.Duration
	Table    *frame.Table
}

// Runner loads inputs, runs a registered operation and writes its result.
type Runner struct {
	registry      *Registry
	stdout        io.Writer
	defaultFormat formats.Format
	compression   compression.Algorithm
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithStdout sets where results without an output path are written
func WithStdout(w io.Writer) RunnerOption {
	return func(r *Runner) { r.stdout = w }
}

// WithDefaultFormat sets the format used when neither the request nor the
// output path names one
func WithDefaultFormat(f formats.Format) RunnerOption {
	return func(r *Runner) { r.defaultFormat = f }
}

// WithCompression compresses results whose path carries no compression
// extension. The extension is appended to the path.
func WithCompression(a compression.Algorithm) RunnerOption {
	return func(r *Runner) { r.compression = a }
}

// NewRunner creates a runner dispatching to reg
func NewRunner(reg *Registry, opts ...RunnerOption) *Runner {
	r := &Runner{
		registry:      reg,
		stdout:        os.Stdout,
		defaultFormat: formats.CSV,
		compression:   compression.None,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes req. The context is checked between the read, transform and
// write stages.
func (r *Runner) Run(ctx context.Context, req Request) (res *Result, err error) {
	op, err := r.registry.Lookup(req.Operation)
	if err != nil {
		return nil, err
	}
	if len(req.Inputs) != op.Inputs() {
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"operation %s takes %d input(s), got %d", op.Name(), op.Inputs(), len(req.Inputs))
	}

	res = &Result{RunID: uuid.NewString(), Operation: op.Name()}
	ctx = logger.WithOperation(ctx, op.Name())
	ctx = logger.WithRunID(ctx, res.RunID)
	log := logger.WithContext(ctx)

	ctx, span := observability.StartSpan(ctx, "tollframe.run")
	span.SetAttribute("operation", op.Name())
	span.SetAttribute("run_id", res.RunID)
	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
		metrics.RecordRun(op.Name(), err, res.RowsIn, res.RowsOut)
		span.SetAttribute("rows_in", res.RowsIn)
		span.SetAttribute("rows_out", res.RowsOut)
		span.End(err)
		if err != nil {
			log.Error("run failed", zap.Error(err), zap.Duration("duration", res.Duration))
		}
	}()

	log.Info("run started", zap.Strings("inputs", req.Inputs), zap.String("output", req.Output))

	inputs, err := r.readInputs(ctx, req.Inputs)
	if err != nil {
		return res, err
	}
	for _, t := range inputs {
		res.RowsIn += t.Len()
	}

	if err := checkContext(ctx, "transform"); err != nil {
		return res, err
	}
	out, err := r.transform(ctx, op, inputs, req.Params)
	if err != nil {
		return res, err
	}
	res.Table = out
	res.RowsOut = out.Len()

	if err := checkContext(ctx, "write"); err != nil {
		return res, err
	}
	if err := r.write(ctx, res, req); err != nil {
		return res, err
	}

	log.Info("run finished",
		zap.Int("rows_in", res.RowsIn),
		zap.Int("rows_out", res.RowsOut),
		zap.String("format", string(res.Format)),
		zap.Duration("duration", time.Since(start)))
	return res, nil
}

func (r *Runner) readInputs(ctx context.Context, paths []string) ([]*frame.Table, error) {
	ctx, span := observability.StartSpan(ctx, "tollframe.read")
	var err error
	defer func() { span.End(err) }()

	tables := make([]*frame.Table, 0, len(paths))
	for _, path := range paths {
		if err = checkContext(ctx, "read"); err != nil {
			return nil, err
		}
		var t *frame.Table
		if t, err = formats.ReadFile(path); err != nil {
			return nil, err
		}
		logger.WithContext(ctx).Debug("input loaded",
			zap.String("path", path),
			zap.Int("rows", t.Len()),
			zap.Int("columns", t.Width()))
		tables = append(tables, t)
	}
	return tables, nil
}

func (r *Runner) transform(ctx context.Context, op Operation, inputs []*frame.Table, params Params) (*frame.Table, error) {
	ctx, span := observability.StartSpan(ctx, "tollframe.transform")
	timer := metrics.NewTimer(op.Name())
	out, err := op.Run(ctx, inputs, params)
	timer.ObserveDuration()
	if err == nil && out == nil {
		err = errors.New(errors.ErrorTypeInternal, fmt.Sprintf("operation %s returned no table", op.Name()))
	}
	span.End(err)
	return out, err
}

func (r *Runner) write(ctx context.Context, res *Result, req Request) (err error) {
	_, span := observability.StartSpan(ctx, "tollframe.write")
	defer func() { span.End(err) }()

	res.Format = r.outputFormat(ctx, req)

	if req.Output == "" {
		w, err := compression.NewWriter(r.stdout, r.compression, compression.Default)
		if err != nil {
			return err
		}
		if err := formats.Write(w, res.Table, res.Format); err != nil {
			_ = w.Close()
			return err
		}
		return w.Close()
	}

	path := req.Output
	if r.compression != compression.None && compression.AlgorithmFromPath(path) == compression.None {
		path += r.compression.Extension()
	}
	res.Output = path
	return formats.WriteFile(path, res.Table, res.Format)
}

func (r *Runner) outputFormat(ctx context.Context, req Request) formats.Format {
	if req.Format != "" {
		return req.Format
	}
	if req.Output != "" {
		f, err := formats.FormatFromPath(req.Output)
		if err == nil {
			return f
		}
		logger.WithContext(ctx).Debug("output extension not recognised, using default format",
			zap.String("output", req.Output),
			zap.String("format", string(r.defaultFormat)))
	}
	return r.defaultFormat
}

func checkContext(ctx context.Context, stage string) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "run cancelled before "+stage)
	}
	return nil
}
