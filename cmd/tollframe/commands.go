package main

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/tollframe/internal/pipeline"
	"github.com/ajitpratap0/tollframe/pkg/compression"
	"github.com/ajitpratap0/tollframe/pkg/config"
	"github.com/ajitpratap0/tollframe/pkg/formats"
	"github.com/ajitpratap0/tollframe/pkg/logger"
	"github.com/ajitpratap0/tollframe/pkg/metrics"
	"github.com/ajitpratap0/tollframe/pkg/observability"
)

// envPrefix is prepended to flag names to form environment variables,
// e.g. TOLLFRAME_REFERENCE_ID for --reference-id.
const envPrefix = "TOLLFRAME"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tollframe",
		Short: "tollframe - traffic and toll table transformations",
		Long: `tollframe runs one table transformation per invocation over CSV, JSON,
Parquet, Arrow or Avro files, optionally compressed with gzip, zstd, snappy or lz4.`,
		SilenceUsage: true,
	}

	root.AddCommand(newVersionCmd(), newListCmd(), newRunCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "tollframe v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "OPERATION\tINPUTS\tDESCRIPTION")
			for _, op := range pipeline.NewDefaultRegistry().List() {
				fmt.Fprintf(w, "%s\t%d\t%s\n", op.Name(), op.Inputs(), op.Description())
			}
			return w.Flush()
		},
	}
}

func newRunCmd() *cobra.Command {
	v := viper.New()

	runCmd := &cobra.Command{
		Use:   "run <operation>",
		Short: "Run one operation",
		Long: `Run an operation over its input files and write the result.
The output format is taken from --format, then the output file extension,
then the configuration. Without --output the result is written to stdout.

Every flag can also be set through a TOLLFRAME_ environment variable,
e.g. TOLLFRAME_REFERENCE_ID=1001400.

Example:
  tollframe run distance-matrix --input dataset-3.csv --output distances.parquet
  tollframe run ids-within-threshold --input unrolled.csv --reference-id 1001400`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(cmd, v, args[0])
		},
	}

	flags := runCmd.Flags()
	flags.StringSliceP("input", "i", nil, "Input file, repeat for operations taking several tables")
	flags.StringP("output", "o", "", "Output file (stdout when empty)")
	flags.StringP("format", "f", "", "Output format: csv, json, parquet, arrow or avro")
	flags.Int64("reference-id", 0, "Reference id for ids-within-threshold")
	flags.StringP("config", "c", "", "Path to a YAML configuration file")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(flags)

	return runCmd
}

func runOperation(cmd *cobra.Command, v *viper.Viper, operation string) error {
	cfg := config.Default()
	if path := v.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if level := v.GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}

	lc := logger.DefaultConfig()
	lc.Level = cfg.Log.Level
	lc.Encoding = cfg.Log.Encoding
	lc.Development = cfg.Log.Development
	if err := logger.Init(lc); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Observability.EnableTracing {
		shutdown, err := observability.InitTracing(observability.TracingConfig{
			ServiceName:    cfg.Observability.ServiceName,
			ServiceVersion: version,
			SamplingRate:   cfg.Observability.TracingSampleRate,
			Writer:         cmd.ErrOrStderr(),
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Warn("failed to flush traces", zap.Error(err))
			}
		}()
	}

	req, opts, err := buildRequest(cmd, v, cfg, operation)
	if err != nil {
		return err
	}

	res, err := pipeline.NewRunner(pipeline.NewDefaultRegistry(), opts...).Run(ctx, req)
	if cfg.Observability.EnableMetrics {
		if werr := metrics.WriteText(cmd.ErrOrStderr()); werr != nil {
			logger.Warn("failed to write metrics", zap.Error(werr))
		}
	}
	if err != nil {
		return err
	}
	if res.Output != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: wrote %d rows to %s\n", res.Operation, res.RowsOut, res.Output)
	}
	return nil
}

func buildRequest(cmd *cobra.Command, v *viper.Viper, cfg *config.Config, operation string) (pipeline.Request, []pipeline.RunnerOption, error) {
	req := pipeline.Request{
		Operation: operation,
		Inputs:    v.GetStringSlice("input"),
		Output:    v.GetString("output"),
		Params:    pipeline.ParamsFromConfig(cfg),
	}
	if v.IsSet("reference-id") {
		req.Params = req.Params.WithReference(v.GetInt64("reference-id"))
	}
	if f := v.GetString("format"); f != "" {
		format, err := formats.ParseFormat(f)
		if err != nil {
			return req, nil, err
		}
		req.Format = format
	}

	defaultFormat, err := formats.ParseFormat(cfg.Output.Format)
	if err != nil {
		return req, nil, err
	}
	algo, err := compression.ParseAlgorithm(cfg.Output.Compression)
	if err != nil {
		return req, nil, err
	}

	opts := []pipeline.RunnerOption{
		pipeline.WithStdout(cmd.OutOrStdout()),
		pipeline.WithDefaultFormat(defaultFormat),
		pipeline.WithCompression(algo),
	}
	return req, opts, nil
}
