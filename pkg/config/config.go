// Package config provides the configuration system for tollframe.
//
// A single Config structure holds every tunable of the transformations
// together with the ambient settings of the runner:
//   - Log: level and encoding of the zap logger
//   - Traffic: category bins, outlier factor, route threshold, rescale rule
//   - Toll: neighbour tolerance, vehicle rates, time-of-day buckets
//   - Output: default output format and compression
//   - Observability: metrics and tracing switches
//
// Default returns the values the transformations were designed around, so an
// empty configuration file reproduces the reference behaviour.
//
//	cfg := config.Default()
//	cfg.Toll.Tolerance = 0.05
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"fmt"
	"sort"

	"github.com/ajitpratap0/tollframe/pkg/errors"
)

// Config is the root configuration structure.
type Config struct {
	// Name identifies the configuration in logs
	Name string `yaml:"name" json:"name"`

	Log           LogConfig           `yaml:"log" json:"log"`
	Traffic       TrafficConfig       `yaml:"traffic" json:"traffic"`
	Toll          TollConfig          `yaml:"toll" json:"toll"`
	Output        OutputConfig        `yaml:"output" json:"output"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

// LogConfig controls the global logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `yaml:"level" json:"level"`
	// Encoding is json or console
	Encoding string `yaml:"encoding" json:"encoding"`
	// Development enables colored levels and error stack traces
	Development bool `yaml:"development" json:"development"`
}

// TrafficConfig holds the parameters of the dataset-1/dataset-2 analyses.
type TrafficConfig struct {
	// LowMax is the largest value still categorised as low
	LowMax float64 `yaml:"low_max" json:"low_max"`
	// MediumMax is the largest value still categorised as medium
	MediumMax float64 `yaml:"medium_max" json:"medium_max"`
	// OutlierFactor multiplies the column mean for outlier selection
	OutlierFactor float64 `yaml:"outlier_factor" json:"outlier_factor"`
	// RouteThreshold is the mean truck value a route must exceed
	RouteThreshold float64 `yaml:"route_threshold" json:"route_threshold"`
	// Rescale configures the conditional matrix rescaling
	Rescale RescaleConfig `yaml:"rescale" json:"rescale"`
}

// RescaleConfig configures the conditional rescaling of matrix cells.
type RescaleConfig struct {
	Pivot       float64 `yaml:"pivot" json:"pivot"`
	AboveFactor float64 `yaml:"above_factor" json:"above_factor"`
	BelowFactor float64 `yaml:"below_factor" json:"below_factor"`
	Precision   int32   `yaml:"precision" json:"precision"`
}

// TollConfig holds the parameters of the dataset-3 analyses.
type TollConfig struct {
	// Tolerance is the relative band around the reference mean distance
	Tolerance float64 `yaml:"tolerance" json:"tolerance"`
	// VehicleRates are applied in order, one output column each
	VehicleRates []VehicleRate `yaml:"vehicle_rates" json:"vehicle_rates"`
	// TimeBuckets map hour-of-day ranges to rates
	TimeBuckets []TimeBucket `yaml:"time_buckets" json:"time_buckets"`
	// FallbackRate is used for hours outside every bucket
	FallbackRate float64 `yaml:"fallback_rate" json:"fallback_rate"`
}

// VehicleRate is a per-vehicle distance coefficient.
type VehicleRate struct {
	Vehicle     string  `yaml:"vehicle" json:"vehicle"`
	Coefficient float64 `yaml:"coefficient" json:"coefficient"`
}

// TimeBucket covers hours in [StartHour, EndHour).
type TimeBucket struct {
	StartHour int     `yaml:"start_hour" json:"start_hour"`
	EndHour   int     `yaml:"end_hour" json:"end_hour"`
	Rate      float64 `yaml:"rate" json:"rate"`
}

// OutputConfig selects how results are written when the CLI does not say.
type OutputConfig struct {
	// Format is csv, json, parquet, arrow or avro
	Format string `yaml:"format" json:"format"`
	// Compression is none, gzip, zstd, snappy or lz4
	Compression string `yaml:"compression" json:"compression"`
}

// ObservabilityConfig contains metrics and tracing switches.
type ObservabilityConfig struct {
	EnableMetrics     bool    `yaml:"enable_metrics" json:"enable_metrics"`
	EnableTracing     bool    `yaml:"enable_tracing" json:"enable_tracing"`
	TracingSampleRate float64 `yaml:"tracing_sample_rate" json:"tracing_sample_rate"`
	ServiceName       string  `yaml:"service_name" json:"service_name"`
}

// Supported output formats and compression algorithms.
var (
	OutputFormats      = []string{"csv", "json", "parquet", "arrow", "avro"}
	CompressionFormats = []string{"none", "gzip", "zstd", "snappy", "lz4"}
)

// Default creates a Config holding the reference parameters.
func Default() *Config {
	return &Config{
		Name: "tollframe",
		Log: LogConfig{
			Level:    "info",
			Encoding: "json",
		},
		Traffic: TrafficConfig{
			LowMax:         15,
			MediumMax:      25,
			OutlierFactor:  2,
			RouteThreshold: 7,
			Rescale: RescaleConfig{
				Pivot:       20,
				AboveFactor: 0.75,
				BelowFactor: 1.25,
				Precision:   1,
			},
		},
		Toll: TollConfig{
			Tolerance: 0.1,
			VehicleRates: []VehicleRate{
				{Vehicle: "moto", Coefficient: 0.8},
				{Vehicle: "car", Coefficient: 1.2},
				{Vehicle: "rv", Coefficient: 1.5},
				{Vehicle: "bus", Coefficient: 2.2},
				{Vehicle: "truck", Coefficient: 3.6},
			},
			TimeBuckets: []TimeBucket{
				{StartHour: 0, EndHour: 6, Rate: 0.1},
				{StartHour: 6, EndHour: 12, Rate: 0.2},
				{StartHour: 12, EndHour: 18, Rate: 0.3},
				{StartHour: 18, EndHour: 24, Rate: 0.4},
			},
			FallbackRate: 0,
		},
		Output: OutputConfig{
			Format:      "csv",
			Compression: "none",
		},
		Observability: ObservabilityConfig{
			EnableMetrics:     true,
			EnableTracing:     false,
			TracingSampleRate: 1.0,
			ServiceName:       "tollframe",
		},
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.Traffic.LowMax >= c.Traffic.MediumMax {
		return configError("traffic.low_max must be below traffic.medium_max")
	}
	if c.Traffic.OutlierFactor <= 0 {
		return configError("traffic.outlier_factor must be positive")
	}
	if c.Traffic.Rescale.Precision < 0 {
		return configError("traffic.rescale.precision cannot be negative")
	}
	if c.Toll.Tolerance < 0 || c.Toll.Tolerance >= 1 {
		return configError("toll.tolerance must be in [0, 1)")
	}

	seen := make(map[string]struct{}, len(c.Toll.VehicleRates))
	for _, r := range c.Toll.VehicleRates {
		if r.Vehicle == "" {
			return configError("toll.vehicle_rates: vehicle name is required")
		}
		if _, dup := seen[r.Vehicle]; dup {
			return configError(fmt.Sprintf("toll.vehicle_rates: duplicate vehicle %q", r.Vehicle))
		}
		seen[r.Vehicle] = struct{}{}
	}

	if err := validateBuckets(c.Toll.TimeBuckets); err != nil {
		return err
	}

	if !contains(OutputFormats, c.Output.Format) {
		return configError(fmt.Sprintf("output.format %q is not supported", c.Output.Format))
	}
	if c.Output.Compression != "" && !contains(CompressionFormats, c.Output.Compression) {
		return configError(fmt.Sprintf("output.compression %q is not supported", c.Output.Compression))
	}
	if c.Observability.TracingSampleRate < 0 || c.Observability.TracingSampleRate > 1 {
		return configError("observability.tracing_sample_rate must be in [0, 1]")
	}
	return nil
}

func validateBuckets(buckets []TimeBucket) error {
	sorted := make([]TimeBucket, len(buckets))
	copy(sorted, buckets)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartHour < sorted[j].StartHour })

	for i, b := range sorted {
		if b.StartHour < 0 || b.EndHour > 24 || b.StartHour >= b.EndHour {
			return configError(fmt.Sprintf("toll.time_buckets: invalid range [%d, %d)", b.StartHour, b.EndHour))
		}
		if i > 0 && b.StartHour < sorted[i-1].EndHour {
			return configError(fmt.Sprintf("toll.time_buckets: [%d, %d) overlaps [%d, %d)",
				b.StartHour, b.EndHour, sorted[i-1].StartHour, sorted[i-1].EndHour))
		}
	}
	return nil
}

func configError(msg string) error {
	return errors.New(errors.ErrorTypeConfig, msg)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
