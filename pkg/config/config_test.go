package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tollframe/pkg/errors"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 15.0, cfg.Traffic.LowMax)
	assert.Equal(t, 25.0, cfg.Traffic.MediumMax)
	assert.Equal(t, 7.0, cfg.Traffic.RouteThreshold)
	assert.Equal(t, 0.1, cfg.Toll.Tolerance)
	assert.Len(t, cfg.Toll.VehicleRates, 5)
	assert.Len(t, cfg.Toll.TimeBuckets, 4)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bins out of order", func(c *Config) { c.Traffic.LowMax = 30 }},
		{"zero outlier factor", func(c *Config) { c.Traffic.OutlierFactor = 0 }},
		{"negative precision", func(c *Config) { c.Traffic.Rescale.Precision = -1 }},
		{"tolerance too large", func(c *Config) { c.Toll.Tolerance = 1 }},
		{"duplicate vehicle", func(c *Config) {
			c.Toll.VehicleRates = append(c.Toll.VehicleRates, VehicleRate{Vehicle: "car", Coefficient: 2})
		}},
		{"unnamed vehicle", func(c *Config) {
			c.Toll.VehicleRates = []VehicleRate{{Coefficient: 1}}
		}},
		{"overlapping buckets", func(c *Config) {
			c.Toll.TimeBuckets = []TimeBucket{{0, 8, 0.1}, {6, 12, 0.2}}
		}},
		{"bucket past midnight", func(c *Config) {
			c.Toll.TimeBuckets = []TimeBucket{{18, 25, 0.4}}
		}},
		{"unknown format", func(c *Config) { c.Output.Format = "xlsx" }},
		{"unknown compression", func(c *Config) { c.Output.Compression = "rar" }},
		{"sample rate", func(c *Config) { c.Observability.TracingSampleRate = 2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
		})
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	t.Setenv("TOLLFRAME_TEST_LEVEL", "debug")

	cfg, err := Parse([]byte(`
log:
  level: ${TOLLFRAME_TEST_LEVEL}
toll:
  tolerance: 0.05
  vehicle_rates:
    - vehicle: car
      coefficient: 2
output:
  format: parquet
`))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 0.05, cfg.Toll.Tolerance)
	assert.Equal(t, []VehicleRate{{Vehicle: "car", Coefficient: 2}}, cfg.Toll.VehicleRates)
	assert.Equal(t, "parquet", cfg.Output.Format)
	// untouched sections keep their defaults
	assert.Equal(t, 25.0, cfg.Traffic.MediumMax)
	assert.Len(t, cfg.Toll.TimeBuckets, 4)
}

func TestParseEmptyDocument(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("traffic:\n  lowmax: 3\n"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tollframe.yaml")

	cfg := Default()
	cfg.Traffic.RouteThreshold = 9
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
