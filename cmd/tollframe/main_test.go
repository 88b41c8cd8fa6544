package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tollframe/pkg/testutil"
)

const dataset1 = `id_1,id_2,route,car,bus,truck
1001400,1001402,1,10,1,8
1001402,1001400,1,20,1,9
1001404,1001400,2,30,10,3
`

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "tollframe v"+version)
}

func TestListCommand(t *testing.T) {
	out, _, err := execute(t, "list")
	require.NoError(t, err)
	for _, name := range []string{"car-matrix", "time-check", "ids-within-threshold", "time-based-toll-rate"} {
		assert.Contains(t, out, name)
	}
}

func TestRunCommandStdout(t *testing.T) {
	in := testutil.WriteFile(t, "dataset-1.csv", dataset1)

	out, stderr, err := execute(t, "run", "type-count", "--input", in, "--format", "csv", "--log-level", "error")
	require.NoError(t, err)
	assert.Equal(t, "car_type,count\nhigh,1\nlow,1\nmedium,1\n", out)
	assert.Contains(t, stderr, "tollframe_operations_total")
}

func TestRunCommandOutputFile(t *testing.T) {
	in := testutil.WriteFile(t, "dataset-1.csv", dataset1)
	outPath := filepath.Join(t.TempDir(), "routes.json")

	out, stderr, err := execute(t, "run", "filter-routes", "-i", in, "-o", outPath, "--log-level", "error")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, stderr, "wrote 1 rows to "+outPath)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"route": 1}]`, string(data))
}

func TestRunCommandConfigFile(t *testing.T) {
	in := testutil.WriteFile(t, "dataset-1.csv", dataset1)
	cfg := testutil.WriteFile(t, "tollframe.yaml", `
log:
  level: error
traffic:
  route_threshold: 1
output:
  format: json
observability:
  enable_metrics: false
`)

	out, stderr, err := execute(t, "run", "filter-routes", "-i", in, "-c", cfg)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"route": 1}, {"route": 2}]`, out)
	assert.NotContains(t, stderr, "tollframe_operations_total")
}

func TestRunCommandReferenceFromEnv(t *testing.T) {
	in := testutil.WriteFile(t, "unrolled.csv", `id_start,id_end,distance
1,2,10
1,3,12
2,1,11
3,1,20
`)
	t.Setenv("TOLLFRAME_REFERENCE_ID", "1")

	out, _, err := execute(t, "run", "ids-within-threshold", "-i", in, "--log-level", "error")
	require.NoError(t, err)
	assert.Equal(t, "id\n2\n", out)
}

func TestRunCommandErrors(t *testing.T) {
	in := testutil.WriteFile(t, "dataset-1.csv", dataset1)

	tests := map[string][]string{
		"no operation":      {"run"},
		"unknown operation": {"run", "pivot", "-i", in, "--log-level", "error"},
		"bad format":        {"run", "type-count", "-i", in, "--format", "orc", "--log-level", "error"},
		"bad log level":     {"run", "type-count", "-i", in, "--log-level", "loud"},
		"missing reference": {"run", "ids-within-threshold", "-i", in, "--log-level", "error"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := execute(t, args...)
			assert.Error(t, err)
		})
	}
}
