package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if os.Getenv("DEBUG_TESTS") == "" {
		logrus.SetLevel(logrus.WarnLevel)
	}
	os.Exit(m.Run())
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunSavesAndLists(t *testing.T) {
	data := t.TempDir()
	out, err := execute(t, "run", "--data", data, "--seconds", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "input")
	assert.Contains(t, out, "490")
	assert.Contains(t, out, "saved run 1")

	out, err = execute(t, "list", "--data", data)
	require.NoError(t, err)
	assert.Contains(t, out, "sequential")
	assert.Contains(t, out, "default")

	out, err = execute(t, "show", "--data", data, "1")
	require.NoError(t, err)
	assert.Contains(t, out, "run 1: default")

	out, err = execute(t, "export-csv", "--data", data, "1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "group,neuron,count\ninput,0,49\n"), out)

	out, err = execute(t, "plot", "--data", data, "--group", "input", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "input: spikes per neuron")
}

func TestCompareEquivalent(t *testing.T) {
	data := t.TempDir()
	out, err := execute(t, "compare", "--data", data, "--seconds", "1", "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "EQUIVALENT")
	assert.Contains(t, out, "saved runs 1, 2 and report 1")

	out, err = execute(t, "compare", "--data", data, "1", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "EQUIVALENT")
}

func TestCompareStoredDivergent(t *testing.T) {
	data := t.TempDir()
	_, err := execute(t, "run", "--data", data, "--seconds", "1")
	require.NoError(t, err)
	_, err = execute(t, "run", "--data", data, "--seconds", "1", "--rate", "25")
	require.NoError(t, err)

	out, err := execute(t, "compare", "--data", data, "1", "2")
	assert.ErrorIs(t, err, errDivergent)
	assert.Contains(t, out, "DIVERGENT")
}

func TestExportCSVToFile(t *testing.T) {
	data := t.TempDir()
	_, err := execute(t, "run", "--data", data, "--seconds", "1")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "counts.csv")
	_, err = execute(t, "export-csv", "--data", data, "-o", path, "1")
	require.NoError(t, err)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "exc,9,")
}

func TestPresetsAndConfigFile(t *testing.T) {
	out, err := execute(t, "presets")
	require.NoError(t, err)
	assert.Contains(t, out, "relay")
	assert.Contains(t, out, "balanced")

	path := filepath.Join(t.TempDir(), "net.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: tiny\nseconds: 1\nstimulus:\n  rate: 10\n"), 0644))
	out, err = execute(t, "run", "--no-save", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "simulating tiny for 1s")
}

func TestSweep(t *testing.T) {
	out, err := execute(t, "sweep", "--seconds", "1", "--seeds", "1,2", "--worker-counts", "1,4")
	require.NoError(t, err)
	assert.Contains(t, out, "sweeping 4 configurations")
	assert.Equal(t, 4, strings.Count(out, "ok"))

	_, err = execute(t, "sweep")
	assert.Error(t, err)
}

func TestCommandErrors(t *testing.T) {
	data := t.TempDir()
	_, err := execute(t, "run", "--data", data, "--preset", "nope")
	assert.Error(t, err)

	_, err = execute(t, "run", "--data", data, "--backend", "gpu")
	assert.Error(t, err)

	_, err = execute(t, "show", "--data", data, "7")
	assert.Error(t, err)

	_, err = execute(t, "show", "--data", data, "abc")
	assert.Error(t, err)

	_, err = execute(t, "compare", "--data", data, "1")
	assert.Error(t, err)

	_, err = execute(t, "list", "--log-level", "loud")
	assert.Error(t, err)
}

func TestRunAnalyzeAndRaster(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raster.svg")
	out, err := execute(t, "run", "--no-save", "--seconds", "1", "--analyze", "--raster-svg", path)
	require.NoError(t, err)
	assert.Contains(t, out, "ISI CV")
	assert.Contains(t, out, "20.0 ms")
	assert.Contains(t, out, "wrote input raster")

	svg, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")
}

func TestDescribe(t *testing.T) {
	out, err := execute(t, "describe", "--preset", "balanced")
	require.NoError(t, err)
	assert.Contains(t, out, "exc")
	assert.Contains(t, out, "Neurons: 1050")
}
