package cmd

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pacslab/faas-sim/sim"
)

func writeFile(path, contents string) error {
	return os.WriteFile(path, []byte(contents), 0o600)
}

func smallTestConfig() sim.EngineConfig {
	cfg := sim.DefaultEngineConfig()
	rate := 2.0
	cfg.Arrival = sim.ProcessSpec{Kind: sim.ProcessExponential, Rate: &rate}
	cfg.Warm = sim.ProcessSpec{Kind: sim.ProcessExponential, Rate: &rate}
	cfg.Cold = sim.ProcessSpec{Kind: sim.ProcessExponential, Rate: &rate}
	cfg.MaxTime = 20
	cfg.Seed = 42
	return cfg
}

func TestResolveConfig_NoConfigPath_BuildsExponentialFromFlags(t *testing.T) {
	// GIVEN the convenience flags set to explicit, non-default values
	configPath = ""
	arrivalRate = 2.5
	warmServiceRate = 3.0
	coldServiceRate = 0.5
	expirationThresh = 120
	maxTime = 3600
	maximumConcurrency = 50
	concurrencyValue = 4

	// WHEN resolving a config without a --config path
	cfg, err := resolveConfig()

	// THEN it builds exponential processes directly from the flag values
	assert.NoError(t, err)
	assert.Equal(t, sim.ProcessExponential, cfg.Arrival.Kind)
	assert.Equal(t, arrivalRate, *cfg.Arrival.Rate)
	assert.Equal(t, warmServiceRate, *cfg.Warm.Rate)
	assert.Equal(t, coldServiceRate, *cfg.Cold.Rate)
	assert.Equal(t, expirationThresh, cfg.ExpirationThreshold)
	assert.Equal(t, maxTime, cfg.MaxTime)
	assert.Equal(t, maximumConcurrency, cfg.MaximumConcurrency)
	assert.Equal(t, concurrencyValue, cfg.ConcurrencyValue)
}

func TestResolveConfig_WithConfigPath_LoadsFromYAML(t *testing.T) {
	// GIVEN a minimal scenario file on disk
	dir := t.TempDir()
	path := dir + "/scenario.yaml"
	contents := `
arrival:
  kind: exponential
  rate: 1.5
warm:
  kind: exponential
  rate: 2.0
cold:
  kind: exponential
  rate: 0.5
max_time: 100
`
	assert.NoError(t, writeFile(path, contents))
	configPath = path

	// WHEN resolving the config
	cfg, err := resolveConfig()

	// THEN the YAML values take precedence over the convenience flags
	assert.NoError(t, err)
	assert.Equal(t, 1.5, *cfg.Arrival.Rate)
	assert.Equal(t, 100.0, cfg.MaxTime)

	configPath = ""
}

func TestRunOnce_SingleConcurrency_ReturnsReport(t *testing.T) {
	// GIVEN a small, fast-terminating scenario
	cfg := smallTestConfig()

	// WHEN running it once in single-concurrency mode
	report, err := runOnce(t.Context(), cfg, false)

	// THEN a populated report map comes back with no error
	assert.NoError(t, err)
	assert.Contains(t, report, "reqs_total")
}

func TestRunOnce_ConcurrentMode_ReturnsConcLevelAvg(t *testing.T) {
	// GIVEN a small scenario run in concurrent mode
	cfg := smallTestConfig()
	cfg.ConcurrencyValue = 4

	// WHEN running it once with concurrent=true
	report, err := runOnce(t.Context(), cfg, true)

	// THEN the concurrency-specific field is present
	assert.NoError(t, err)
	assert.Contains(t, report, "conc_level_avg")
}
