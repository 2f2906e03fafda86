package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ratePtr(v float64) *float64 { return &v }

func validConfig() EngineConfig {
	cfg := DefaultEngineConfig()
	cfg.Arrival = ProcessSpec{Kind: ProcessExponential, Rate: ratePtr(0.9)}
	cfg.Warm = ProcessSpec{Kind: ProcessExponential, Rate: ratePtr(1.0 / 2.016)}
	cfg.Cold = ProcessSpec{Kind: ProcessExponential, Rate: ratePtr(1.0 / 2.163)}
	return cfg
}

func TestEngineConfig_Validate_AcceptsWellFormedConfig(t *testing.T) {
	cfg := validConfig()

	assert.NoError(t, cfg.Validate())
}

func TestEngineConfig_Validate_RejectsMissingArrivalProcess(t *testing.T) {
	cfg := validConfig()
	cfg.Arrival = ProcessSpec{}

	err := cfg.Validate()

	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestEngineConfig_Validate_RejectsWarmSlowerThanCold(t *testing.T) {
	cfg := validConfig()
	cfg.Warm = ProcessSpec{Kind: ProcessExponential, Rate: ratePtr(0.1)}
	cfg.Cold = ProcessSpec{Kind: ProcessExponential, Rate: ratePtr(0.5)}

	err := cfg.Validate()

	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestEngineConfig_Validate_AllowsWarmSlowerThanColdForNonExponentialProcesses(t *testing.T) {
	// The warm >= cold rate constraint only applies when both processes are
	// exponential, since Rate is not a meaningful comparison point for
	// gaussian/empirical processes.
	cfg := validConfig()
	cfg.Warm = ProcessSpec{Kind: ProcessGaussian, Mean: ratePtr(5), StdDev: ratePtr(1)}

	assert.NoError(t, cfg.Validate())
}

func TestEngineConfig_Validate_RejectsNonPositiveMaxTime(t *testing.T) {
	cfg := validConfig()
	cfg.MaxTime = 0

	err := cfg.Validate()

	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestEngineConfig_Validate_RejectsZeroMaximumConcurrency(t *testing.T) {
	cfg := validConfig()
	cfg.MaximumConcurrency = 0

	err := cfg.Validate()

	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestProcessSpec_Build_ExponentialRequiresPositiveRate(t *testing.T) {
	spec := ProcessSpec{Kind: ProcessExponential, Rate: ratePtr(-1)}

	_, err := spec.Build()

	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestProcessSpec_Build_EmpiricalRequiresSamples(t *testing.T) {
	spec := ProcessSpec{Kind: ProcessEmpirical}

	_, err := spec.Build()

	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}
