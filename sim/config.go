package sim

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// ProcessKind names a stochastic process family.
type ProcessKind string

const (
	ProcessExponential ProcessKind = "exponential"
	ProcessConstant    ProcessKind = "constant"
	ProcessGaussian    ProcessKind = "gaussian"
	ProcessEmpirical   ProcessKind = "empirical"
)

var validProcessKinds = map[ProcessKind]bool{
	ProcessExponential: true,
	ProcessConstant:    true,
	ProcessGaussian:    true,
	ProcessEmpirical:   true,
}

// ProcessSpec is the YAML-facing description of a Process. Which fields are
// required depends on Kind: Rate for exponential/constant, Mean and StdDev
// for gaussian, Samples for empirical.
type ProcessSpec struct {
	Kind    ProcessKind `yaml:"kind"`
	Rate    *float64    `yaml:"rate,omitempty"`
	Mean    *float64    `yaml:"mean,omitempty"`
	StdDev  *float64    `yaml:"stddev,omitempty"`
	Samples []float64   `yaml:"samples,omitempty"`
}

// Build constructs the Process described by the spec.
func (s ProcessSpec) Build() (Process, error) {
	switch s.Kind {
	case ProcessExponential:
		if s.Rate == nil || *s.Rate <= 0 {
			return nil, fmt.Errorf("exponential process requires a positive rate: %w", ErrInvalidConfiguration)
		}
		return NewExponentialProcess(*s.Rate), nil
	case ProcessConstant:
		if s.Rate == nil || *s.Rate <= 0 {
			return nil, fmt.Errorf("constant process requires a positive rate: %w", ErrInvalidConfiguration)
		}
		return NewConstantProcess(*s.Rate), nil
	case ProcessGaussian:
		if s.Mean == nil || s.StdDev == nil {
			return nil, fmt.Errorf("gaussian process requires mean and stddev: %w", ErrInvalidConfiguration)
		}
		if *s.StdDev < 0 {
			return nil, fmt.Errorf("gaussian stddev must be non-negative: %w", ErrInvalidConfiguration)
		}
		return NewGaussianProcess(*s.Mean, *s.StdDev), nil
	case ProcessEmpirical:
		if len(s.Samples) == 0 {
			return nil, fmt.Errorf("empirical process requires at least one sample: %w", ErrInvalidConfiguration)
		}
		return NewEmpiricalProcess(s.Samples), nil
	default:
		return nil, fmt.Errorf("unknown process kind %q; valid kinds: exponential, constant, gaussian, empirical: %w", s.Kind, ErrInvalidConfiguration)
	}
}

// EngineConfig is the full set of parameters needed to construct an Engine,
// loadable from YAML with strict field checking.
type EngineConfig struct {
	Arrival ProcessSpec `yaml:"arrival"`
	Warm    ProcessSpec `yaml:"warm"`
	Cold    ProcessSpec `yaml:"cold"`

	ExpirationThreshold float64 `yaml:"expiration_threshold"`
	MaxTime             float64 `yaml:"max_time"`
	MaximumConcurrency  int     `yaml:"maximum_concurrency"`
	ConcurrencyValue    int     `yaml:"concurrency_value"`
	Seed                int64   `yaml:"seed"`
}

// DefaultEngineConfig returns a config with the reference implementation's
// default thresholds; callers still must set Arrival/Warm/Cold.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		ExpirationThreshold: 600,
		MaxTime:             24 * 60 * 60,
		MaximumConcurrency:  1000,
		ConcurrencyValue:    1,
	}
}

// LoadEngineConfig reads and strictly parses a YAML scenario file. Unknown
// keys (typos) are rejected rather than silently ignored.
func LoadEngineConfig(path string) (*EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading engine config: %w", err)
	}
	cfg := DefaultEngineConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing engine config: %w", err)
	}
	return &cfg, nil
}

// Validate checks that the configuration is internally consistent and
// returns ErrInvalidConfiguration (wrapped with detail) if not.
func (c *EngineConfig) Validate() error {
	if !validProcessKinds[c.Arrival.Kind] {
		return fmt.Errorf("arrival process not defined: %w", ErrInvalidConfiguration)
	}
	if !validProcessKinds[c.Warm.Kind] {
		return fmt.Errorf("warm service process not defined: %w", ErrInvalidConfiguration)
	}
	if !validProcessKinds[c.Cold.Kind] {
		return fmt.Errorf("cold service process not defined: %w", ErrInvalidConfiguration)
	}

	// The warm service rate must not be smaller than the cold service rate:
	// an instance that serves a warm request slower than it cold-starts
	// provides no benefit from staying warm. Only checked when both
	// processes are exponential: gaussian and empirical processes carry no
	// Rate, and constant processes are not compared.
	if c.Warm.Kind == ProcessExponential && c.Cold.Kind == ProcessExponential {
		if c.Warm.Rate != nil && c.Cold.Rate != nil && *c.Warm.Rate < *c.Cold.Rate {
			return fmt.Errorf("warm service rate (%.6f) cannot be smaller than cold service rate (%.6f): %w", *c.Warm.Rate, *c.Cold.Rate, ErrInvalidConfiguration)
		}
	}

	if err := validatePositive("expiration_threshold", c.ExpirationThreshold); err != nil {
		return err
	}
	if err := validatePositive("max_time", c.MaxTime); err != nil {
		return err
	}
	if c.MaximumConcurrency <= 0 {
		return fmt.Errorf("maximum_concurrency must be positive, got %d: %w", c.MaximumConcurrency, ErrInvalidConfiguration)
	}
	if c.ConcurrencyValue <= 0 {
		return fmt.Errorf("concurrency_value must be positive, got %d: %w", c.ConcurrencyValue, ErrInvalidConfiguration)
	}
	return nil
}

func validatePositive(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%s must be a finite number, got %f: %w", name, val, ErrInvalidConfiguration)
	}
	if val <= 0 {
		return fmt.Errorf("%s must be positive, got %f: %w", name, val, ErrInvalidConfiguration)
	}
	return nil
}
