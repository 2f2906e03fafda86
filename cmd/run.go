package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pacslab/faas-sim/sim"
)

var (
	configPath         string
	arrivalRate        float64
	warmServiceRate    float64
	coldServiceRate    float64
	expirationThresh   float64
	maxTime            float64
	maximumConcurrency int
	concurrencyValue   int
	seed               int64
	concurrentMode     bool
	outputJSON         bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single simulation and print its summary report",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("seed") {
			cfg.Seed = seed
		}

		logrus.Infof("starting simulation: arrival=%.4f warm=%.4f cold=%.4f max_time=%.0f",
			valueOrZero(cfg.Arrival.Rate), valueOrZero(cfg.Warm.Rate), valueOrZero(cfg.Cold.Rate), cfg.MaxTime)

		report, err := runOnce(cmd.Context(), *cfg, concurrentMode)
		if err != nil {
			return fmt.Errorf("running simulation: %w", err)
		}

		return printReport(report)
	},
}

func valueOrZero(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// resolveConfig builds an EngineConfig either from a YAML scenario file, or
// from the --arrival-rate/--warm-rate/--cold-rate convenience flags, which
// construct exponential processes directly.
func resolveConfig() (*sim.EngineConfig, error) {
	if configPath != "" {
		return sim.LoadEngineConfig(configPath)
	}
	cfg := sim.DefaultEngineConfig()
	cfg.Arrival = sim.ProcessSpec{Kind: sim.ProcessExponential, Rate: &arrivalRate}
	cfg.Warm = sim.ProcessSpec{Kind: sim.ProcessExponential, Rate: &warmServiceRate}
	cfg.Cold = sim.ProcessSpec{Kind: sim.ProcessExponential, Rate: &coldServiceRate}
	cfg.ExpirationThreshold = expirationThresh
	cfg.MaxTime = maxTime
	cfg.MaximumConcurrency = maximumConcurrency
	cfg.ConcurrencyValue = concurrencyValue
	return &cfg, nil
}

func runOnce(ctx context.Context, cfg sim.EngineConfig, concurrent bool) (map[string]any, error) {
	if concurrent {
		e, err := sim.NewConcurrentEngine(cfg)
		if err != nil {
			return nil, err
		}
		result, err := e.Run(ctx, nil)
		if err != nil {
			return nil, err
		}
		return result.Report.ToMap(), nil
	}

	e, err := sim.NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	result, err := e.Run(ctx, nil)
	if err != nil {
		return nil, err
	}
	return result.Report.ToMap(), nil
}

func printReport(report map[string]any) error {
	if outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Println("Simulation Report")
	fmt.Println("=================")
	for _, key := range []string{
		"reqs_total", "reqs_cold", "reqs_warm", "reqs_reject",
		"prob_cold", "prob_reject", "lifespan_avg",
		"inst_count_avg", "inst_running_count_avg", "inst_idle_count_avg",
		"conc_level_avg",
	} {
		if v, ok := report[key]; ok {
			fmt.Printf("%-24s %v\n", key, v)
		}
	}
	return nil
}

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML scenario file (overrides the rate flags below)")
	runCmd.Flags().Float64Var(&arrivalRate, "arrival-rate", 1.0, "Exponential arrival rate (requests/sec)")
	runCmd.Flags().Float64Var(&warmServiceRate, "warm-rate", 1.0, "Exponential warm-service rate (requests/sec)")
	runCmd.Flags().Float64Var(&coldServiceRate, "cold-rate", 1.0, "Exponential cold-service rate (requests/sec)")
	runCmd.Flags().Float64Var(&expirationThresh, "expiration-threshold", 600, "Seconds an idle instance survives before termination")
	runCmd.Flags().Float64Var(&maxTime, "max-time", 86400, "Simulation horizon in seconds")
	runCmd.Flags().IntVar(&maximumConcurrency, "maximum-concurrency", 1000, "Maximum number of in-flight requests system-wide")
	runCmd.Flags().IntVar(&concurrencyValue, "concurrency-value", 1, "Per-instance concurrent request ceiling (concurrent mode only)")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "Master RNG seed (overrides any seed set in --config)")
	runCmd.Flags().BoolVar(&concurrentMode, "concurrent", false, "Use the concurrency-aware engine instead of single-concurrency")
	runCmd.Flags().BoolVar(&outputJSON, "json", false, "Print the report as JSON instead of a table")
}
