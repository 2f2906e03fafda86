package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pacslab/faas-sim/sim"
)

var (
	sweepArrivalRates  []float64
	sweepThresholds    []float64
	sweepWarmRate      float64
	sweepColdRate      float64
	sweepMaxTime       float64
	sweepOutputPath    string
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a simulation for every (arrival rate, expiration threshold) pair and report utilization",
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := runSweep(cmd.Context())
		if err != nil {
			return err
		}
		return writeSweepCSV(rows)
	},
}

type sweepRow struct {
	ArrivalRate         float64
	ExpirationThreshold float64
	ColdStartProbPct    float64
	UtilizationPct      float64
}

// runSweep executes one simulation per (arrival rate, expiration threshold)
// combination, mirroring the reference overall-simulation endpoint's
// grid: every arrival rate is crossed with every threshold.
func runSweep(ctx context.Context) ([]sweepRow, error) {
	rows := make([]sweepRow, 0, len(sweepArrivalRates)*len(sweepThresholds))
	for _, rate := range sweepArrivalRates {
		for _, threshold := range sweepThresholds {
			cfg := sim.DefaultEngineConfig()
			rate, threshold := rate, threshold
			cfg.Arrival = sim.ProcessSpec{Kind: sim.ProcessExponential, Rate: &rate}
			cfg.Warm = sim.ProcessSpec{Kind: sim.ProcessExponential, Rate: &sweepWarmRate}
			cfg.Cold = sim.ProcessSpec{Kind: sim.ProcessExponential, Rate: &sweepColdRate}
			cfg.ExpirationThreshold = threshold
			cfg.MaxTime = sweepMaxTime

			e, err := sim.NewEngine(cfg)
			if err != nil {
				return nil, fmt.Errorf("arrival_rate=%.4f threshold=%.1f: %w", rate, threshold, err)
			}
			result, err := e.Run(ctx, nil)
			if err != nil {
				return nil, fmt.Errorf("arrival_rate=%.4f threshold=%.1f: %w", rate, threshold, err)
			}

			utilization := result.Report.InstRunningCountAvg / result.Report.InstCountAvg * 100
			if math.IsNaN(utilization) {
				utilization = 0
			}
			rows = append(rows, sweepRow{
				ArrivalRate:         rate,
				ExpirationThreshold: threshold,
				ColdStartProbPct:    result.Report.ProbCold * 100,
				UtilizationPct:      utilization,
			})
		}
	}
	return rows, nil
}

func writeSweepCSV(rows []sweepRow) error {
	out := os.Stdout
	if sweepOutputPath != "" {
		f, err := os.Create(sweepOutputPath)
		if err != nil {
			return fmt.Errorf("creating sweep output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	w := csv.NewWriter(out)
	defer w.Flush()
	if err := w.Write([]string{"arrival_rate", "expiration_threshold", "cold_start_prob_pct", "utilization_pct"}); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			strconv.FormatFloat(row.ArrivalRate, 'f', 6, 64),
			strconv.FormatFloat(row.ExpirationThreshold, 'f', 2, 64),
			strconv.FormatFloat(row.ColdStartProbPct, 'f', 6, 64),
			strconv.FormatFloat(row.UtilizationPct, 'f', 6, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	sweepCmd.Flags().Float64SliceVar(&sweepArrivalRates, "arrival-rates", []float64{0.001, 0.01, 0.1, 1, 10}, "Arrival rates to sweep over (requests/sec)")
	sweepCmd.Flags().Float64SliceVar(&sweepThresholds, "expiration-thresholds", []float64{10, 60, 600, 1200, 1800}, "Expiration thresholds to sweep over (seconds)")
	sweepCmd.Flags().Float64Var(&sweepWarmRate, "warm-rate", 1.0/2.016, "Exponential warm-service rate shared by every run")
	sweepCmd.Flags().Float64Var(&sweepColdRate, "cold-rate", 1.0/2.163, "Exponential cold-service rate shared by every run")
	sweepCmd.Flags().Float64Var(&sweepMaxTime, "max-time", 1000, "Simulation horizon per run, in seconds")
	sweepCmd.Flags().StringVar(&sweepOutputPath, "output", "", "CSV output path (default: stdout)")
}
