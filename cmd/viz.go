package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pacslab/faas-sim/internal/viz"
	"github.com/pacslab/faas-sim/sim"
	"github.com/pacslab/faas-sim/sim/trace"
)

var (
	vizOutputDir    string
	vizHistogramBin int
)

var vizCmd = &cobra.Command{
	Use:   "viz",
	Short: "Run a simulation and render its instance-count and lifespan plots to PNG",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("seed") {
			cfg.Seed = seed
		}

		e, err := sim.NewEngine(*cfg)
		if err != nil {
			return err
		}
		result, err := e.Run(cmd.Context(), nil)
		if err != nil {
			return fmt.Errorf("running simulation: %w", err)
		}

		countsPath := vizOutputDir + "/instance_count.png"
		if err := writeInstanceCountPlot(result.Recorder, countsPath); err != nil {
			return fmt.Errorf("rendering instance count plot: %w", err)
		}
		fmt.Println("wrote", countsPath)

		if len(result.Lifespans) > 0 {
			lifespanPath := vizOutputDir + "/lifespan_density.png"
			if err := writeLifespanPlot(result.Lifespans, vizHistogramBin, lifespanPath); err != nil {
				return fmt.Errorf("rendering lifespan density plot: %w", err)
			}
			fmt.Println("wrote", lifespanPath)
		}

		return nil
	},
}

func writeInstanceCountPlot(r *trace.Recorder, path string) error {
	times := r.Times[:len(r.Times)-1]
	return viz.InstanceCountSeries(path, times, r.ServerCount)
}

func writeLifespanPlot(lifespans []float64, numBins int, path string) error {
	hist := sim.ConvertHistToPDF(lifespans, numBins)
	return viz.Density(path, hist.Bases, hist.Densities, hist.Cumulative)
}

func init() {
	vizCmd.Flags().StringVar(&vizOutputDir, "output-dir", ".", "Directory to write PNG plots into")
	vizCmd.Flags().IntVar(&vizHistogramBin, "bins", 20, "Number of histogram bins for the lifespan density plot")
}
