// Package viz renders simulation trace data to PNG plots.
package viz

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// InstanceCountSeries plots the instance count over time alongside its
// cumulative running average, matching the reference dashboard's
// "Current Value" / "Average Estimate" pair.
func InstanceCountSeries(path string, times []float64, counts []int) error {
	if len(times) != len(counts) {
		return fmt.Errorf("viz: times and counts length mismatch (%d vs %d)", len(times), len(counts))
	}

	p := plot.New()
	p.Title.Text = "Instance Count Over Time"
	p.X.Label.Text = "Time (minutes)"
	p.Y.Label.Text = "Instance Count"

	current := make(plotter.XYs, len(times))
	average := make(plotter.XYs, len(times))
	var cum float64
	for i, t := range times {
		current[i].X = t / 60
		current[i].Y = float64(counts[i])
		cum += float64(counts[i])
		average[i].X = t / 60
		average[i].Y = cum / float64(i+1)
	}

	currentLine, err := plotter.NewLine(current)
	if err != nil {
		return fmt.Errorf("viz: building current-value line: %w", err)
	}
	averageLine, err := plotter.NewLine(average)
	if err != nil {
		return fmt.Errorf("viz: building average-estimate line: %w", err)
	}
	averageLine.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}

	p.Add(currentLine, averageLine)
	p.Legend.Add("Current Value", currentLine)
	p.Legend.Add("Average Estimate", averageLine)

	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}

// Density plots a density histogram alongside its cumulative distribution,
// using the (bases, densities, cumulative) triple produced by
// sim.ConvertHistToPDF.
func Density(path string, bases, densities, cumulative []float64) error {
	if len(bases) != len(densities) || len(bases) != len(cumulative) {
		return fmt.Errorf("viz: bases/densities/cumulative length mismatch")
	}

	p := plot.New()
	p.Title.Text = "Distribution"
	p.X.Label.Text = "Value"
	p.Y.Label.Text = "Density"

	pdf := make(plotter.XYs, len(bases))
	cdf := make(plotter.XYs, len(bases))
	for i := range bases {
		pdf[i].X = bases[i]
		pdf[i].Y = densities[i]
		cdf[i].X = bases[i]
		cdf[i].Y = cumulative[i]
	}

	pdfLine, err := plotter.NewLine(pdf)
	if err != nil {
		return fmt.Errorf("viz: building density line: %w", err)
	}
	cdfLine, err := plotter.NewLine(cdf)
	if err != nil {
		return fmt.Errorf("viz: building cumulative line: %w", err)
	}
	cdfLine.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}

	p.Add(pdfLine, cdfLine)
	p.Legend.Add("Density", pdfLine)
	p.Legend.Add("Cumulative", cdfLine)

	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}
