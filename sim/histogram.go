package sim

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Histogram is a fixed-width binning of a sample, ready for density and
// cumulative-distribution plotting.
type Histogram struct {
	// Bases are the bin centers, preceded by a leading pair (0 and the
	// first bin's start, both shifted by half a bin like every other
	// entry) whose density and cumulative values are 0: this lets a plotted
	// line start near the origin instead of jumping in at the first
	// populated bin.
	Bases []float64
	// Densities are bin counts normalized to integrate to 1 over Bases.
	Densities []float64
	// Cumulative is the running sum of Densities' underlying counts,
	// normalized to end at 1.
	Cumulative []float64
}

// ConvertHistToPDF bins values into numBins equal-width buckets spanning
// their observed range and converts the bin counts into a probability
// density (counts normalized by total count and bin width) plus a
// cumulative distribution, for visualization or further analysis.
func ConvertHistToPDF(values []float64, numBins int) Histogram {
	if len(values) == 0 || numBins <= 0 {
		return Histogram{}
	}

	minV, maxV := values[0], values[0]
	for _, v := range values {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	binSize := (maxV - minV) / float64(numBins)

	counts := make([]float64, numBins)
	for _, v := range values {
		idx := 0
		if binSize > 0 {
			idx = int((v - minV) / binSize)
			if idx >= numBins {
				idx = numBins - 1
			}
			if idx < 0 {
				idx = 0
			}
		}
		counts[idx]++
	}

	cumulative := make([]float64, numBins)
	var running float64
	for i, c := range counts {
		running += c
		cumulative[i] = running
	}
	total := cumulative[numBins-1]
	if total > 0 {
		for i := range cumulative {
			cumulative[i] /= total
		}
	}

	bases := make([]float64, 0, numBins+2)
	bases = append(bases, 0, minV)
	densities := make([]float64, 0, numBins+2)
	densities = append(densities, 0, 0)
	cum := make([]float64, 0, numBins+2)
	cum = append(cum, 0, 0)
	for i := 0; i < numBins; i++ {
		bases = append(bases, minV+float64(i)*binSize)
		densities = append(densities, counts[i])
		cum = append(cum, cumulative[i])
	}

	var countSum float64
	for _, c := range densities {
		countSum += c
	}
	if countSum > 0 {
		for i := range densities {
			densities[i] /= countSum
		}
	}
	if binSize > 0 {
		for i := range densities {
			densities[i] /= binSize
		}
	}
	for i := range bases {
		bases[i] += binSize / 2
	}

	return Histogram{Bases: bases, Densities: densities, Cumulative: cum}
}

// CalculatePercentile returns the p-th percentile (0-100) of data: the
// smallest sample value that is greater than or equal to the fraction
// p/100 of the samples. No interpolation between ranks is done.
func CalculatePercentile(data []float64, p float64) float64 {
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)
	return stat.Quantile(p/100.0, stat.Empirical, sorted, nil)
}

// Mean returns the arithmetic mean of data, or NaN for an empty slice.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return math.NaN()
	}
	return stat.Mean(data, nil)
}
