package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertHistToPDF_DensitiesIntegrateToOne(t *testing.T) {
	values := []float64{1, 2, 2, 3, 3, 3, 4, 4, 4, 4}

	hist := ConvertHistToPDF(values, 4)

	binSize := hist.Bases[3] - hist.Bases[2]
	var integral float64
	for _, d := range hist.Densities {
		integral += d * binSize
	}
	assert.InDelta(t, 1.0, integral, 1e-9)
}

func TestConvertHistToPDF_CumulativeEndsAtOne(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}

	hist := ConvertHistToPDF(values, 5)

	assert.InDelta(t, 1.0, hist.Cumulative[len(hist.Cumulative)-1], 1e-9)
}

func TestConvertHistToPDF_EmptyInput_ReturnsZeroValue(t *testing.T) {
	hist := ConvertHistToPDF(nil, 5)

	assert.Empty(t, hist.Bases)
}

func TestCalculatePercentile_MedianOfOddLengthSlice(t *testing.T) {
	p := CalculatePercentile([]float64{3, 1, 2}, 50)

	assert.InDelta(t, 2.0, p, 1e-9)
}
