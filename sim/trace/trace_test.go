package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func buildRecorder() *Recorder {
	r := NewRecorder()
	r.RecordStep(0, 0, 0, 0)
	r.RecordStep(1, 1, 1, 0)
	r.RecordCold()
	r.RecordStep(3, 1, 0, 1)
	r.RecordStep(6, 2, 1, 0)
	r.RecordWarm()
	r.Finalize(10)
	return r
}

func TestRecorder_Finalize_ComputesTimeLengths(t *testing.T) {
	r := buildRecorder()

	assert.Equal(t, []float64{1, 2, 3, 4}, r.TimeLengths)
	assert.Equal(t, 10.0, r.End())
}

func TestRecorder_TimeAverage_WeightsByDuration(t *testing.T) {
	r := buildRecorder()

	avg, err := r.TimeAverage(r.ServerCount, nil, nil)

	assert.NoError(t, err)
	// (0*1 + 1*2 + 1*3 + 2*4) / (1+2+3+4) = 13/10
	assert.InDelta(t, 1.3, avg, 1e-9)
}

func TestRecorder_TimeAverage_SkipsInitialPrefix(t *testing.T) {
	r := buildRecorder()
	skipIdx := 1

	avg, err := r.TimeAverage(r.ServerCount, nil, &skipIdx)

	assert.NoError(t, err)
	// (1*2 + 1*3 + 2*4) / (2+3+4) = 13/9
	assert.InDelta(t, 13.0/9.0, avg, 1e-9)
}

func TestRecorder_TimeAverage_RejectsMismatchedLength(t *testing.T) {
	r := buildRecorder()

	_, err := r.TimeAverage([]int{1, 2}, nil, nil)

	assert.Error(t, err)
}

func TestRecorder_ValueFraction_ComputesSharesInFirstSeenOrder(t *testing.T) {
	r := NewRecorder()
	r.RecordStep(0, 0, 0, 0)
	r.RecordStep(1, 0, 0, 0)
	r.RecordStep(2, 0, 0, 0)
	r.Finalize(4)

	order, fractions, err := r.ValueFraction([]string{"A", "A", "B"}, nil, nil)

	assert.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, order)
	// A spans steps of length 1 and 1, B one step of length 2.
	assert.InDelta(t, 2.0/4.0, fractions[0], 1e-9)
	assert.InDelta(t, 2.0/4.0, fractions[1], 1e-9)
}
