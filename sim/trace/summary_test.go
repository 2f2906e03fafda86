package trace

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize_ComputesRatiosAndAverages(t *testing.T) {
	r := NewRecorder()
	r.RecordStep(0, 1, 1, 0)
	r.RecordStep(1, 1, 0, 1)
	r.Finalize(2)

	rep := Summarize(r, 1, 2, 1, 0, []float64{5, 7})

	assert.Equal(t, 1, rep.ReqsCold)
	assert.Equal(t, 2, rep.ReqsTotal)
	assert.InDelta(t, 0.5, rep.ProbCold, 1e-9)
	assert.InDelta(t, 0.0, rep.ProbReject, 1e-9)
	assert.InDelta(t, 6.0, rep.LifespanAvg, 1e-9)
}

func TestSummarize_NoTerminatedInstances_LifespanAvgIsNaN(t *testing.T) {
	r := NewRecorder()
	r.RecordStep(0, 0, 0, 0)
	r.Finalize(1)

	rep := Summarize(r, 0, 0, 0, 0, nil)

	assert.True(t, math.IsNaN(rep.LifespanAvg))
}

func TestReport_ToMap_ConvertsNaNToNil(t *testing.T) {
	rep := Report{LifespanAvg: math.NaN(), ProbCold: 0.5}

	m := rep.ToMap()

	assert.Nil(t, m["lifespan_avg"])
	assert.Equal(t, 0.5, m["prob_cold"])
}

func TestReport_ToMap_OmitsConcLevelAvgWhenNotApplicable(t *testing.T) {
	rep := Report{}

	m := rep.ToMap()

	_, ok := m["conc_level_avg"]
	assert.False(t, ok)
}
