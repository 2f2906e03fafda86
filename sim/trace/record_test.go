package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeStates_GroupsContiguousRuns(t *testing.T) {
	r := NewRecorder()
	for i := 0; i < 5; i++ {
		r.RecordStep(float64(i), 0, 0, 0)
	}
	r.Finalize(5)
	states := []string{"IDLE", "IDLE", "WARM", "WARM", "IDLE"}

	residence, transitions := r.AnalyzeStates(states, nil, nil)

	assert.Equal(t, []float64{2}, residence["IDLE"])
	assert.Equal(t, []float64{2}, residence["WARM"])
	assert.Equal(t, []float64{2}, transitions[Transition{From: "IDLE", To: "WARM"}])
	assert.Equal(t, []float64{2}, transitions[Transition{From: "WARM", To: "IDLE"}])
}

func TestCountRequestStates_FoldsRejectionsIntoWarmBucket(t *testing.T) {
	r := NewRecorder()
	r.RecordStep(0, 0, 0, 0)
	r.RecordCold()
	r.RecordStep(1, 1, 1, 0)
	r.RecordWarm()
	r.RecordStep(2, 1, 1, 0)
	r.RecordReject()
	r.Finalize(3)
	histStates := []string{"A", "A", "A"}

	counts := r.CountRequestStates(histStates, nil, nil)

	assert.Len(t, counts, 1)
	assert.Equal(t, 1, counts[0].Cold)
	// Warm bucket includes both the genuine warm admission and the folded
	// rejection, matching the reference accounting exactly.
	assert.Equal(t, 2, counts[0].Warm)
	assert.Equal(t, 1, counts[0].Rejected)
	assert.Equal(t, 3, counts[0].Total)
}
