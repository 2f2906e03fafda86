package sim

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFunctionInstance_NewInstance_StartsCold(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	inst := NewFunctionInstance(10, NewConstantProcess(1), NewConstantProcess(0.5), 600, rng)

	assert.Equal(t, StateCold, inst.State)
	assert.Equal(t, 10.0, inst.CreationTime)
	assert.Equal(t, 11.0, inst.NextDeparture) // 10 + 1/1
	assert.Equal(t, 611.0, inst.NextTermination)
}

func TestFunctionInstance_ArrivalTransition_RejectsWhenBusy(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	inst := NewFunctionInstance(0, NewConstantProcess(1), NewConstantProcess(1), 600, rng)

	err := inst.ArrivalTransition(0, rng)

	assert.ErrorIs(t, err, ErrBusyInstance)
}

func TestFunctionInstance_FullLifecycle_ColdToIdleToWarmToTerm(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	inst := NewFunctionInstance(0, NewConstantProcess(1), NewConstantProcess(2), 10, rng)
	assert.Equal(t, StateCold, inst.State)

	state, err := inst.MakeTransition()
	assert.NoError(t, err)
	assert.Equal(t, StateIdle, state)

	err = inst.ArrivalTransition(2, rng)
	assert.NoError(t, err)
	assert.Equal(t, StateWarm, inst.State)
	assert.Equal(t, 2.5, inst.NextDeparture) // 2 + 1/2

	state, err = inst.MakeTransition()
	assert.NoError(t, err)
	assert.Equal(t, StateIdle, state)

	state, err = inst.MakeTransition()
	assert.NoError(t, err)
	assert.Equal(t, StateTerm, state)

	_, err = inst.MakeTransition()
	assert.ErrorIs(t, err, ErrTerminatedInstance)
}

func TestFunctionInstance_NextTransitionTime_PastDeadlineErrors(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	inst := NewFunctionInstance(0, NewConstantProcess(1), NewConstantProcess(1), 10, rng)

	_, err := inst.NextTransitionTime(2)

	assert.True(t, errors.Is(err, ErrClockPastDeadline))
}

func TestScheduleWarmInstance_PicksNewestCreationTime(t *testing.T) {
	creationTimes := []float64{5, 20, 1}
	idle := []bool{true, true, true}

	idx := ScheduleWarmInstance(creationTimes, idle)

	assert.Equal(t, 1, idx)
}

func TestScheduleWarmInstance_SkipsNonIdleInstances(t *testing.T) {
	creationTimes := []float64{5, 20, 1}
	idle := []bool{true, false, true}

	idx := ScheduleWarmInstance(creationTimes, idle)

	assert.Equal(t, 0, idx)
}

func TestScheduleWarmInstance_NoneIdle_ReturnsNegativeOne(t *testing.T) {
	idx := ScheduleWarmInstance([]float64{1, 2}, []bool{false, false})

	assert.Equal(t, -1, idx)
}

func TestScheduleWarmInstance_TiesBreakByFirstOccurrence(t *testing.T) {
	idx := ScheduleWarmInstance([]float64{5, 5, 5}, []bool{true, true, true})

	assert.Equal(t, 0, idx)
}
