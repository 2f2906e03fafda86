package sim

import (
	"fmt"
	"math"
	"math/rand"
)

// ConcurrentFunctionInstance models a function instance that can serve up
// to ConcurrencyValue requests at once on a single warmed container. Unlike
// FunctionInstance, a request arriving while the instance is COLD or WARM
// can still be admitted as long as capacity remains; its warm-service clock
// starts at max(t, ColdEnd) so that requests arriving during cold-start wait
// for provisioning to finish before they begin executing.
type ConcurrentFunctionInstance struct {
	ColdProcess         Process
	WarmProcess         Process
	ExpirationThreshold float64
	ConcurrencyValue    int

	CreationTime    float64
	State           State
	ColdEnd         float64
	NextDepartures  []float64
	NextTermination float64
}

// NewConcurrentFunctionInstance creates an instance in COLD state at time t
// with one in-flight request: the one whose cold start triggered creation.
func NewConcurrentFunctionInstance(t float64, coldProcess, warmProcess Process, expirationThreshold float64, concurrencyValue int, rng *rand.Rand) *ConcurrentFunctionInstance {
	ci := &ConcurrentFunctionInstance{
		ColdProcess:         coldProcess,
		WarmProcess:         warmProcess,
		ExpirationThreshold: expirationThreshold,
		ConcurrencyValue:    concurrencyValue,
		CreationTime:        t,
		State:               StateCold,
	}
	ci.ColdEnd = t + coldProcess.Sample(rng)
	ci.NextDepartures = []float64{ci.ColdEnd + warmProcess.Sample(rng)}
	ci.updateNextTermination()
	return ci
}

func (ci *ConcurrentFunctionInstance) updateNextTermination() {
	ci.NextTermination = maxFloat(ci.NextDepartures) + ci.ExpirationThreshold
}

// IsReady reports whether the instance has spare concurrency capacity.
func (ci *ConcurrentFunctionInstance) IsReady() bool {
	return len(ci.NextDepartures) < ci.ConcurrencyValue
}

// IsIdle reports whether the instance can accept a cold-path warm-start
// arrival (i.e. has zero in-flight requests and is not terminated).
func (ci *ConcurrentFunctionInstance) IsIdle() bool {
	return ci.State == StateIdle
}

// Concurrency returns the number of requests currently in flight.
func (ci *ConcurrentFunctionInstance) Concurrency() int {
	return len(ci.NextDepartures)
}

// ArrivalTransition admits a new request. If the instance is COLD or WARM
// with spare capacity, the request's warm-service clock starts at
// max(t, ColdEnd). If IDLE, the instance transitions to WARM. Returns
// ErrAtCapacity if COLD/WARM with no spare capacity, ErrTerminatedInstance
// if TERM.
func (ci *ConcurrentFunctionInstance) ArrivalTransition(t float64, rng *rand.Rand) error {
	switch ci.State {
	case StateCold, StateWarm:
		if !ci.IsReady() {
			return fmt.Errorf("instance at t=%.6f: %w", t, ErrAtCapacity)
		}
		start := math.Max(t, ci.ColdEnd)
		ci.NextDepartures = append(ci.NextDepartures, start+ci.WarmProcess.Sample(rng))
		ci.updateNextTermination()
	case StateIdle:
		ci.State = StateWarm
		ci.NextDepartures = []float64{t + ci.WarmProcess.Sample(rng)}
		ci.updateNextTermination()
	case StateTerm:
		return fmt.Errorf("instance at t=%.6f: %w", t, ErrTerminatedInstance)
	}
	return nil
}

// MakeTransition advances the instance along its next scheduled transition:
// COLD -> WARM when provisioning completes, WARM -> WARM (one fewer
// in-flight request) or WARM -> IDLE when the last request departs, or
// IDLE -> TERM on expiration.
func (ci *ConcurrentFunctionInstance) MakeTransition() (State, error) {
	switch ci.State {
	case StateCold:
		ci.State = StateWarm
	case StateWarm:
		switch len(ci.NextDepartures) {
		case 0:
			return ci.State, fmt.Errorf("concurrent instance in WARM with no in-flight requests")
		case 1:
			ci.NextDepartures = ci.NextDepartures[:0]
			ci.State = StateIdle
		default:
			idx := minIndex(ci.NextDepartures)
			ci.NextDepartures = append(ci.NextDepartures[:idx], ci.NextDepartures[idx+1:]...)
		}
	case StateIdle:
		ci.State = StateTerm
	default:
		return ci.State, ErrTerminatedInstance
	}
	return ci.State, nil
}

// NextTransitionTime returns the duration from t until the instance's next
// scheduled transition: cold-end while COLD, earliest departure while WARM,
// termination while IDLE.
func (ci *ConcurrentFunctionInstance) NextTransitionTime(t float64) (float64, error) {
	switch ci.State {
	case StateIdle:
		if t > ci.NextTermination {
			return 0, fmt.Errorf("t=%.6f next_termination=%.6f: %w", t, ci.NextTermination, ErrClockPastDeadline)
		}
		return ci.NextTermination - t, nil
	case StateCold:
		if t > ci.ColdEnd {
			return 0, fmt.Errorf("t=%.6f cold_end=%.6f: %w", t, ci.ColdEnd, ErrClockPastDeadline)
		}
		return ci.ColdEnd - t, nil
	default:
		earliest := minFloat(ci.NextDepartures)
		if t > earliest {
			return 0, fmt.Errorf("t=%.6f next_departure=%.6f: %w", t, earliest, ErrClockPastDeadline)
		}
		return earliest - t, nil
	}
}

func maxFloat(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

func minFloat(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func minIndex(xs []float64) int {
	idx := 0
	for i, x := range xs[1:] {
		if x < xs[idx] {
			idx = i + 1
		}
	}
	return idx
}
