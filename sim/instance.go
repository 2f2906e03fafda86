package sim

import (
	"fmt"
	"math/rand"
)

// State is a FunctionInstance lifecycle state.
type State string

const (
	// StateCold is the state an instance occupies while its cold-start
	// process (container provisioning, runtime init) runs for the request
	// that triggered its creation.
	StateCold State = "COLD"
	// StateWarm is the state an instance occupies while serving a request
	// on an already-provisioned container.
	StateWarm State = "WARM"
	// StateIdle is the state an instance occupies between requests, before
	// its expiration threshold elapses.
	StateIdle State = "IDLE"
	// StateTerm is the terminal state; the instance's resources have been
	// released and no further transitions are possible.
	StateTerm State = "TERM"
)

// FunctionInstance models a single-concurrency serverless function
// instance: it serves at most one request at a time and transitions
// COLD -> IDLE -> WARM -> IDLE -> ... -> TERM.
//
// A newly created instance starts in COLD, sampling its cold-service
// duration immediately to fix NextDeparture and NextTermination. All
// other durations are sampled at the moment they are needed, not ahead
// of time, so that a single *rand.Rand stream yields a reproducible
// sequence when driven in timestamp order.
type FunctionInstance struct {
	ColdProcess          Process
	WarmProcess          Process
	ExpirationThreshold  float64

	CreationTime    float64
	State           State
	NextDeparture   float64
	NextTermination float64
}

// NewFunctionInstance creates an instance in COLD state at time t, sampling
// its cold-service duration from rng via coldProcess.
func NewFunctionInstance(t float64, coldProcess, warmProcess Process, expirationThreshold float64, rng *rand.Rand) *FunctionInstance {
	fi := &FunctionInstance{
		ColdProcess:         coldProcess,
		WarmProcess:         warmProcess,
		ExpirationThreshold: expirationThreshold,
		CreationTime:        t,
		State:               StateCold,
	}
	fi.NextDeparture = t + coldProcess.Sample(rng)
	fi.updateNextTermination()
	return fi
}

func (fi *FunctionInstance) updateNextTermination() {
	fi.NextTermination = fi.NextDeparture + fi.ExpirationThreshold
}

// LifeSpan returns the duration from creation to the currently scheduled
// termination, assuming no further arrivals occur.
func (fi *FunctionInstance) LifeSpan() float64 {
	return fi.NextTermination - fi.CreationTime
}

// IsIdle reports whether the instance can accept a warm-start arrival.
func (fi *FunctionInstance) IsIdle() bool {
	return fi.State == StateIdle
}

// ArrivalTransition routes a new request to an IDLE instance, moving it to
// WARM and sampling a fresh warm-service duration. Returns ErrBusyInstance
// if the instance is COLD or WARM, ErrTerminatedInstance if it is TERM.
func (fi *FunctionInstance) ArrivalTransition(t float64, rng *rand.Rand) error {
	switch fi.State {
	case StateCold, StateWarm:
		return fmt.Errorf("instance %s at t=%.6f: %w", fi.State, t, ErrBusyInstance)
	case StateTerm:
		return fmt.Errorf("instance at t=%.6f: %w", t, ErrTerminatedInstance)
	}
	fi.State = StateWarm
	fi.NextDeparture = t + fi.WarmProcess.Sample(rng)
	fi.updateNextTermination()
	return nil
}

// MakeTransition advances the instance along its next scheduled internal
// transition: COLD/WARM -> IDLE on departure, or IDLE -> TERM on expiration.
// Returns the resulting state, or ErrTerminatedInstance if already TERM.
func (fi *FunctionInstance) MakeTransition() (State, error) {
	switch fi.State {
	case StateCold, StateWarm:
		fi.State = StateIdle
	case StateIdle:
		fi.State = StateTerm
	default:
		return fi.State, ErrTerminatedInstance
	}
	return fi.State, nil
}

// NextTransitionTime returns the duration from t until the instance's next
// scheduled transition: termination while IDLE, departure otherwise.
func (fi *FunctionInstance) NextTransitionTime(t float64) (float64, error) {
	if fi.State == StateIdle {
		return fi.timeUntilTermination(t)
	}
	return fi.timeUntilDeparture(t)
}

func (fi *FunctionInstance) timeUntilDeparture(t float64) (float64, error) {
	if t > fi.NextDeparture {
		return 0, fmt.Errorf("t=%.6f next_departure=%.6f: %w", t, fi.NextDeparture, ErrClockPastDeadline)
	}
	return fi.NextDeparture - t, nil
}

func (fi *FunctionInstance) timeUntilTermination(t float64) (float64, error) {
	if t > fi.NextTermination {
		return 0, fmt.Errorf("t=%.6f next_termination=%.6f: %w", t, fi.NextTermination, ErrClockPastDeadline)
	}
	return fi.NextTermination - t, nil
}
