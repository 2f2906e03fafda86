package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/pacslab/faas-sim/sim/trace"
)

// ProgressFunc receives the fraction of the configured horizon elapsed so
// far, in [0, 1]. Implementations must return quickly; Engine.Run calls it
// synchronously from the simulation loop.
type ProgressFunc func(ratio float64)

// Engine runs a single-concurrency serverless platform simulation: each
// FunctionInstance serves one request at a time, cold-starting on demand
// when no idle instance is available and rejecting once the configured
// concurrency ceiling is reached.
type Engine struct {
	config EngineConfig

	arrivalProcess Process
	warmProcess    Process
	coldProcess    Process
	rng            *PartitionedRNG

	servers      []*FunctionInstance
	terminated   []*FunctionInstance
	serverCount  int
	runningCount int
	idleCount    int

	totalReqCount    int
	totalColdCount   int
	totalWarmCount   int
	totalRejectCount int

	recorder *trace.Recorder
}

// NewEngine validates cfg, builds its stochastic processes, and returns a
// ready-to-run Engine.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	arrival, err := cfg.Arrival.Build()
	if err != nil {
		return nil, fmt.Errorf("building arrival process: %w", err)
	}
	warm, err := cfg.Warm.Build()
	if err != nil {
		return nil, fmt.Errorf("building warm process: %w", err)
	}
	cold, err := cfg.Cold.Build()
	if err != nil {
		return nil, fmt.Errorf("building cold process: %w", err)
	}
	return &Engine{
		config:         cfg,
		arrivalProcess: arrival,
		warmProcess:    warm,
		coldProcess:    cold,
		rng:            NewPartitionedRNG(NewSimulationKey(cfg.Seed)),
		recorder:       trace.NewRecorder(),
	}, nil
}

// Result is the outcome of a completed Engine.Run: the summary report plus
// the raw recorder, which callers can use for custom time-averaged or
// residence-time analysis beyond what Report covers.
type Result struct {
	Report    trace.Report
	Recorder  *trace.Recorder
	Lifespans []float64
}

// Run executes the event loop from t=0 until the configured max_time,
// advancing the clock to the earliest of: the next arrival, or the next
// scheduled transition among all live instances. ctx is checked between
// steps for cancellation; progress, if non-nil, is called with the fraction
// of max_time elapsed at the first step and then whenever the clock enters
// a new hundredth of max_time (so at most about 100 times), plus once with
// 1.0 when the run ends.
func (e *Engine) Run(ctx context.Context, progress ProgressFunc) (Result, error) {
	t := 0.0
	nextArrival := t + e.arrivalProcess.Sample(e.rng.ForSubsystem(SubsystemArrival))
	progressInterval := e.config.MaxTime / 100
	nextProgress := 0.0

	for t < e.config.MaxTime {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		e.recorder.RecordStep(t, e.serverCount, e.runningCount, e.idleCount)
		if progress != nil && t >= nextProgress {
			progress(math.Min(t/e.config.MaxTime, 1.0))
			nextProgress = (math.Floor(t/progressInterval) + 1) * progressInterval
		}

		if len(e.servers) == 0 {
			t = nextArrival
			nextArrival = t + e.arrivalProcess.Sample(e.rng.ForSubsystem(SubsystemArrival))
			e.coldStartArrival(t)
			continue
		}

		minDelta := math.Inf(1)
		minIdx := -1
		for i, s := range e.servers {
			dt, err := s.NextTransitionTime(t)
			if err != nil {
				return Result{}, fmt.Errorf("computing next transition for server %d: %w", i, err)
			}
			if dt < minDelta {
				minDelta = dt
				minIdx = i
			}
		}

		if (nextArrival - t) < minDelta {
			t = nextArrival
			nextArrival = t + e.arrivalProcess.Sample(e.rng.ForSubsystem(SubsystemArrival))
			if e.idleCount > 0 {
				e.warmStartArrival(t)
			} else {
				e.coldStartArrival(t)
			}
			continue
		}

		t += minDelta
		newState, err := e.servers[minIdx].MakeTransition()
		if err != nil {
			return Result{}, fmt.Errorf("advancing server %d: %w", minIdx, err)
		}
		switch newState {
		case StateTerm:
			e.terminated = append(e.terminated, e.servers[minIdx])
			e.idleCount--
			e.serverCount--
			e.servers = append(e.servers[:minIdx], e.servers[minIdx+1:]...)
		case StateIdle:
			e.runningCount--
			e.idleCount++
		default:
			return Result{}, fmt.Errorf("unexpected post-transition state %q for server %d", newState, minIdx)
		}
	}

	e.recorder.Finalize(t)
	if progress != nil {
		progress(1.0)
	}

	lifespans := make([]float64, len(e.terminated))
	for i, s := range e.terminated {
		lifespans[i] = s.LifeSpan()
	}
	report := trace.Summarize(e.recorder, e.totalColdCount, e.totalReqCount, e.totalWarmCount, e.totalRejectCount, lifespans)
	return Result{Report: report, Recorder: e.recorder, Lifespans: lifespans}, nil
}

func (e *Engine) coldStartArrival(t float64) {
	e.totalReqCount++
	if e.runningCount == e.config.MaximumConcurrency {
		e.totalRejectCount++
		e.recorder.RecordReject()
		return
	}
	e.totalColdCount++
	e.recorder.RecordCold()

	e.serverCount++
	e.runningCount++
	instance := NewFunctionInstance(t, e.coldProcess, e.warmProcess, e.config.ExpirationThreshold, e.rng.ForSubsystem(SubsystemCold))
	e.servers = append(e.servers, instance)
}

func (e *Engine) warmStartArrival(t float64) {
	e.totalReqCount++
	if e.runningCount == e.config.MaximumConcurrency {
		e.totalRejectCount++
		e.recorder.RecordReject()
		return
	}
	e.recorder.RecordWarm()

	idx := e.scheduleWarmInstance()
	// idx is always valid here: warmStartArrival is only called when
	// e.idleCount > 0, so at least one server is idle.
	if err := e.servers[idx].ArrivalTransition(t, e.rng.ForSubsystem(SubsystemWarm)); err != nil {
		panic(fmt.Sprintf("scheduler selected a non-idle instance: %v", err))
	}
	e.totalWarmCount++
	e.idleCount--
	e.runningCount++
}

func (e *Engine) scheduleWarmInstance() int {
	creationTimes := make([]float64, len(e.servers))
	idle := make([]bool, len(e.servers))
	for i, s := range e.servers {
		creationTimes[i] = s.CreationTime
		idle[i] = s.IsIdle()
	}
	return ScheduleWarmInstance(creationTimes, idle)
}
