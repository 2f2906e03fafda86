package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/pacslab/faas-sim/sim/trace"
)

// ConcurrentEngine runs the same event-loop algorithm as Engine but over
// ConcurrentFunctionInstance servers, each able to serve ConcurrencyValue
// requests at once. Routing of warm arrivals is restricted to instances in
// the IDLE state, mirroring Engine's newest-idle-first scheduling; an
// instance that is COLD or WARM with spare capacity is not considered a
// warm-start target even though it has room, matching the reference
// accounting exactly.
type ConcurrentEngine struct {
	config EngineConfig

	arrivalProcess Process
	warmProcess    Process
	coldProcess    Process
	rng            *PartitionedRNG

	servers      []*ConcurrentFunctionInstance
	terminated   []*ConcurrentFunctionInstance
	serverCount  int
	runningCount int
	idleCount    int

	totalReqCount    int
	totalColdCount   int
	totalWarmCount   int
	totalRejectCount int

	recorder         *trace.Recorder
	concLevelHistory []float64
}

// NewConcurrentEngine validates cfg, builds its stochastic processes, and
// returns a ready-to-run ConcurrentEngine. cfg.ConcurrencyValue is the
// per-instance concurrent-request ceiling.
func NewConcurrentEngine(cfg EngineConfig) (*ConcurrentEngine, error) {
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
	return &ConcurrentEngine{
		config:         cfg,
		arrivalProcess: arrival,
		warmProcess:    warm,
		coldProcess:    cold,
		rng:            NewPartitionedRNG(NewSimulationKey(cfg.Seed)),
		recorder:       trace.NewRecorder(),
	}, nil
}

// Run executes the event loop from t=0 until max_time. See Engine.Run for
// the loop's shape; this variant additionally tracks, at each step, the
// mean concurrency level across live instances.
func (e *ConcurrentEngine) Run(ctx context.Context, progress ProgressFunc) (Result, error) {
	t := 0.0
	nextArrival := t + e.arrivalProcess.Sample(e.rng.ForSubsystem(SubsystemArrival))
	progressInterval := e.config.MaxTime / 100
	nextProgress := 0.0

	for t < e.config.MaxTime {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		e.recorder.RecordStep(t, e.serverCount, e.runningCount, e.idleCount)
		e.concLevelHistory = append(e.concLevelHistory, e.meanConcurrency())
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
		oldState := e.servers[minIdx].State
		newState, err := e.servers[minIdx].MakeTransition()
		if err != nil {
			return Result{}, fmt.Errorf("advancing server %d: %w", minIdx, err)
		}
		switch oldState {
		case StateCold:
			// cold-end transition: no running/idle bookkeeping change.
		case StateWarm:
			e.runningCount--
			if newState == StateIdle {
				e.idleCount++
			}
		case StateIdle:
			e.terminated = append(e.terminated, e.servers[minIdx])
			e.idleCount--
			e.serverCount--
			e.servers = append(e.servers[:minIdx], e.servers[minIdx+1:]...)
		default:
			return Result{}, fmt.Errorf("unexpected pre-transition state %q for server %d", oldState, minIdx)
		}
	}

	e.recorder.Finalize(t)
	if progress != nil {
		progress(1.0)
	}

	lifespans := make([]float64, len(e.terminated))
	for i, s := range e.terminated {
		lifespans[i] = s.NextTermination - s.CreationTime
	}
	report := trace.Summarize(e.recorder, e.totalColdCount, e.totalReqCount, e.totalWarmCount, e.totalRejectCount, lifespans)
	report.ConcLevelAvg = e.averageConcurrency()
	report.HasConcLevelAvg = true
	return Result{Report: report, Recorder: e.recorder, Lifespans: lifespans}, nil
}

func (e *ConcurrentEngine) meanConcurrency() float64 {
	if len(e.servers) == 0 {
		return -1
	}
	var sum float64
	for _, s := range e.servers {
		sum += float64(s.Concurrency())
	}
	return sum / float64(len(e.servers))
}

// averageConcurrency time-weights concLevelHistory, skipping steps recorded
// with no live servers (sentinel -1), matching the reference accounting.
func (e *ConcurrentEngine) averageConcurrency() float64 {
	lengths := e.recorder.TimeLengths
	var weighted, total float64
	for i, v := range e.concLevelHistory {
		if i >= len(lengths) {
			break
		}
		if v >= 0 {
			weighted += v * lengths[i]
			total += lengths[i]
		}
	}
	if total == 0 {
		return math.NaN()
	}
	return weighted / total
}

func (e *ConcurrentEngine) coldStartArrival(t float64) {
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
	instance := NewConcurrentFunctionInstance(t, e.coldProcess, e.warmProcess, e.config.ExpirationThreshold, e.config.ConcurrencyValue, e.rng.ForSubsystem(SubsystemCold))
	e.servers = append(e.servers, instance)
}

func (e *ConcurrentEngine) warmStartArrival(t float64) {
	e.totalReqCount++
	if e.runningCount == e.config.MaximumConcurrency {
		e.totalRejectCount++
		e.recorder.RecordReject()
		return
	}
	e.recorder.RecordWarm()

	creationTimes := make([]float64, len(e.servers))
	idle := make([]bool, len(e.servers))
	for i, s := range e.servers {
		creationTimes[i] = s.CreationTime
		idle[i] = s.IsIdle()
	}
	idx := ScheduleWarmInstance(creationTimes, idle)
	if err := e.servers[idx].ArrivalTransition(t, e.rng.ForSubsystem(SubsystemWarm)); err != nil {
		panic(fmt.Sprintf("scheduler selected a non-idle instance: %v", err))
	}
	e.totalWarmCount++
	e.idleCount--
	e.runningCount++
}
