package sim

// NewTemporalEngine builds an Engine whose simulation does not start from an
// empty cluster: runningCount instances are spliced in as already WARM
// (processing a request since t=0), and one instance per entry in
// idleNextTerminations is spliced in as already IDLE, scheduled to expire at
// that exact time if it receives no further requests.
//
// Idle instances are given a creation time of 0.01 rather than 0 so that,
// among instances with identical termination schedules, the scheduler's
// newest-creation-time-first rule still produces a deterministic choice
// without colliding with the zero creation time used elsewhere.
func NewTemporalEngine(cfg EngineConfig, runningCount int, idleNextTerminations []float64) (*Engine, error) {
	e, err := NewEngine(cfg)
	if err != nil {
		return nil, err
	}

	for i := 0; i < runningCount; i++ {
		inst := &FunctionInstance{
			ColdProcess:         e.coldProcess,
			WarmProcess:         e.warmProcess,
			ExpirationThreshold: cfg.ExpirationThreshold,
			CreationTime:        0,
			State:               StateIdle,
		}
		if err := inst.ArrivalTransition(0, e.rng.ForSubsystem(SubsystemWarm)); err != nil {
			return nil, err
		}
		e.servers = append(e.servers, inst)
	}

	for _, nextTerm := range idleNextTerminations {
		inst := &FunctionInstance{
			ColdProcess:         e.coldProcess,
			WarmProcess:         e.warmProcess,
			ExpirationThreshold: cfg.ExpirationThreshold,
			CreationTime:        0.01,
			State:               StateIdle,
			NextTermination:     nextTerm,
		}
		e.servers = append(e.servers, inst)
	}

	e.serverCount = len(e.servers)
	e.runningCount = runningCount
	e.idleCount = e.serverCount - runningCount
	return e, nil
}
