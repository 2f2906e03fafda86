package trace

import "math"

// Report is the summary result of a completed simulation run: the
// time-averaged counters and admission probabilities a caller reports back
// to a client or persists for comparison across runs.
type Report struct {
	ReqsCold             int
	ReqsTotal            int
	ReqsWarm             int
	ReqsReject           int
	ProbCold             float64
	ProbReject           float64
	LifespanAvg          float64
	InstCountAvg         float64
	InstRunningCountAvg  float64
	InstIdleCountAvg     float64
	ConcLevelAvg         float64 // zero for the single-concurrency engine
	HasConcLevelAvg      bool
}

// Summarize reduces a Recorder plus the counters tracked alongside it into a
// Report. lifespans is the set of per-instance lifespans for every instance
// that has terminated by the end of the run; instances still live at
// max_time are excluded, per the reference accounting, since their
// lifespan is not yet final.
func Summarize(r *Recorder, reqsCold, reqsTotal, reqsWarm, reqsReject int, lifespans []float64) Report {
	rep := Report{
		ReqsCold:   reqsCold,
		ReqsTotal:  reqsTotal,
		ReqsWarm:   reqsWarm,
		ReqsReject: reqsReject,
		ProbCold:   ratio(reqsCold, reqsTotal),
		ProbReject: ratio(reqsReject, reqsTotal),
	}

	if len(lifespans) > 0 {
		var sum float64
		for _, v := range lifespans {
			sum += v
		}
		rep.LifespanAvg = sum / float64(len(lifespans))
	} else {
		rep.LifespanAvg = math.NaN()
	}

	serverCountAvg, err := r.TimeAverage(r.ServerCount, nil, nil)
	if err != nil {
		serverCountAvg = math.NaN()
	}
	runningCountAvg, err := r.TimeAverage(r.RunningCount, nil, nil)
	if err != nil {
		runningCountAvg = math.NaN()
	}
	idleCountAvg, err := r.TimeAverage(r.IdleCount, nil, nil)
	if err != nil {
		idleCountAvg = math.NaN()
	}
	rep.InstCountAvg = serverCountAvg
	rep.InstRunningCountAvg = runningCountAvg
	rep.InstIdleCountAvg = idleCountAvg
	return rep
}

func ratio(num, den int) float64 {
	if den == 0 {
		return math.NaN()
	}
	return float64(num) / float64(den)
}

// ToMap renders the Report as a JSON-friendly map, substituting nil for any
// NaN value (division by zero in a ratio or average over zero elapsed
// time) rather than emitting an invalid JSON number.
func (rep Report) ToMap() map[string]any {
	m := map[string]any{
		"reqs_cold":                 rep.ReqsCold,
		"reqs_total":                rep.ReqsTotal,
		"reqs_warm":                 rep.ReqsWarm,
		"reqs_reject":               rep.ReqsReject,
		"prob_cold":                 nanToNil(rep.ProbCold),
		"prob_reject":               nanToNil(rep.ProbReject),
		"lifespan_avg":              nanToNil(rep.LifespanAvg),
		"inst_count_avg":            nanToNil(rep.InstCountAvg),
		"inst_running_count_avg":    nanToNil(rep.InstRunningCountAvg),
		"inst_idle_count_avg":       nanToNil(rep.InstIdleCountAvg),
	}
	if rep.HasConcLevelAvg {
		m["conc_level_avg"] = nanToNil(rep.ConcLevelAvg)
	}
	return m
}

func nanToNil(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}
