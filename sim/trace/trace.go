// Package trace accumulates the time-stamped history of a simulation run
// and derives time-weighted statistics from it: average instance counts,
// state residence times, and per-request-class admission counts.
package trace

import "fmt"

// Recorder accumulates the step-by-step history of a single simulation run.
// Every Record* call must be preceded by a RecordStep call for the same
// timestamp, since the index recorded by RecordCold/RecordWarm/RecordReject
// refers to the most recently appended entry in Times.
type Recorder struct {
	Times         []float64
	ServerCount   []int
	RunningCount  []int
	IdleCount     []int
	ColdIdxs      []int
	WarmIdxs      []int
	RejectIdxs    []int
	TimeLengths   []float64
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// RecordStep appends one history entry at time t.
func (r *Recorder) RecordStep(t float64, serverCount, runningCount, idleCount int) {
	r.Times = append(r.Times, t)
	r.ServerCount = append(r.ServerCount, serverCount)
	r.RunningCount = append(r.RunningCount, runningCount)
	r.IdleCount = append(r.IdleCount, idleCount)
}

// RecordCold marks the most recently recorded step as a cold-start admission.
func (r *Recorder) RecordCold() {
	r.ColdIdxs = append(r.ColdIdxs, len(r.Times)-1)
}

// RecordWarm marks the most recently recorded step as a warm-start admission.
func (r *Recorder) RecordWarm() {
	r.WarmIdxs = append(r.WarmIdxs, len(r.Times)-1)
}

// RecordReject marks the most recently recorded step as a rejection.
func (r *Recorder) RecordReject() {
	r.RejectIdxs = append(r.RejectIdxs, len(r.Times)-1)
}

// Finalize appends the trace's closing timestamp and computes TimeLengths,
// the per-step durations between consecutive entries in Times. Must be
// called exactly once, after the last RecordStep.
func (r *Recorder) Finalize(t float64) {
	r.Times = append(r.Times, t)
	r.TimeLengths = make([]float64, len(r.Times)-1)
	for i := 1; i < len(r.Times); i++ {
		r.TimeLengths[i-1] = r.Times[i] - r.Times[i-1]
	}
}

// End returns the last timestamp in Times: the closing timestamp once
// Finalize has been called, otherwise the latest recorded step. Panics if
// nothing has been recorded, since an empty trace has no end.
func (r *Recorder) End() float64 {
	if len(r.Times) == 0 {
		panic("trace: End called before any steps recorded")
	}
	return r.Times[len(r.Times)-1]
}

// skipInit resolves the number of leading history entries to discard before
// computing steady-state statistics, combining a time-based and an
// index-based cutoff (the larger of the two wins).
func (r *Recorder) skipInit(skipInitTime *float64, skipInitIndex *int) int {
	skip := 0
	if skipInitTime != nil {
		skip = r.indexAfterTime(*skipInitTime)
	}
	if skipInitIndex != nil && *skipInitIndex > skip {
		skip = *skipInitIndex
	}
	return skip
}

func (r *Recorder) indexAfterTime(t float64) int {
	for i, v := range r.Times {
		if v > t {
			return i
		}
	}
	return len(r.Times)
}

// TimeAverage computes the time-weighted average count series, skipping the
// transient prefix identified by skipInit. values must have one entry per
// TimeLengths entry (i.e. len(Times)-1).
func (r *Recorder) TimeAverage(values []int, skipInitTime *float64, skipInitIndex *int) (float64, error) {
	if len(values) != len(r.TimeLengths) {
		return 0, fmt.Errorf("trace: values length %d does not match time_lengths length %d", len(values), len(r.TimeLengths))
	}
	skip := r.skipInit(skipInitTime, skipInitIndex)
	if skip >= len(values) {
		return 0, fmt.Errorf("trace: skip_init %d skips the entire trace (length %d)", skip, len(values))
	}
	var weighted, total float64
	for i := skip; i < len(values); i++ {
		weighted += float64(values[i]) * r.TimeLengths[i]
		total += r.TimeLengths[i]
	}
	if total == 0 {
		return 0, nil
	}
	return weighted / total, nil
}

// ValueFraction computes, for each distinct value in values (after skipping
// the transient prefix), the fraction of total elapsed time spent at that
// value. Returned in the order values are first encountered.
func (r *Recorder) ValueFraction(values []string, skipInitTime *float64, skipInitIndex *int) ([]string, []float64, error) {
	if len(values) != len(r.TimeLengths) {
		return nil, nil, fmt.Errorf("trace: values length %d does not match time_lengths length %d", len(values), len(r.TimeLengths))
	}
	skip := r.skipInit(skipInitTime, skipInitIndex)
	if skip >= len(values) {
		return nil, nil, fmt.Errorf("trace: skip_init %d skips the entire trace (length %d)", skip, len(values))
	}

	order := []string{}
	totals := map[string]float64{}
	var grandTotal float64
	for i := skip; i < len(values); i++ {
		v := values[i]
		if _, ok := totals[v]; !ok {
			order = append(order, v)
		}
		totals[v] += r.TimeLengths[i]
		grandTotal += r.TimeLengths[i]
	}
	fractions := make([]float64, len(order))
	for i, v := range order {
		if grandTotal > 0 {
			fractions[i] = totals[v] / grandTotal
		}
	}
	return order, fractions, nil
}
