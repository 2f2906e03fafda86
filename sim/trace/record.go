package trace

// Transition is an ordered pair of states observed back-to-back in a
// recorded state sequence.
type Transition struct {
	From, To string
}

// AnalyzeStates walks a recorded sequence of state labels (one per
// TimeLengths entry) and groups the elapsed time into contiguous runs of
// the same value, returning per-state residence-time samples and
// per-transition-pair dwell times preceding each transition.
func (r *Recorder) AnalyzeStates(values []string, skipInitTime *float64, skipInitIndex *int) (residence map[string][]float64, transitions map[Transition][]float64) {
	skip := r.skipInit(skipInitTime, skipInitIndex)
	residence = map[string][]float64{}
	transitions = map[Transition][]float64{}

	vals := values[skip:]
	lengths := r.TimeLengths[skip:]
	if len(vals) == 0 {
		return residence, transitions
	}

	curSum := lengths[0]
	for i := 1; i < len(vals); i++ {
		if vals[i] == vals[i-1] {
			curSum += lengths[i]
			continue
		}
		residence[vals[i-1]] = append(residence[vals[i-1]], curSum)
		transitions[Transition{From: vals[i-1], To: vals[i]}] = append(transitions[Transition{From: vals[i-1], To: vals[i]}], curSum)
		curSum = lengths[i]
	}
	return residence, transitions
}

// AverageResidenceTimes reduces AnalyzeStates' residence samples to a mean
// per state.
func (r *Recorder) AverageResidenceTimes(values []string, skipInitTime *float64, skipInitIndex *int) map[string]float64 {
	residence, _ := r.AnalyzeStates(values, skipInitTime, skipInitIndex)
	avgs := make(map[string]float64, len(residence))
	for state, samples := range residence {
		var sum float64
		for _, v := range samples {
			sum += v
		}
		avgs[state] = sum / float64(len(samples))
	}
	return avgs
}

// RequestStateCounts tallies, for each distinct value of a caller-supplied
// per-step classification (hist_states in the reference accounting), how
// many cold-start, warm-start, and rejected requests occurred while the
// system was in that state.
//
// Rejections are folded into the warm bucket (and so into Total and
// ColdRatio) as well as tallied in Rejected. This mirrors the reference
// accounting exactly and is
// preserved deliberately: Rejected is still populated correctly below so
// callers that need the true rejection breakdown are not blocked, but the
// Warm field includes rejections for parity with existing reports.
type RequestStateCounts struct {
	State     string
	Cold      int
	Warm      int
	Rejected  int
	Total     int
	ColdRatio float64
}

// CountRequestStates classifies each cold/warm/reject index recorded by the
// Recorder by the state the system was in at that index (per histStates,
// one entry per Times index) and returns one RequestStateCounts per
// distinct state observed after skipInit.
func (r *Recorder) CountRequestStates(histStates []string, skipInitTime *float64, skipInitIndex *int) []RequestStateCounts {
	skip := r.skipInit(skipInitTime, skipInitIndex)

	order := []string{}
	cold := map[string]int{}
	warm := map[string]int{}
	rej := map[string]int{}
	for _, s := range histStates[skip:] {
		if _, ok := cold[s]; !ok {
			order = append(order, s)
			cold[s] = 0
			warm[s] = 0
			rej[s] = 0
		}
	}

	filterAfter := func(idxs []int) []int {
		out := make([]int, 0, len(idxs))
		for _, i := range idxs {
			if i >= skip {
				out = append(out, i)
			}
		}
		return out
	}

	for _, idx := range filterAfter(r.ColdIdxs) {
		cold[histStates[idx]]++
	}
	for _, idx := range filterAfter(r.WarmIdxs) {
		warm[histStates[idx]]++
	}
	for _, idx := range filterAfter(r.RejectIdxs) {
		// Folded into warm, matching the reference accounting bug exactly.
		warm[histStates[idx]]++
		rej[histStates[idx]]++
	}

	out := make([]RequestStateCounts, 0, len(order))
	for _, s := range order {
		total := cold[s] + warm[s]
		ratio := 0.0
		if total > 0 {
			ratio = float64(cold[s]) / float64(total)
		}
		out = append(out, RequestStateCounts{
			State:     s,
			Cold:      cold[s],
			Warm:      warm[s],
			Rejected:  rej[s],
			Total:     total,
			ColdRatio: ratio,
		})
	}
	return out
}
