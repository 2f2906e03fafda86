package api

import (
	"context"
	"encoding/json"
	"math"
	"net/http"

	"github.com/pacslab/faas-sim/sim"
	"github.com/pacslab/faas-sim/sim/trace"
)

// singleSimRequest mirrors the reference single-simulation request body:
// service times in seconds, converted internally to exponential rates.
type singleSimRequest struct {
	ArrivalRate         float64 `json:"arrival_rate"`
	WarmServiceTime     float64 `json:"warm_service_time"`
	ColdServiceTime     float64 `json:"cold_service_time"`
	ExpirationThreshold float64 `json:"expiration_threshold"`
	MaxTime             float64 `json:"max_time"`
}

func (req *singleSimRequest) applyDefaults() {
	if req.ArrivalRate == 0 {
		req.ArrivalRate = 1
	}
	if req.WarmServiceTime == 0 {
		req.WarmServiceTime = 1
	}
	if req.ColdServiceTime == 0 {
		req.ColdServiceTime = 1
	}
	if req.ExpirationThreshold == 0 {
		req.ExpirationThreshold = 600
	}
	if req.MaxTime == 0 {
		req.MaxTime = 1e5
	}
}

// validate enforces the reference bounds: arrival rate in (0, 10], service
// times in (0, 1000], max_time in (0, 1e6].
func (req singleSimRequest) validate() error {
	switch {
	case req.ArrivalRate <= 0 || req.ArrivalRate > 10:
		return errInvalidField("arrival_rate must be in (0, 10]")
	case req.WarmServiceTime <= 0 || req.WarmServiceTime > 1000:
		return errInvalidField("warm_service_time must be in (0, 1000]")
	case req.ColdServiceTime <= 0 || req.ColdServiceTime > 1000:
		return errInvalidField("cold_service_time must be in (0, 1000]")
	case req.ExpirationThreshold <= 0:
		return errInvalidField("expiration_threshold must be positive")
	case req.MaxTime <= 0 || req.MaxTime > 1e6:
		return errInvalidField("max_time must be in (0, 1e6]")
	}
	return nil
}

type fieldError string

func (e fieldError) Error() string { return string(e) }

func errInvalidField(msg string) error { return fieldError(msg) }

func (s *Server) handleSingle(w http.ResponseWriter, r *http.Request) {
	var req singleSimRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.applyDefaults()
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	warmRate := 1 / req.WarmServiceTime
	coldRate := 1 / req.ColdServiceTime
	cfg := sim.DefaultEngineConfig()
	cfg.Arrival = sim.ProcessSpec{Kind: sim.ProcessExponential, Rate: &req.ArrivalRate}
	cfg.Warm = sim.ProcessSpec{Kind: sim.ProcessExponential, Rate: &warmRate}
	cfg.Cold = sim.ProcessSpec{Kind: sim.ProcessExponential, Rate: &coldRate}
	cfg.ExpirationThreshold = req.ExpirationThreshold
	cfg.MaxTime = req.MaxTime

	engine, err := sim.NewEngine(cfg)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s.progressGauge.Set(0)
	result, err := engine.Run(r.Context(), func(ratio float64) { s.progressGauge.Set(ratio) })
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.runsTotal.Inc()

	resp := result.Report.ToMap()
	resp["arrival_rate"] = req.ArrivalRate
	resp["warm_service_time"] = req.WarmServiceTime
	resp["cold_service_time"] = req.ColdServiceTime
	resp["expiration_threshold"] = req.ExpirationThreshold
	resp["max_time"] = req.MaxTime
	sampledTimes, sampledCounts, sampledAvgs := sampleInstanceHistory(result.Recorder, 20)
	resp["sampled_hist_times"] = sampledTimes
	resp["sampled_hist_inst_counts"] = sampledCounts
	resp["sampled_hist_inst_avgs"] = sampledAvgs
	writeJSON(w, http.StatusOK, resp)
}

// overallSimRequest mirrors the reference overall-simulation request body:
// a grid is swept across a fixed set of arrival rates and expiration
// thresholds using the supplied service times.
type overallSimRequest struct {
	WarmServiceTime     float64 `json:"warm_service_time"`
	ColdServiceTime     float64 `json:"cold_service_time"`
	ExpirationThreshold float64 `json:"expiration_threshold"`
	MaxTime             float64 `json:"max_time"`
}

func (req *overallSimRequest) applyDefaults() {
	if req.WarmServiceTime == 0 {
		req.WarmServiceTime = 1
	}
	if req.ColdServiceTime == 0 {
		req.ColdServiceTime = 1
	}
	if req.MaxTime == 0 {
		req.MaxTime = 1e3
	}
}

func (req overallSimRequest) validate() error {
	switch {
	case req.WarmServiceTime <= 0 || req.WarmServiceTime > 1000:
		return errInvalidField("warm_service_time must be in (0, 1000]")
	case req.ColdServiceTime <= 0 || req.ColdServiceTime > 1000:
		return errInvalidField("cold_service_time must be in (0, 1000]")
	case req.MaxTime <= 0 || req.MaxTime > 1e3:
		return errInvalidField("max_time must be in (0, 1e3]")
	}
	return nil
}

var overallArrivalRates = logspace(-3, 1, 10)
var overallThresholds = []float64{10, 60, 600, 1200, 1800}

// logspace returns n values evenly spaced on a log10 scale between
// 10^start and 10^stop, inclusive.
func logspace(start, stop float64, n int) []float64 {
	vals := make([]float64, n)
	if n == 1 {
		vals[0] = math.Pow(10, start)
		return vals
	}
	step := (stop - start) / float64(n-1)
	for i := 0; i < n; i++ {
		vals[i] = math.Pow(10, start+step*float64(i))
	}
	return vals
}

func (s *Server) handleOverall(w http.ResponseWriter, r *http.Request) {
	var req overallSimRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.applyDefaults()
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	warmRate := 1 / req.WarmServiceTime
	coldRate := 1 / req.ColdServiceTime

	var coldStartPct, utilizationPct []any
	for _, rate := range overallArrivalRates {
		for _, threshold := range overallThresholds {
			rate, threshold := rate, threshold
			cfg := sim.DefaultEngineConfig()
			cfg.Arrival = sim.ProcessSpec{Kind: sim.ProcessExponential, Rate: &rate}
			cfg.Warm = sim.ProcessSpec{Kind: sim.ProcessExponential, Rate: &warmRate}
			cfg.Cold = sim.ProcessSpec{Kind: sim.ProcessExponential, Rate: &coldRate}
			cfg.ExpirationThreshold = threshold
			cfg.MaxTime = req.MaxTime

			engine, err := sim.NewEngine(cfg)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			result, err := s.runWithContext(r.Context(), engine)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}

			utilization := result.Report.InstRunningCountAvg / result.Report.InstCountAvg * 100
			var coldCell, utilCell any
			if !math.IsNaN(result.Report.ProbCold) {
				coldCell = round6(result.Report.ProbCold * 100)
			}
			if !math.IsNaN(utilization) {
				utilCell = round6(utilization)
			}
			coldStartPct = append(coldStartPct, coldCell)
			utilizationPct = append(utilizationPct, utilCell)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"warm_service_time":   req.WarmServiceTime,
		"cold_service_time":   req.ColdServiceTime,
		"max_time":            req.MaxTime,
		"prob_cold_percent":   coldStartPct,
		"utilization_percent": utilizationPct,
	})
}

func (s *Server) runWithContext(ctx context.Context, engine *sim.Engine) (sim.Result, error) {
	result, err := engine.Run(ctx, nil)
	if err == nil {
		s.runsTotal.Inc()
	}
	return result, err
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// sampleInstanceHistory downsamples a run's instance-count trace to at most
// maxPoints evenly spaced samples, for embedding in a response body instead
// of the full per-step history. The first sample is forced to t=0, and
// sampledAvgs is the cumulative running average of sampledCounts up to each
// point, matching the reference dashboard's "Average Estimate" series.
func sampleInstanceHistory(r *trace.Recorder, maxPoints int) (times, counts, avgs []float64) {
	n := len(r.ServerCount)
	if n == 0 {
		return nil, nil, nil
	}
	step := (n + maxPoints - 1) / maxPoints
	if step < 1 {
		step = 1
	}

	var cum float64
	for i := 0; i < n; i += step {
		t := r.Times[i]
		if i == 0 {
			t = 0
		}
		times = append(times, t)
		counts = append(counts, float64(r.ServerCount[i]))
		cum += float64(r.ServerCount[i])
		avgs = append(avgs, cum/float64(len(counts)))
	}
	return times, counts, avgs
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
