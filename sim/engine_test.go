package sim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEngine_SameSeed_ProducesIdenticalReports(t *testing.T) {
	// GIVEN two engines built from the same seeded config
	cfg := validConfig()
	cfg.MaxTime = 2000
	cfg.Seed = 7

	e1, err := NewEngine(cfg)
	assert.NoError(t, err)
	e2, err := NewEngine(cfg)
	assert.NoError(t, err)

	// WHEN both are run to completion
	r1, err := e1.Run(context.Background(), nil)
	assert.NoError(t, err)
	r2, err := e2.Run(context.Background(), nil)
	assert.NoError(t, err)

	// THEN the reports are bit-for-bit identical
	assert.Equal(t, r1.Report, r2.Report)
}

func TestEngine_DifferentSeeds_ProduceDifferentReports(t *testing.T) {
	cfg := validConfig()
	cfg.MaxTime = 2000
	cfg.Seed = 1
	e1, _ := NewEngine(cfg)
	cfg.Seed = 2
	e2, _ := NewEngine(cfg)

	r1, err := e1.Run(context.Background(), nil)
	assert.NoError(t, err)
	r2, err := e2.Run(context.Background(), nil)
	assert.NoError(t, err)

	assert.NotEqual(t, r1.Report.ReqsTotal, r2.Report.ReqsTotal)
}

func TestEngine_MaximumConcurrencyOne_RejectsConcurrentArrivals(t *testing.T) {
	// GIVEN an engine where only one request may ever be in flight and a
	// constant warm service time much longer than the arrival interval
	cfg := validConfig()
	cfg.Arrival = ProcessSpec{Kind: ProcessConstant, Rate: ratePtr(1)}   // arrives every 1s
	cfg.Warm = ProcessSpec{Kind: ProcessConstant, Rate: ratePtr(0.01)}   // serves for 100s
	cfg.Cold = ProcessSpec{Kind: ProcessConstant, Rate: ratePtr(0.01)}
	cfg.MaximumConcurrency = 1
	cfg.MaxTime = 50
	cfg.Seed = 1

	e, err := NewEngine(cfg)
	assert.NoError(t, err)

	result, err := e.Run(context.Background(), nil)

	assert.NoError(t, err)
	assert.Greater(t, result.Report.ReqsReject, 0)
	assert.Equal(t, 1, result.Report.ReqsCold)
}

func TestEngine_Run_RespectsContextCancellation(t *testing.T) {
	cfg := validConfig()
	cfg.MaxTime = 1e9
	cfg.Seed = 1
	e, err := NewEngine(cfg)
	assert.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = e.Run(ctx, nil)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_Run_ReportsProgressMonotonically(t *testing.T) {
	cfg := validConfig()
	cfg.MaxTime = 500
	cfg.Seed = 3
	e, err := NewEngine(cfg)
	assert.NoError(t, err)

	var last float64
	progress := func(ratio float64) {
		assert.GreaterOrEqual(t, ratio, last)
		last = ratio
	}

	_, err = e.Run(context.Background(), progress)

	assert.NoError(t, err)
	assert.Equal(t, 1.0, last)
}

func TestNewTemporalEngine_PreseedsRunningAndIdleInstances(t *testing.T) {
	cfg := validConfig()
	cfg.MaxTime = 1

	e, err := NewTemporalEngine(cfg, 3, []float64{300, 300, 300, 300, 300})

	assert.NoError(t, err)
	assert.Equal(t, 8, e.serverCount)
	assert.Equal(t, 3, e.runningCount)
	assert.Equal(t, 5, e.idleCount)
}

func TestConcurrentEngine_SameSeed_ProducesIdenticalReports(t *testing.T) {
	cfg := validConfig()
	cfg.MaxTime = 2000
	cfg.ConcurrencyValue = 4
	cfg.Seed = 9

	e1, err := NewConcurrentEngine(cfg)
	assert.NoError(t, err)
	e2, err := NewConcurrentEngine(cfg)
	assert.NoError(t, err)

	r1, err := e1.Run(context.Background(), nil)
	assert.NoError(t, err)
	r2, err := e2.Run(context.Background(), nil)
	assert.NoError(t, err)

	assert.Equal(t, r1.Report, r2.Report)
	assert.True(t, r1.Report.HasConcLevelAvg)
}
