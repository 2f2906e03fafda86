package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunOnce_SameSeed_ProducesIdenticalReports(t *testing.T) {
	// GIVEN two identical configs sharing a seed
	cfgA := smallTestConfig()
	cfgB := smallTestConfig()

	// WHEN each is run independently
	reportA, errA := runOnce(t.Context(), cfgA, false)
	reportB, errB := runOnce(t.Context(), cfgB, false)

	// THEN the resulting reports are byte-for-byte identical
	assert.NoError(t, errA)
	assert.NoError(t, errB)
	assert.Equal(t, reportA, reportB)
}

func TestRunOnce_DifferentSeeds_ProduceDifferentReports(t *testing.T) {
	// GIVEN two configs differing only in seed
	cfgA := smallTestConfig()
	cfgB := smallTestConfig()
	cfgB.Seed = cfgA.Seed + 1

	// WHEN each is run
	reportA, errA := runOnce(t.Context(), cfgA, false)
	reportB, errB := runOnce(t.Context(), cfgB, false)

	// THEN at least one field diverges
	assert.NoError(t, errA)
	assert.NoError(t, errB)
	assert.NotEqual(t, reportA, reportB)
}
