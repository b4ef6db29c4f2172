package usage

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compass-engine/compass/internal/task"
)

// TestTableEstimator_Weights tests that consumption scales with the
// request size and the per-task weight, with the default weight applied
// to unknown tasks.
func TestTableEstimator_Weights(t *testing.T) {
	e := NewTableEstimator(map[string]float64{"deep-analysis": 2.0})
	ec := task.NewExecutionContext(strings.Repeat("x", 400), nil)

	// base = 100, overhead = 20.
	assert.Equal(t, 220, e.Estimate("deep-analysis", ec))
	assert.Equal(t, 120, e.Estimate("unlisted", ec))
}

// TestTableEstimator_OverheadCap tests that the context overhead stops
// growing for very large requests.
func TestTableEstimator_OverheadCap(t *testing.T) {
	e := NewTableEstimator(nil)
	ec := task.NewExecutionContext(strings.Repeat("x", 40000), nil)

	// base = 10000, overhead capped at 500.
	assert.Equal(t, 10500, e.Estimate("anything", ec))
}

// TestGroupOverhead tests the parallel coordination surcharge.
func TestGroupOverhead(t *testing.T) {
	assert.Equal(t, 100, GroupOverhead(1000))
	assert.Equal(t, 0, GroupOverhead(0))
}

// TestTracker_Summary tests per-task and per-phase attribution and the
// derived sequential baseline and cost.
func TestTracker_Summary(t *testing.T) {
	tr := NewTracker()
	tr.Record("p1", "a", 100)
	tr.Record("p2", "b", 200)
	tr.Record("p2", "c", 300)
	tr.RecordCoordination("p2", 50)

	s := tr.Summary()
	require.NotNil(t, s)
	assert.Equal(t, 650, s.TotalTokens)
	assert.Equal(t, 100, s.ByTask["a"])
	assert.Equal(t, 550, s.ByPhase["p2"])
	assert.Equal(t, 50, s.CoordinationOverhead)
	assert.Equal(t, 600, s.SequentialEstimate)
	assert.InDelta(t, 8.33, s.OverheadPercent, 0.01)
	assert.InDelta(t, 0.0065, s.EstimatedCostUSD, 1e-9)
}

// TestTracker_IgnoresNonPositive tests that zero and negative amounts do
// not disturb the aggregate.
func TestTracker_IgnoresNonPositive(t *testing.T) {
	tr := NewTracker()
	tr.Record("p1", "a", 0)
	tr.RecordCoordination("p1", -5)

	s := tr.Summary()
	assert.Zero(t, s.TotalTokens)
	assert.Empty(t, s.ByTask)
}

// TestTracker_Concurrent tests that concurrent recording is tallied
// without loss.
func TestTracker_Concurrent(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Record("p1", "a", 10)
		}()
	}
	wg.Wait()

	assert.Equal(t, 500, tr.Summary().TotalTokens)
}
