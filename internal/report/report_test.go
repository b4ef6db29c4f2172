package report

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compass-engine/compass/internal/conflict"
	"github.com/compass-engine/compass/internal/task"
)

// TestReport_Counters tests that summary counters track results by status
// and survive an overwrite from a group retry.
func TestReport_Counters(t *testing.T) {
	r := New("req", nil)

	r.AddResult(&task.Result{TaskID: "a", Status: task.StatusSuccess})
	r.AddResult(&task.Result{TaskID: "b", Status: task.StatusFailure})
	r.AddResult(&task.Result{TaskID: "c", Status: task.StatusSkipped})
	r.AddResult(&task.Result{TaskID: "d", Status: task.StatusCancelled})

	assert.Equal(t, 1, r.TasksExecuted)
	assert.Equal(t, 1, r.TasksFailed)
	assert.Equal(t, 1, r.TasksSkipped)
	assert.Equal(t, 1, r.TasksCancelled)
	assert.Equal(t, len(r.Tasks), r.TasksExecuted+r.TasksFailed+r.TasksSkipped+r.TasksCancelled)

	// A retried group overwrites its member results; counters must not
	// double-count.
	r.AddResult(&task.Result{TaskID: "b", Status: task.StatusSuccess, Attempts: 2})
	assert.Equal(t, 2, r.TasksExecuted)
	assert.Equal(t, 0, r.TasksFailed)
	assert.Equal(t, 2, r.Tasks["b"].Attempts)

	r.AddResult(&task.Result{TaskID: "d", Status: task.StatusSuccess})
	assert.Equal(t, 0, r.TasksCancelled)
	assert.Equal(t, 3, r.TasksExecuted)
}

// TestReport_PhaseTracking tests phase registration and progress updates.
func TestReport_PhaseTracking(t *testing.T) {
	r := New("req", nil)
	r.TrackPhase("p1", "One")
	r.TrackPhase("p2", "Two")

	assert.Equal(t, PhasePending, r.Phases[0].Progress)

	r.SetPhaseProgress("p1", PhaseCompleted)
	r.SetPhaseProgress("p2", PhaseAborted)
	r.SetPhaseProgress("p3", PhaseRunning) // unknown phase is ignored

	assert.Equal(t, PhaseCompleted, r.Phases[0].Progress)
	assert.Equal(t, PhaseAborted, r.Phases[1].Progress)
	assert.Len(t, r.Phases, 2)
}

// TestReport_UnresolvedConflicts tests filtering of the conflict set.
func TestReport_UnresolvedConflicts(t *testing.T) {
	r := New("req", nil)
	r.AddConflicts([]conflict.Conflict{
		{ID: "c1", Status: conflict.StatusResolved},
		{ID: "c2", Status: conflict.StatusUnresolved},
	})

	open := r.UnresolvedConflicts()
	require.Len(t, open, 1)
	assert.Equal(t, "c2", open[0].ID)
}

// TestAbortedStatus tests the aborted status format.
func TestAbortedStatus(t *testing.T) {
	assert.Equal(t, "aborted:knowledge-query", AbortedStatus("knowledge-query"))
}

// TestReport_ToJSON tests that the rendered report is valid JSON carrying
// the task results.
func TestReport_ToJSON(t *testing.T) {
	r := New("req", []string{"authentication"})
	r.AddResult(&task.Result{TaskID: "a", Status: task.StatusSuccess, Payload: map[string]any{"out": "x"}})
	r.Status = StatusCompleted
	r.Finish()

	data, err := r.ToJSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "completed", decoded["status"])
	assert.Equal(t, "req", decoded["request"])

	tasks, ok := decoded["tasks"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, tasks, "a")
}

// TestReport_ToYAML tests the YAML rendering path.
func TestReport_ToYAML(t *testing.T) {
	r := New("req", nil)
	r.Status = StatusCompleted
	r.Finish()

	data, err := r.ToYAML()
	require.NoError(t, err)
	assert.Contains(t, string(data), "status: completed")
}
