package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compass-engine/compass/internal/cache"
	"github.com/compass-engine/compass/internal/conflict"
	"github.com/compass-engine/compass/internal/engine"
	"github.com/compass-engine/compass/internal/ratelimit"
	"github.com/compass-engine/compass/internal/report"
	"github.com/compass-engine/compass/internal/task"
	"github.com/compass-engine/compass/internal/trigger"
	"github.com/compass-engine/compass/internal/validation"
)

// TestBuildGraph tests that the fixed methodology graph is well formed.
func TestBuildGraph(t *testing.T) {
	g, err := BuildGraph()
	require.NoError(t, err)

	phases := g.Phases()
	require.Len(t, phases, 6)
	assert.Equal(t, PhaseKnowledgeQuery, phases[0].ID)
	assert.Equal(t, PhaseCrossReference, phases[5].ID)

	for i, ph := range phases[1:] {
		assert.Equal(t, []string{phases[i].ID}, ph.Predecessors, "phases chain in order")
	}

	spec, ok := g.Spec(TaskKnowledgeQuery)
	require.True(t, ok)
	assert.True(t, spec.Critical)

	gated, ok := g.Spec(TaskDocReferenceValidation)
	require.True(t, ok)
	assert.Equal(t, ResourceDocStandards, gated.Resource)
}

func allowAllGate() (*validation.Gate, validation.CallFunc) {
	gate := validation.NewGate(
		cache.New(16),
		ratelimit.New(ratelimit.Config{Requests: 100, Window: time.Minute}),
	)
	call := func(ctx context.Context, resourceID string) (map[string]any, error) {
		return map[string]any{"severity": "low"}, nil
	}
	return gate, call
}

// TestCatalog_FullRun tests an end-to-end run of the methodology for an
// authentication request: the specialist disagrees with the core analyst
// and the second opinion settles the conflict deterministically.
func TestCatalog_FullRun(t *testing.T) {
	g, err := BuildGraph()
	require.NoError(t, err)

	gate, call := allowAllGate()
	o := engine.NewOrchestrator(
		engine.WithValidationGate(gate, call),
		engine.WithConflictDetector(DefaultDetector()),
		engine.WithConflictResolver(conflict.NewResolver(SecondOpinion(), nil)),
		engine.WithUsageEstimator(DefaultEstimator()),
	)

	ec := task.NewExecutionContext(
		"investigate the oauth login failures",
		[]string{trigger.DomainAuthentication},
	)
	rep, err := o.Run(context.Background(), g, ec)
	require.NoError(t, err)

	assert.Equal(t, report.StatusCompleted, rep.Status)

	assert.Equal(t, task.StatusSuccess, rep.Tasks[TaskEnhancedAnalysis].Status)
	assert.Equal(t, task.StatusSuccess, rep.Tasks[TaskAuthAnalyst].Status)
	assert.Equal(t, task.StatusSkipped, rep.Tasks[TaskDataFlowAnalyst].Status)
	assert.Equal(t, task.StatusSkipped, rep.Tasks[TaskPerformanceAnalyst].Status)
	assert.Equal(t, task.StatusSkipped, rep.Tasks[TaskWritingAnalyst].Status)
	assert.Equal(t, task.StatusSkipped, rep.Tasks[TaskDiagramValidation].Status)

	// holistic-review versus threat-model-first; the arbiter adopts the
	// lexicographically first task's position.
	require.Len(t, rep.Conflicts, 1)
	c := rep.Conflicts[0]
	assert.Equal(t, conflict.StatusResolved, c.Status)
	assert.Equal(t, "threat-model-first", c.Resolution[conflict.PayloadKeyDecision])
	assert.Empty(t, rep.UnresolvedConflicts())

	assert.NotEmpty(t, rep.Validations)
	for _, rec := range rep.Validations {
		assert.Equal(t, validation.DecisionAllow, rec.Decision)
	}

	// Skipped specialists cost nothing; every executed task is charged.
	require.NotNil(t, rep.Usage)
	assert.Positive(t, rep.Usage.TotalTokens)
	assert.Positive(t, rep.Usage.CoordinationOverhead)
	assert.NotContains(t, rep.Usage.ByTask, TaskDataFlowAnalyst)
	assert.Contains(t, rep.Usage.ByTask, TaskAuthAnalyst)
	assert.Greater(t, rep.Usage.ByTask[TaskEnhancedAnalysis], rep.Usage.ByTask[TaskDocPlanning],
		"the enhanced analysis pass carries the heaviest weight")
}

// TestCatalog_NoDomainsRun tests a run with no detected domains: every
// specialist is skipped and no conflicts arise.
func TestCatalog_NoDomainsRun(t *testing.T) {
	g, err := BuildGraph()
	require.NoError(t, err)

	gate, call := allowAllGate()
	o := engine.NewOrchestrator(
		engine.WithValidationGate(gate, call),
		engine.WithConflictDetector(DefaultDetector()),
		engine.WithConflictResolver(conflict.NewResolver(SecondOpinion(), nil)),
	)

	rep, err := o.Run(context.Background(), g, task.NewExecutionContext("investigate the crash", nil))
	require.NoError(t, err)

	assert.Equal(t, report.StatusCompleted, rep.Status)
	assert.Empty(t, rep.Conflicts)
	assert.Equal(t, 5, rep.TasksSkipped, "four specialists plus the diagram check")
	assert.Equal(t, task.StatusSkipped, rep.Tasks[TaskDiagramValidation].Status)
}

// TestSecondOpinion_AdoptsFirstTask tests the deterministic arbitration
// rule directly.
func TestSecondOpinion_AdoptsFirstTask(t *testing.T) {
	c := conflict.Conflict{
		ID:      "g/f:a|b",
		GroupID: "g",
		Field:   FieldRecommendedApproach,
		TaskIDs: []string{"beta-task", "alpha-task"},
		Values: map[string]any{
			"alpha-task": "A",
			"beta-task":  "B",
		},
		Status: conflict.StatusUnresolved,
	}

	ec := task.NewExecutionContext("req", nil).WithValue(conflict.ContextKey, c)
	payload, err := SecondOpinion().Run(context.Background(), ec)
	require.NoError(t, err)

	assert.Equal(t, "A", payload[conflict.PayloadKeyDecision], "task identifiers are sorted before adoption")
	assert.NotEmpty(t, payload[conflict.PayloadKeyRationale])
}

// TestSecondOpinion_NoConflictInContext tests the arbiter's behavior when
// invoked outside an arbitration.
func TestSecondOpinion_NoConflictInContext(t *testing.T) {
	payload, err := SecondOpinion().Run(context.Background(), task.NewExecutionContext("req", nil))
	require.NoError(t, err)
	assert.Nil(t, payload[conflict.PayloadKeyDecision])
}
