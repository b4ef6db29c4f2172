// Package usage estimates and aggregates the token budget consumed by an
// orchestrator run. Tasks never report real token counts; consumption is
// modeled from the request size and a per-task weight, tracked per task
// and per phase, with a coordination surcharge for parallel groups. The
// aggregate feeds the cost section of the final report.
package usage

import (
	"sync"

	"github.com/compass-engine/compass/internal/task"
)

const (
	// charsPerToken approximates tokens from request length.
	charsPerToken = 4

	// contextOverheadCap bounds the per-task context overhead in tokens.
	contextOverheadCap = 500

	// coordinationRate is the surcharge a parallel group pays on top of
	// its members' combined consumption.
	coordinationRate = 0.10

	// costPerToken converts tokens to an estimated dollar cost.
	costPerToken = 0.00001
)

// Estimator models the token consumption of one task invocation.
type Estimator interface {
	Estimate(taskID string, ec *task.ExecutionContext) int
}

// EstimatorFunc adapts a plain function to the Estimator interface.
type EstimatorFunc func(taskID string, ec *task.ExecutionContext) int

// Estimate implements Estimator.
func (f EstimatorFunc) Estimate(taskID string, ec *task.ExecutionContext) int {
	return f(taskID, ec)
}

// TableEstimator derives a task's consumption from the request size scaled
// by a per-task weight, plus a capped context overhead. Tasks without an
// entry in the table weigh 1.0.
type TableEstimator struct {
	weights map[string]float64
}

// NewTableEstimator creates a TableEstimator over the given weight table.
func NewTableEstimator(weights map[string]float64) *TableEstimator {
	w := make(map[string]float64, len(weights))
	for id, m := range weights {
		w[id] = m
	}
	return &TableEstimator{weights: w}
}

// Estimate implements Estimator.
func (e *TableEstimator) Estimate(taskID string, ec *task.ExecutionContext) int {
	base := len(ec.Request()) / charsPerToken
	weight, ok := e.weights[taskID]
	if !ok {
		weight = 1.0
	}

	overhead := base / 5
	if overhead > contextOverheadCap {
		overhead = contextOverheadCap
	}
	return int(float64(base)*weight) + overhead
}

// GroupOverhead returns the coordination surcharge for a parallel group
// whose members consumed the given total.
func GroupOverhead(memberTotal int) int {
	return int(float64(memberTotal) * coordinationRate)
}

// Tracker accumulates token consumption across one run. It is safe for
// concurrent use; the orchestrator records group members from multiple
// goroutines.
type Tracker struct {
	mu           sync.Mutex
	total        int
	byTask       map[string]int
	byPhase      map[string]int
	coordination int
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		byTask:  make(map[string]int),
		byPhase: make(map[string]int),
	}
}

// Record attributes tokens to one task within one phase.
func (t *Tracker) Record(phaseID, taskID string, tokens int) {
	if tokens <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.total += tokens
	t.byTask[taskID] += tokens
	t.byPhase[phaseID] += tokens
}

// RecordCoordination attributes a parallel group's coordination surcharge
// to its phase.
func (t *Tracker) RecordCoordination(phaseID string, tokens int) {
	if tokens <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.total += tokens
	t.byPhase[phaseID] += tokens
	t.coordination += tokens
}

// Summary is the aggregated consumption of one run. SequentialEstimate is
// what the same tasks would have consumed without parallel coordination;
// OverheadPercent relates the surcharge to that baseline.
type Summary struct {
	TotalTokens          int            `json:"total_tokens" yaml:"total_tokens"`
	ByTask               map[string]int `json:"by_task,omitempty" yaml:"by_task,omitempty"`
	ByPhase              map[string]int `json:"by_phase,omitempty" yaml:"by_phase,omitempty"`
	CoordinationOverhead int            `json:"coordination_overhead" yaml:"coordination_overhead"`
	SequentialEstimate   int            `json:"sequential_estimate" yaml:"sequential_estimate"`
	OverheadPercent      float64        `json:"overhead_percent" yaml:"overhead_percent"`
	EstimatedCostUSD     float64        `json:"estimated_cost_usd" yaml:"estimated_cost_usd"`
}

// Summary snapshots the tracker into an immutable Summary.
func (t *Tracker) Summary() *Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	byTask := make(map[string]int, len(t.byTask))
	for id, n := range t.byTask {
		byTask[id] = n
	}
	byPhase := make(map[string]int, len(t.byPhase))
	for id, n := range t.byPhase {
		byPhase[id] = n
	}

	sequential := t.total - t.coordination
	s := &Summary{
		TotalTokens:          t.total,
		ByTask:               byTask,
		ByPhase:              byPhase,
		CoordinationOverhead: t.coordination,
		SequentialEstimate:   sequential,
		EstimatedCostUSD:     float64(t.total) * costPerToken,
	}
	if sequential > 0 {
		s.OverheadPercent = float64(t.coordination) / float64(sequential) * 100
	}
	return s
}
