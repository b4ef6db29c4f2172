// Package graph defines the static phase graph the orchestrator walks:
// ordered phases, their task membership, intra-phase parallel groups, and
// inter-phase dependency edges. A graph is validated exhaustively at build
// time and immutable afterwards.
package graph

import (
	"github.com/compass-engine/compass/internal/task"
)

// ConditionKind distinguishes activation conditions on a task spec.
type ConditionKind string

const (
	// ConditionAlways activates the task unconditionally.
	ConditionAlways ConditionKind = "always"

	// ConditionDomain activates the task only when at least one of its
	// domain tags was detected upstream.
	ConditionDomain ConditionKind = "domain"
)

// Condition is a task spec's activation condition.
type Condition struct {
	Kind    ConditionKind `json:"kind"`
	Domains []string      `json:"domains,omitempty"`
}

// Always returns the unconditional activation condition.
func Always() Condition {
	return Condition{Kind: ConditionAlways}
}

// WhenDomain returns a condition that activates when any of the given
// domain tags was detected.
func WhenDomain(domains ...string) Condition {
	return Condition{Kind: ConditionDomain, Domains: domains}
}

// Matches evaluates the condition against the detected domain set.
func (c Condition) Matches(ec *task.ExecutionContext) bool {
	if c.Kind != ConditionDomain {
		return true
	}
	for _, d := range c.Domains {
		if ec.HasDomain(d) {
			return true
		}
	}
	return false
}

// TaskSpec is the declarative definition of a task within the graph:
// identity, activation condition, failure classification, optional
// validation gating, and the Task it wraps. Specs are immutable once the
// graph is built.
type TaskSpec struct {
	// ID is the unique identifier for this spec across the whole graph.
	ID string `json:"id"`

	// Condition gates activation at dispatch time.
	Condition Condition `json:"condition"`

	// Critical marks the task phase-critical: its failure aborts the run.
	Critical bool `json:"critical"`

	// Resource, when non-empty, routes the task through the validation
	// gate for this resource identifier before execution.
	Resource string `json:"resource,omitempty"`

	// Task is the executable the spec wraps.
	Task task.Task `json:"-"`
}

// ParallelGroup names a set of task spec IDs that execute concurrently
// within their phase. All members must reach a terminal state before the
// group is considered complete.
type ParallelGroup struct {
	ID      string   `json:"id"`
	Members []string `json:"members"`
}

// Phase is one ordered stage of the methodology: its task specs, its
// parallel groups, and the phases that must complete before it starts.
// Specs not referenced by any group execute sequentially in declared
// order before the groups run.
type Phase struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Tasks        []TaskSpec      `json:"tasks"`
	Groups       []ParallelGroup `json:"groups,omitempty"`
	Predecessors []string        `json:"predecessors,omitempty"`
}

// SequentialSpecs returns the phase's specs that are not members of any
// parallel group, in declared order.
func (p Phase) SequentialSpecs() []TaskSpec {
	grouped := make(map[string]struct{})
	for _, g := range p.Groups {
		for _, id := range g.Members {
			grouped[id] = struct{}{}
		}
	}

	var out []TaskSpec
	for _, spec := range p.Tasks {
		if _, ok := grouped[spec.ID]; !ok {
			out = append(out, spec)
		}
	}
	return out
}

// GroupSpecs returns the specs for a group's members, in member order.
func (p Phase) GroupSpecs(g ParallelGroup) []TaskSpec {
	index := make(map[string]TaskSpec, len(p.Tasks))
	for _, spec := range p.Tasks {
		index[spec.ID] = spec
	}

	out := make([]TaskSpec, 0, len(g.Members))
	for _, id := range g.Members {
		if spec, ok := index[id]; ok {
			out = append(out, spec)
		}
	}
	return out
}

// Graph is the validated, immutable phase graph. Phases are stored in
// declaration order, which the build-time predecessor rule guarantees is
// also a topological order.
type Graph struct {
	phases []Phase
	specs  map[string]TaskSpec
}

// Phases returns the phases in topological (declaration) order. The
// returned slice is a copy; the graph itself cannot be modified.
func (g *Graph) Phases() []Phase {
	out := make([]Phase, len(g.phases))
	copy(out, g.phases)
	return out
}

// Spec looks up a task spec anywhere in the graph by ID.
func (g *Graph) Spec(id string) (TaskSpec, bool) {
	spec, ok := g.specs[id]
	return spec, ok
}

// TaskCount returns the total number of task specs in the graph.
func (g *Graph) TaskCount() int {
	return len(g.specs)
}
