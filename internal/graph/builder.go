package graph

import (
	"fmt"
	"strings"
)

// GraphDefinitionError reports every violation found while validating a
// graph definition, not just the first, so configuration bugs are
// discoverable in one pass. It is fatal and never retried.
type GraphDefinitionError struct {
	Violations []string
}

// Error implements the error interface, listing all violations.
func (e *GraphDefinitionError) Error() string {
	return fmt.Sprintf("invalid graph definition (%d violations): %s",
		len(e.Violations), strings.Join(e.Violations, "; "))
}

// Builder accumulates phase declarations and validates them as a whole at
// Build() time, in the manner of a fluent workflow builder.
type Builder struct {
	phases []Phase
}

// NewBuilder creates an empty graph builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddPhase appends a phase declaration. Declaration order defines phase
// ordering; validation happens at Build.
func (b *Builder) AddPhase(p Phase) *Builder {
	b.phases = append(b.phases, p)
	return b
}

// Build validates the accumulated declarations and returns the immutable
// graph. It checks that:
//   - at least one phase is declared, and phase IDs are unique
//   - every predecessor references an earlier-declared phase (which makes
//     the predecessor relation acyclic by construction)
//   - no task spec ID is duplicated anywhere in the graph
//   - every spec wraps a non-nil Task
//   - domain conditions carry at least one domain tag
//   - every parallel group's members are specs of its own phase, and no
//     member is listed twice
//
// All violations are collected into a single GraphDefinitionError.
func (b *Builder) Build() (*Graph, error) {
	var violations []string

	if len(b.phases) == 0 {
		violations = append(violations, "graph must declare at least one phase")
	}

	declared := make(map[string]int, len(b.phases)) // phase ID -> declaration index
	specs := make(map[string]TaskSpec)

	for i, phase := range b.phases {
		if phase.ID == "" {
			violations = append(violations, fmt.Sprintf("phase at index %d has no ID", i))
			continue
		}
		if _, dup := declared[phase.ID]; dup {
			violations = append(violations, fmt.Sprintf("phase %q declared more than once", phase.ID))
			continue
		}
		declared[phase.ID] = i

		for _, pred := range phase.Predecessors {
			predIdx, known := declared[pred]
			if !known {
				violations = append(violations,
					fmt.Sprintf("phase %q references unknown or later-declared predecessor %q", phase.ID, pred))
				continue
			}
			if predIdx == i {
				violations = append(violations,
					fmt.Sprintf("phase %q lists itself as a predecessor", phase.ID))
			}
		}

		members := make(map[string]struct{}, len(phase.Tasks))
		for _, spec := range phase.Tasks {
			if spec.ID == "" {
				violations = append(violations,
					fmt.Sprintf("phase %q contains a task spec with no ID", phase.ID))
				continue
			}
			if _, dup := specs[spec.ID]; dup {
				violations = append(violations,
					fmt.Sprintf("task spec %q is duplicated", spec.ID))
				continue
			}
			if spec.Task == nil {
				violations = append(violations,
					fmt.Sprintf("task spec %q wraps a nil task", spec.ID))
			}
			if spec.Condition.Kind == ConditionDomain && len(spec.Condition.Domains) == 0 {
				violations = append(violations,
					fmt.Sprintf("task spec %q has a domain condition with no domains", spec.ID))
			}
			specs[spec.ID] = spec
			members[spec.ID] = struct{}{}
		}

		for _, group := range phase.Groups {
			if group.ID == "" {
				violations = append(violations,
					fmt.Sprintf("phase %q contains a parallel group with no ID", phase.ID))
			}
			seen := make(map[string]struct{}, len(group.Members))
			for _, member := range group.Members {
				if _, ok := members[member]; !ok {
					violations = append(violations,
						fmt.Sprintf("group %q references task %q which is not a member of phase %q",
							group.ID, member, phase.ID))
				}
				if _, dup := seen[member]; dup {
					violations = append(violations,
						fmt.Sprintf("group %q lists task %q more than once", group.ID, member))
				}
				seen[member] = struct{}{}
			}
		}
	}

	if len(violations) > 0 {
		return nil, &GraphDefinitionError{Violations: violations}
	}

	phases := make([]Phase, len(b.phases))
	copy(phases, b.phases)

	return &Graph{
		phases: phases,
		specs:  specs,
	}, nil
}
