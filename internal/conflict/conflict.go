// Package conflict detects contradictions between the results of a
// completed parallel group and routes them to an arbitration task for a
// synthesized decision.
package conflict

import "fmt"

// ResolutionStatus tracks whether a conflict has been arbitrated.
type ResolutionStatus string

const (
	StatusUnresolved ResolutionStatus = "unresolved"
	StatusResolved   ResolutionStatus = "resolved"
)

// Conflict is a detected contradiction between two results from the same
// parallel group. The ID is derived deterministically from the group, the
// contested field, and the participating tasks, so identical result sets
// always produce identical conflicts.
type Conflict struct {
	// ID is the deterministic conflict identifier.
	ID string `json:"id"`

	// GroupID names the parallel group the conflicting results came from.
	GroupID string `json:"group_id"`

	// Field is the payload field flagged as contradictory.
	Field string `json:"field"`

	// TaskIDs are the conflicting tasks, sorted lexicographically.
	TaskIDs []string `json:"task_ids"`

	// Values maps each task ID to its value for the contested field.
	Values map[string]any `json:"values"`

	// Status is unresolved until arbitration succeeds.
	Status ResolutionStatus `json:"status"`

	// Resolution is the arbitration task's synthesized decision payload.
	Resolution map[string]any `json:"resolution,omitempty"`

	// Rationale is the arbitration task's explanation of the decision.
	Rationale string `json:"rationale,omitempty"`
}

// conflictID builds the deterministic identifier for a detected conflict.
func conflictID(groupID, field, taskA, taskB string) string {
	return fmt.Sprintf("%s/%s:%s|%s", groupID, field, taskA, taskB)
}
