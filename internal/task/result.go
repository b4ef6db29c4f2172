package task

import (
	"time"

	"github.com/compass-engine/compass/internal/types"
)

// Status represents the terminal state of a single task invocation.
type Status string

const (
	// StatusSuccess indicates the task completed and produced a payload.
	StatusSuccess Status = "success"

	// StatusFailure indicates the task returned an error.
	StatusFailure Status = "failure"

	// StatusSkipped indicates the task's activation condition was not met.
	StatusSkipped Status = "skipped-by-condition"

	// StatusCancelled indicates the task observed the cancellation signal
	// before completing.
	StatusCancelled Status = "cancelled"
)

// IsTerminal returns true for every defined status; a task that has a
// status recorded has reached a terminal state.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSuccess, StatusFailure, StatusSkipped, StatusCancelled:
		return true
	default:
		return false
	}
}

// Result is the recorded outcome of one task invocation. It is written
// exactly once by the orchestrator and never mutated after being stored
// into the aggregate report.
type Result struct {
	// TaskID is the identifier of the task spec that produced this result.
	TaskID string `json:"task_id"`

	// Status is the terminal state of the invocation.
	Status Status `json:"status"`

	// Payload is the opaque structured output of a successful invocation.
	Payload map[string]any `json:"payload,omitempty"`

	// Error holds the structured failure for failed invocations.
	Error *types.CompassError `json:"error,omitempty"`

	// Attempts counts how many times the task was invoked, including
	// the group-level retry.
	Attempts int `json:"attempts"`

	// StartedAt is when the invocation began.
	StartedAt time.Time `json:"started_at"`

	// CompletedAt is when the invocation reached its terminal state.
	CompletedAt time.Time `json:"completed_at"`

	// Duration is CompletedAt minus StartedAt.
	Duration time.Duration `json:"duration"`
}

// Field returns a named payload field from a successful result.
func (r *Result) Field(name string) (any, bool) {
	if r == nil || r.Payload == nil {
		return nil, false
	}
	v, ok := r.Payload[name]
	return v, ok
}
