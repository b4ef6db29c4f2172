package engine

import "fmt"

// PhaseAbortedError is the run-level fatal error raised when a
// phase-critical task fails or the run context is cancelled. A task
// failure names the failing task; a cancellation leaves TaskID empty and
// names only the phase the run stopped at. No further phases execute
// after it is raised.
type PhaseAbortedError struct {
	PhaseID string
	TaskID  string
	Cause   error
}

// Error implements the error interface.
func (e *PhaseAbortedError) Error() string {
	if e.TaskID == "" {
		if e.Cause != nil {
			return fmt.Sprintf("run aborted: cancelled at phase %q: %v", e.PhaseID, e.Cause)
		}
		return fmt.Sprintf("run aborted: cancelled at phase %q", e.PhaseID)
	}
	if e.Cause != nil {
		return fmt.Sprintf("run aborted: task %q failed in phase %q: %v", e.TaskID, e.PhaseID, e.Cause)
	}
	return fmt.Sprintf("run aborted: task %q failed in phase %q", e.TaskID, e.PhaseID)
}

// Reason returns the token carried in the run status of an aborted run:
// the failing task identifier, or "cancelled" when the run was cancelled.
func (e *PhaseAbortedError) Reason() string {
	if e.TaskID == "" {
		return "cancelled"
	}
	return e.TaskID
}

// Unwrap returns the failure that triggered the abort.
func (e *PhaseAbortedError) Unwrap() error {
	return e.Cause
}
