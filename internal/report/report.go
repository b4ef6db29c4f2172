// Package report defines the structured hand-off artifact produced by an
// orchestrator run: per-task status and payload, detected conflicts with
// their resolution state, validation records with decisions, per-phase
// progress, and the overall run status.
package report

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/compass-engine/compass/internal/conflict"
	"github.com/compass-engine/compass/internal/task"
	"github.com/compass-engine/compass/internal/types"
	"github.com/compass-engine/compass/internal/usage"
	"github.com/compass-engine/compass/internal/validation"
)

// Run status values. An aborted run's status carries the identifier of
// the task that triggered the abort.
const (
	StatusCompleted     = "completed"
	abortedStatusPrefix = "aborted:"
)

// AbortedStatus formats the run status for a run aborted by the given task.
func AbortedStatus(taskID string) string {
	return abortedStatusPrefix + taskID
}

// PhaseProgress mirrors the methodology's per-phase progress tracker.
type PhaseProgress string

const (
	PhasePending   PhaseProgress = "pending"
	PhaseRunning   PhaseProgress = "in-progress"
	PhaseCompleted PhaseProgress = "completed"
	PhaseAborted   PhaseProgress = "aborted"
	PhaseNotRun    PhaseProgress = "not-run"
)

// PhaseStatus is the recorded progress of one phase within a run.
type PhaseStatus struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Progress PhaseProgress `json:"progress"`
}

// Abort carries the cause of an aborted run. TaskID is empty when the
// abort came from run cancellation rather than a task failure.
type Abort struct {
	TaskID  string `json:"task_id,omitempty"`
	PhaseID string `json:"phase_id"`
	Reason  string `json:"reason"`
}

// Report is the final aggregate of one orchestrator run. Task results are
// keyed by task identifier, so output ordering is independent of
// completion order. A completed run always yields a report, even when
// tasks failed or conflicts remain unresolved; an aborted run yields a
// partial report plus the abort cause.
type Report struct {
	RunID       types.ID                `json:"run_id"`
	Request     string                  `json:"request"`
	Domains     []string                `json:"domains,omitempty"`
	Status      string                  `json:"status"`
	Phases      []PhaseStatus           `json:"phases"`
	Tasks       map[string]*task.Result `json:"tasks"`
	Conflicts   []conflict.Conflict     `json:"conflicts,omitempty"`
	Validations []validation.Record     `json:"validations,omitempty"`
	Abort       *Abort                  `json:"abort,omitempty"`
	Usage       *usage.Summary          `json:"usage,omitempty"`

	TasksExecuted  int `json:"tasks_executed"`
	TasksFailed    int `json:"tasks_failed"`
	TasksSkipped   int `json:"tasks_skipped"`
	TasksCancelled int `json:"tasks_cancelled"`

	StartedAt   time.Time     `json:"started_at"`
	CompletedAt time.Time     `json:"completed_at"`
	Duration    time.Duration `json:"duration"`
}

// New creates an empty report for a new run.
func New(request string, domains []string) *Report {
	return &Report{
		RunID:     types.NewID(),
		Request:   request,
		Domains:   domains,
		Tasks:     make(map[string]*task.Result),
		StartedAt: time.Now(),
	}
}

// AddResult records one task result and updates the summary counters.
// Results are written once; a duplicate task ID is a programming error.
func (r *Report) AddResult(res *task.Result) {
	if res == nil {
		return
	}
	if _, exists := r.Tasks[res.TaskID]; exists {
		r.discount(r.Tasks[res.TaskID].Status)
	}
	r.Tasks[res.TaskID] = res

	switch res.Status {
	case task.StatusSuccess:
		r.TasksExecuted++
	case task.StatusFailure:
		r.TasksFailed++
	case task.StatusSkipped:
		r.TasksSkipped++
	case task.StatusCancelled:
		r.TasksCancelled++
	}
}

// discount reverses the counter bump for a result being overwritten by a
// group retry.
func (r *Report) discount(s task.Status) {
	switch s {
	case task.StatusSuccess:
		r.TasksExecuted--
	case task.StatusFailure:
		r.TasksFailed--
	case task.StatusSkipped:
		r.TasksSkipped--
	case task.StatusCancelled:
		r.TasksCancelled--
	}
}

// AddConflicts appends detected (or resolved) conflicts.
func (r *Report) AddConflicts(conflicts []conflict.Conflict) {
	r.Conflicts = append(r.Conflicts, conflicts...)
}

// AddValidation appends one validation record.
func (r *Report) AddValidation(rec validation.Record) {
	r.Validations = append(r.Validations, rec)
}

// TrackPhase registers a phase in pending state, preserving phase order.
func (r *Report) TrackPhase(id, name string) {
	r.Phases = append(r.Phases, PhaseStatus{ID: id, Name: name, Progress: PhasePending})
}

// SetPhaseProgress updates the tracked progress for a phase.
func (r *Report) SetPhaseProgress(id string, progress PhaseProgress) {
	for i := range r.Phases {
		if r.Phases[i].ID == id {
			r.Phases[i].Progress = progress
			return
		}
	}
}

// UnresolvedConflicts returns the conflicts arbitration could not settle.
func (r *Report) UnresolvedConflicts() []conflict.Conflict {
	var out []conflict.Conflict
	for _, c := range r.Conflicts {
		if c.Status != conflict.StatusResolved {
			out = append(out, c)
		}
	}
	return out
}

// Finish stamps the completion time and duration.
func (r *Report) Finish() {
	r.CompletedAt = time.Now()
	r.Duration = r.CompletedAt.Sub(r.StartedAt)
}

// ToJSON renders the report as indented JSON.
func (r *Report) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling report: %w", err)
	}
	return data, nil
}

// ToYAML renders the report as YAML.
func (r *Report) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshaling report: %w", err)
	}
	return data, nil
}
