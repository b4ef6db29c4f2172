// Package engine implements the methodology orchestrator: it walks the
// phase graph in topological order, dispatches tasks respecting barriers
// and concurrency limits, runs conflict detection and arbitration after
// each parallel group, routes validation-gated tasks through the gate,
// enforces the fail-fast versus retry policy, and aggregates the final
// report.
//
// The only entry point is Run on the whole graph; there is deliberately no
// way to skip a phase.
package engine

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/compass-engine/compass/internal/conflict"
	"github.com/compass-engine/compass/internal/graph"
	"github.com/compass-engine/compass/internal/report"
	"github.com/compass-engine/compass/internal/task"
	"github.com/compass-engine/compass/internal/usage"
	"github.com/compass-engine/compass/internal/validation"
)

// Orchestrator executes a phase graph. Instances are safe to reuse across
// runs; each run owns its report and result aggregate exclusively, while
// the validation gate's cache and rate limiter are shared process-wide.
type Orchestrator struct {
	logger          *slog.Logger
	tracer          trace.Tracer
	maxParallel     int
	taskTimeout     time.Duration
	groupRetryLimit int
	gate            *validation.Gate
	collaborator    validation.CallFunc
	detector        *conflict.Detector
	resolver        *conflict.Resolver
	estimator       usage.Estimator
}

// Option is a functional option for configuring an Orchestrator.
type Option func(*Orchestrator)

// WithLogger configures structured logging for the run.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTracer configures OpenTelemetry tracing for runs, phases, and tasks.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *Orchestrator) {
		o.tracer = tracer
	}
}

// WithMaxParallel bounds how many group members execute concurrently.
func WithMaxParallel(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxParallel = n
		}
	}
}

// WithTaskTimeout bounds every task invocation. The default is finite;
// an unbounded task is never permitted.
func WithTaskTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.taskTimeout = d
		}
	}
}

// WithGroupRetryLimit sets how many times a parallel group is re-dispatched
// after a transient member failure.
func WithGroupRetryLimit(n int) Option {
	return func(o *Orchestrator) {
		if n >= 0 {
			o.groupRetryLimit = n
		}
	}
}

// WithValidationGate routes every validation-gated task spec through the
// given gate, using call to reach the external collaborator.
func WithValidationGate(gate *validation.Gate, call validation.CallFunc) Option {
	return func(o *Orchestrator) {
		o.gate = gate
		o.collaborator = call
	}
}

// WithConflictDetector sets the detector applied to each completed
// parallel group.
func WithConflictDetector(d *conflict.Detector) Option {
	return func(o *Orchestrator) {
		o.detector = d
	}
}

// WithConflictResolver sets the resolver that arbitrates detected
// conflicts.
func WithConflictResolver(r *conflict.Resolver) Option {
	return func(o *Orchestrator) {
		o.resolver = r
	}
}

// WithUsageEstimator enables token accounting for runs: each attempted
// task is charged per the estimator, parallel groups pay a coordination
// surcharge, and the aggregate lands in the report's usage section.
func WithUsageEstimator(e usage.Estimator) Option {
	return func(o *Orchestrator) {
		o.estimator = e
	}
}

// NewOrchestrator creates an Orchestrator. Defaults: slog.Default()
// logging, no tracing, 4 parallel slots, 60 second task timeout, one
// group retry, no validation gate, no conflict handling.
func NewOrchestrator(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		logger:          slog.Default(),
		maxParallel:     4,
		taskTimeout:     60 * time.Second,
		groupRetryLimit: 1,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes the whole graph against the given execution context and
// returns the aggregated report. A completed run always yields a report,
// even when tasks failed or conflicts remain unresolved; an aborted run
// yields a partial report plus a PhaseAbortedError naming the failing
// task and phase.
func (o *Orchestrator) Run(ctx context.Context, g *graph.Graph, ec *task.ExecutionContext) (*report.Report, error) {
	if o.tracer != nil {
		var span trace.Span
		ctx, span = o.tracer.Start(ctx, "engine.run",
			trace.WithAttributes(
				attribute.Int("graph.phase_count", len(g.Phases())),
				attribute.Int("graph.task_count", g.TaskCount()),
			),
		)
		defer span.End()
	}

	rep := report.New(ec.Request(), ec.Domains())
	phases := g.Phases()
	for _, ph := range phases {
		rep.TrackPhase(ph.ID, ph.Name)
	}

	o.logger.InfoContext(ctx, "starting orchestration run",
		"run_id", rep.RunID,
		"phase_count", len(phases),
		"task_count", g.TaskCount(),
	)

	results := make(map[string]*task.Result)
	var tracker *usage.Tracker
	if o.estimator != nil {
		tracker = usage.NewTracker()
	}

	for i, ph := range phases {
		select {
		case <-ctx.Done():
			o.logger.WarnContext(ctx, "run cancelled", "run_id", rep.RunID, "reason", ctx.Err())
			return o.abort(rep, tracker, phases[i:], &PhaseAbortedError{
				PhaseID: ph.ID,
				Cause:   ctx.Err(),
			})
		default:
		}

		rep.SetPhaseProgress(ph.ID, report.PhaseRunning)
		o.logger.InfoContext(ctx, "starting phase",
			"run_id", rep.RunID,
			"phase", ph.ID,
		)

		if err := o.runPhase(ctx, ph, ec, results, rep, tracker); err != nil {
			abortErr, ok := err.(*PhaseAbortedError)
			if !ok {
				abortErr = &PhaseAbortedError{PhaseID: ph.ID, Cause: err}
			}
			o.logger.ErrorContext(ctx, "phase aborted the run",
				"run_id", rep.RunID,
				"phase", abortErr.PhaseID,
				"task", abortErr.TaskID,
			)
			return o.abort(rep, tracker, phases[i:], abortErr)
		}

		// Cancellation inside a phase surfaces as cancelled member
		// results; a run is never completed under a cancelled context.
		if ctx.Err() != nil {
			o.logger.WarnContext(ctx, "run cancelled", "run_id", rep.RunID, "reason", ctx.Err())
			return o.abort(rep, tracker, phases[i:], &PhaseAbortedError{
				PhaseID: ph.ID,
				Cause:   ctx.Err(),
			})
		}

		rep.SetPhaseProgress(ph.ID, report.PhaseCompleted)
	}

	if tracker != nil {
		rep.Usage = tracker.Summary()
	}
	rep.Status = report.StatusCompleted
	rep.Finish()

	o.logger.InfoContext(ctx, "orchestration run completed",
		"run_id", rep.RunID,
		"executed", rep.TasksExecuted,
		"failed", rep.TasksFailed,
		"skipped", rep.TasksSkipped,
		"conflicts", len(rep.Conflicts),
		"duration", rep.Duration,
	)
	return rep, nil
}

// abort finalizes a partial report for an aborted run. The phase that
// raised the abort is marked aborted; phases not yet reached are marked
// not-run.
func (o *Orchestrator) abort(rep *report.Report, tracker *usage.Tracker, remaining []graph.Phase, abortErr *PhaseAbortedError) (*report.Report, error) {
	for i, ph := range remaining {
		if i == 0 {
			rep.SetPhaseProgress(ph.ID, report.PhaseAborted)
			continue
		}
		rep.SetPhaseProgress(ph.ID, report.PhaseNotRun)
	}

	if tracker != nil {
		rep.Usage = tracker.Summary()
	}
	rep.Status = report.AbortedStatus(abortErr.Reason())
	rep.Abort = &report.Abort{
		TaskID:  abortErr.TaskID,
		PhaseID: abortErr.PhaseID,
		Reason:  abortErr.Error(),
	}
	rep.Finish()
	return rep, abortErr
}
