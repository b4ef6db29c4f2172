package engine

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/compass-engine/compass/internal/graph"
	"github.com/compass-engine/compass/internal/report"
	"github.com/compass-engine/compass/internal/task"
	"github.com/compass-engine/compass/internal/usage"
	"github.com/compass-engine/compass/internal/validation"
)

// runPhase executes one phase: sequential specs one at a time, each
// observing the results accumulated so far, then each parallel group with
// a barrier and conflict analysis at its end. Returns a PhaseAbortedError
// on a critical failure.
func (o *Orchestrator) runPhase(
	ctx context.Context,
	ph graph.Phase,
	ec *task.ExecutionContext,
	results map[string]*task.Result,
	rep *report.Report,
	tracker *usage.Tracker,
) error {
	if o.tracer != nil {
		var span trace.Span
		ctx, span = o.tracer.Start(ctx, "engine.phase",
			trace.WithAttributes(attribute.String("phase.id", ph.ID)),
		)
		defer span.End()
	}

	for _, spec := range ph.SequentialSpecs() {
		res, vrec := o.runSpec(ctx, spec, ec.WithResults(results))
		res.Attempts = 1
		if vrec != nil {
			rep.AddValidation(*vrec)
		}
		results[spec.ID] = res
		rep.AddResult(res)
		o.charge(tracker, ph.ID, ec, res)

		if abortWorthy(spec, res) {
			return &PhaseAbortedError{
				PhaseID: ph.ID,
				TaskID:  spec.ID,
				Cause:   res.Error,
			}
		}
	}

	for _, grp := range ph.Groups {
		if err := o.runGroup(ctx, ph, grp, ec, results, rep, tracker); err != nil {
			return err
		}
	}
	return nil
}

// runGroup dispatches a parallel group, retries it as a whole at most
// groupRetryLimit times on a transient member failure, merges the terminal
// results, and runs conflict detection and arbitration over the group's
// output. A failure on the retry attempt is treated as critical for the
// group.
func (o *Orchestrator) runGroup(
	ctx context.Context,
	ph graph.Phase,
	grp graph.ParallelGroup,
	ec *task.ExecutionContext,
	results map[string]*task.Result,
	rep *report.Report,
	tracker *usage.Tracker,
) error {
	specs := ph.GroupSpecs(grp)

	// Group members observe the results as of the group start; their own
	// writes land in disjoint slots after the barrier.
	snapshot := ec.WithResults(results)

	var (
		groupResults map[string]*task.Result
		groupRecords []validation.Record
		abortSpec    *graph.TaskSpec
	)

	attempt := 0
	for {
		groupResults, groupRecords, abortSpec = o.dispatchGroup(ctx, specs, snapshot, attempt+1)
		if abortSpec != nil {
			break
		}

		transient := firstFailure(specs, groupResults, true)
		if transient == nil {
			// The retry attempt must come back clean: any failure on it,
			// transient or not, is the group's second failure.
			if attempt > 0 {
				abortSpec = firstFailure(specs, groupResults, false)
			}
			break
		}
		if attempt >= o.groupRetryLimit {
			abortSpec = transient
			break
		}

		attempt++
		o.logger.WarnContext(ctx, "retrying parallel group after transient failure",
			"group", grp.ID,
			"failed_task", transient.ID,
			"attempt", attempt+1,
		)
	}

	memberTotal := 0
	for _, spec := range specs {
		if res := groupResults[spec.ID]; res != nil {
			results[spec.ID] = res
			rep.AddResult(res)
			memberTotal += o.charge(tracker, ph.ID, ec, res)
		}
	}
	if memberTotal > 0 {
		tracker.RecordCoordination(ph.ID, usage.GroupOverhead(memberTotal))
	}
	for _, rec := range groupRecords {
		rep.AddValidation(rec)
	}

	if abortSpec != nil {
		var cause error
		if res := groupResults[abortSpec.ID]; res != nil && res.Error != nil {
			cause = res.Error
		}
		return &PhaseAbortedError{
			PhaseID: ph.ID,
			TaskID:  abortSpec.ID,
			Cause:   cause,
		}
	}

	o.analyzeConflicts(ctx, grp, specs, groupResults, ec.WithResults(results), rep)
	return nil
}

// dispatchGroup runs all member specs concurrently under the parallelism
// semaphore and waits for every member to reach a terminal state. On a
// critical member failure the group context is cancelled so in-flight
// members can return promptly with a cancelled status.
func (o *Orchestrator) dispatchGroup(
	ctx context.Context,
	specs []graph.TaskSpec,
	ec *task.ExecutionContext,
	attempt int,
) (map[string]*task.Result, []validation.Record, *graph.TaskSpec) {
	groupCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, o.maxParallel)
	var wg sync.WaitGroup

	var mu sync.Mutex
	groupResults := make(map[string]*task.Result, len(specs))
	var records []validation.Record
	var abortSpec *graph.TaskSpec

	for _, spec := range specs {
		wg.Add(1)
		sem <- struct{}{}

		go func(spec graph.TaskSpec) {
			defer wg.Done()
			defer func() { <-sem }()

			res, vrec := o.runSpec(groupCtx, spec, ec)
			res.Attempts = attempt

			mu.Lock()
			defer mu.Unlock()
			groupResults[spec.ID] = res
			if vrec != nil {
				records = append(records, *vrec)
			}
			if abortSpec == nil && abortWorthy(spec, res) {
				s := spec
				abortSpec = &s
				cancel()
			}
		}(spec)
	}

	wg.Wait()
	return groupResults, records, abortSpec
}

// analyzeConflicts runs the detector over the group's results in member
// order and routes detected conflicts through the resolver. Unresolved
// conflicts stay in the report.
func (o *Orchestrator) analyzeConflicts(
	ctx context.Context,
	grp graph.ParallelGroup,
	specs []graph.TaskSpec,
	groupResults map[string]*task.Result,
	ec *task.ExecutionContext,
	rep *report.Report,
) {
	if o.detector == nil {
		return
	}

	ordered := make([]*task.Result, 0, len(specs))
	for _, spec := range specs {
		if res := groupResults[spec.ID]; res != nil {
			ordered = append(ordered, res)
		}
	}

	conflicts := o.detector.Detect(grp.ID, ordered)
	if len(conflicts) == 0 {
		return
	}

	o.logger.InfoContext(ctx, "conflicts detected in parallel group",
		"group", grp.ID,
		"count", len(conflicts),
	)

	if o.resolver != nil {
		conflicts = o.resolver.Resolve(ctx, conflicts, ec)
	}
	rep.AddConflicts(conflicts)
}

// charge attributes one attempted task's estimated consumption to the
// tracker and returns the amount. Skipped and cancelled tasks never
// invoked their executor and cost nothing; a retried task is charged once
// per attempt.
func (o *Orchestrator) charge(tracker *usage.Tracker, phaseID string, ec *task.ExecutionContext, res *task.Result) int {
	if tracker == nil || res == nil {
		return 0
	}
	if res.Status == task.StatusSkipped || res.Status == task.StatusCancelled {
		return 0
	}
	attempts := res.Attempts
	if attempts < 1 {
		attempts = 1
	}
	tokens := o.estimator.Estimate(res.TaskID, ec) * attempts
	tracker.Record(phaseID, res.TaskID, tokens)
	return tokens
}

// abortWorthy reports whether a result must abort the run: a failed
// phase-critical task, or a task blocked by the validation gate.
func abortWorthy(spec graph.TaskSpec, res *task.Result) bool {
	if res.Status != task.StatusFailure {
		return false
	}
	if spec.Critical {
		return true
	}
	return res.Error != nil && res.Error.Code == blockErrorCode
}

// firstFailure returns the first member spec, in member order, whose
// result is a failure. With retryableOnly set, only transient failures
// qualify.
func firstFailure(specs []graph.TaskSpec, results map[string]*task.Result, retryableOnly bool) *graph.TaskSpec {
	for i, spec := range specs {
		res := results[spec.ID]
		if res == nil || res.Status != task.StatusFailure {
			continue
		}
		if retryableOnly && (res.Error == nil || !res.Error.Retryable) {
			continue
		}
		return &specs[i]
	}
	return nil
}
