package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/compass-engine/compass/internal/graph"
	"github.com/compass-engine/compass/internal/task"
	"github.com/compass-engine/compass/internal/types"
	"github.com/compass-engine/compass/internal/validation"
)

// blockErrorCode marks a failure manufactured from a BLOCK gate decision.
const blockErrorCode = types.VALIDATION_BLOCKED

// runSpec executes one task spec to a terminal state: condition check,
// validation gating, then the bounded task invocation. Task-local errors
// are converted into failure results here; nothing escapes as a plain
// error.
func (o *Orchestrator) runSpec(ctx context.Context, spec graph.TaskSpec, ec *task.ExecutionContext) (*task.Result, *validation.Record) {
	var span trace.Span
	if o.tracer != nil {
		ctx, span = o.tracer.Start(ctx, "engine.task",
			trace.WithAttributes(attribute.String("task.id", spec.ID)),
		)
		defer span.End()
	}

	res := &task.Result{
		TaskID:    spec.ID,
		StartedAt: time.Now(),
	}
	defer func() {
		res.CompletedAt = time.Now()
		res.Duration = res.CompletedAt.Sub(res.StartedAt)
		if span == nil {
			return
		}
		if res.Error != nil {
			span.SetStatus(codes.Error, res.Error.Error())
			span.RecordError(res.Error)
		} else {
			span.SetStatus(codes.Ok, string(res.Status))
		}
	}()

	if !spec.Condition.Matches(ec) {
		res.Status = task.StatusSkipped
		o.logger.DebugContext(ctx, "task skipped by condition",
			"task", spec.ID,
			"domains", spec.Condition.Domains,
		)
		return res, nil
	}

	// Observe cancellation before doing any work.
	if err := ctx.Err(); err != nil {
		res.Status = task.StatusCancelled
		res.Error = types.WrapError(types.TASK_CANCELLED, "cancelled before start", err)
		return res, nil
	}

	var vrec *validation.Record
	if spec.Resource != "" && o.gate != nil {
		rec := o.gate.Evaluate(ctx, spec.Resource, o.collaborator)
		vrec = &rec
		if rec.Decision == validation.DecisionBlock {
			res.Status = task.StatusFailure
			res.Error = types.NewError(types.VALIDATION_BLOCKED,
				fmt.Sprintf("resource %q blocked by validation gate (risk %s)", spec.Resource, rec.Risk))
			return res, vrec
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, o.taskTimeout)
	defer cancel()

	payload, err := spec.Task.Run(runCtx, ec)

	switch {
	case err == nil:
		res.Status = task.StatusSuccess
		res.Payload = payload

	case ctx.Err() != nil:
		// The run or group context was cancelled; the task returned at
		// its next suspension point rather than completing stale work.
		res.Status = task.StatusCancelled
		res.Error = types.WrapError(types.TASK_CANCELLED, "cancelled mid-flight", ctx.Err())

	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		// A timeout is a failure for retry purposes, not a hang, and is
		// classified transient.
		res.Status = task.StatusFailure
		res.Error = types.WrapRetryableError(types.TASK_TIMEOUT,
			fmt.Sprintf("task exceeded timeout of %s", o.taskTimeout), runCtx.Err())

	default:
		res.Status = task.StatusFailure
		res.Error = asTaskError(err)
		o.logger.WarnContext(ctx, "task failed",
			"task", spec.ID,
			"retryable", res.Error.Retryable,
			"error", err,
		)
	}

	return res, vrec
}

// asTaskError normalizes a task-returned error into a CompassError,
// preserving an existing code and retryability classification.
func asTaskError(err error) *types.CompassError {
	var compassErr *types.CompassError
	if errors.As(err, &compassErr) {
		return compassErr
	}
	return types.WrapError(types.TASK_EXECUTION_FAILED, "task execution failed", err)
}
