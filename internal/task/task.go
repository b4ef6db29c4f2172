package task

import (
	"context"
	"fmt"
)

// Task is the uniform contract every analysis task implements. A task
// receives the shared execution context and produces an opaque structured
// payload or an error. Tasks must be safe to retry at most once and must
// observe cancellation via the passed context.
type Task interface {
	// Name returns the stable identifier for this task.
	Name() string

	// Run executes the task against the shared context and returns its
	// structured output. Implementations must not mutate the execution
	// context and should return promptly when ctx is cancelled.
	Run(ctx context.Context, ec *ExecutionContext) (map[string]any, error)
}

// Func is a function adapter for the Task interface, for tasks that do not
// need their own type.
type Func func(ctx context.Context, ec *ExecutionContext) (map[string]any, error)

// funcTask wraps a Func with a name to satisfy the Task interface.
type funcTask struct {
	name string
	fn   Func
}

// NewFunc creates a Task from a plain function. It panics if name is empty,
// since an unnamed task cannot be scheduled or reported.
func NewFunc(name string, fn Func) Task {
	if name == "" {
		panic("task: NewFunc requires a non-empty name")
	}
	if fn == nil {
		panic(fmt.Sprintf("task: NewFunc %q requires a non-nil function", name))
	}
	return &funcTask{name: name, fn: fn}
}

func (t *funcTask) Name() string {
	return t.name
}

func (t *funcTask) Run(ctx context.Context, ec *ExecutionContext) (map[string]any, error) {
	return t.fn(ctx, ec)
}
