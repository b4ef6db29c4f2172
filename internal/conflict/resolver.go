package conflict

import (
	"context"
	"log/slog"

	"github.com/compass-engine/compass/internal/task"
)

// Arbitration task contract: the conflict under arbitration is injected
// into the execution context under ContextKey; the task's payload carries
// the synthesized decision and its rationale under these keys.
const (
	ContextKey          = "conflict"
	PayloadKeyDecision  = "decision"
	PayloadKeyRationale = "rationale"
)

// Resolver invokes a designated arbitration task for each unresolved
// conflict. The arbitration heuristic itself is opaque: any Task that
// reads the conflict from its context and answers with a decision payload
// will do.
type Resolver struct {
	arbiter task.Task
	logger  *slog.Logger
}

// NewResolver creates a Resolver around the given arbitration task.
func NewResolver(arbiter task.Task, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{arbiter: arbiter, logger: logger}
}

// Resolve arbitrates each conflict in turn and returns the updated set.
// A conflict whose arbitration fails stays unresolved and is surfaced in
// the final report; a resolution is never fabricated.
func (r *Resolver) Resolve(ctx context.Context, conflicts []Conflict, ec *task.ExecutionContext) []Conflict {
	if r.arbiter == nil {
		return conflicts
	}

	out := make([]Conflict, len(conflicts))
	copy(out, conflicts)

	for i := range out {
		c := &out[i]
		if c.Status == StatusResolved {
			continue
		}

		payload, err := r.arbiter.Run(ctx, ec.WithValue(ContextKey, *c))
		if err != nil {
			r.logger.WarnContext(ctx, "arbitration failed, conflict stays unresolved",
				"conflict_id", c.ID,
				"arbiter", r.arbiter.Name(),
				"error", err,
			)
			continue
		}

		c.Status = StatusResolved
		c.Resolution = payload
		if rationale, ok := payload[PayloadKeyRationale].(string); ok {
			c.Rationale = rationale
		}

		r.logger.InfoContext(ctx, "conflict resolved",
			"conflict_id", c.ID,
			"arbiter", r.arbiter.Name(),
		)
	}
	return out
}
