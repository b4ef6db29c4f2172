package task

import "sort"

// ExecutionContext is the shared, read-mostly input passed to every task
// invocation: the originating request, the detected domain tags, the
// results accumulated by earlier tasks, and any extra values injected for
// a specific invocation (e.g. the conflict handed to an arbitration task).
//
// The orchestrator derives a fresh context snapshot before each dispatch,
// so concurrently running tasks never observe a map being written. Tasks
// treat the context as read-only; each task's output travels back through
// its own return value.
type ExecutionContext struct {
	request string
	domains map[string]struct{}
	results map[string]*Result
	values  map[string]any
}

// NewExecutionContext creates an execution context for one orchestrator run.
// The domain tags come from the upstream trigger classifier and drive
// conditional task activation.
func NewExecutionContext(request string, domains []string) *ExecutionContext {
	set := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		set[d] = struct{}{}
	}
	return &ExecutionContext{
		request: request,
		domains: set,
	}
}

// Request returns the original user request text.
func (ec *ExecutionContext) Request() string {
	return ec.request
}

// Domains returns the detected domain tags, sorted for determinism.
func (ec *ExecutionContext) Domains() []string {
	out := make([]string, 0, len(ec.domains))
	for d := range ec.domains {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// HasDomain reports whether the given domain tag was detected upstream.
func (ec *ExecutionContext) HasDomain(domain string) bool {
	_, ok := ec.domains[domain]
	return ok
}

// Result returns the stored result for a previously executed task, if any.
func (ec *ExecutionContext) Result(taskID string) (*Result, bool) {
	r, ok := ec.results[taskID]
	return r, ok
}

// Value returns an injected per-invocation value, if any.
func (ec *ExecutionContext) Value(key string) (any, bool) {
	v, ok := ec.values[key]
	return v, ok
}

// WithResults returns a derived context carrying a snapshot of the given
// results. The snapshot map is copied so later orchestrator writes are not
// visible to tasks already dispatched.
func (ec *ExecutionContext) WithResults(results map[string]*Result) *ExecutionContext {
	snapshot := make(map[string]*Result, len(results))
	for id, r := range results {
		snapshot[id] = r
	}
	derived := *ec
	derived.results = snapshot
	return &derived
}

// WithValue returns a derived context with one extra value attached.
// Existing values are preserved.
func (ec *ExecutionContext) WithValue(key string, value any) *ExecutionContext {
	values := make(map[string]any, len(ec.values)+1)
	for k, v := range ec.values {
		values[k] = v
	}
	values[key] = value
	derived := *ec
	derived.values = values
	return &derived
}
