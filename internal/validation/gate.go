package validation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/compass-engine/compass/internal/cache"
	"github.com/compass-engine/compass/internal/ratelimit"
)

// CallFunc performs the actual external validation call for a resource.
// The transport is the caller's concern; the gate only requires the
// structured report shape understood by its classifier.
type CallFunc func(ctx context.Context, resourceID string) (map[string]any, error)

// Gate wraps external validation calls with the shared cache, the shared
// rate limiter, and a risk classifier. Cache and limiter are injected so
// tests can substitute fakes and multiple orchestrators can share the
// process-wide singletons.
type Gate struct {
	cache      *cache.Cache
	limiter    *ratelimit.Limiter
	classifier Classifier
	ttl        time.Duration
	timeout    time.Duration
	logger     *slog.Logger
	tracer     trace.Tracer
}

// GateOption is a functional option for configuring a Gate.
type GateOption func(*Gate)

// WithClassifier overrides the risk classifier.
func WithClassifier(c Classifier) GateOption {
	return func(g *Gate) {
		if c != nil {
			g.classifier = c
		}
	}
}

// WithTTL sets the cache TTL for stored validation records.
func WithTTL(ttl time.Duration) GateOption {
	return func(g *Gate) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

// WithCallTimeout bounds each collaborator call. The timeout is always
// finite; an unbounded external call is never permitted.
func WithCallTimeout(timeout time.Duration) GateOption {
	return func(g *Gate) {
		if timeout > 0 {
			g.timeout = timeout
		}
	}
}

// WithLogger configures structured logging for gate evaluations.
func WithLogger(logger *slog.Logger) GateOption {
	return func(g *Gate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithTracer configures OpenTelemetry tracing for gate evaluations.
func WithTracer(tracer trace.Tracer) GateOption {
	return func(g *Gate) {
		g.tracer = tracer
	}
}

// NewGate creates a Gate around the given shared cache and limiter.
// Defaults: DefaultClassifier, 15 minute TTL, 10 second call timeout,
// slog.Default() logging, no tracing.
func NewGate(store *cache.Cache, limiter *ratelimit.Limiter, opts ...GateOption) *Gate {
	g := &Gate{
		cache:      store,
		limiter:    limiter,
		classifier: DefaultClassifier(),
		ttl:        15 * time.Minute,
		timeout:    10 * time.Second,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Evaluate produces the execution decision for one resource:
//
//  1. A non-expired cached record is returned immediately with
//     CacheHit set; the collaborator is not called.
//  2. If the rate limiter budget for the resource is exhausted the
//     decision is WARN, the collaborator is not called, and nothing is
//     cached.
//  3. Otherwise the collaborator is called with a bounded timeout. On
//     success the report is classified and the record cached with the
//     configured TTL. On timeout or transport error an expired cached
//     record is preferred, flagged Stale; with no prior record the
//     decision degrades to WARN.
func (g *Gate) Evaluate(ctx context.Context, resourceID string, call CallFunc) Record {
	if g.tracer != nil {
		var span trace.Span
		ctx, span = g.tracer.Start(ctx, "validation.evaluate",
			trace.WithAttributes(attribute.String("validation.resource_id", resourceID)),
		)
		defer span.End()
	}

	if cached, ok := g.cache.Get(resourceID); ok {
		record := cached.(Record)
		record.CacheHit = true
		g.logger.DebugContext(ctx, "validation cache hit",
			"resource_id", resourceID,
			"decision", record.Decision,
		)
		return record
	}

	if !g.limiter.TryAcquire(resourceID) {
		g.logger.WarnContext(ctx, "validation rate limited",
			"resource_id", resourceID,
			"reset_after", g.limiter.ResetAfter(resourceID),
		)
		return Record{
			ResourceID: resourceID,
			Risk:       RiskMedium,
			Decision:   DecisionWarn,
			Note:       fmt.Sprintf("validation skipped: rate limit exhausted, resets in %s", g.limiter.ResetAfter(resourceID)),
			CheckedAt:  time.Now(),
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	report, err := call(callCtx, resourceID)
	if err != nil {
		return g.degrade(ctx, resourceID, err)
	}

	risk := g.classifier.Classify(report)
	record := Record{
		ResourceID: resourceID,
		Risk:       risk,
		Decision:   DecisionFor(risk),
		CheckedAt:  time.Now(),
	}
	g.cache.Put(resourceID, record, g.ttl)

	g.logger.InfoContext(ctx, "validation evaluated",
		"resource_id", resourceID,
		"risk", record.Risk,
		"decision", record.Decision,
	)
	return record
}

// degrade handles a failed collaborator call: prefer a stale cached record
// over a bare failure, clearly flagged; otherwise warn that validation was
// unavailable.
func (g *Gate) degrade(ctx context.Context, resourceID string, cause error) Record {
	if prior, found, expired := g.cache.Peek(resourceID); found && expired {
		record := prior.(Record)
		record.Stale = true
		record.CacheHit = false
		record.Note = fmt.Sprintf("collaborator unavailable, serving stale record: %v", cause)

		g.logger.WarnContext(ctx, "validation degraded to stale record",
			"resource_id", resourceID,
			"decision", record.Decision,
			"error", cause,
		)
		return record
	}

	g.logger.WarnContext(ctx, "validation unavailable",
		"resource_id", resourceID,
		"error", cause,
	)
	return Record{
		ResourceID: resourceID,
		Risk:       RiskMedium,
		Decision:   DecisionWarn,
		Note:       fmt.Sprintf("validation unavailable: %v", cause),
		CheckedAt:  time.Now(),
	}
}
