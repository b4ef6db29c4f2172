// Package validation implements the gate in front of every task that calls
// the external documentation collaborator. An evaluation consults the
// shared cache first, then the rate limiter, and only then performs the
// bounded external call, classifying the collaborator's structured report
// into a risk level that drives an allow / warn / block decision.
package validation

import "time"

// RiskLevel is the LOW/MEDIUM/HIGH rating assigned to a validation outcome.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Decision is the execution decision derived from the risk level.
type Decision string

const (
	// DecisionAllow lets the wrapped task proceed.
	DecisionAllow Decision = "ALLOW"

	// DecisionWarn lets the task proceed and records the warning in the
	// final report. Degraded evaluations (rate limited, collaborator
	// unavailable) also warn rather than block.
	DecisionWarn Decision = "WARN"

	// DecisionBlock makes the orchestrator treat the wrapped task as a
	// critical failure.
	DecisionBlock Decision = "BLOCK"
)

// DecisionFor maps a risk level to its execution decision:
// HIGH blocks, MEDIUM warns, LOW allows.
func DecisionFor(level RiskLevel) Decision {
	switch level {
	case RiskHigh:
		return DecisionBlock
	case RiskMedium:
		return DecisionWarn
	default:
		return DecisionAllow
	}
}

// Record is the outcome of one gate evaluation. Records are persisted into
// the shared cache keyed by resource identifier.
type Record struct {
	// ResourceID identifies the external resource that was validated.
	ResourceID string `json:"resource_id"`

	// Risk is the classified risk level.
	Risk RiskLevel `json:"risk"`

	// Decision is the execution decision handed to the orchestrator.
	Decision Decision `json:"decision"`

	// CacheHit reports whether this record was served from the cache
	// without calling the collaborator.
	CacheHit bool `json:"cache_hit"`

	// Stale reports that an expired cached record was preferred over a
	// bare collaborator failure.
	Stale bool `json:"stale"`

	// Note carries degraded-mode context (rate limited, unavailable).
	Note string `json:"note,omitempty"`

	// CheckedAt is when the underlying collaborator call was made, or
	// when the degraded record was produced.
	CheckedAt time.Time `json:"checked_at"`
}
