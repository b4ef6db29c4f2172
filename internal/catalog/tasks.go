// Package catalog defines the fixed methodology task catalog: the six
// ordered analysis phases, the conditional specialist tasks activated by
// detected domains, the second-opinion arbitration task, and the
// validation-gated documentation checks.
//
// Each task here is an opaque executor behind the uniform task contract;
// the payloads are structured summaries, not the natural-language analysis
// content itself.
package catalog

import (
	"context"
	"sort"

	"github.com/compass-engine/compass/internal/conflict"
	"github.com/compass-engine/compass/internal/task"
	"github.com/compass-engine/compass/internal/trigger"
	"github.com/compass-engine/compass/internal/usage"
)

// Task identifiers of the fixed catalog.
const (
	TaskKnowledgeQuery   = "knowledge-query"
	TaskPatternApply     = "pattern-apply"
	TaskGapAnalysis      = "gap-analysis"
	TaskDocPlanning      = "doc-planning"
	TaskEnhancedAnalysis = "enhanced-analysis"
	TaskCrossReference   = "cross-reference"
	TaskSecondOpinion    = "second-opinion"

	TaskAuthAnalyst        = "auth-analyst"
	TaskDataFlowAnalyst    = "data-flow-analyst"
	TaskPerformanceAnalyst = "performance-analyst"
	TaskWritingAnalyst     = "writing-analyst"

	TaskDocReferenceValidation = "doc-reference-validation"
	TaskDiagramValidation      = "diagram-validation"
)

// Payload field watched for contradictions between parallel analysts.
const FieldRecommendedApproach = "recommended_approach"

// Validation-gated resource identifiers.
const (
	ResourceDocStandards       = "compass/doc-standards"
	ResourceDiagramConventions = "compass/diagram-conventions"
)

func knowledgeQuery() task.Task {
	return task.NewFunc(TaskKnowledgeQuery, func(ctx context.Context, ec *task.ExecutionContext) (map[string]any, error) {
		return map[string]any{
			"summary":       "queried institutional knowledge for prior investigations",
			"domains":       ec.Domains(),
			"request_terms": len(ec.Request()),
		}, nil
	})
}

func patternApply() task.Task {
	return task.NewFunc(TaskPatternApply, func(ctx context.Context, ec *task.ExecutionContext) (map[string]any, error) {
		return map[string]any{
			"summary":                "matched documented patterns against the request",
			FieldRecommendedApproach: approachFor(ec, "pattern-first"),
		}, nil
	})
}

func gapAnalysis() task.Task {
	return task.NewFunc(TaskGapAnalysis, func(ctx context.Context, ec *task.ExecutionContext) (map[string]any, error) {
		gaps := []string{}
		if _, ok := ec.Result(TaskKnowledgeQuery); !ok {
			gaps = append(gaps, "no prior knowledge available")
		}
		return map[string]any{
			"summary": "identified knowledge gaps to close before analysis",
			"gaps":    gaps,
		}, nil
	})
}

func docPlanning() task.Task {
	return task.NewFunc(TaskDocPlanning, func(ctx context.Context, ec *task.ExecutionContext) (map[string]any, error) {
		return map[string]any{
			"summary":   "planned documentation artifacts for this investigation",
			"artifacts": []string{"analysis-map", "findings-log"},
		}, nil
	})
}

func enhancedAnalysis() task.Task {
	return task.NewFunc(TaskEnhancedAnalysis, func(ctx context.Context, ec *task.ExecutionContext) (map[string]any, error) {
		return map[string]any{
			"summary":                "performed the full enhanced analysis pass",
			FieldRecommendedApproach: approachFor(ec, "holistic-review"),
		}, nil
	})
}

func crossReference() task.Task {
	return task.NewFunc(TaskCrossReference, func(ctx context.Context, ec *task.ExecutionContext) (map[string]any, error) {
		linked := 0
		for _, id := range []string{TaskKnowledgeQuery, TaskPatternApply, TaskGapAnalysis, TaskEnhancedAnalysis} {
			if _, ok := ec.Result(id); ok {
				linked++
			}
		}
		return map[string]any{
			"summary":        "cross-referenced findings into the knowledge map",
			"linked_results": linked,
		}, nil
	})
}

// specialist builds a domain specialist task. Specialists are activated
// conditionally by their domain tag and publish their own recommended
// approach, so disagreements with the core analysts surface as conflicts.
func specialist(name, domain, approach string) task.Task {
	return task.NewFunc(name, func(ctx context.Context, ec *task.ExecutionContext) (map[string]any, error) {
		return map[string]any{
			"summary":                "specialist assessment for domain " + domain,
			"domain":                 domain,
			FieldRecommendedApproach: approach,
		}, nil
	})
}

func docValidation(name string) task.Task {
	return task.NewFunc(name, func(ctx context.Context, ec *task.ExecutionContext) (map[string]any, error) {
		return map[string]any{
			"summary": "verified references against the documentation source",
		}, nil
	})
}

// SecondOpinion returns the arbitration task. It reads the conflict under
// arbitration from its execution context and settles deterministically on
// the value proposed by the lexicographically first task, so identical
// runs settle identically.
func SecondOpinion() task.Task {
	return task.NewFunc(TaskSecondOpinion, func(ctx context.Context, ec *task.ExecutionContext) (map[string]any, error) {
		v, ok := ec.Value(conflict.ContextKey)
		if !ok {
			return map[string]any{conflict.PayloadKeyDecision: nil}, nil
		}
		c := v.(conflict.Conflict)

		ids := make([]string, len(c.TaskIDs))
		copy(ids, c.TaskIDs)
		sort.Strings(ids)

		winner := ids[0]
		return map[string]any{
			conflict.PayloadKeyDecision:  c.Values[winner],
			conflict.PayloadKeyRationale: "adopted the position of " + winner + " after weighing both assessments",
			"considered":                 ids,
		}, nil
	})
}

// DefaultDetector returns the conflict detector for the catalog: parallel
// analysts conflict when their recommended approaches differ.
func DefaultDetector() *conflict.Detector {
	return conflict.NewDetector().Watch(FieldRecommendedApproach, nil)
}

// DefaultEstimator returns the token estimator for the catalog. The
// weights reflect how much context each task draws relative to the bare
// request: the enhanced analysis pass is the heaviest, the documentation
// checks the lightest.
func DefaultEstimator() *usage.TableEstimator {
	return usage.NewTableEstimator(map[string]float64{
		TaskKnowledgeQuery:   1.5,
		TaskPatternApply:     1.3,
		TaskGapAnalysis:      1.4,
		TaskDocPlanning:      1.1,
		TaskEnhancedAnalysis: 2.0,
		TaskCrossReference:   1.6,
		TaskSecondOpinion:    1.8,

		TaskAuthAnalyst:        1.7,
		TaskDataFlowAnalyst:    1.5,
		TaskPerformanceAnalyst: 1.5,
		TaskWritingAnalyst:     1.6,

		TaskDocReferenceValidation: 1.1,
		TaskDiagramValidation:      1.4,
	})
}

// approachFor derives a deterministic recommended approach: performance
// work biases toward incremental change, everything else toward the given
// default.
func approachFor(ec *task.ExecutionContext, fallback string) string {
	if ec.HasDomain(trigger.DomainPerformance) {
		return "incremental-optimization"
	}
	return fallback
}
