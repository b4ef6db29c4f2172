package catalog

import (
	"github.com/compass-engine/compass/internal/graph"
	"github.com/compass-engine/compass/internal/trigger"
)

// Phase identifiers of the fixed methodology.
const (
	PhaseKnowledgeQuery   = "phase1-knowledge-query"
	PhasePatternApply     = "phase2-pattern-application"
	PhaseGapAnalysis      = "phase3-gap-analysis"
	PhaseDocumentation    = "phase4-documentation"
	PhaseEnhancedAnalysis = "phase5-enhanced-analysis"
	PhaseCrossReference   = "phase6-cross-reference"
	GroupEnhancedAnalysis = "enhanced-analysis-group"
	GroupDocValidation    = "doc-validation-group"
)

// BuildGraph assembles the fixed methodology graph: six ordered phases,
// sequential early analysis, a validation-gated documentation group, and
// the barrier-synchronized enhanced-analysis group extended by the
// conditional domain specialists.
func BuildGraph() (*graph.Graph, error) {
	return graph.NewBuilder().
		AddPhase(graph.Phase{
			ID:   PhaseKnowledgeQuery,
			Name: "Knowledge Query",
			Tasks: []graph.TaskSpec{
				{ID: TaskKnowledgeQuery, Condition: graph.Always(), Critical: true, Task: knowledgeQuery()},
			},
		}).
		AddPhase(graph.Phase{
			ID:           PhasePatternApply,
			Name:         "Pattern Application",
			Predecessors: []string{PhaseKnowledgeQuery},
			Tasks: []graph.TaskSpec{
				{ID: TaskPatternApply, Condition: graph.Always(), Task: patternApply()},
			},
		}).
		AddPhase(graph.Phase{
			ID:           PhaseGapAnalysis,
			Name:         "Gap Analysis",
			Predecessors: []string{PhasePatternApply},
			Tasks: []graph.TaskSpec{
				{ID: TaskGapAnalysis, Condition: graph.Always(), Task: gapAnalysis()},
			},
		}).
		AddPhase(graph.Phase{
			ID:           PhaseDocumentation,
			Name:         "Documentation",
			Predecessors: []string{PhaseGapAnalysis},
			Tasks: []graph.TaskSpec{
				{ID: TaskDocPlanning, Condition: graph.Always(), Task: docPlanning()},
				{
					ID:        TaskDocReferenceValidation,
					Condition: graph.Always(),
					Resource:  ResourceDocStandards,
					Task:      docValidation(TaskDocReferenceValidation),
				},
				{
					ID:        TaskDiagramValidation,
					Condition: graph.WhenDomain(trigger.DomainArchitecture, trigger.DomainDataFlow),
					Resource:  ResourceDiagramConventions,
					Task:      docValidation(TaskDiagramValidation),
				},
			},
			Groups: []graph.ParallelGroup{
				{ID: GroupDocValidation, Members: []string{TaskDocReferenceValidation, TaskDiagramValidation}},
			},
		}).
		AddPhase(graph.Phase{
			ID:           PhaseEnhancedAnalysis,
			Name:         "Enhanced Analysis",
			Predecessors: []string{PhaseDocumentation},
			Tasks: []graph.TaskSpec{
				{ID: TaskEnhancedAnalysis, Condition: graph.Always(), Critical: true, Task: enhancedAnalysis()},
				{
					ID:        TaskAuthAnalyst,
					Condition: graph.WhenDomain(trigger.DomainAuthentication),
					Task:      specialist(TaskAuthAnalyst, trigger.DomainAuthentication, "threat-model-first"),
				},
				{
					ID:        TaskDataFlowAnalyst,
					Condition: graph.WhenDomain(trigger.DomainDataFlow),
					Task:      specialist(TaskDataFlowAnalyst, trigger.DomainDataFlow, "trace-the-data"),
				},
				{
					ID:        TaskPerformanceAnalyst,
					Condition: graph.WhenDomain(trigger.DomainPerformance),
					Task:      specialist(TaskPerformanceAnalyst, trigger.DomainPerformance, "incremental-optimization"),
				},
				{
					ID:        TaskWritingAnalyst,
					Condition: graph.WhenDomain(trigger.DomainWriting),
					Task:      specialist(TaskWritingAnalyst, trigger.DomainWriting, "narrative-first"),
				},
			},
			Groups: []graph.ParallelGroup{
				{
					ID: GroupEnhancedAnalysis,
					Members: []string{
						TaskEnhancedAnalysis,
						TaskAuthAnalyst,
						TaskDataFlowAnalyst,
						TaskPerformanceAnalyst,
						TaskWritingAnalyst,
					},
				},
			},
		}).
		AddPhase(graph.Phase{
			ID:           PhaseCrossReference,
			Name:         "Cross-Reference",
			Predecessors: []string{PhaseEnhancedAnalysis},
			Tasks: []graph.TaskSpec{
				{ID: TaskCrossReference, Condition: graph.Always(), Task: crossReference()},
			},
		}).
		Build()
}
