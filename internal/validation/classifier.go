package validation

// Classifier assigns a risk level to the structured report returned by the
// external collaborator.
type Classifier interface {
	Classify(report map[string]any) RiskLevel
}

// ClassifierFunc is a function adapter for the Classifier interface.
type ClassifierFunc func(report map[string]any) RiskLevel

func (f ClassifierFunc) Classify(report map[string]any) RiskLevel {
	return f(report)
}

// Collaborator report fields the default classifier understands.
const (
	reportFieldDeprecated = "deprecated"
	reportFieldSeverity   = "severity"
	reportFieldAdvisories = "advisories"
)

// DefaultClassifier classifies a collaborator report from its structured
// fields: a "severity" of high/critical or a deprecated resource rates
// HIGH; a severity of medium or any advisories rate MEDIUM; everything
// else rates LOW. Unknown shapes fall through to LOW, keeping validation
// advisory rather than obstructive for resources the collaborator cannot
// describe.
func DefaultClassifier() Classifier {
	return ClassifierFunc(func(report map[string]any) RiskLevel {
		if report == nil {
			return RiskLow
		}

		if deprecated, ok := report[reportFieldDeprecated].(bool); ok && deprecated {
			return RiskHigh
		}

		switch severity, _ := report[reportFieldSeverity].(string); severity {
		case "critical", "high":
			return RiskHigh
		case "medium":
			return RiskMedium
		}

		if advisories, ok := report[reportFieldAdvisories].([]any); ok && len(advisories) > 0 {
			return RiskMedium
		}

		return RiskLow
	})
}
