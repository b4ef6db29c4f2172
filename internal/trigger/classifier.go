// Package trigger decides whether a request warrants full methodology
// orchestration and detects which specialist domains it touches. The
// orchestrator treats the output as an opaque upstream decision; nothing
// in the engine re-implements this heuristic.
package trigger

import "strings"

// Decision is the classifier's verdict for one request.
type Decision struct {
	// Invoke reports whether the request is complex enough to run the
	// methodology.
	Invoke bool `json:"invoke"`

	// Domains are the detected specialist domain tags, used to activate
	// conditional task specs.
	Domains []string `json:"domains,omitempty"`

	// Matched lists the complexity keywords that fired, for diagnostics.
	Matched []string `json:"matched,omitempty"`
}

// Specialist domain tags produced by the default classifier.
const (
	DomainAuthentication = "authentication"
	DomainDataFlow       = "data-flow"
	DomainPerformance    = "performance"
	DomainArchitecture   = "architecture"
	DomainWriting        = "writing"
)

// complexityKeywords are the stems whose presence marks a request as a
// complex analytical task.
var complexityKeywords = []string{
	"analyze", "investigate", "debug", "implement", "refactor", "optimize",
	"understand", "design", "architect", "plan", "strategy", "complex",
	"system", "performance", "security", "scalability", "troubleshoot",
	"diagnose", "root cause", "technical debt", "code review",
	"best practices", "integrate", "migrate", "deploy",
}

// domainKeywords map each specialist domain to its trigger stems.
var domainKeywords = map[string][]string{
	DomainAuthentication: {"auth", "login", "credential", "token", "session", "oauth", "permission"},
	DomainDataFlow:       {"data flow", "pipeline", "stream", "etl", "ingest", "queue", "message"},
	DomainPerformance:    {"performance", "latency", "throughput", "slow", "optimize", "profil", "bottleneck"},
	DomainArchitecture:   {"architect", "design", "structure", "module", "boundary", "dependency", "coupling"},
	DomainWriting:        {"document", "write-up", "readme", "guide", "tutorial", "explain"},
}

// Classifier is the simple keyword trigger classifier. It is deliberately
// dumb: substring matching over lowercased text, with a minimum match
// count before orchestration is invoked.
type Classifier struct {
	threshold int
}

// NewClassifier creates a classifier requiring at least threshold
// complexity keyword matches. A non-positive threshold defaults to 1.
func NewClassifier(threshold int) *Classifier {
	if threshold <= 0 {
		threshold = 1
	}
	return &Classifier{threshold: threshold}
}

// Classify inspects the request text and returns the invocation decision
// plus the detected domain tag set.
func (c *Classifier) Classify(request string) Decision {
	text := strings.ToLower(strings.TrimSpace(request))
	if text == "" {
		return Decision{}
	}

	var matched []string
	for _, kw := range complexityKeywords {
		if strings.Contains(text, kw) {
			matched = append(matched, kw)
		}
	}

	var domains []string
	for _, domain := range []string{
		DomainArchitecture,
		DomainAuthentication,
		DomainDataFlow,
		DomainPerformance,
		DomainWriting,
	} {
		for _, kw := range domainKeywords[domain] {
			if strings.Contains(text, kw) {
				domains = append(domains, domain)
				break
			}
		}
	}

	return Decision{
		Invoke:  len(matched) >= c.threshold,
		Domains: domains,
		Matched: matched,
	}
}
