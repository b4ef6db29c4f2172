package trigger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestClassifier_Invoke tests the complexity threshold across request
// shapes.
func TestClassifier_Invoke(t *testing.T) {
	tests := []struct {
		name      string
		threshold int
		request   string
		invoke    bool
	}{
		{"simple request", 1, "rename this variable", false},
		{"single keyword", 1, "debug the login failure", true},
		{"below threshold", 2, "debug this", false},
		{"at threshold", 2, "investigate and debug the crash", true},
		{"empty request", 1, "", false},
		{"whitespace only", 1, "   \t  ", false},
		{"case insensitive", 1, "ANALYZE the failure", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClassifier(tt.threshold)
			assert.Equal(t, tt.invoke, c.Classify(tt.request).Invoke)
		})
	}
}

// TestClassifier_Domains tests domain tag detection and its ordering.
func TestClassifier_Domains(t *testing.T) {
	c := NewClassifier(1)

	t.Run("single domain", func(t *testing.T) {
		d := c.Classify("investigate the oauth token refresh")
		assert.Equal(t, []string{DomainAuthentication}, d.Domains)
	})

	t.Run("multiple domains in fixed order", func(t *testing.T) {
		d := c.Classify("analyze the slow login pipeline design")
		assert.Equal(t, []string{
			DomainArchitecture,
			DomainAuthentication,
			DomainDataFlow,
			DomainPerformance,
		}, d.Domains)
	})

	t.Run("no domains", func(t *testing.T) {
		d := c.Classify("investigate the crash")
		assert.Empty(t, d.Domains)
	})

	t.Run("domains reported even without invocation", func(t *testing.T) {
		d := c.Classify("the login page")
		assert.False(t, d.Invoke)
		assert.Equal(t, []string{DomainAuthentication}, d.Domains)
	})
}

// TestClassifier_Matched tests that the matched keywords are surfaced for
// diagnostics.
func TestClassifier_Matched(t *testing.T) {
	c := NewClassifier(1)
	d := c.Classify("investigate the root cause of this performance regression")
	assert.Contains(t, d.Matched, "investigate")
	assert.Contains(t, d.Matched, "root cause")
	assert.Contains(t, d.Matched, "performance")
}

// TestNewClassifier_ThresholdFloor tests the non-positive threshold
// fallback.
func TestNewClassifier_ThresholdFloor(t *testing.T) {
	c := NewClassifier(0)
	assert.True(t, c.Classify("debug it").Invoke)
}
