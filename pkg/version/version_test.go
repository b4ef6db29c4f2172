package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestString tests that the banner carries the build identity fields.
func TestString(t *testing.T) {
	s := String()
	assert.Contains(t, s, "compass "+Version)
	assert.Contains(t, s, Commit)
	assert.Contains(t, s, runtime.Version())
}
