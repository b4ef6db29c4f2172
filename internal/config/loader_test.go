package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compass-engine/compass/internal/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "compass.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestLoad_Defaults tests that an empty path yields the validated defaults.
func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Engine.MaxParallel)
	assert.Equal(t, 60*time.Second, cfg.Engine.TaskTimeout)
	assert.Equal(t, 1, cfg.Engine.GroupRetryLimit)
	assert.Equal(t, 15*time.Minute, cfg.Validation.CacheTTL)
	assert.Equal(t, 256, cfg.Validation.CacheMaxEntries)
	assert.Equal(t, 10, cfg.Validation.RateRequests)
	assert.Equal(t, time.Minute, cfg.Validation.RateWindow)
	assert.Equal(t, 10*time.Second, cfg.Validation.CallTimeout)
	assert.Equal(t, 1, cfg.Trigger.Threshold)
	assert.Equal(t, "info", cfg.Logging.Level)
}

// TestLoad_FileOverridesDefaults tests that file values layer over defaults
// without clobbering unset sections.
func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
engine:
  max_parallel: 8
  task_timeout: 30s
validation:
  cache_ttl: 5m
  rate_requests: 0
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Engine.MaxParallel)
	assert.Equal(t, 30*time.Second, cfg.Engine.TaskTimeout)
	assert.Equal(t, 1, cfg.Engine.GroupRetryLimit, "unset keys keep their defaults")
	assert.Equal(t, 5*time.Minute, cfg.Validation.CacheTTL)
	assert.Equal(t, 0, cfg.Validation.RateRequests, "a zero call budget is legal")
	assert.Equal(t, 256, cfg.Validation.CacheMaxEntries)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

// TestLoad_MissingFile tests the error code for an unreadable config file.
func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)

	var cerr *types.CompassError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, types.CONFIG_LOAD_FAILED, cerr.Code)
}

// TestLoad_InvalidValues tests that invariant violations are rejected.
func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero max_parallel", "engine:\n  max_parallel: 0\n"},
		{"negative retry limit", "engine:\n  group_retry_limit: -1\n"},
		{"zero cache ttl", "validation:\n  cache_ttl: 0s\n"},
		{"negative rate budget", "validation:\n  rate_requests: -5\n"},
		{"zero call timeout", "validation:\n  call_timeout: 0s\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)

			var cerr *types.CompassError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, types.CONFIG_VALIDATION_FAILED, cerr.Code)
		})
	}
}
