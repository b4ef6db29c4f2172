package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCompassError_Error tests error message formatting with and without a cause.
func TestCompassError_Error(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := NewError(TASK_EXECUTION_FAILED, "task blew up")
		assert.Equal(t, "[TASK_EXECUTION_FAILED] task blew up", err.Error())
	})

	t.Run("with cause", func(t *testing.T) {
		cause := fmt.Errorf("connection refused")
		err := WrapError(VALIDATION_UNAVAILABLE, "collaborator call failed", cause)
		assert.Equal(t, "[VALIDATION_UNAVAILABLE] collaborator call failed: connection refused", err.Error())
	})
}

// TestCompassError_Unwrap tests that wrapped causes are reachable via errors.Is.
func TestCompassError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := WrapError(CONFIG_LOAD_FAILED, "loading config", cause)

	require.ErrorIs(t, err, cause)
	assert.Equal(t, cause, err.Unwrap())
}

// TestCompassError_Is tests error code matching.
func TestCompassError_Is(t *testing.T) {
	err := NewError(TASK_TIMEOUT, "too slow")

	assert.True(t, errors.Is(err, &CompassError{Code: TASK_TIMEOUT}))
	assert.False(t, errors.Is(err, &CompassError{Code: TASK_EXECUTION_FAILED}))
}

// TestIsRetryable tests the transient/permanent classification helper.
func TestIsRetryable(t *testing.T) {
	t.Run("retryable error", func(t *testing.T) {
		assert.True(t, IsRetryable(NewRetryableError(TASK_TIMEOUT, "timed out")))
	})

	t.Run("permanent error", func(t *testing.T) {
		assert.False(t, IsRetryable(NewError(TASK_EXECUTION_FAILED, "bad input")))
	})

	t.Run("wrapped retryable error", func(t *testing.T) {
		inner := NewRetryableError(VALIDATION_UNAVAILABLE, "flaky network")
		assert.True(t, IsRetryable(fmt.Errorf("outer: %w", inner)))
	})

	t.Run("plain error", func(t *testing.T) {
		assert.False(t, IsRetryable(fmt.Errorf("plain")))
	})
}

// TestNewID tests that run identifiers are well-formed UUIDs and unique.
func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()

	_, err := uuid.Parse(a.String())
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
