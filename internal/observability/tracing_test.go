package observability

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestInitTracing_Disabled tests that disabled tracing yields a provider
// that records nothing.
func TestInitTracing_Disabled(t *testing.T) {
	var buf bytes.Buffer
	tp, err := InitTracing(context.Background(), false, &buf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	_, span := tp.Tracer("test").Start(context.Background(), "noop")
	span.End()

	require.NoError(t, tp.ForceFlush(context.Background()))
	assert.Empty(t, buf.String())
}

// TestInitTracing_ExportsSpans tests that an enabled provider exports
// ended spans to the configured writer.
func TestInitTracing_ExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	tp, err := InitTracing(context.Background(), true, &buf,
		WithBatchTimeout(10*time.Millisecond),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	_, span := tp.Tracer("test").Start(context.Background(), "engine.run")
	span.End()

	require.NoError(t, tp.ForceFlush(context.Background()))
	assert.Contains(t, buf.String(), "engine.run")
}
