package validation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compass-engine/compass/internal/types"
)

// TestHTTPCollaborator_Success tests decoding a well-formed report.
func TestHTTPCollaborator_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"severity":"medium","advisories":["upgrade available"]}`))
	}))
	defer srv.Close()

	call := HTTPCollaborator(srv.Client(), srv.URL)
	report, err := call(context.Background(), "compass/doc-standards")
	require.NoError(t, err)

	assert.Equal(t, "medium", report["severity"])
}

// TestHTTPCollaborator_ServerError tests that a non-2xx status is surfaced
// as a transient unavailability.
func TestHTTPCollaborator_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	call := HTTPCollaborator(srv.Client(), srv.URL)
	_, err := call(context.Background(), "res")
	require.Error(t, err)

	var cerr *types.CompassError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, types.VALIDATION_UNAVAILABLE, cerr.Code)
	assert.True(t, cerr.Retryable)
}

// TestHTTPCollaborator_ConnectionRefused tests transport-level failure.
func TestHTTPCollaborator_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	call := HTTPCollaborator(nil, srv.URL)
	_, err := call(context.Background(), "res")
	require.Error(t, err)
	assert.True(t, types.IsRetryable(err))
}

// TestHTTPCollaborator_MalformedBody tests that undecodable bodies fail
// without panicking.
func TestHTTPCollaborator_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	call := HTTPCollaborator(srv.Client(), srv.URL)
	_, err := call(context.Background(), "res")
	require.Error(t, err)

	var cerr *types.CompassError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, types.VALIDATION_UNAVAILABLE, cerr.Code)
}

// TestHTTPCollaborator_ResourceEscaping tests that resource identifiers
// with slashes reach the server escaped as one path segment.
func TestHTTPCollaborator_ResourceEscaping(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	call := HTTPCollaborator(srv.Client(), srv.URL)
	_, err := call(context.Background(), "compass/doc-standards")
	require.NoError(t, err)
	assert.Contains(t, gotPath, "compass%2Fdoc-standards")
}
