package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/compass-engine/compass/internal/types"
)

// HTTPCollaborator returns a CallFunc that validates a resource against a
// documentation source over HTTP. The resource identifier is resolved
// relative to baseURL; the endpoint is expected to answer with the JSON
// report shape the gate's classifier understands.
//
// Transport failures and non-2xx statuses are returned as retryable
// VALIDATION_UNAVAILABLE errors so the gate can degrade to a stale record
// or a WARN decision.
func HTTPCollaborator(client *http.Client, baseURL string) CallFunc {
	if client == nil {
		client = http.DefaultClient
	}

	return func(ctx context.Context, resourceID string) (map[string]any, error) {
		endpoint, err := url.JoinPath(baseURL, url.PathEscape(resourceID))
		if err != nil {
			return nil, types.WrapError(types.VALIDATION_UNAVAILABLE,
				fmt.Sprintf("invalid resource %q", resourceID), err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, types.WrapError(types.VALIDATION_UNAVAILABLE,
				"building collaborator request", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return nil, types.WrapRetryableError(types.VALIDATION_UNAVAILABLE,
				"collaborator call failed", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, types.NewRetryableError(types.VALIDATION_UNAVAILABLE,
				fmt.Sprintf("collaborator returned status %d for %q", resp.StatusCode, resourceID))
		}

		var report map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
			return nil, types.WrapError(types.VALIDATION_UNAVAILABLE,
				"decoding collaborator report", err)
		}
		return report, nil
	}
}
