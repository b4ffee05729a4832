package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/sync/singleflight"
)

// refresher serializes credential-refresh attempts. When several
// in-flight requests hit a 401 at once, exactly one of them (the
// leader) calls the refresh endpoint; the rest suspend and receive the
// leader's outcome. A failed refresh is terminal for the session and is
// never retried here.
type refresher struct {
	client *Client
	group  singleflight.Group
}

// refreshKey is constant: there is only ever one credential to refresh
const refreshKey = "refresh"

func newRefresher(client *Client) *refresher {
	return &refresher{client: client}
}

// Refresh obtains a fresh credential, deduplicating concurrent callers.
// On success the new token is already stored when Refresh returns.
func (r *refresher) Refresh(ctx context.Context) (string, error) {
	token, err, shared := r.group.Do(refreshKey, func() (any, error) {
		return r.refreshOnce(ctx)
	})
	if err != nil {
		return "", err
	}

	if shared {
		r.client.logger.Debug().Msg("Joined in-flight credential refresh")
	}

	return token.(string), nil
}

// refreshOnce performs the actual refresh round trip. The refresh
// endpoint authenticates via the session cookie, so no bearer token or
// body is sent — which also keeps it off the dispatcher's 401 path.
func (r *refresher) refreshOnce(ctx context.Context) (string, error) {
	requestURL := r.client.baseURL + "/api/auth/refresh-token"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Err: fmt.Errorf("failed to read refresh response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &APIError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", fmt.Errorf("failed to parse refresh envelope: %w", err)
	}
	var payload tokenResponse
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return "", fmt.Errorf("failed to parse refresh data: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("refresh response contained no access token")
	}

	if err := r.client.store.Set(payload.AccessToken); err != nil {
		return "", fmt.Errorf("failed to store refreshed credential: %w", err)
	}

	r.client.logger.Debug().Msg("Credential refreshed")
	return payload.AccessToken, nil
}
