package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/moviehub/cli/credentials"
)

// refresh-exempt paths: a 401 from these never triggers the refresh
// flow, which prevents an infinite refresh loop.
var authExemptPaths = []string{
	"/auth/login",
	"/auth/register",
	"/auth/refresh-token",
}

// Client talks to the MovieHub API. It attaches the current credential
// to every outbound call, detects credential expiry, refreshes the
// credential exactly once per expiry episode, and replays the failed
// request after a successful refresh.
type Client struct {
	baseURL    string
	store      *credentials.Store
	httpClient *http.Client
	refresher  *refresher
	logger     zerolog.Logger

	// onSessionExpired is invoked after an unrecoverable refresh
	// failure, once the credential has been cleared.
	onSessionExpired func()
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the HTTP client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithSessionExpiredHook registers a callback for unrecoverable refresh
// failures. The credential is already cleared when it fires.
func WithSessionExpiredHook(fn func()) Option {
	return func(c *Client) {
		c.onSessionExpired = fn
	}
}

// SetSessionExpiredHook registers the callback after construction, for
// wiring a session owner that itself needs the client.
func (c *Client) SetSessionExpiredHook(fn func()) {
	c.onSessionExpired = fn
}

// NewClient creates a new MovieHub API client
func NewClient(baseURL string, store *credentials.Store, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: server URL is required", ErrInvalidConfig)
	}
	if store == nil {
		return nil, fmt.Errorf("%w: credential store is required", ErrInvalidConfig)
	}

	baseURL = strings.TrimRight(baseURL, "/")

	// The refresh endpoint authenticates via an HTTP-only session
	// cookie rather than the bearer token, so the client needs a jar.
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	client := &Client{
		baseURL: baseURL,
		store:   store,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
		logger: logger,
	}
	client.refresher = newRefresher(client)

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// pendingRequest is a captured, not-yet-sent description of an API
// call. It is immutable; replaying builds a fresh *http.Request from it.
type pendingRequest struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
}

// isAuthExempt reports whether the request targets a refresh-exempt path
func (p pendingRequest) isAuthExempt() bool {
	for _, exempt := range authExemptPaths {
		if strings.HasPrefix(p.path, exempt) {
			return true
		}
	}
	return false
}

// get issues a GET request and decodes the envelope data into out
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, pendingRequest{method: http.MethodGet, path: path, query: query}, out)
}

// postJSON issues a POST with a JSON body and decodes the envelope data into out
func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}
	return c.do(ctx, pendingRequest{
		method:      http.MethodPost,
		path:        path,
		body:        body,
		contentType: "application/json",
	}, out)
}

// do dispatches a captured request with a single-use retry budget for
// the refresh flow.
func (c *Client) do(ctx context.Context, preq pendingRequest, out any) error {
	return c.dispatch(ctx, preq, out, 1)
}

// dispatch sends the request and resolves retry-eligible 401s through
// the refresh coordinator. retryBudget caps the replay at one attempt.
func (c *Client) dispatch(ctx context.Context, preq pendingRequest, out any, retryBudget int) error {
	resp, err := c.send(ctx, preq)
	if err != nil {
		// Transport failure: no response was received, nothing to
		// refresh against.
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode == http.StatusUnauthorized && !preq.isAuthExempt() && retryBudget > 0 {
		if _, err := c.refresher.Refresh(ctx); err != nil {
			c.logger.Debug().Err(err).
				Str("path", preq.path).
				Msg("Credential refresh failed, tearing down session")
			c.expireSession()
			return &AuthExpiredError{StatusCode: resp.StatusCode}
		}
		return c.dispatch(ctx, preq, out, retryBudget-1)
	}

	if resp.StatusCode == http.StatusUnauthorized && !preq.isAuthExempt() {
		// The replayed request was rejected even with a fresh
		// credential; the session is not recoverable here.
		c.expireSession()
		return &AuthExpiredError{StatusCode: resp.StatusCode}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}

	if out == nil {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("failed to parse response envelope: %w", err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to parse response data: %w", err)
	}

	return nil
}

// send builds and issues a single HTTP round trip from the captured
// request, attaching the current credential when one is held.
func (c *Client) send(ctx context.Context, preq pendingRequest) (*http.Response, error) {
	requestURL := c.baseURL + "/api" + preq.path
	if len(preq.query) > 0 {
		requestURL += "?" + preq.query.Encode()
	}

	var bodyReader io.Reader
	if preq.body != nil {
		bodyReader = bytes.NewReader(preq.body)
	}

	req, err := http.NewRequestWithContext(ctx, preq.method, requestURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if preq.contentType != "" {
		req.Header.Set("Content-Type", preq.contentType)
	}
	req.Header.Set("Accept", "application/json")

	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	if token := c.store.Get(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("method", preq.method).
		Str("path", preq.path).
		Int("status", resp.StatusCode).
		Str("request_id", requestID).
		Msg("MovieHub API request")

	return resp, nil
}

// expireSession clears the credential and notifies the session owner.
// The refresh coordinator is the only component that initiates a
// refresh; this path only tears down.
func (c *Client) expireSession() {
	if err := c.store.Clear(); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to clear credential")
	}
	if c.onSessionExpired != nil {
		c.onSessionExpired()
	}
}

// errorMessage extracts the server-provided message from an error body
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(body))
}
