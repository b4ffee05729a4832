package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moviehub/cli/credentials"
)

func newTestStore(t *testing.T) *credentials.Store {
	t.Helper()
	store, err := credentials.NewStore(filepath.Join(t.TempDir(), "credentials.json"))
	require.NoError(t, err)
	return store
}

func newTestClient(t *testing.T, serverURL string, store *credentials.Store, opts ...Option) *Client {
	t.Helper()
	client, err := NewClient(serverURL, store, zerolog.Nop(), opts...)
	require.NoError(t, err)
	return client
}

func writeEnvelope(w http.ResponseWriter, data any) {
	json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func TestNewClient(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("missing URL", func(t *testing.T) {
		_, err := NewClient("", newTestStore(t), logger)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("missing store", func(t *testing.T) {
		_, err := NewClient("http://localhost:5000", nil, logger)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("trailing slash trimmed", func(t *testing.T) {
		client, err := NewClient("http://localhost:5000/", newTestStore(t), logger)
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:5000", client.baseURL)
	})
}

func TestBearerAndRequestIDAttached(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("token-1"))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		writeEnvelope(w, map[string]any{"id": "u1", "userName": "alice", "email": "a@b.c", "role": "USER"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, store)

	user, err := client.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", user.DisplayName)
}

// Exactly one refresh call must be made when a herd of concurrent
// requests all hit a 401, and every request completes with its outcome.
func TestConcurrent401sRefreshOnce(t *testing.T) {
	const workers = 8

	store := newTestStore(t)
	require.NoError(t, store.Set("stale"))

	var refreshCalls atomic.Int32
	var arrived sync.WaitGroup
	arrived.Add(workers)
	allArrived := make(chan struct{})
	go func() {
		arrived.Wait()
		close(allArrived)
	}()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/refresh-token":
			refreshCalls.Add(1)
			// Hold the refresh open long enough that every 401 joins it
			time.Sleep(200 * time.Millisecond)
			writeEnvelope(w, map[string]string{"accessToken": "fresh"})
		case "/api/auth/profile":
			if r.Header.Get("Authorization") != "Bearer fresh" {
				// Park stale requests until the whole herd is in flight
				arrived.Done()
				<-allArrived
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			writeEnvelope(w, map[string]any{"id": "u1", "userName": "alice", "email": "a@b.c", "role": "USER"})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, store)

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = client.Profile(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "request %d", i)
	}
	assert.Equal(t, int32(1), refreshCalls.Load(), "expected exactly one refresh call")
	assert.Equal(t, "fresh", store.Get())
}

// A 401, a successful refresh and a successful replay must be invisible
// to the caller.
func TestRefreshAndReplay(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("stale"))

	var refreshCalls, profileCalls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/refresh-token":
			refreshCalls.Add(1)
			writeEnvelope(w, map[string]string{"accessToken": "fresh"})
		case "/api/auth/profile":
			profileCalls.Add(1)
			if r.Header.Get("Authorization") != "Bearer fresh" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			writeEnvelope(w, map[string]any{"id": "u1", "userName": "alice", "email": "a@b.c", "role": "ADMIN"})
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, store)

	user, err := client.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", user.DisplayName)
	assert.True(t, user.Role.IsAdmin())
	assert.Equal(t, int32(1), refreshCalls.Load())
	assert.Equal(t, int32(2), profileCalls.Load(), "original plus one replay")
}

// A replayed request that 401s again must not trigger a second refresh.
func TestReplayNeverRefreshesTwice(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("stale"))

	var refreshCalls atomic.Int32
	expired := false

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/refresh-token":
			refreshCalls.Add(1)
			writeEnvelope(w, map[string]string{"accessToken": "fresh"})
		case "/api/auth/profile":
			// Reject even the fresh token
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, store, WithSessionExpiredHook(func() { expired = true }))

	_, err := client.Profile(context.Background())
	require.Error(t, err)

	var authErr *AuthExpiredError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, int32(1), refreshCalls.Load())
	assert.True(t, expired, "session-expired hook should fire")
	assert.Empty(t, store.Get(), "credential must be cleared")
}

// A failing refresh tears the session down and surfaces AuthExpiredError.
func TestRefreshFailureTearsDownSession(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("stale"))

	expired := false

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/refresh-token":
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": "refresh token expired"})
		case "/api/auth/profile":
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, store, WithSessionExpiredHook(func() { expired = true }))

	_, err := client.Profile(context.Background())
	require.Error(t, err)

	var authErr *AuthExpiredError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
	assert.True(t, expired)
	assert.Empty(t, store.Get())
}

// 401s on the auth endpoints themselves must never enter the refresh flow.
func TestExemptPathsNeverRefresh(t *testing.T) {
	var refreshCalls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/refresh-token":
			refreshCalls.Add(1)
			writeEnvelope(w, map[string]string{"accessToken": "fresh"})
		case "/api/auth/login":
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": "invalid credentials"})
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, newTestStore(t))

	err := client.Login(context.Background(), "a@b.c", "wrong")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "invalid credentials", apiErr.Message)
	assert.Equal(t, int32(0), refreshCalls.Load(), "login 401 must not refresh")
}

func TestTransportErrorNotRetried(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	serverURL := server.URL
	server.Close() // nothing is listening anymore

	client := newTestClient(t, serverURL, newTestStore(t))

	_, err := client.Profile(context.Background())
	require.Error(t, err)

	var transportErr *TransportError
	assert.ErrorAs(t, err, &transportErr)
	assert.NotErrorAs(t, err, new(*AuthExpiredError))
}

func TestAPIErrorPassthrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"message": "database unavailable"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, newTestStore(t))

	_, err := client.Profile(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "database unavailable", apiErr.Message)
	assert.False(t, apiErr.IsNotFound())
}

func TestLoginStoresToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/login", r.URL.Path)

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "a@b.c", payload["email"])
		assert.Equal(t, "secret", payload["password"])

		writeEnvelope(w, map[string]string{"accessToken": "token-after-login"})
	}))
	defer server.Close()

	store := newTestStore(t)
	client := newTestClient(t, server.URL, store)

	require.NoError(t, client.Login(context.Background(), "a@b.c", "secret"))
	assert.Equal(t, "token-after-login", store.Get())
}

func TestErrorTypes(t *testing.T) {
	t.Run("api error string", func(t *testing.T) {
		err := &APIError{StatusCode: 404, Message: "movie not found"}
		assert.Contains(t, err.Error(), "404")
		assert.True(t, err.IsNotFound())
		assert.False(t, err.IsUnauthorized())
	})

	t.Run("auth expired classification", func(t *testing.T) {
		err := fmt.Errorf("wrapped: %w", &AuthExpiredError{StatusCode: 401})
		assert.True(t, IsAuthExpired(err))
		assert.False(t, IsAuthExpired(errors.New("other")))
	})

	t.Run("transport error unwraps", func(t *testing.T) {
		inner := errors.New("connection refused")
		err := &TransportError{Err: inner}
		assert.ErrorIs(t, err, inner)
	})
}
