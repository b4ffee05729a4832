// Package session owns the high-level session lifecycle: login,
// registration, logout, and restore-on-startup. It exposes the current
// identity to the rest of the application; nothing else mutates it.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/moviehub/cli/api"
)

// State represents the session lifecycle state
type State int

const (
	// StateUnknown is the initial state before Restore has run
	StateUnknown State = iota
	// StateRestoring indicates a startup restore is in progress
	StateRestoring
	// StateAuthenticated indicates a valid identity is held
	StateAuthenticated
	// StateAnonymous indicates no valid session exists
	StateAnonymous
)

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case StateRestoring:
		return "RESTORING"
	case StateAuthenticated:
		return "AUTHENTICATED"
	case StateAnonymous:
		return "ANONYMOUS"
	default:
		return "UNKNOWN"
	}
}

// Client is the slice of the API client the session manager depends on
type Client interface {
	Login(ctx context.Context, email, password string) error
	Register(ctx context.Context, userName, email, password string) error
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (api.User, error)
}

// CredentialStore is the credential surface the manager needs
type CredentialStore interface {
	Get() string
	Clear() error
}

// Manager drives the session state machine
// Unknown -> Restoring -> {Authenticated, Anonymous}.
// Safe for concurrent use: Expire fires from whichever goroutine hit an
// unrecoverable credential expiry, so it can race the accessors.
type Manager struct {
	client Client
	store  CredentialStore
	logger zerolog.Logger

	mu       sync.Mutex
	state    State
	identity api.User
}

// NewManager creates a session manager. The manager starts in
// StateUnknown; run Restore once at startup to settle it.
func NewManager(client Client, store CredentialStore, logger zerolog.Logger) *Manager {
	return &Manager{
		client: client,
		store:  store,
		logger: logger,
		state:  StateUnknown,
	}
}

// setState transitions the state, dropping the identity unless the new
// state is Authenticated.
func (m *Manager) setState(state State, identity api.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
	m.identity = identity
}

// Restore settles the session from persisted state: with no stored
// credential it lands Anonymous immediately; otherwise it validates the
// credential against the profile endpoint. Auth-shaped failures are
// swallowed (the outcome is simply Anonymous); transport failures are
// returned so callers can tell "logged out" from "server unreachable" —
// but the state is settled Anonymous either way.
func (m *Manager) Restore(ctx context.Context) error {
	m.setState(StateRestoring, api.User{})

	if m.store.Get() == "" {
		m.setState(StateAnonymous, api.User{})
		return nil
	}

	user, err := m.client.Profile(ctx)
	if err != nil {
		if clearErr := m.store.Clear(); clearErr != nil {
			m.logger.Warn().Err(clearErr).Msg("Failed to clear credential")
		}
		m.setState(StateAnonymous, api.User{})

		var transportErr *api.TransportError
		if errors.As(err, &transportErr) {
			return fmt.Errorf("session restore failed: %w", err)
		}
		m.logger.Debug().Err(err).Msg("Stored credential rejected, starting anonymous")
		return nil
	}

	m.setState(StateAuthenticated, user)
	m.logger.Debug().Str("user", user.DisplayName).Msg("Session restored")

	return nil
}

// Login authenticates and fetches the identity. On a profile failure
// after a successful token exchange the session stays Anonymous and the
// error is surfaced.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	if err := m.client.Login(ctx, email, password); err != nil {
		m.setState(StateAnonymous, api.User{})
		return err
	}

	user, err := m.client.Profile(ctx)
	if err != nil {
		m.setState(StateAnonymous, api.User{})
		return err
	}

	m.setState(StateAuthenticated, user)
	m.logger.Info().Str("user", user.DisplayName).Msg("Logged in")

	return nil
}

// Register creates an account and then logs in with the same
// credentials. A login failure after a successful registration is
// surfaced as-is: the account exists, nothing is rolled back.
func (m *Manager) Register(ctx context.Context, userName, email, password string) error {
	if err := m.client.Register(ctx, userName, email, password); err != nil {
		return err
	}
	return m.Login(ctx, email, password)
}

// Logout ends the session. The server call is best-effort; the local
// teardown always succeeds, so Logout never returns an error.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.client.Logout(ctx); err != nil {
		m.logger.Warn().Err(err).Msg("Logout request failed, clearing session anyway")
	}

	if err := m.store.Clear(); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to clear credential")
	}

	m.setState(StateAnonymous, api.User{})
	m.logger.Info().Msg("Logged out")
}

// Expire transitions to Anonymous after the request layer tore the
// session down. Wire it as the client's session-expired hook; it may
// fire concurrently from in-flight request goroutines.
func (m *Manager) Expire() {
	m.setState(StateAnonymous, api.User{})
	m.logger.Debug().Msg("Session expired")
}

// State returns the current session state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Identity returns the authenticated identity, if any
func (m *Manager) Identity() (api.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateAuthenticated {
		return api.User{}, false
	}
	return m.identity, true
}

// IsAdmin reports whether the authenticated user has the ADMIN role
func (m *Manager) IsAdmin() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateAuthenticated && m.identity.Role.IsAdmin()
}
