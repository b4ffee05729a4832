// Package credentials holds the current MovieHub access credential and
// persists it across process restarts. The token is the only persisted
// client state; it lives in a single 0600 JSON file under the user
// config directory and is owned exclusively by the Store.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

const defaultFileName = "credentials.json"

// persisted is the on-disk shape of the credential file
type persisted struct {
	AccessToken string `json:"accessToken"`
}

// Store is a process-wide holder of the current access credential.
// Safe for concurrent use; overlapping API calls read it while the
// refresh flow replaces it.
type Store struct {
	path  string
	mu    sync.RWMutex
	token string
}

// DefaultPath returns the standard credential file location under the
// user config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "moviehub", defaultFileName), nil
}

// NewStore creates a store backed by the given file, loading any
// previously persisted token so a credential survives a restart.
// A missing file is not an error; the store starts empty.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read credential file: %w", err)
	}

	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		// A corrupt file is treated as absent; the next Set rewrites it.
		return s, nil
	}
	s.token = p.AccessToken

	return s, nil
}

// Get returns the current token, or "" when no credential is held.
func (s *Store) Get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Set stores the token in memory and persists it.
func (s *Store) Set(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token

	data, err := json.Marshal(persisted{AccessToken: token})
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create credential dir: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to persist credential: %w", err)
	}

	return nil
}

// Clear drops the token from memory and removes the persisted state.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove credential file: %w", err)
	}

	return nil
}
