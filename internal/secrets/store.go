// Package secrets is a file-based credential store for provider API
// keys: a keychain replacement that keeps keys out of the config file.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

const credentialsFilename = "credentials.yaml"

// ErrNotFound is returned when no credential exists for a provider.
var ErrNotFound = errors.New("credential not found")

// Store holds provider API keys persisted to a 0600 YAML file.
type Store struct {
	mu   sync.RWMutex
	path string
	keys map[string]string
}

// DefaultDir returns the store directory under the user config dir.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, "breadcrumbs"), nil
}

// Open loads the credential store from dir, creating an empty store when
// the file does not exist yet.
func Open(dir string) (*Store, error) {
	path := filepath.Join(dir, credentialsFilename)
	s := &Store{path: path, keys: make(map[string]string)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	if err := yaml.Unmarshal(data, &s.keys); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	if s.keys == nil {
		s.keys = make(map[string]string)
	}
	return s, nil
}

// Get returns the API key stored for a provider.
func (s *Store) Get(provider string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.keys[provider]
	if !ok || key == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, provider)
	}
	return key, nil
}

// Set stores an API key for a provider and persists the file.
func (s *Store) Set(provider, key string) error {
	if provider == "" {
		return errors.New("provider is required")
	}
	if key == "" {
		return errors.New("key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[provider] = key
	return s.saveLocked()
}

// Delete removes a provider's key. Deleting an absent key is a no-op.
func (s *Store) Delete(provider string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[provider]; !ok {
		return nil
	}
	delete(s.keys, provider)
	return s.saveLocked()
}

// Providers returns the providers with stored keys, sorted.
func (s *Store) Providers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.keys))
	for provider := range s.keys {
		out = append(out, provider)
	}
	sort.Strings(out)
	return out
}

func (s *Store) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	data, err := yaml.Marshal(s.keys)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	// Keys only; 0600 keeps other local users out.
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}
