// Package tokenstore persists session tokens in the OS keychain/credential
// manager, keyed per server so one CLI can hold sessions on several consoles.
package tokenstore

import (
	"errors"
	"fmt"
	"sync"

	"github.com/zalando/go-keyring"
)

const service = "iqadmin-cli"

// Store defines the interface for token storage operations.
// This allows us to mock the keyring in tests.
type Store interface {
	// Save persists the token for a server
	Save(serverAddr, token string) error
	// Read returns the stored token and whether one exists
	Read(serverAddr string) (string, bool)
	// Clear removes the token for a server. Clearing an absent token is a no-op.
	Clear(serverAddr string) error
}

// getKeyringKey returns a unique key for storing JWT tokens per server
func getKeyringKey(serverAddr string) string {
	return fmt.Sprintf("jwt-%s", serverAddr)
}

// keyringStore implements Store using the OS keyring
type keyringStore struct{}

// Default is the production token store
var Default Store = &keyringStore{}

func (k *keyringStore) Save(serverAddr, token string) error {
	if err := keyring.Set(service, getKeyringKey(serverAddr), token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

func (k *keyringStore) Read(serverAddr string) (string, bool) {
	token, err := keyring.Get(service, getKeyringKey(serverAddr))
	if err != nil {
		return "", false
	}
	return token, true
}

func (k *keyringStore) Clear(serverAddr string) error {
	if err := keyring.Delete(service, getKeyringKey(serverAddr)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already cleared
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// Memory is an in-memory Store for tests. Safe for concurrent use: the
// client transport reads tokens from many goroutines while the session's
// unauthorized hook clears them.
type Memory struct {
	mu     sync.Mutex
	tokens map[string]string
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{tokens: make(map[string]string)}
}

func (m *Memory) Save(serverAddr, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[serverAddr] = token
	return nil
}

func (m *Memory) Read(serverAddr string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.tokens[serverAddr]
	return token, ok
}

func (m *Memory) Clear(serverAddr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, serverAddr)
	return nil
}
