// Package session provides persistence for the client's credential state.
package session

import (
	"sync"

	"github.com/studyrag/ragchat/internal/domain"
)

// Store defines the interface for holding the current session.
//
// The store is the only place the credential lives: the request gateway reads
// it at the start of every call and clears it on an authentication rejection,
// and the login/logout intents are the only other writers. Nothing caches a
// token beyond a single request.
type Store interface {
	// Get returns the current session. An empty session means unauthenticated.
	Get() (domain.Session, error)

	// Set replaces the session with the given token and role.
	Set(token string, role domain.Role) error

	// Clear removes token and role together. Clearing an already-empty
	// store is a no-op, not an error.
	Clear() error

	// Close releases any underlying resources.
	Close() error
}

// MemStore is an in-memory Store. It loses the session on restart and exists
// for tests and ephemeral runs.
type MemStore struct {
	mu      sync.Mutex
	current domain.Session
}

// NewMem creates an empty in-memory store.
func NewMem() *MemStore {
	return &MemStore{}
}

// Get returns the current session.
func (m *MemStore) Get() (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current, nil
}

// Set replaces the session.
func (m *MemStore) Set(token string, role domain.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = domain.Session{Token: token, Role: role}
	return nil
}

// Clear removes the session.
func (m *MemStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = domain.Session{}
	return nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error {
	return nil
}
