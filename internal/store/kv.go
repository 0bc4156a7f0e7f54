// Package store persists scoped record collections in a synchronous
// string-keyed local store. The adapter tolerates missing and corrupt data
// on reads and swallows write failures — local persistence must never block
// or surface errors to the caller; it is the durable source of truth and
// degrades to in-memory operation rather than failing.
package store

import "sync"

// KV is the synchronous string-keyed storage the adapter persists into.
// Implementations must be safe for concurrent use.
type KV interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool)
	// Set stores the value for key.
	Set(key, value string) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
}

// Memory is an in-process KV for tests and ephemeral sessions.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory creates an empty in-memory KV.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

// Get implements KV.
func (m *Memory) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

// Set implements KV.
func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// Delete implements KV.
func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
