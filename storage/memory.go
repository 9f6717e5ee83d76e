package storage

import (
	"context"
	"sync"

	"github.com/mghro/open-cradle/config"
	"github.com/mghro/open-cradle/observe"
	"github.com/mghro/open-cradle/value"
)

// MemoryStore is an in-memory store used by tests and by the testing
// configuration flag. Registered under the name "memory".
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

// Name identifies the backend.
func (s *MemoryStore) Name() string { return "memory" }

// Read retrieves a blob; absent keys return an empty blob.
func (s *MemoryStore) Read(_ context.Context, key string) (value.Blob, error) {
	if err := ValidateKey(key); err != nil {
		return value.Blob{}, err
	}
	s.mu.RLock()
	data, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return value.Blob{}, nil
	}
	return value.NewBlob(data), nil
}

// Write stores a blob.
func (s *MemoryStore) Write(_ context.Context, key string, blob value.Blob) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	s.entries[key] = blob.Bytes()
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// RegisterMemoryPlugin registers the in-memory store on r under "memory".
func RegisterMemoryPlugin(r *Registry) {
	r.Register("memory", func(*config.Config, observe.Logger) (Store, error) {
		return NewMemoryStore(), nil
	})
}

var _ Store = (*MemoryStore)(nil)
