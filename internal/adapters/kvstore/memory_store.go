package kvstore

import (
	"context"
	"sync"

	"github.com/zatekoja/apprating/internal/domain/providers"
)

// MemoryStore is a process-local KVStore, used for tests and ephemeral runs.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

// GetString retrieves a value
func (s *MemoryStore) GetString(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.data[key]
	if !ok {
		return "", providers.ErrKeyNotFound
	}
	return value, nil
}

// SetString stores a value
func (s *MemoryStore) SetString(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

// RemoveItem deletes a key
func (s *MemoryStore) RemoveItem(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// GetMulti retrieves several keys
func (s *MemoryStore) GetMulti(ctx context.Context, keys []string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(keys))
	for _, key := range keys {
		if value, ok := s.data[key]; ok {
			out[key] = value
		}
	}
	return out, nil
}

// Update applies fn while holding the store lock
func (s *MemoryStore) Update(ctx context.Context, key string, fn providers.UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, exists := s.data[key]
	next, write, err := fn(current, exists)
	if err != nil {
		return err
	}
	if write {
		s.data[key] = next
	}
	return nil
}

// Len returns the number of stored keys
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}
