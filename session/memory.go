package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps conversation contexts in a mutex-guarded map. Put is
// last-write-wins; two concurrent turns for the same conversation id do
// not merge.
type MemoryStore struct {
	mu       sync.RWMutex
	contexts map[string]Context
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{contexts: make(map[string]Context)}
}

// Get returns the context for a conversation id.
func (s *MemoryStore) Get(_ context.Context, id string) (Context, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contexts[id]
	return c, ok
}

// Put replaces the context for a conversation id.
func (s *MemoryStore) Put(_ context.Context, id string, c Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contexts[id] = c
}

// Sweep evicts conversations untouched for longer than TTL.
func (s *MemoryStore) Sweep(_ context.Context, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, c := range s.contexts {
		if now.Sub(c.Timestamp) > TTL {
			delete(s.contexts, id)
			removed++
		}
	}
	return removed
}

// Len reports how many conversations are currently stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.contexts)
}
