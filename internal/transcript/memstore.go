package transcript

import (
	"context"
	"sync"
)

var _ Store = (*MemStore)(nil)

// MemStore is an in-memory Store. It is the default when no database is
// configured, and doubles as the test implementation.
type MemStore struct {
	mu      sync.Mutex
	entries map[string][]Entry
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[string][]Entry)}
}

// Append implements [Store].
func (s *MemStore) Append(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.SessionID] = append(s.entries[e.SessionID], e)
	return nil
}

// BySession implements [Store].
func (s *MemStore) BySession(_ context.Context, sessionID string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries[sessionID]))
	copy(out, s.entries[sessionID])
	return out, nil
}
