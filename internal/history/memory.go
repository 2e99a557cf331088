package history

import (
	"context"
	"sync"

	"github.com/replynow20/gemini-zotero/internal/domain"
)

// MemoryStore keeps history in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	max      int
	sessions map[string][]domain.Turn
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore(maxMessages int) *MemoryStore {
	return &MemoryStore{
		max:      limitOrDefault(maxMessages),
		sessions: make(map[string][]domain.Turn),
	}
}

// Load returns a copy of the session's turns.
func (s *MemoryStore) Load(ctx context.Context, key string) ([]domain.Turn, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Turn(nil), s.sessions[key]...), nil
}

// Append adds turns to the session.
func (s *MemoryStore) Append(ctx context.Context, key string, turns ...domain.Turn) error {
	if err := checkKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[key] = trim(append(s.sessions[key], domain.TextOnly(turns)...), s.max)
	return nil
}

// Clear removes the session.
func (s *MemoryStore) Clear(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
