package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	record    Record
	expiresAt time.Time
}

// MemoryIdempotencyStore implements IdempotencyStore in process memory.
// It serves single-instance deployments when Redis is disabled.
type MemoryIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryIdempotencyStore creates an empty in-memory store
func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{entries: make(map[string]memoryEntry), now: time.Now}
}

// Reserve claims key as pending. Expired entries are purged on the way.
func (s *MemoryIdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, k)
		}
	}
	if _, exists := s.entries[key]; exists {
		return false, nil
	}
	s.entries[key] = memoryEntry{record: Record{State: StatePending}, expiresAt: now.Add(ttl)}
	return true, nil
}

func (s *MemoryIdempotencyStore) Get(ctx context.Context, key string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || s.now().After(e.expiresAt) {
		return nil, nil
	}
	record := e.record
	return &record, nil
}

func (s *MemoryIdempotencyStore) Complete(ctx context.Context, key string, record Record, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.State = StateCompleted
	s.entries[key] = memoryEntry{record: record, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryIdempotencyStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

var _ IdempotencyStore = (*MemoryIdempotencyStore)(nil)
