package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryStore provides in-memory versioned storage. It backs tests and
// single-node deployments; expiry is checked lazily on read.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*memoryRecord
}

type memoryRecord struct {
	value     []byte
	version   int64
	expiresAt time.Time // zero = no expiry
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*memoryRecord),
	}
}

// Get retrieves a record by key
func (s *MemoryStore) Get(ctx context.Context, key string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.records[key]
	if !exists || rec.expired(time.Now()) {
		return nil, ErrNotFound
	}

	value := make([]byte, len(rec.value))
	copy(value, rec.value)
	return &Record{Key: key, Value: value, Version: rec.version}, nil
}

// Put writes a record if the stored version still matches expectedVersion.
func (s *MemoryStore) Put(ctx context.Context, key string, value []byte, expectedVersion int64, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	rec, exists := s.records[key]
	if exists && rec.expired(now) {
		delete(s.records, key)
		exists = false
	}

	if expectedVersion == 0 {
		if exists {
			return 0, ErrVersionConflict
		}
	} else {
		if !exists || rec.version != expectedVersion {
			return 0, ErrVersionConflict
		}
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	next := &memoryRecord{value: stored, version: expectedVersion + 1}
	if ttl > 0 {
		next.expiresAt = now.Add(ttl)
	}
	s.records[key] = next
	return next.version, nil
}

// Delete removes a record; deleting a missing key is not an error.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)
	return nil
}

func (r *memoryRecord) expired(now time.Time) bool {
	return !r.expiresAt.IsZero() && now.After(r.expiresAt)
}
