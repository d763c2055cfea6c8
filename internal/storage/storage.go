// Package storage provides the durable session-record store: keyed records
// with version-checked conditional writes. Three backends implement the same
// contract: in-memory (tests, single node), Redis and Cassandra.
package storage

import (
	"context"
	"time"
)

// Record is one stored session snapshot plus its write version.
type Record struct {
	Key     string
	Value   []byte
	Version int64
}

// Store defines the versioned record store contract.
//
// Put enforces single-writer discipline: the write succeeds only when the
// stored version still equals expectedVersion. expectedVersion 0 means
// "create"; the write fails with ErrVersionConflict if the key exists.
// A ttl of zero stores the record without expiry.
type Store interface {
	Get(ctx context.Context, key string) (*Record, error)
	Put(ctx context.Context, key string, value []byte, expectedVersion int64, ttl time.Duration) (int64, error)
	Delete(ctx context.Context, key string) error
}

// Errors
var (
	ErrNotFound        = &StorageError{Message: "record not found"}
	ErrVersionConflict = &StorageError{Message: "record version conflict"}
)

// StorageError represents a storage error
type StorageError struct {
	Message string
}

func (e *StorageError) Error() string {
	return e.Message
}
