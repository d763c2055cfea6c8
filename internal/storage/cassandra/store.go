package cassandra

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"

	"github.com/chatroom-minigame/internal/storage"
)

// Store implements the storage.Store contract on Cassandra. The version
// check rides on lightweight transactions (IF version = ?), so the
// compare-and-set happens inside the cluster rather than in this process.
type Store struct {
	client *Client
}

// NewStore creates a Cassandra-backed record store.
func NewStore(client *Client) *Store {
	return &Store{client: client}
}

// Get retrieves a record by key
func (s *Store) Get(ctx context.Context, key string) (*storage.Record, error) {
	query := fmt.Sprintf(
		"SELECT value, version FROM %s.session_records WHERE key = ?",
		s.client.Keyspace())

	var value string
	var version int64
	err := s.client.Session().Query(query, key).WithContext(ctx).Scan(&value, &version)
	if err == gocql.ErrNotFound {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	return &storage.Record{Key: key, Value: []byte(value), Version: version}, nil
}

// Put writes a record if the stored version still matches expectedVersion.
func (s *Store) Put(ctx context.Context, key string, value []byte, expectedVersion int64, ttl time.Duration) (int64, error) {
	newVersion := expectedVersion + 1
	ttlSeconds := int(ttl / time.Second)

	var query *gocql.Query
	if expectedVersion == 0 {
		stmt := fmt.Sprintf(
			"INSERT INTO %s.session_records (key, value, version) VALUES (?, ?, ?) IF NOT EXISTS USING TTL ?",
			s.client.Keyspace())
		query = s.client.Session().Query(stmt, key, string(value), newVersion, ttlSeconds)
	} else {
		stmt := fmt.Sprintf(
			"UPDATE %s.session_records USING TTL ? SET value = ?, version = ? WHERE key = ? IF version = ?",
			s.client.Keyspace())
		query = s.client.Session().Query(stmt, ttlSeconds, string(value), newVersion, key, expectedVersion)
	}

	applied, err := query.WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return 0, fmt.Errorf("failed to put record: %w", err)
	}
	if !applied {
		return 0, storage.ErrVersionConflict
	}
	return newVersion, nil
}

// Delete removes a record
func (s *Store) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf(
		"DELETE FROM %s.session_records WHERE key = ?",
		s.client.Keyspace())

	if err := s.client.Session().Query(query, key).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}
