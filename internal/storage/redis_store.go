package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chatroom-minigame/internal/config"
)

// RedisStore implements the Store interface using Redis. Each record is a
// hash of {version, data}; the conditional write runs as a Lua script so
// the version check and the overwrite are a single atomic step.
type RedisStore struct {
	client *redis.Client
}

// casScript performs the version-checked write. Returns the new version,
// or -1 when the stored version no longer matches.
var casScript = redis.NewScript(`
local v = redis.call('HGET', KEYS[1], 'version')
if ARGV[1] == '0' then
  if v then return -1 end
else
  if not v or v ~= ARGV[1] then return -1 end
end
local nv = tonumber(ARGV[1]) + 1
redis.call('HSET', KEYS[1], 'version', nv, 'data', ARGV[2])
if tonumber(ARGV[3]) > 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[3])
else
  redis.call('PERSIST', KEYS[1])
end
return nv
`)

// NewRedisStore creates a new Redis store and verifies the connection.
func NewRedisStore(cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// Get retrieves a record by key
func (s *RedisStore) Get(ctx context.Context, key string) (*Record, error) {
	fields, err := s.client.HMGet(ctx, recordKey(key), "version", "data").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	if fields[0] == nil || fields[1] == nil {
		return nil, ErrNotFound
	}

	versionStr, ok := fields[0].(string)
	if !ok {
		return nil, fmt.Errorf("unexpected version type for key %s", key)
	}
	version, err := strconv.ParseInt(versionStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt version for key %s: %w", key, err)
	}

	data, ok := fields[1].(string)
	if !ok {
		return nil, fmt.Errorf("unexpected data type for key %s", key)
	}

	return &Record{Key: key, Value: []byte(data), Version: version}, nil
}

// Put writes a record if the stored version still matches expectedVersion.
func (s *RedisStore) Put(ctx context.Context, key string, value []byte, expectedVersion int64, ttl time.Duration) (int64, error) {
	result, err := casScript.Run(ctx, s.client,
		[]string{recordKey(key)},
		strconv.FormatInt(expectedVersion, 10),
		string(value),
		strconv.FormatInt(ttl.Milliseconds(), 10),
	).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to put record: %w", err)
	}
	if result < 0 {
		return 0, ErrVersionConflict
	}
	return result, nil
}

// Delete removes a record
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, recordKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// recordKey generates a Redis key for a session record.
func recordKey(key string) string {
	return "session:" + key
}
