package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backend selectors.
const (
	BackendMemory    = "memory"
	BackendRedis     = "redis"
	BackendCassandra = "cassandra"
)

// Config holds all configuration for the application
type Config struct {
	Host           string
	Port           string
	StorageBackend string
	ConnectionTTL  time.Duration
	PruneInterval  time.Duration
	Redis          RedisConfig
	Cassandra      CassandraConfig
	Game           GameConfig
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// CassandraConfig holds Cassandra-specific configuration
type CassandraConfig struct {
	Hosts       []string
	Keyspace    string
	Username    string
	Password    string
	Consistency string
	Timeout     time.Duration
}

// GameConfig holds default game parameters used when a start command omits
// them.
type GameConfig struct {
	DefaultTotalRounds   int
	DefaultRoundDuration int // seconds
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	host := getEnv("HOST", "0.0.0.0")
	port := getEnv("PORT", "8080")

	backend := getEnv("STORAGE_BACKEND", BackendMemory)
	switch backend {
	case BackendMemory, BackendRedis, BackendCassandra:
	default:
		return nil, fmt.Errorf("invalid STORAGE_BACKEND value: %s", backend)
	}

	connTTL, err := getEnvInt("CONNECTION_TTL_SECONDS", 7200)
	if err != nil {
		return nil, err
	}
	pruneInterval, err := getEnvInt("PRUNE_INTERVAL_SECONDS", 60)
	if err != nil {
		return nil, err
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	cassandraTimeout, err := getEnvInt("CASSANDRA_TIMEOUT_SECONDS", 5)
	if err != nil {
		return nil, err
	}

	totalRounds, err := getEnvInt("GAME_DEFAULT_TOTAL_ROUNDS", 3)
	if err != nil {
		return nil, err
	}
	roundDuration, err := getEnvInt("GAME_DEFAULT_ROUND_DURATION_SECONDS", 90)
	if err != nil {
		return nil, err
	}

	return &Config{
		Host:           host,
		Port:           port,
		StorageBackend: backend,
		ConnectionTTL:  time.Duration(connTTL) * time.Second,
		PruneInterval:  time.Duration(pruneInterval) * time.Second,
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Cassandra: CassandraConfig{
			Hosts:       parseHosts(getEnv("CASSANDRA_HOSTS", "localhost:9042")),
			Keyspace:    getEnv("CASSANDRA_KEYSPACE", "minigame"),
			Username:    getEnv("CASSANDRA_USERNAME", ""),
			Password:    getEnv("CASSANDRA_PASSWORD", ""),
			Consistency: getEnv("CASSANDRA_CONSISTENCY", "QUORUM"),
			Timeout:     time.Duration(cassandraTimeout) * time.Second,
		},
		Game: GameConfig{
			DefaultTotalRounds:   totalRounds,
			DefaultRoundDuration: roundDuration,
		},
	}, nil
}

// Address returns the full address (host:port)
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return value, nil
}

// parseHosts parses a comma-separated list of hosts
func parseHosts(hostsStr string) []string {
	parts := strings.Split(hostsStr, ",")
	hosts := make([]string, 0, len(parts))
	for _, part := range parts {
		host := strings.TrimSpace(part)
		if host != "" {
			hosts = append(hosts, host)
		}
	}
	if len(hosts) == 0 {
		return []string{"localhost:9042"}
	}
	return hosts
}
