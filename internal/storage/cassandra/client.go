package cassandra

import (
	"fmt"

	"github.com/gocql/gocql"

	"github.com/chatroom-minigame/internal/config"
	"github.com/chatroom-minigame/pkg/logger"
)

// Client wraps a gocql.Session and provides connection management
type Client struct {
	session *gocql.Session
	config  config.CassandraConfig
	logger  *logger.Logger
}

// NewClient creates a new Cassandra client and establishes a connection
func NewClient(cfg config.CassandraConfig, log *logger.Logger) (*Client, error) {
	cluster := gocql.NewCluster(cfg.Hosts...)

	cluster.Timeout = cfg.Timeout
	cluster.ConnectTimeout = cfg.Timeout
	cluster.Consistency = parseConsistency(cfg.Consistency)

	if cfg.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		}
	}

	cluster.NumConns = 2
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create Cassandra session: %w", err)
	}

	log.Info("Connected to Cassandra", logger.F("hosts", fmt.Sprintf("%v", cfg.Hosts)), logger.F("keyspace", cfg.Keyspace))

	client := &Client{
		session: session,
		config:  cfg,
		logger:  log,
	}

	if err := client.initializeSchema(); err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return client, nil
}

// Session returns the underlying gocql.Session
func (c *Client) Session() *gocql.Session {
	return c.session
}

// Keyspace returns the configured keyspace
func (c *Client) Keyspace() string {
	return c.config.Keyspace
}

// Close closes the Cassandra session
func (c *Client) Close() {
	if c.session != nil {
		c.session.Close()
		c.logger.Info("Cassandra session closed")
	}
}

// initializeSchema creates the keyspace and the session-record table.
// Records carry an explicit version column; writes go through lightweight
// transactions conditioned on it.
func (c *Client) initializeSchema() error {
	keyspace := c.config.Keyspace

	createKeyspaceQuery := fmt.Sprintf(`
		CREATE KEYSPACE IF NOT EXISTS %s
		WITH replication = {
			'class': 'SimpleStrategy',
			'replication_factor': 1
		}`, keyspace)

	if err := c.session.Query(createKeyspaceQuery).Exec(); err != nil {
		return fmt.Errorf("failed to create keyspace: %w", err)
	}

	createTableQuery := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.session_records (
			key text PRIMARY KEY,
			value text,
			version bigint
		)`, keyspace)

	if err := c.session.Query(createTableQuery).Exec(); err != nil {
		return fmt.Errorf("failed to create session_records table: %w", err)
	}

	c.logger.Info("Cassandra schema initialized", logger.F("keyspace", keyspace))
	return nil
}

// parseConsistency parses a consistency level string
func parseConsistency(consistencyStr string) gocql.Consistency {
	switch consistencyStr {
	case "ONE":
		return gocql.One
	case "TWO":
		return gocql.Two
	case "THREE":
		return gocql.Three
	case "QUORUM":
		return gocql.Quorum
	case "ALL":
		return gocql.All
	case "LOCAL_QUORUM":
		return gocql.LocalQuorum
	case "EACH_QUORUM":
		return gocql.EachQuorum
	case "LOCAL_ONE":
		return gocql.LocalOne
	default:
		return gocql.Quorum
	}
}
