package service

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/chatroom-minigame/internal/models"
	"github.com/chatroom-minigame/internal/registry"
	"github.com/chatroom-minigame/pkg/logger"
)

// SocketDetacher releases the transport handle of a dead connection.
type SocketDetacher interface {
	Detach(connectionID string)
}

// ConnectionService manages connection lifecycle around the registry. The
// upstream layer has already authenticated the user by the time Connect is
// called.
type ConnectionService struct {
	registry *registry.Registry
	sockets  SocketDetacher
	ttl      time.Duration
	logger   *logger.Logger
}

// NewConnectionService creates a connection service.
func NewConnectionService(reg *registry.Registry, sockets SocketDetacher, ttl time.Duration, log *logger.Logger) *ConnectionService {
	return &ConnectionService{
		registry: reg,
		sockets:  sockets,
		ttl:      ttl,
		logger:   log.With(logger.F("component", "connections")),
	}
}

// Connect registers a new connection for a verified user and returns its
// registry entry.
func (s *ConnectionService) Connect(userID, roomID string) models.Connection {
	now := time.Now()
	conn := models.Connection{
		ConnectionID: "conn_" + uuid.New().String(),
		UserID:       userID,
		RoomID:       roomID,
		ConnectedAt:  now,
		ExpiresAt:    now.Add(s.ttl),
	}
	s.registry.Register(conn)
	s.logger.Info("connection registered",
		logger.F("connection_id", conn.ConnectionID),
		logger.F("user_id", userID),
		logger.F("room_id", roomID))
	return conn
}

// Disconnect removes a connection from the registry and releases its
// socket. Safe to call more than once.
func (s *ConnectionService) Disconnect(connectionID string) {
	s.registry.Unregister(connectionID)
	s.sockets.Detach(connectionID)
	s.logger.Info("connection removed", logger.F("connection_id", connectionID))
}

// Prune drops every connection whose ttl passed. It complements, not
// replaces, the lazy eviction done after failed deliveries.
func (s *ConnectionService) Prune(now time.Time) int {
	removed := s.registry.PruneExpired(now)
	for _, conn := range removed {
		s.sockets.Detach(conn.ConnectionID)
	}
	if len(removed) > 0 {
		s.logger.Info("pruned expired connections", logger.F("count", strconv.Itoa(len(removed))))
	}
	return len(removed)
}
