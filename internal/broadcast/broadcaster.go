// Package broadcast fans payloads out to the live connections of a room.
// Delivery is best-effort and at-most-once per connection per call: one
// connection failing never blocks the others, and nothing is retried.
package broadcast

import (
	"context"
	"errors"

	"github.com/chatroom-minigame/internal/models"
	"github.com/chatroom-minigame/pkg/logger"
)

// ErrGone is returned by a Transport when the connection no longer accepts
// delivery. Gone connections are reported back to the caller for pruning;
// any other failure is only logged.
var ErrGone = errors.New("connection gone")

// Transport delivers a payload to a single connection.
type Transport interface {
	Send(ctx context.Context, connectionID string, payload []byte) error
}

// ConnectionLister is the registry view the broadcaster needs.
type ConnectionLister interface {
	ListByRoom(roomID string) []models.Connection
	ListByUser(userID string) []models.Connection
}

// Broadcaster fans payloads out through the registry.
type Broadcaster struct {
	conns     ConnectionLister
	transport Transport
	logger    *logger.Logger
}

// New creates a broadcaster.
func New(conns ConnectionLister, transport Transport, log *logger.Logger) *Broadcaster {
	return &Broadcaster{
		conns:     conns,
		transport: transport,
		logger:    log.With(logger.F("component", "broadcaster")),
	}
}

// Deliver attempts delivery to every connection of the room and returns the
// connection ids that failed with a gone/stale signal. The caller is
// responsible for unregistering every returned id.
func (b *Broadcaster) Deliver(ctx context.Context, roomID string, payload []byte) []string {
	var failed []string
	for _, conn := range b.conns.ListByRoom(roomID) {
		if err := b.transport.Send(ctx, conn.ConnectionID, payload); err != nil {
			if errors.Is(err, ErrGone) {
				failed = append(failed, conn.ConnectionID)
				continue
			}
			b.logger.Warn("delivery failed",
				logger.F("connection_id", conn.ConnectionID),
				logger.F("room_id", roomID),
				logger.F("error", err.Error()))
		}
	}
	return failed
}

// DeliverToUser addresses a payload to a single user's connections, used
// for per-player signals that must not reach the whole room.
func (b *Broadcaster) DeliverToUser(ctx context.Context, userID string, payload []byte) []string {
	var failed []string
	for _, conn := range b.conns.ListByUser(userID) {
		if err := b.transport.Send(ctx, conn.ConnectionID, payload); err != nil {
			if errors.Is(err, ErrGone) {
				failed = append(failed, conn.ConnectionID)
				continue
			}
			b.logger.Warn("delivery failed",
				logger.F("connection_id", conn.ConnectionID),
				logger.F("user_id", userID),
				logger.F("error", err.Error()))
		}
	}
	return failed
}
