// Package registry tracks the live duplex connections of each room. It is
// independent of game state: entries appear on handshake and disappear on
// disconnect, TTL expiry or a failed delivery reported by the broadcaster.
package registry

import (
	"sync"
	"time"

	"github.com/chatroom-minigame/internal/models"
)

// Registry is the per-process connection registry, keyed by connection id
// and indexed by room (fan-out) and by user (direct addressing).
type Registry struct {
	mu     sync.RWMutex
	byConn map[string]models.Connection
	byRoom map[string]map[string]struct{}
	byUser map[string]map[string]struct{}
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		byConn: make(map[string]models.Connection),
		byRoom: make(map[string]map[string]struct{}),
		byUser: make(map[string]map[string]struct{}),
	}
}

// Register adds a connection. Re-registering an id overwrites the entry.
func (r *Registry) Register(conn models.Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, exists := r.byConn[conn.ConnectionID]; exists {
		r.dropIndexes(old)
	}
	r.byConn[conn.ConnectionID] = conn

	if r.byRoom[conn.RoomID] == nil {
		r.byRoom[conn.RoomID] = make(map[string]struct{})
	}
	r.byRoom[conn.RoomID][conn.ConnectionID] = struct{}{}

	if r.byUser[conn.UserID] == nil {
		r.byUser[conn.UserID] = make(map[string]struct{})
	}
	r.byUser[conn.UserID][conn.ConnectionID] = struct{}{}
}

// Unregister removes a connection; unknown ids are ignored.
func (r *Registry) Unregister(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, exists := r.byConn[connectionID]
	if !exists {
		return
	}
	delete(r.byConn, connectionID)
	r.dropIndexes(conn)
}

// ListByRoom returns a snapshot of the room's current connections.
func (r *Registry) ListByRoom(roomID string) []models.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byRoom[roomID]
	conns := make([]models.Connection, 0, len(ids))
	for id := range ids {
		conns = append(conns, r.byConn[id])
	}
	return conns
}

// ListByUser returns a snapshot of the user's current connections.
func (r *Registry) ListByUser(userID string) []models.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byUser[userID]
	conns := make([]models.Connection, 0, len(ids))
	for id := range ids {
		conns = append(conns, r.byConn[id])
	}
	return conns
}

// PruneExpired removes every connection whose ttl has passed and returns
// the removed entries so the transport can drop its handles too.
func (r *Registry) PruneExpired(now time.Time) []models.Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []models.Connection
	for id, conn := range r.byConn {
		if now.After(conn.ExpiresAt) {
			delete(r.byConn, id)
			r.dropIndexes(conn)
			removed = append(removed, conn)
		}
	}
	return removed
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn)
}

// dropIndexes must be called with the write lock held.
func (r *Registry) dropIndexes(conn models.Connection) {
	if ids := r.byRoom[conn.RoomID]; ids != nil {
		delete(ids, conn.ConnectionID)
		if len(ids) == 0 {
			delete(r.byRoom, conn.RoomID)
		}
	}
	if ids := r.byUser[conn.UserID]; ids != nil {
		delete(ids, conn.ConnectionID)
		if len(ids) == 0 {
			delete(r.byUser, conn.UserID)
		}
	}
}
