// Package service orchestrates commands against the game machines: load
// the session snapshot, apply a pure transition, write it back with a
// version-checked conditional put (one internal retry), then broadcast.
// Handlers hold no session state between invocations; different sessions
// never contend with each other.
package service

import (
	"context"

	"github.com/chatroom-minigame/internal/models"
)

// casAttempts bounds the read-apply-write loop: one retry after the first
// version conflict, then the conflict is surfaced to the caller.
const casAttempts = 2

// RoomDirectory resolves the room a command targets. Implemented by the
// chat-room subsystem; a fixture implementation backs the tests.
type RoomDirectory interface {
	GetRoom(ctx context.Context, roomID string) (models.Room, error)
}

// Caster is the broadcast surface the services publish through. Delivery
// failures never fail the originating command.
type Caster interface {
	Deliver(ctx context.Context, roomID string, payload []byte) []string
	DeliverToUser(ctx context.Context, userID string, payload []byte) []string
}

// ConnectionPruner evicts connections whose delivery failed. Satisfied by
// the registry.
type ConnectionPruner interface {
	Unregister(connectionID string)
}

// GameSessionID derives the catchmind record key for a room: one active
// drawing-guess game per room at a time.
func GameSessionID(roomID string) string {
	return "game_" + roomID
}

// ChainSessionID derives the word-chain record key for a room.
func ChainSessionID(roomID string) string {
	return "chain_" + roomID
}
