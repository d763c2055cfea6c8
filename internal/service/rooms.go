package service

import (
	"context"
	"sync"

	"github.com/chatroom-minigame/internal/gameerr"
	"github.com/chatroom-minigame/internal/models"
)

// StaticRooms is an in-process room directory fed by the chat-room
// subsystem through the internal room-sync endpoint.
type StaticRooms struct {
	mu    sync.RWMutex
	rooms map[string]models.Room
}

// NewStaticRooms creates an empty room directory.
func NewStaticRooms() *StaticRooms {
	return &StaticRooms{rooms: make(map[string]models.Room)}
}

// Upsert replaces the stored state of a room.
func (d *StaticRooms) Upsert(room models.Room) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rooms[room.ID] = room
}

// Remove drops a room from the directory.
func (d *StaticRooms) Remove(roomID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.rooms, roomID)
}

// GetRoom implements RoomDirectory.
func (d *StaticRooms) GetRoom(ctx context.Context, roomID string) (models.Room, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	room, ok := d.rooms[roomID]
	if !ok {
		return models.Room{}, gameerr.NotFound("room %s not found", roomID)
	}
	return room, nil
}
