package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/chatroom-minigame/internal/models"
)

func conn(id, userID, roomID string, expiresAt time.Time) models.Connection {
	return models.Connection{
		ConnectionID: id,
		UserID:       userID,
		RoomID:       roomID,
		ConnectedAt:  expiresAt.Add(-time.Hour),
		ExpiresAt:    expiresAt,
	}
}

func TestRegisterAndList(t *testing.T) {
	r := New()
	expires := time.Now().Add(time.Hour)

	r.Register(conn("c1", "alice", "room1", expires))
	r.Register(conn("c2", "bob", "room1", expires))
	r.Register(conn("c3", "alice", "room2", expires))

	assert.Equal(t, 3, r.Len())
	assert.Len(t, r.ListByRoom("room1"), 2)
	assert.Len(t, r.ListByRoom("room2"), 1)
	assert.Len(t, r.ListByRoom("room3"), 0)
	assert.Len(t, r.ListByUser("alice"), 2)
	assert.Len(t, r.ListByUser("bob"), 1)
}

func TestReRegisterOverwrites(t *testing.T) {
	r := New()
	expires := time.Now().Add(time.Hour)

	r.Register(conn("c1", "alice", "room1", expires))
	r.Register(conn("c1", "alice", "room2", expires))

	assert.Equal(t, 1, r.Len())
	assert.Len(t, r.ListByRoom("room1"), 0)
	assert.Len(t, r.ListByRoom("room2"), 1)
}

func TestUnregister(t *testing.T) {
	r := New()
	expires := time.Now().Add(time.Hour)

	r.Register(conn("c1", "alice", "room1", expires))
	r.Unregister("c1")
	r.Unregister("c1") // unknown ids are ignored

	assert.Equal(t, 0, r.Len())
	assert.Len(t, r.ListByRoom("room1"), 0)
	assert.Len(t, r.ListByUser("alice"), 0)
}

func TestPruneExpired(t *testing.T) {
	r := New()
	now := time.Now()

	r.Register(conn("c1", "alice", "room1", now.Add(-time.Minute)))
	r.Register(conn("c2", "bob", "room1", now.Add(time.Hour)))

	removed := r.PruneExpired(now)

	assert.Len(t, removed, 1)
	assert.Equal(t, "c1", removed[0].ConnectionID)
	assert.Equal(t, 1, r.Len())
	assert.Len(t, r.ListByRoom("room1"), 1)
}
