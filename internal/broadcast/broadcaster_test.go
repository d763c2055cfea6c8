package broadcast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/chatroom-minigame/internal/models"
	"github.com/chatroom-minigame/pkg/logger"
)

type fakeTransport struct {
	sent []string
	fail map[string]error
}

func (t *fakeTransport) Send(ctx context.Context, connectionID string, payload []byte) error {
	if err, ok := t.fail[connectionID]; ok {
		return err
	}
	t.sent = append(t.sent, connectionID)
	return nil
}

type fixedLister struct {
	byRoom map[string][]models.Connection
	byUser map[string][]models.Connection
}

func (l fixedLister) ListByRoom(roomID string) []models.Connection { return l.byRoom[roomID] }
func (l fixedLister) ListByUser(userID string) []models.Connection { return l.byUser[userID] }

func roomConns(roomID string, ids ...string) []models.Connection {
	conns := make([]models.Connection, 0, len(ids))
	for _, id := range ids {
		conns = append(conns, models.Connection{
			ConnectionID: id,
			RoomID:       roomID,
			ExpiresAt:    time.Now().Add(time.Hour),
		})
	}
	return conns
}

func TestDeliverReportsGoneConnections(t *testing.T) {
	transport := &fakeTransport{fail: map[string]error{"c2": ErrGone}}
	lister := fixedLister{byRoom: map[string][]models.Connection{
		"room1": roomConns("room1", "c1", "c2", "c3"),
	}}
	b := New(lister, transport, logger.New())

	failed := b.Deliver(context.Background(), "room1", []byte(`{"type":"turn"}`))

	// Exactly the gone connection is reported; the rest still got the
	// payload.
	assert.Equal(t, []string{"c2"}, failed)
	assert.ElementsMatch(t, []string{"c1", "c3"}, transport.sent)
}

func TestDeliverLogsOtherFailures(t *testing.T) {
	transport := &fakeTransport{fail: map[string]error{"c2": errors.New("write timeout")}}
	lister := fixedLister{byRoom: map[string][]models.Connection{
		"room1": roomConns("room1", "c1", "c2"),
	}}
	b := New(lister, transport, logger.New())

	failed := b.Deliver(context.Background(), "room1", []byte("x"))

	// Non-gone failures are not eviction signals.
	assert.Empty(t, failed)
	assert.Equal(t, []string{"c1"}, transport.sent)
}

func TestDeliverEmptyRoom(t *testing.T) {
	b := New(fixedLister{}, &fakeTransport{}, logger.New())

	failed := b.Deliver(context.Background(), "room1", []byte("x"))
	assert.Empty(t, failed)
}

func TestDeliverToUser(t *testing.T) {
	transport := &fakeTransport{fail: map[string]error{"c2": ErrGone}}
	lister := fixedLister{byUser: map[string][]models.Connection{
		"alice": roomConns("room1", "c1", "c2"),
	}}
	b := New(lister, transport, logger.New())

	failed := b.DeliverToUser(context.Background(), "alice", []byte("x"))

	assert.Equal(t, []string{"c2"}, failed)
	assert.Equal(t, []string{"c1"}, transport.sent)
}
