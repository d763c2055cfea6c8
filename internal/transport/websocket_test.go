package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatroom-minigame/internal/broadcast"
	"github.com/chatroom-minigame/pkg/logger"
)

// dialSocket upgrades one connection against a throwaway server and returns
// the server-side handle (the one the transport owns) plus the client side.
func dialSocket(t *testing.T) (server, client *websocket.Conn) {
	t.Helper()

	upgrader := websocket.Upgrader{}
	serverConns := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		serverConns <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	server = <-serverConns
	t.Cleanup(func() { server.Close() })
	return server, client
}

func TestSendMissingConnectionIsGone(t *testing.T) {
	tr := NewWebSocket(logger.New())

	err := tr.Send(context.Background(), "nope", []byte("x"))
	assert.ErrorIs(t, err, broadcast.ErrGone)
}

func TestSendAfterDetachIsGone(t *testing.T) {
	tr := NewWebSocket(logger.New())
	server, _ := dialSocket(t)

	tr.Attach("c1", server)
	tr.Detach("c1")

	err := tr.Send(context.Background(), "c1", []byte("x"))
	assert.ErrorIs(t, err, broadcast.ErrGone)
}

func TestSendDelivers(t *testing.T) {
	tr := NewWebSocket(logger.New())
	server, client := dialSocket(t)
	tr.Attach("c1", server)

	require.NoError(t, tr.Send(context.Background(), "c1", []byte(`{"type":"turn"}`)))

	_, message, err := client.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, `{"type":"turn"}`, string(message))
}

func TestSendSerializesConcurrentWriters(t *testing.T) {
	tr := NewWebSocket(logger.New())
	server, client := dialSocket(t)
	tr.Attach("c1", server)

	const writers = 8
	const perWriter = 25

	// Drain the client side so writes never block on a full buffer.
	received := make(chan struct{}, writers*perWriter)
	go func() {
		for {
			if _, _, err := client.ReadMessage(); err != nil {
				return
			}
			received <- struct{}{}
		}
	}()

	// Concurrent commands broadcasting into one room all write to the same
	// socket; every write must succeed, none may panic or tear a frame.
	var wg sync.WaitGroup
	errs := make(chan error, writers*perWriter)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				errs <- tr.Send(context.Background(), "c1", []byte(`{"type":"score_update"}`))
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	for i := 0; i < writers*perWriter; i++ {
		<-received
	}
}
