// Package transport implements payload delivery over gorilla/websocket
// connections. It satisfies the broadcast.Transport contract: delivery
// either succeeds or reports the connection gone.
package transport

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/chatroom-minigame/internal/broadcast"
	"github.com/chatroom-minigame/pkg/logger"
)

const (
	writeWait = 5 * time.Second

	// inboundRate limits how fast one connection may push commands; bursts
	// cover normal guess spam without letting a client flood the room.
	inboundRate  = 10
	inboundBurst = 20

	maxMessageSize = 4096
)

// socket pairs a connection with its write lock. gorilla/websocket supports
// at most one concurrent writer per connection, so every write must hold mu
// for the full deadline+write sequence.
type socket struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// WebSocket owns the live socket handles, keyed by connection id.
type WebSocket struct {
	mu     sync.RWMutex
	conns  map[string]*socket
	logger *logger.Logger
}

// NewWebSocket creates an empty websocket transport.
func NewWebSocket(log *logger.Logger) *WebSocket {
	return &WebSocket{
		conns:  make(map[string]*socket),
		logger: log.With(logger.F("component", "transport")),
	}
}

// Attach binds a socket to a connection id.
func (t *WebSocket) Attach(connectionID string, conn *websocket.Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conns[connectionID] = &socket{conn: conn}
}

// Detach removes and closes the socket for a connection id; unknown ids are
// ignored.
func (t *WebSocket) Detach(connectionID string) {
	t.mu.Lock()
	sock, exists := t.conns[connectionID]
	delete(t.conns, connectionID)
	t.mu.Unlock()

	if exists {
		sock.conn.Close()
	}
}

// Send delivers one payload to one connection. Writes to the same connection
// are serialized on its write lock; commands publishing into the same room
// concurrently queue here instead of interleaving frames. A missing handle or
// a write failure both surface as broadcast.ErrGone; a failed socket is
// detached so the next attempt fails fast.
func (t *WebSocket) Send(ctx context.Context, connectionID string, payload []byte) error {
	t.mu.RLock()
	sock, exists := t.conns[connectionID]
	t.mu.RUnlock()

	if !exists {
		return broadcast.ErrGone
	}

	deadline := time.Now().Add(writeWait)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	sock.mu.Lock()
	sock.conn.SetWriteDeadline(deadline)
	err := sock.conn.WriteMessage(websocket.TextMessage, payload)
	sock.mu.Unlock()

	if err != nil {
		t.logger.Debug("write failed, detaching",
			logger.F("connection_id", connectionID),
			logger.F("error", err.Error()))
		t.Detach(connectionID)
		return broadcast.ErrGone
	}
	return nil
}

// ReadLoop pumps inbound messages to the handler until the socket dies.
// Reads are rate limited per connection; clients that exceed the limit are
// disconnected.
func (t *WebSocket) ReadLoop(ctx context.Context, connectionID string, conn *websocket.Conn, handle func([]byte)) {
	limiter := rate.NewLimiter(inboundRate, inboundBurst)
	conn.SetReadLimit(maxMessageSize)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			t.logger.Debug("read loop ended",
				logger.F("connection_id", connectionID),
				logger.F("error", err.Error()))
			return
		}
		if !limiter.Allow() {
			t.logger.Warn("rate limit exceeded, dropping connection",
				logger.F("connection_id", connectionID))
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
		handle(message)
	}
}
