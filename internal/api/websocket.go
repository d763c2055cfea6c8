package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/chatroom-minigame/internal/models"
	"github.com/chatroom-minigame/internal/service"
	"github.com/chatroom-minigame/internal/transport"
	"github.com/chatroom-minigame/pkg/logger"
)

// Inbound command types accepted over the socket.
const (
	inboundGuess = "guess"
	inboundWord  = "word"
)

// WebsocketHandler upgrades client connections and pumps their inbound
// commands into the game services. The gateway in front of this service has
// already authenticated the user; X-User-ID carries the verified identity.
type WebsocketHandler struct {
	upgrader    websocket.Upgrader
	sockets     *transport.WebSocket
	connections *service.ConnectionService
	catchmind   *service.CatchmindService
	wordchain   *service.WordChainService
	logger      *logger.Logger
}

// NewWebsocketHandler creates a websocket handler.
func NewWebsocketHandler(
	sockets *transport.WebSocket,
	connections *service.ConnectionService,
	catchmind *service.CatchmindService,
	wordchain *service.WordChainService,
	log *logger.Logger,
) *WebsocketHandler {
	return &WebsocketHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin checks happen at the gateway.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		sockets:     sockets,
		connections: connections,
		catchmind:   catchmind,
		wordchain:   wordchain,
		logger:      log.With(logger.F("component", "ws")),
	}
}

// Serve handles GET /ws?room_id=...
func (h *WebsocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		userID = r.URL.Query().Get("user_id")
	}
	roomID := r.URL.Query().Get("room_id")
	if userID == "" || roomID == "" {
		http.Error(w, "user_id and room_id are required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", logger.F("error", err.Error()))
		return
	}

	entry := h.connections.Connect(userID, roomID)
	h.sockets.Attach(entry.ConnectionID, conn)
	defer h.connections.Disconnect(entry.ConnectionID)

	h.sockets.ReadLoop(r.Context(), entry.ConnectionID, conn, func(message []byte) {
		h.dispatch(r.Context(), userID, message)
	})
}

// dispatch routes one inbound envelope to the matching game command. Bad
// input is logged and dropped; command errors already reach the client
// through the HTTP surface, the socket is fire-and-forget.
func (h *WebsocketHandler) dispatch(ctx context.Context, userID string, message []byte) {
	var env models.Envelope
	if err := json.Unmarshal(message, &env); err != nil {
		h.logger.Debug("dropping malformed inbound message", logger.F("error", err.Error()))
		return
	}

	switch env.Type {
	case inboundGuess:
		var req models.SubmitGuessRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			h.logger.Debug("dropping malformed guess", logger.F("error", err.Error()))
			return
		}
		req.UserID = userID
		if _, _, err := h.catchmind.SubmitGuess(ctx, req); err != nil {
			h.logger.Debug("guess rejected",
				logger.F("user_id", userID),
				logger.F("error", err.Error()))
		}
	case inboundWord:
		var req models.SubmitWordRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			h.logger.Debug("dropping malformed word", logger.F("error", err.Error()))
			return
		}
		req.UserID = userID
		if _, _, err := h.wordchain.SubmitWord(ctx, req); err != nil {
			h.logger.Debug("word rejected",
				logger.F("user_id", userID),
				logger.F("error", err.Error()))
		}
	default:
		h.logger.Debug("unknown inbound type", logger.F("type", env.Type))
	}
}
