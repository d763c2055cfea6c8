package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chatroom-minigame/internal/gameerr"
	"github.com/chatroom-minigame/internal/models"
	"github.com/chatroom-minigame/internal/service"
	"github.com/chatroom-minigame/pkg/logger"
)

// Handler holds all HTTP handlers
type Handler struct {
	catchmind *service.CatchmindService
	wordchain *service.WordChainService
	rooms     *service.StaticRooms
	ws        *WebsocketHandler
	logger    *logger.Logger
}

// NewHandler creates a new handler
func NewHandler(
	catchmind *service.CatchmindService,
	wordchain *service.WordChainService,
	rooms *service.StaticRooms,
	ws *WebsocketHandler,
	log *logger.Logger,
) *Handler {
	return &Handler{
		catchmind: catchmind,
		wordchain: wordchain,
		rooms:     rooms,
		ws:        ws,
		logger:    log,
	}
}

// Routes sets up all routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", h.Health)
	r.Get("/ws", h.ws.Serve)

	r.Route("/game", func(r chi.Router) {
		r.Post("/start", h.StartGame)
		r.Post("/guess", h.SubmitGuess)
		r.Post("/hint", h.UseHint)
		r.Post("/skip", h.SkipRound)
		r.Post("/next-round", h.NextRound)
		r.Post("/stop", h.StopGame)
		r.Get("/{roomID}/scoreboard", h.GameScoreboard)
	})

	r.Route("/wordchain", func(r chi.Router) {
		r.Post("/start", h.StartWordChain)
		r.Post("/word", h.SubmitWord)
		r.Get("/{roomID}/scoreboard", h.ChainScoreboard)
	})

	// Collaborator surfaces: the timer service posts deadline firings, the
	// chat-room subsystem syncs room state.
	r.Route("/internal", func(r chi.Router) {
		r.Post("/game/timeout", h.GameTimeout)
		r.Post("/wordchain/timeout", h.ChainTimeout)
		r.Put("/rooms/{roomID}", h.UpsertRoom)
	})

	return r
}

// Health handles health check requests
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// StartGame handles POST /game/start
func (h *Handler) StartGame(w http.ResponseWriter, r *http.Request) {
	var req models.StartGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	sess, err := h.catchmind.StartGame(r.Context(), req)
	if err != nil {
		h.respondGameError(w, r, "failed to start game", err)
		return
	}
	h.respondJSON(w, http.StatusCreated, sess)
}

// SubmitGuess handles POST /game/guess
func (h *Handler) SubmitGuess(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitGuessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	_, result, err := h.catchmind.SubmitGuess(r.Context(), req)
	if err != nil {
		h.respondGameError(w, r, "failed to submit guess", err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{
		"correct":      result.Correct,
		"close":        result.Close,
		"score_gained": result.ScoreGained,
		"round_ended":  result.RoundEnded,
	})
}

// UseHint handles POST /game/hint
func (h *Handler) UseHint(w http.ResponseWriter, r *http.Request) {
	var req models.UseHintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	sess, err := h.catchmind.UseHint(r.Context(), req)
	if err != nil {
		h.respondGameError(w, r, "failed to use hint", err)
		return
	}
	h.respondJSON(w, http.StatusOK, sess)
}

// SkipRound handles POST /game/skip
func (h *Handler) SkipRound(w http.ResponseWriter, r *http.Request) {
	var req models.SkipRoundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	sess, err := h.catchmind.SkipRound(r.Context(), req)
	if err != nil {
		h.respondGameError(w, r, "failed to skip round", err)
		return
	}
	h.respondJSON(w, http.StatusOK, sess)
}

// NextRound handles POST /game/next-round
func (h *Handler) NextRound(w http.ResponseWriter, r *http.Request) {
	var req models.NextRoundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	sess, err := h.catchmind.NextRound(r.Context(), req)
	if err != nil {
		h.respondGameError(w, r, "failed to advance round", err)
		return
	}
	h.respondJSON(w, http.StatusOK, sess)
}

// StopGame handles POST /game/stop
func (h *Handler) StopGame(w http.ResponseWriter, r *http.Request) {
	var req models.StopGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	sess, err := h.catchmind.StopGame(r.Context(), req)
	if err != nil {
		h.respondGameError(w, r, "failed to stop game", err)
		return
	}
	h.respondJSON(w, http.StatusOK, sess)
}

// GameScoreboard handles GET /game/{roomID}/scoreboard
func (h *Handler) GameScoreboard(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	board, err := h.catchmind.Scoreboard(r.Context(), service.GameSessionID(roomID))
	if err != nil {
		h.respondGameError(w, r, "failed to load scoreboard", err)
		return
	}
	h.respondJSON(w, http.StatusOK, board)
}

// StartWordChain handles POST /wordchain/start
func (h *Handler) StartWordChain(w http.ResponseWriter, r *http.Request) {
	var req models.StartWordChainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	sess, err := h.wordchain.StartWordChain(r.Context(), req)
	if err != nil {
		h.respondGameError(w, r, "failed to start word-chain", err)
		return
	}
	h.respondJSON(w, http.StatusCreated, sess)
}

// SubmitWord handles POST /wordchain/word
func (h *Handler) SubmitWord(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitWordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	_, result, err := h.wordchain.SubmitWord(r.Context(), req)
	if err != nil {
		h.respondGameError(w, r, "failed to submit word", err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{
		"accepted":      result.Accepted,
		"violation":     result.Violation,
		"eliminated_id": result.EliminatedID,
		"score_gained":  result.ScoreGained,
		"game_over":     result.GameOver,
		"winner_id":     result.WinnerID,
	})
}

// ChainScoreboard handles GET /wordchain/{roomID}/scoreboard
func (h *Handler) ChainScoreboard(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	board, err := h.wordchain.Scoreboard(r.Context(), service.ChainSessionID(roomID))
	if err != nil {
		h.respondGameError(w, r, "failed to load scoreboard", err)
		return
	}
	h.respondJSON(w, http.StatusOK, board)
}

// GameTimeout handles POST /internal/game/timeout
func (h *Handler) GameTimeout(w http.ResponseWriter, r *http.Request) {
	var req models.TimeoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	sess, err := h.catchmind.HandleRoundTimeout(r.Context(), req)
	if err != nil {
		h.respondGameError(w, r, "failed to apply round timeout", err)
		return
	}
	h.respondJSON(w, http.StatusOK, sess)
}

// ChainTimeout handles POST /internal/wordchain/timeout
func (h *Handler) ChainTimeout(w http.ResponseWriter, r *http.Request) {
	var req models.TimeoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	sess, err := h.wordchain.HandleTurnTimeout(r.Context(), req)
	if err != nil {
		h.respondGameError(w, r, "failed to apply turn timeout", err)
		return
	}
	h.respondJSON(w, http.StatusOK, sess)
}

// UpsertRoom handles PUT /internal/rooms/{roomID}
func (h *Handler) UpsertRoom(w http.ResponseWriter, r *http.Request) {
	var room models.Room
	if err := json.NewDecoder(r.Body).Decode(&room); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	room.ID = chi.URLParam(r, "roomID")
	h.rooms.Upsert(room)
	h.respondJSON(w, http.StatusOK, room)
}

// respondGameError maps the error taxonomy onto HTTP status codes.
func (h *Handler) respondGameError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	requestID := GetRequestID(r.Context())
	h.logger.Warn(msg,
		logger.F("error", err.Error()),
		logger.F("request_id", requestID))

	status := http.StatusInternalServerError
	if kind, ok := gameerr.KindOf(err); ok {
		switch kind {
		case gameerr.KindValidation:
			status = http.StatusBadRequest
		case gameerr.KindAuthorization:
			status = http.StatusForbidden
		case gameerr.KindConflict:
			status = http.StatusConflict
		case gameerr.KindNotFound:
			status = http.StatusNotFound
		case gameerr.KindState:
			status = http.StatusUnprocessableEntity
		}
	}
	h.respondError(w, status, msg, err.Error())
}

// respondJSON sends a JSON response
func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func (h *Handler) respondError(w http.ResponseWriter, status int, errorMsg, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.ErrorResponse{
		Error:   errorMsg,
		Message: message,
	})
}
