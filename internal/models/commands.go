package models

import "time"

// StartGameRequest starts a drawing-and-guess game in a room.
type StartGameRequest struct {
	RoomID        string `json:"room_id"`
	StarterID     string `json:"starter_id"`
	TotalRounds   int    `json:"total_rounds"`
	RoundDuration int    `json:"round_duration"` // seconds
}

// SubmitGuessRequest carries one player's guess for the current word.
type SubmitGuessRequest struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// UseHintRequest reveals the round hint; valid once per round.
type UseHintRequest struct {
	SessionID string `json:"session_id"`
}

// StopGameRequest ends a session early; only the starter may issue it.
type StopGameRequest struct {
	SessionID   string `json:"session_id"`
	RequesterID string `json:"requester_id"`
}

// SkipRoundRequest freezes the current round with reason SKIP.
type SkipRoundRequest struct {
	SessionID   string `json:"session_id"`
	RequesterID string `json:"requester_id"`
}

// NextRoundRequest advances a ROUND_END session to the next round.
type NextRoundRequest struct {
	SessionID string `json:"session_id"`
}

// StartWordChainRequest starts a word-chain elimination game in a room.
type StartWordChainRequest struct {
	RoomID    string   `json:"room_id"`
	StarterID string   `json:"starter_id"`
	Players   []string `json:"players"`
}

// SubmitWordRequest carries one player's word for the chain.
type SubmitWordRequest struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Word      string    `json:"word"`
	Timestamp time.Time `json:"timestamp"`
}

// TimeoutRequest is posted by the external timer collaborator when a round
// or turn deadline fires. Round pins the deadline to the round it was armed
// for so a stale timer becomes a no-op.
type TimeoutRequest struct {
	SessionID string `json:"session_id"`
	Round     int    `json:"round"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
