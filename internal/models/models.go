package models

import (
	"strings"
	"time"
)

// GameType identifies which mini-game a session record belongs to.
type GameType string

const (
	GameTypeCatchmind GameType = "catchmind"
	GameTypeWordChain GameType = "wordchain"
)

// GameStatus is the lifecycle status of a catchmind session.
type GameStatus string

const (
	GameStatusNone     GameStatus = "NONE"
	GameStatusPlaying  GameStatus = "PLAYING"
	GameStatusRoundEnd GameStatus = "ROUND_END"
	GameStatusFinished GameStatus = "FINISHED"
)

// ChainStatus is the lifecycle status of a word-chain session.
type ChainStatus string

const (
	ChainStatusWaiting  ChainStatus = "WAITING"
	ChainStatusPlaying  ChainStatus = "PLAYING"
	ChainStatusFinished ChainStatus = "FINISHED"
)

// RoundEndReason records why a catchmind round was frozen.
type RoundEndReason string

const (
	RoundEndTimeUp     RoundEndReason = "TIME_UP"
	RoundEndAllCorrect RoundEndReason = "ALL_CORRECT"
	RoundEndSkip       RoundEndReason = "SKIP"
)

// RoomType classifies a chat room; only game rooms may host sessions.
type RoomType string

const (
	RoomTypeGame RoomType = "game"
	RoomTypeChat RoomType = "chat"
)

// Room is the slice of the chat-room record this subsystem needs:
// who hosts it and whether games are allowed in it.
type Room struct {
	ID      string   `json:"id"`
	HostID  string   `json:"host_id"`
	Type    RoomType `json:"type"`
	Members []string `json:"members"` // ordered; fixes the drawer order at start
}

// GameSession is the durable record of one room's drawing-and-guess game.
// It is mutated only through catchmind machine transitions and written back
// with a version-checked conditional put.
type GameSession struct {
	SessionID          string         `json:"session_id"`
	RoomID             string         `json:"room_id"`
	GameType           GameType       `json:"game_type"`
	Status             GameStatus     `json:"status"`
	StartedBy          string         `json:"started_by"`
	CurrentRound       int            `json:"current_round"`
	TotalRounds        int            `json:"total_rounds"`
	CurrentDrawerID    string         `json:"current_drawer_id"`
	CurrentWordID      string         `json:"current_word_id"`
	CurrentWord        string         `json:"current_word"`
	CurrentWordEnglish string         `json:"current_word_english"`
	RoundStartTime     time.Time      `json:"round_start_time"`
	RoundDuration      int            `json:"round_duration"` // seconds
	RoundEndReason     RoundEndReason `json:"round_end_reason,omitempty"`
	Players            []string       `json:"players"`
	DrawerOrder        []string       `json:"drawer_order"`
	Scores             map[string]int `json:"scores"`
	Streaks            map[string]int `json:"streaks"`
	HintUsed           bool           `json:"hint_used"`
	CorrectGuessers    []string       `json:"correct_guessers"`
	ExpiresAt          *time.Time     `json:"expires_at,omitempty"`
}

// HasGuessed reports whether the user already matched this round's word.
func (s *GameSession) HasGuessed(userID string) bool {
	for _, id := range s.CorrectGuessers {
		if id == userID {
			return true
		}
	}
	return false
}

// WordChainSession is the durable record of one room's word-chain game.
type WordChainSession struct {
	SessionID         string            `json:"session_id"`
	RoomID            string            `json:"room_id"`
	GameType          GameType          `json:"game_type"`
	Status            ChainStatus       `json:"status"`
	StartedBy         string            `json:"started_by"`
	CurrentRound      int               `json:"current_round"`
	CurrentPlayerID   string            `json:"current_player_id"`
	CurrentWord       string            `json:"current_word"`
	NextLetter        string            `json:"next_letter,omitempty"`
	TurnStartTime     time.Time         `json:"turn_start_time"`
	TimeLimit         int               `json:"time_limit"` // seconds
	Players           []string          `json:"players"`
	ActivePlayers     []string          `json:"active_players"`
	EliminatedPlayers []string          `json:"eliminated_players"`
	Scores            map[string]int    `json:"scores"`
	UsedWords         []string          `json:"used_words"` // stored lowercased
	WordDefinitions   map[string]string `json:"word_definitions,omitempty"`
	ExpiresAt         *time.Time        `json:"expires_at,omitempty"`
}

// IsWordUsed reports whether the word was already played, case-insensitively.
func (s *WordChainSession) IsWordUsed(word string) bool {
	lower := strings.ToLower(word)
	for _, w := range s.UsedWords {
		if w == lower {
			return true
		}
	}
	return false
}

// IsActive reports whether the user has not been eliminated yet.
func (s *WordChainSession) IsActive(userID string) bool {
	for _, id := range s.ActivePlayers {
		if id == userID {
			return true
		}
	}
	return false
}

// IsGameOver holds once at most one active player remains.
func (s *WordChainSession) IsGameOver() bool {
	return len(s.ActivePlayers) <= 1
}

// Winner returns the sole remaining active player, or "" if there is none.
func (s *WordChainSession) Winner() string {
	if len(s.ActivePlayers) == 1 {
		return s.ActivePlayers[0]
	}
	return ""
}

// Connection is an ephemeral registry entry for one live duplex connection.
// It is destroyed on a disconnect notice, on TTL expiry, or lazily when a
// delivery attempt reports the connection gone.
type Connection struct {
	ConnectionID string    `json:"connection_id"`
	UserID       string    `json:"user_id"`
	RoomID       string    `json:"room_id"`
	ConnectedAt  time.Time `json:"connected_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}
