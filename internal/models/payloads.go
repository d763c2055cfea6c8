package models

import (
	"encoding/json"
	"sort"
	"time"
)

// Payload types for the {type, data} broadcast envelope.
const (
	PayloadGameStatus  = "game_status"
	PayloadCloseGuess  = "close_guess"
	PayloadScoreUpdate = "score_update"
	PayloadScoreboard  = "scoreboard"
	PayloadTurn        = "turn"
	PayloadElimination = "elimination"
	PayloadGameOver    = "game_over"
)

// Envelope wraps every outbound broadcast payload.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Wrap marshals data into a typed envelope ready for delivery.
func Wrap(payloadType string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: payloadType, Data: raw})
}

// RankEntry is one row of a ranking: rank = position+1 after a stable sort
// by score descending. Ties keep the stored player order.
type RankEntry struct {
	Rank   int    `json:"rank"`
	UserID string `json:"user_id"`
	Score  int    `json:"score"`
}

// BuildRanking produces the ranking for a scores mapping. Pairs are built in
// the session's stored player order and stable-sorted, so tie-breaking
// reproduces the stored iteration order rather than any secondary key.
func BuildRanking(scores map[string]int, playerOrder []string) []RankEntry {
	entries := make([]RankEntry, 0, len(playerOrder))
	for _, id := range playerOrder {
		score, ok := scores[id]
		if !ok {
			continue
		}
		entries = append(entries, RankEntry{UserID: id, Score: score})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// GameStatusPayload is broadcast on every catchmind state transition.
type GameStatusPayload struct {
	Status          GameStatus     `json:"status"`
	CurrentRound    int            `json:"current_round"`
	TotalRounds     int            `json:"total_rounds"`
	CurrentDrawerID string         `json:"current_drawer_id"`
	RoundStartTime  time.Time      `json:"round_start_time"`
	RoundDuration   int            `json:"round_duration"`
	DrawerOrder     []string       `json:"drawer_order"`
	Scores          map[string]int `json:"scores"`
	HintUsed        bool           `json:"hint_used"`
	CorrectGuessers []string       `json:"correct_guessers"`
}

// GameStatusOf derives the status payload from a session snapshot.
func GameStatusOf(s *GameSession) GameStatusPayload {
	return GameStatusPayload{
		Status:          s.Status,
		CurrentRound:    s.CurrentRound,
		TotalRounds:     s.TotalRounds,
		CurrentDrawerID: s.CurrentDrawerID,
		RoundStartTime:  s.RoundStartTime,
		RoundDuration:   s.RoundDuration,
		DrawerOrder:     s.DrawerOrder,
		Scores:          s.Scores,
		HintUsed:        s.HintUsed,
		CorrectGuessers: s.CorrectGuessers,
	}
}

// ScoreUpdatePayload is broadcast when a guess or word scores.
type ScoreUpdatePayload struct {
	ScorerID     string      `json:"scorer_id"`
	ScoreGained  int         `json:"score_gained"`
	TotalScore   int         `json:"total_score"`
	Ranking      []RankEntry `json:"ranking"`
	CurrentRound int         `json:"current_round"`
	TotalRounds  int         `json:"total_rounds"`
	Timestamp    time.Time   `json:"timestamp"`
}

// ScoreboardPayload is the read-model of a session's standings.
type ScoreboardPayload struct {
	Scores       map[string]int `json:"scores"`
	Ranking      []RankEntry    `json:"ranking"`
	GameStatus   string         `json:"game_status"`
	CurrentRound int            `json:"current_round"`
	TotalRounds  int            `json:"total_rounds"`
}

// TurnPayload announces whose turn it is in the word-chain game.
type TurnPayload struct {
	CurrentPlayerID string    `json:"current_player_id"`
	CurrentRound    int       `json:"current_round"`
	NextLetter      string    `json:"next_letter,omitempty"`
	TimeLimit       int       `json:"time_limit"`
	TurnStartTime   time.Time `json:"turn_start_time"`
}

// EliminationPayload announces a player's elimination from the chain.
type EliminationPayload struct {
	UserID        string   `json:"user_id"`
	Reason        string   `json:"reason"`
	ActivePlayers []string `json:"active_players"`
}

// GameOverPayload announces the end of a word-chain game.
type GameOverPayload struct {
	WinnerID string      `json:"winner_id,omitempty"`
	Ranking  []RankEntry `json:"ranking"`
}
