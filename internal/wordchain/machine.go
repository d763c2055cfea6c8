// Package wordchain implements the word-chain elimination game as pure
// state transitions mirroring the catchmind machine: snapshot in, new
// snapshot out, with persistence and broadcast handled by the service.
package wordchain

import (
	"strings"
	"time"
	"unicode"

	"github.com/chatroom-minigame/internal/engine"
	"github.com/chatroom-minigame/internal/gameerr"
	"github.com/chatroom-minigame/internal/models"
	"github.com/chatroom-minigame/internal/words"
)

// FinishedTTL is how long a finished session stays readable before the
// store may expire it.
const FinishedTTL = time.Hour

const minPlayers = 2

// Violation reasons carried in SubmitResult and elimination broadcasts.
const (
	ViolationOutOfTurn   = "out_of_turn"
	ViolationWordUsed    = "word_used"
	ViolationWrongLetter = "wrong_letter"
	ViolationTimeout     = "timeout"
)

// SubmitResult describes what a word submission (or timeout) did.
type SubmitResult struct {
	Accepted     bool
	Violation    string // empty when the word was accepted
	EliminatedID string // set when the turn holder was eliminated
	ScoreGained  int
	TotalScore   int
	Definition   string // best-effort gloss for the accepted word
	GameOver     bool
	WinnerID     string
}

// Start produces a fresh PLAYING session. All players begin active; the
// first player in the list holds the first turn.
func Start(room models.Room, starterID string, players []string, sessionID string, now time.Time) (*models.WordChainSession, error) {
	if room.Type != models.RoomTypeGame {
		return nil, gameerr.Validation("room %s is not a game room", room.ID)
	}
	if starterID != room.HostID {
		return nil, gameerr.Authorization("only the room host may start a game")
	}
	if len(players) < minPlayers {
		return nil, gameerr.Validation("need at least %d players, got %d", minPlayers, len(players))
	}

	scores := make(map[string]int, len(players))
	for _, id := range players {
		scores[id] = 0
	}

	return &models.WordChainSession{
		SessionID:         sessionID,
		RoomID:            room.ID,
		GameType:          models.GameTypeWordChain,
		Status:            models.ChainStatusPlaying,
		StartedBy:         starterID,
		CurrentRound:      1,
		CurrentPlayerID:   players[0],
		TurnStartTime:     now,
		TimeLimit:         engine.TurnTimeLimit(1),
		Players:           append([]string{}, players...),
		ActivePlayers:     append([]string{}, players...),
		EliminatedPlayers: []string{},
		Scores:            scores,
		UsedWords:         []string{},
		WordDefinitions:   map[string]string{},
	}, nil
}

// SubmitWord applies one player's word. An off-turn submission, a reused
// word and a wrong starting letter are all turn violations: the turn holder
// is eliminated and the turn advances, no partial credit. A valid word
// scores, fixes the next starting letter and hands the turn on.
func SubmitWord(s *models.WordChainSession, userID, word string, now time.Time) (*models.WordChainSession, SubmitResult, error) {
	if s.Status != models.ChainStatusPlaying {
		return nil, SubmitResult{}, gameerr.State("cannot submit a word while game is %s", s.Status)
	}
	if s.IsGameOver() {
		return nil, SubmitResult{}, gameerr.State("game is already over")
	}
	trimmed := strings.TrimSpace(word)
	if trimmed == "" {
		return nil, SubmitResult{}, gameerr.Validation("word must not be empty")
	}

	// An off-turn attempt penalizes the turn holder, not the caller: failing
	// to defend the turn is what costs the spot.
	if userID != s.CurrentPlayerID {
		return eliminateAndAdvance(s, ViolationOutOfTurn, now)
	}
	if s.IsWordUsed(trimmed) {
		return eliminateAndAdvance(s, ViolationWordUsed, now)
	}
	if s.NextLetter != "" && !startsWith(trimmed, s.NextLetter) {
		return eliminateAndAdvance(s, ViolationWrongLetter, now)
	}

	next := clone(s)
	next.UsedWords = append(next.UsedWords, strings.ToLower(trimmed))
	next.CurrentWord = trimmed

	result := SubmitResult{Accepted: true}
	if gloss, ok := words.Define(trimmed); ok {
		next.WordDefinitions[strings.ToLower(trimmed)] = gloss
		result.Definition = gloss
	}

	elapsed := int(now.Sub(s.TurnStartTime) / time.Second)
	result.ScoreGained = engine.WordScore(s.TimeLimit, elapsed, trimmed)
	next.Scores[userID] += result.ScoreGained
	result.TotalScore = next.Scores[userID]

	next.NextLetter = lastLetter(trimmed)
	next.CurrentPlayerID = engine.NextActivePlayer(next.ActivePlayers, userID)
	next.CurrentRound++
	next.TimeLimit = engine.TurnTimeLimit(next.CurrentRound)
	next.TurnStartTime = now
	return next, result, nil
}

// TimeoutTurn is the turn-violation entry point for the external timer:
// the turn holder failed to submit in time and is eliminated. The caller
// must have verified the deadline still belongs to the current turn.
func TimeoutTurn(s *models.WordChainSession, now time.Time) (*models.WordChainSession, SubmitResult, error) {
	if s.Status != models.ChainStatusPlaying || s.IsGameOver() {
		return s, SubmitResult{}, nil
	}
	return eliminateAndAdvance(s, ViolationTimeout, now)
}

// Eliminate removes the user from the active list and records the
// elimination. Both halves are idempotent: absent users are not re-removed
// and the eliminated list never holds duplicates.
func Eliminate(s *models.WordChainSession, userID string) *models.WordChainSession {
	next := clone(s)
	for i, id := range next.ActivePlayers {
		if id == userID {
			next.ActivePlayers = append(next.ActivePlayers[:i], next.ActivePlayers[i+1:]...)
			break
		}
	}
	for _, id := range next.EliminatedPlayers {
		if id == userID {
			return next
		}
	}
	next.EliminatedPlayers = append(next.EliminatedPlayers, userID)
	return next
}

func eliminateAndAdvance(s *models.WordChainSession, violation string, now time.Time) (*models.WordChainSession, SubmitResult, error) {
	eliminated := s.CurrentPlayerID
	next := Eliminate(s, eliminated)

	result := SubmitResult{
		Violation:    violation,
		EliminatedID: eliminated,
	}

	if next.IsGameOver() {
		next.Status = models.ChainStatusFinished
		expires := now.Add(FinishedTTL)
		next.ExpiresAt = &expires
		next.CurrentPlayerID = next.Winner()
		result.GameOver = true
		result.WinnerID = next.Winner()
		return next, result, nil
	}

	// The successor is computed against the pre-elimination list so the turn
	// passes to the player after the eliminated one, not back to the head.
	successor := engine.NextActivePlayer(s.ActivePlayers, eliminated)
	if !next.IsActive(successor) {
		successor = engine.NextActivePlayer(next.ActivePlayers, "")
	}
	next.CurrentPlayerID = successor
	next.CurrentRound++
	next.TimeLimit = engine.TurnTimeLimit(next.CurrentRound)
	next.TurnStartTime = now
	return next, result, nil
}

func startsWith(word, letter string) bool {
	wr := []rune(word)
	lr := []rune(letter)
	if len(wr) == 0 || len(lr) == 0 {
		return false
	}
	return unicode.ToLower(wr[0]) == unicode.ToLower(lr[0])
}

func lastLetter(word string) string {
	r := []rune(strings.ToLower(word))
	if len(r) == 0 {
		return ""
	}
	return string(r[len(r)-1])
}

// clone deep-copies the snapshot so transitions never alias the input.
func clone(s *models.WordChainSession) *models.WordChainSession {
	next := *s
	next.Players = append([]string{}, s.Players...)
	next.ActivePlayers = append([]string{}, s.ActivePlayers...)
	next.EliminatedPlayers = append([]string{}, s.EliminatedPlayers...)
	next.UsedWords = append([]string{}, s.UsedWords...)
	next.Scores = make(map[string]int, len(s.Scores))
	for k, v := range s.Scores {
		next.Scores[k] = v
	}
	next.WordDefinitions = make(map[string]string, len(s.WordDefinitions))
	for k, v := range s.WordDefinitions {
		next.WordDefinitions[k] = v
	}
	if s.ExpiresAt != nil {
		t := *s.ExpiresAt
		next.ExpiresAt = &t
	}
	return &next
}
