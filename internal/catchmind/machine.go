// Package catchmind implements the drawing-and-guess game as pure state
// transitions: every operation takes the current session snapshot and
// returns a new one, leaving the input untouched. The service layer owns
// loading, the version-checked write-back and the broadcast.
package catchmind

import (
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/chatroom-minigame/internal/engine"
	"github.com/chatroom-minigame/internal/gameerr"
	"github.com/chatroom-minigame/internal/models"
	"github.com/chatroom-minigame/internal/words"
)

const (
	// FinishedTTL is how long a finished session stays readable before the
	// store may expire it.
	FinishedTTL = time.Hour

	// closeGuessDistance is the maximum levenshtein distance at which an
	// incorrect guess is still reported as "close".
	closeGuessDistance = 2

	minPlayers = 2
	maxRounds  = 10
)

// GuessResult describes what a guess submission did.
type GuessResult struct {
	Correct     bool
	Close       bool // wrong, but within levenshtein distance 2
	Ignored     bool // drawer or repeat submission; not an error
	ScoreGained int
	TotalScore  int
	RoundEnded  bool
}

// Start validates the start command against the room and produces a fresh
// PLAYING session. The drawer order is fixed to the given player order for
// the whole session.
func Start(room models.Room, req models.StartGameRequest, players []string, sessionID string, w words.Word, now time.Time) (*models.GameSession, error) {
	if room.Type != models.RoomTypeGame {
		return nil, gameerr.Validation("room %s is not a game room", room.ID)
	}
	if req.StarterID != room.HostID {
		return nil, gameerr.Authorization("only the room host may start a game")
	}
	if len(players) < minPlayers {
		return nil, gameerr.Validation("need at least %d players, got %d", minPlayers, len(players))
	}
	if req.TotalRounds < 1 || req.TotalRounds > maxRounds {
		return nil, gameerr.Validation("total_rounds must be between 1 and %d", maxRounds)
	}
	if req.RoundDuration < 10 {
		return nil, gameerr.Validation("round_duration must be at least 10 seconds")
	}

	scores := make(map[string]int, len(players))
	streaks := make(map[string]int, len(players))
	for _, id := range players {
		scores[id] = 0
		streaks[id] = 0
	}

	order := append([]string{}, players...)
	return &models.GameSession{
		SessionID:          sessionID,
		RoomID:             room.ID,
		GameType:           models.GameTypeCatchmind,
		Status:             models.GameStatusPlaying,
		StartedBy:          req.StarterID,
		CurrentRound:       1,
		TotalRounds:        req.TotalRounds,
		CurrentDrawerID:    order[0],
		CurrentWordID:      w.ID,
		CurrentWord:        w.Korean,
		CurrentWordEnglish: w.English,
		RoundStartTime:     now,
		RoundDuration:      req.RoundDuration,
		Players:            append([]string{}, players...),
		DrawerOrder:        order,
		Scores:             scores,
		Streaks:            streaks,
		CorrectGuessers:    []string{},
	}, nil
}

// SubmitGuess applies one player's guess. Drawer guesses and repeat guesses
// from players who already matched are ignored, not rejected, so retried
// deliveries cannot double-score. A correct guess from the last remaining
// non-drawer ends the round with reason ALL_CORRECT.
func SubmitGuess(s *models.GameSession, userID, text string, now time.Time) (*models.GameSession, GuessResult, error) {
	if s.Status != models.GameStatusPlaying {
		return nil, GuessResult{}, gameerr.State("cannot guess while game is %s", s.Status)
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, GuessResult{}, gameerr.Validation("guess must not be empty")
	}
	if !contains(s.Players, userID) {
		return nil, GuessResult{}, gameerr.Validation("user %s is not part of this game", userID)
	}
	if userID == s.CurrentDrawerID || s.HasGuessed(userID) {
		return s, GuessResult{Ignored: true}, nil
	}

	if !strings.EqualFold(trimmed, s.CurrentWordEnglish) {
		result := GuessResult{}
		dist := levenshtein.ComputeDistance(strings.ToLower(trimmed), strings.ToLower(s.CurrentWordEnglish))
		if dist <= closeGuessDistance {
			result.Close = true
		}
		return s, result, nil
	}

	next := clone(s)
	next.CorrectGuessers = append(next.CorrectGuessers, userID)

	remaining := s.RoundDuration - int(now.Sub(s.RoundStartTime)/time.Second)
	gained := engine.GuessScore(remaining, next.Streaks[userID])
	next.Scores[userID] += gained
	next.Streaks[userID]++

	result := GuessResult{
		Correct:     true,
		ScoreGained: gained,
		TotalScore:  next.Scores[userID],
	}

	if len(next.CorrectGuessers) >= len(next.Players)-1 {
		next = EndRound(next, models.RoundEndAllCorrect)
		result.RoundEnded = true
	}
	return next, result, nil
}

// UseHint marks the round hint as used. Re-invocation within the same round
// is a no-op; a new round resets the flag.
func UseHint(s *models.GameSession) (*models.GameSession, error) {
	if s.Status != models.GameStatusPlaying {
		return nil, gameerr.State("cannot use a hint while game is %s", s.Status)
	}
	if s.HintUsed {
		return s, nil
	}
	next := clone(s)
	next.HintUsed = true
	return next, nil
}

// EndRound freezes the round. Calling it when the session is not PLAYING is
// a no-op, which guards against a stale timer firing after the round was
// already ended by a guess.
func EndRound(s *models.GameSession, reason models.RoundEndReason) *models.GameSession {
	if s.Status != models.GameStatusPlaying {
		return s
	}
	next := clone(s)
	next.Status = models.GameStatusRoundEnd
	next.RoundEndReason = reason
	return next
}

// NextRound advances a ROUND_END session: either into the next round with a
// fresh drawer and word, or into FINISHED when all rounds are played.
func NextRound(s *models.GameSession, w words.Word, now time.Time) (*models.GameSession, error) {
	if s.Status != models.GameStatusRoundEnd {
		return nil, gameerr.State("cannot advance round while game is %s", s.Status)
	}
	next := clone(s)
	if next.CurrentRound == next.TotalRounds {
		next.Status = models.GameStatusFinished
		expires := now.Add(FinishedTTL)
		next.ExpiresAt = &expires
		return next, nil
	}

	next.CurrentRound++
	next.CurrentDrawerID = engine.NextDrawer(next.DrawerOrder, next.CurrentDrawerID)
	next.CurrentWordID = w.ID
	next.CurrentWord = w.Korean
	next.CurrentWordEnglish = w.English
	next.HintUsed = false
	next.CorrectGuessers = []string{}
	next.RoundEndReason = ""
	next.Status = models.GameStatusPlaying
	next.RoundStartTime = now
	return next, nil
}

// Stop ends the session early. Only the original starter may stop it.
func Stop(s *models.GameSession, requesterID string, now time.Time) (*models.GameSession, error) {
	if requesterID != s.StartedBy {
		return nil, gameerr.Authorization("only the starter may stop the game")
	}
	if s.Status != models.GameStatusPlaying && s.Status != models.GameStatusRoundEnd {
		return nil, gameerr.State("cannot stop a game that is %s", s.Status)
	}
	next := clone(s)
	next.Status = models.GameStatusFinished
	expires := now.Add(FinishedTTL)
	next.ExpiresAt = &expires
	return next, nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// clone deep-copies the snapshot so transitions never alias the input.
func clone(s *models.GameSession) *models.GameSession {
	next := *s
	next.Players = append([]string{}, s.Players...)
	next.DrawerOrder = append([]string{}, s.DrawerOrder...)
	next.CorrectGuessers = append([]string{}, s.CorrectGuessers...)
	next.Scores = make(map[string]int, len(s.Scores))
	for k, v := range s.Scores {
		next.Scores[k] = v
	}
	next.Streaks = make(map[string]int, len(s.Streaks))
	for k, v := range s.Streaks {
		next.Streaks[k] = v
	}
	if s.ExpiresAt != nil {
		t := *s.ExpiresAt
		next.ExpiresAt = &t
	}
	return &next
}
