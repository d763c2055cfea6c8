package service

import (
	"context"
	"errors"
	"time"

	"github.com/chatroom-minigame/internal/catchmind"
	"github.com/chatroom-minigame/internal/config"
	"github.com/chatroom-minigame/internal/gameerr"
	"github.com/chatroom-minigame/internal/models"
	"github.com/chatroom-minigame/internal/storage"
	"github.com/chatroom-minigame/internal/words"
	"github.com/chatroom-minigame/pkg/logger"
)

// CatchmindService handles the drawing-and-guess game commands.
type CatchmindService struct {
	sessions *storage.SessionStore
	rooms    RoomDirectory
	caster   Caster
	pruner   ConnectionPruner
	picker   words.Picker
	defaults config.GameConfig
	logger   *logger.Logger
}

// NewCatchmindService creates a new catchmind service.
func NewCatchmindService(
	sessions *storage.SessionStore,
	rooms RoomDirectory,
	caster Caster,
	pruner ConnectionPruner,
	picker words.Picker,
	defaults config.GameConfig,
	log *logger.Logger,
) *CatchmindService {
	return &CatchmindService{
		sessions: sessions,
		rooms:    rooms,
		caster:   caster,
		pruner:   pruner,
		picker:   picker,
		defaults: defaults,
		logger:   log.With(logger.F("component", "catchmind")),
	}
}

// StartGame starts a new game for the room. It is rejected when a session
// is already in PLAYING or ROUND_END; a finished or absent one is replaced.
func (s *CatchmindService) StartGame(ctx context.Context, req models.StartGameRequest) (*models.GameSession, error) {
	if req.RoomID == "" || req.StarterID == "" {
		return nil, gameerr.Validation("room_id and starter_id are required")
	}
	if req.TotalRounds == 0 {
		req.TotalRounds = s.defaults.DefaultTotalRounds
	}
	if req.RoundDuration == 0 {
		req.RoundDuration = s.defaults.DefaultRoundDuration
	}

	room, err := s.rooms.GetRoom(ctx, req.RoomID)
	if err != nil {
		return nil, gameerr.NotFound("room %s not found", req.RoomID)
	}

	sessionID := GameSessionID(req.RoomID)
	now := time.Now()

	var lastErr error
	for attempt := 0; attempt < casAttempts; attempt++ {
		var version int64
		existing, v, err := s.sessions.GetGame(ctx, sessionID)
		switch {
		case err == nil:
			if existing.Status == models.GameStatusPlaying || existing.Status == models.GameStatusRoundEnd {
				return nil, gameerr.Conflict("a game is already in progress in room %s", req.RoomID)
			}
			version = v
		case errors.Is(err, storage.ErrNotFound):
			version = 0
		default:
			return nil, err
		}

		sess, err := catchmind.Start(room, req, room.Members, sessionID, s.picker.Pick(""), now)
		if err != nil {
			return nil, err
		}

		if _, err := s.sessions.PutGame(ctx, sess, version, now); err != nil {
			if errors.Is(err, storage.ErrVersionConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}

		s.logger.Info("game started",
			logger.F("session_id", sessionID),
			logger.F("room_id", req.RoomID),
			logger.F("starter_id", req.StarterID))
		s.publish(ctx, sess.RoomID, models.PayloadGameStatus, models.GameStatusOf(sess))
		return sess, nil
	}
	return nil, gameerr.Conflict("room %s session was modified concurrently: %v", req.RoomID, lastErr)
}

// SubmitGuess applies one player's guess and broadcasts the score update.
// A correct guess that completes the round also broadcasts the frozen
// round state.
func (s *CatchmindService) SubmitGuess(ctx context.Context, req models.SubmitGuessRequest) (*models.GameSession, catchmind.GuessResult, error) {
	now := req.Timestamp
	if now.IsZero() {
		now = time.Now()
	}

	var result catchmind.GuessResult
	sess, changed, err := s.mutate(ctx, req.SessionID, now, func(cur *models.GameSession) (*models.GameSession, error) {
		next, r, err := catchmind.SubmitGuess(cur, req.UserID, req.Text, now)
		result = r
		return next, err
	})
	if err != nil {
		return nil, catchmind.GuessResult{}, err
	}

	if result.Correct && changed {
		s.publish(ctx, sess.RoomID, models.PayloadScoreUpdate, models.ScoreUpdatePayload{
			ScorerID:     req.UserID,
			ScoreGained:  result.ScoreGained,
			TotalScore:   result.TotalScore,
			Ranking:      models.BuildRanking(sess.Scores, sess.Players),
			CurrentRound: sess.CurrentRound,
			TotalRounds:  sess.TotalRounds,
			Timestamp:    now,
		})
		if result.RoundEnded {
			s.publish(ctx, sess.RoomID, models.PayloadGameStatus, models.GameStatusOf(sess))
		}
	} else if result.Close {
		s.publishToUser(ctx, req.UserID, models.PayloadCloseGuess, map[string]string{"user_id": req.UserID})
	}
	return sess, result, nil
}

// UseHint marks the round hint used and broadcasts the updated state.
func (s *CatchmindService) UseHint(ctx context.Context, req models.UseHintRequest) (*models.GameSession, error) {
	now := time.Now()
	sess, changed, err := s.mutate(ctx, req.SessionID, now, func(cur *models.GameSession) (*models.GameSession, error) {
		return catchmind.UseHint(cur)
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.publish(ctx, sess.RoomID, models.PayloadGameStatus, models.GameStatusOf(sess))
	}
	return sess, nil
}

// SkipRound freezes the current round with reason SKIP. Starter only.
func (s *CatchmindService) SkipRound(ctx context.Context, req models.SkipRoundRequest) (*models.GameSession, error) {
	now := time.Now()
	sess, changed, err := s.mutate(ctx, req.SessionID, now, func(cur *models.GameSession) (*models.GameSession, error) {
		if req.RequesterID != cur.StartedBy {
			return nil, gameerr.Authorization("only the starter may skip a round")
		}
		return catchmind.EndRound(cur, models.RoundEndSkip), nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.publish(ctx, sess.RoomID, models.PayloadGameStatus, models.GameStatusOf(sess))
	}
	return sess, nil
}

// NextRound advances a ROUND_END session to the next round, or finishes the
// game after the last one.
func (s *CatchmindService) NextRound(ctx context.Context, req models.NextRoundRequest) (*models.GameSession, error) {
	now := time.Now()
	sess, changed, err := s.mutate(ctx, req.SessionID, now, func(cur *models.GameSession) (*models.GameSession, error) {
		return catchmind.NextRound(cur, s.picker.Pick(cur.CurrentWordID), now)
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.publish(ctx, sess.RoomID, models.PayloadGameStatus, models.GameStatusOf(sess))
		if sess.Status == models.GameStatusFinished {
			s.publish(ctx, sess.RoomID, models.PayloadScoreboard, s.scoreboardOf(sess))
		}
	}
	return sess, nil
}

// StopGame ends the session early; only the original starter may stop it.
func (s *CatchmindService) StopGame(ctx context.Context, req models.StopGameRequest) (*models.GameSession, error) {
	now := time.Now()
	sess, changed, err := s.mutate(ctx, req.SessionID, now, func(cur *models.GameSession) (*models.GameSession, error) {
		return catchmind.Stop(cur, req.RequesterID, now)
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.logger.Info("game stopped",
			logger.F("session_id", sess.SessionID),
			logger.F("requester_id", req.RequesterID))
		s.publish(ctx, sess.RoomID, models.PayloadGameStatus, models.GameStatusOf(sess))
		s.publish(ctx, sess.RoomID, models.PayloadScoreboard, s.scoreboardOf(sess))
	}
	return sess, nil
}

// HandleRoundTimeout is the timer collaborator's entry point. The request
// pins the round the deadline was armed for: if the session has moved on
// (a guess already ended the round, or the next round began) the call is a
// state-guarded no-op instead of a double transition.
func (s *CatchmindService) HandleRoundTimeout(ctx context.Context, req models.TimeoutRequest) (*models.GameSession, error) {
	now := time.Now()
	sess, changed, err := s.mutate(ctx, req.SessionID, now, func(cur *models.GameSession) (*models.GameSession, error) {
		if cur.CurrentRound != req.Round {
			return cur, nil
		}
		return catchmind.EndRound(cur, models.RoundEndTimeUp), nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.publish(ctx, sess.RoomID, models.PayloadGameStatus, models.GameStatusOf(sess))
	}
	return sess, nil
}

// Scoreboard builds the read-model of the session's standings.
func (s *CatchmindService) Scoreboard(ctx context.Context, sessionID string) (models.ScoreboardPayload, error) {
	sess, _, err := s.sessions.GetGame(ctx, sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.ScoreboardPayload{}, gameerr.NotFound("no game session %s", sessionID)
		}
		return models.ScoreboardPayload{}, err
	}
	return s.scoreboardOf(sess), nil
}

func (s *CatchmindService) scoreboardOf(sess *models.GameSession) models.ScoreboardPayload {
	return models.ScoreboardPayload{
		Scores:       sess.Scores,
		Ranking:      models.BuildRanking(sess.Scores, sess.Players),
		GameStatus:   string(sess.Status),
		CurrentRound: sess.CurrentRound,
		TotalRounds:  sess.TotalRounds,
	}
}

// mutate runs one read-apply-write cycle with a single retry on a version
// conflict. An apply that returns its input unchanged skips the write; the
// second return reports whether a write happened.
func (s *CatchmindService) mutate(ctx context.Context, sessionID string, now time.Time, apply func(*models.GameSession) (*models.GameSession, error)) (*models.GameSession, bool, error) {
	var lastErr error
	for attempt := 0; attempt < casAttempts; attempt++ {
		cur, version, err := s.sessions.GetGame(ctx, sessionID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, false, gameerr.NotFound("no game session %s", sessionID)
			}
			return nil, false, err
		}

		next, err := apply(cur)
		if err != nil {
			return nil, false, err
		}
		if next == cur {
			return cur, false, nil
		}

		if _, err := s.sessions.PutGame(ctx, next, version, now); err != nil {
			if errors.Is(err, storage.ErrVersionConflict) {
				lastErr = err
				continue
			}
			return nil, false, err
		}
		return next, true, nil
	}
	return nil, false, gameerr.Conflict("session %s was modified concurrently: %v", sessionID, lastErr)
}

func (s *CatchmindService) publish(ctx context.Context, roomID, payloadType string, data any) {
	payload, err := models.Wrap(payloadType, data)
	if err != nil {
		s.logger.Error("failed to encode payload",
			logger.F("type", payloadType),
			logger.F("error", err.Error()))
		return
	}
	for _, id := range s.caster.Deliver(ctx, roomID, payload) {
		s.pruner.Unregister(id)
		s.logger.Info("pruned stale connection", logger.F("connection_id", id))
	}
}

func (s *CatchmindService) publishToUser(ctx context.Context, userID, payloadType string, data any) {
	payload, err := models.Wrap(payloadType, data)
	if err != nil {
		s.logger.Error("failed to encode payload",
			logger.F("type", payloadType),
			logger.F("error", err.Error()))
		return
	}
	for _, id := range s.caster.DeliverToUser(ctx, userID, payload) {
		s.pruner.Unregister(id)
		s.logger.Info("pruned stale connection", logger.F("connection_id", id))
	}
}
