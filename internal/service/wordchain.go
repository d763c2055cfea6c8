package service

import (
	"context"
	"errors"
	"time"

	"github.com/chatroom-minigame/internal/gameerr"
	"github.com/chatroom-minigame/internal/models"
	"github.com/chatroom-minigame/internal/storage"
	"github.com/chatroom-minigame/internal/wordchain"
	"github.com/chatroom-minigame/pkg/logger"
)

// WordChainService handles the word-chain elimination game commands.
type WordChainService struct {
	sessions *storage.SessionStore
	rooms    RoomDirectory
	caster   Caster
	pruner   ConnectionPruner
	logger   *logger.Logger
}

// NewWordChainService creates a new word-chain service.
func NewWordChainService(
	sessions *storage.SessionStore,
	rooms RoomDirectory,
	caster Caster,
	pruner ConnectionPruner,
	log *logger.Logger,
) *WordChainService {
	return &WordChainService{
		sessions: sessions,
		rooms:    rooms,
		caster:   caster,
		pruner:   pruner,
		logger:   log.With(logger.F("component", "wordchain")),
	}
}

// StartWordChain starts a new word-chain game for the room.
func (s *WordChainService) StartWordChain(ctx context.Context, req models.StartWordChainRequest) (*models.WordChainSession, error) {
	if req.RoomID == "" || req.StarterID == "" {
		return nil, gameerr.Validation("room_id and starter_id are required")
	}

	room, err := s.rooms.GetRoom(ctx, req.RoomID)
	if err != nil {
		return nil, gameerr.NotFound("room %s not found", req.RoomID)
	}

	sessionID := ChainSessionID(req.RoomID)
	now := time.Now()

	var lastErr error
	for attempt := 0; attempt < casAttempts; attempt++ {
		var version int64
		existing, v, err := s.sessions.GetChain(ctx, sessionID)
		switch {
		case err == nil:
			if existing.Status != models.ChainStatusFinished {
				return nil, gameerr.Conflict("a word-chain game is already in progress in room %s", req.RoomID)
			}
			version = v
		case errors.Is(err, storage.ErrNotFound):
			version = 0
		default:
			return nil, err
		}

		sess, err := wordchain.Start(room, req.StarterID, req.Players, sessionID, now)
		if err != nil {
			return nil, err
		}

		if _, err := s.sessions.PutChain(ctx, sess, version, now); err != nil {
			if errors.Is(err, storage.ErrVersionConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}

		s.logger.Info("word-chain started",
			logger.F("session_id", sessionID),
			logger.F("room_id", req.RoomID),
			logger.F("starter_id", req.StarterID))
		s.publish(ctx, sess.RoomID, models.PayloadTurn, turnOf(sess))
		return sess, nil
	}
	return nil, gameerr.Conflict("room %s session was modified concurrently: %v", req.RoomID, lastErr)
}

// SubmitWord applies one player's word and broadcasts the outcome: a score
// and the next turn on success, an elimination on a turn violation, and the
// final standings when the violation ends the game.
func (s *WordChainService) SubmitWord(ctx context.Context, req models.SubmitWordRequest) (*models.WordChainSession, wordchain.SubmitResult, error) {
	now := req.Timestamp
	if now.IsZero() {
		now = time.Now()
	}

	var result wordchain.SubmitResult
	sess, changed, err := s.mutate(ctx, req.SessionID, now, func(cur *models.WordChainSession) (*models.WordChainSession, error) {
		next, r, err := wordchain.SubmitWord(cur, req.UserID, req.Word, now)
		result = r
		return next, err
	})
	if err != nil {
		return nil, wordchain.SubmitResult{}, err
	}
	if changed {
		s.announce(ctx, sess, req.UserID, result, now)
	}
	return sess, result, nil
}

// HandleTurnTimeout is the timer collaborator's entry point for a missed
// turn. The request pins the round the deadline was armed for, so a timer
// that fires after the turn already advanced is a no-op.
func (s *WordChainService) HandleTurnTimeout(ctx context.Context, req models.TimeoutRequest) (*models.WordChainSession, error) {
	now := time.Now()
	var result wordchain.SubmitResult
	sess, changed, err := s.mutate(ctx, req.SessionID, now, func(cur *models.WordChainSession) (*models.WordChainSession, error) {
		if cur.CurrentRound != req.Round {
			return cur, nil
		}
		next, r, err := wordchain.TimeoutTurn(cur, now)
		result = r
		return next, err
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.announce(ctx, sess, "", result, now)
	}
	return sess, nil
}

// Scoreboard builds the read-model of the session's standings.
func (s *WordChainService) Scoreboard(ctx context.Context, sessionID string) (models.ScoreboardPayload, error) {
	sess, _, err := s.sessions.GetChain(ctx, sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.ScoreboardPayload{}, gameerr.NotFound("no word-chain session %s", sessionID)
		}
		return models.ScoreboardPayload{}, err
	}
	return models.ScoreboardPayload{
		Scores:       sess.Scores,
		Ranking:      models.BuildRanking(sess.Scores, sess.Players),
		GameStatus:   string(sess.Status),
		CurrentRound: sess.CurrentRound,
		TotalRounds:  0,
	}, nil
}

func (s *WordChainService) announce(ctx context.Context, sess *models.WordChainSession, scorerID string, result wordchain.SubmitResult, now time.Time) {
	switch {
	case result.Accepted:
		s.publish(ctx, sess.RoomID, models.PayloadScoreUpdate, models.ScoreUpdatePayload{
			ScorerID:    scorerID,
			ScoreGained: result.ScoreGained,
			TotalScore:  result.TotalScore,
			Ranking:     models.BuildRanking(sess.Scores, sess.Players),
			Timestamp:   now,
		})
		s.publish(ctx, sess.RoomID, models.PayloadTurn, turnOf(sess))
	case result.EliminatedID != "":
		s.publish(ctx, sess.RoomID, models.PayloadElimination, models.EliminationPayload{
			UserID:        result.EliminatedID,
			Reason:        result.Violation,
			ActivePlayers: sess.ActivePlayers,
		})
		if result.GameOver {
			s.publish(ctx, sess.RoomID, models.PayloadGameOver, models.GameOverPayload{
				WinnerID: result.WinnerID,
				Ranking:  models.BuildRanking(sess.Scores, sess.Players),
			})
		} else {
			s.publish(ctx, sess.RoomID, models.PayloadTurn, turnOf(sess))
		}
	}
}

func turnOf(sess *models.WordChainSession) models.TurnPayload {
	return models.TurnPayload{
		CurrentPlayerID: sess.CurrentPlayerID,
		CurrentRound:    sess.CurrentRound,
		NextLetter:      sess.NextLetter,
		TimeLimit:       sess.TimeLimit,
		TurnStartTime:   sess.TurnStartTime,
	}
}

// mutate mirrors the catchmind read-apply-write cycle for chain sessions.
func (s *WordChainService) mutate(ctx context.Context, sessionID string, now time.Time, apply func(*models.WordChainSession) (*models.WordChainSession, error)) (*models.WordChainSession, bool, error) {
	var lastErr error
	for attempt := 0; attempt < casAttempts; attempt++ {
		cur, version, err := s.sessions.GetChain(ctx, sessionID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, false, gameerr.NotFound("no word-chain session %s", sessionID)
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

		if _, err := s.sessions.PutChain(ctx, next, version, now); err != nil {
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

func (s *WordChainService) publish(ctx context.Context, roomID, payloadType string, data any) {
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
