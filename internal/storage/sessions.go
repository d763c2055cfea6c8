package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chatroom-minigame/internal/models"
)

// SessionStore marshals game sessions in and out of the record store. The
// version travels alongside every read so callers can hand it back to Put
// unchanged, keeping the read-modify-write window honest.
type SessionStore struct {
	store Store
}

// NewSessionStore wraps a record store.
func NewSessionStore(store Store) *SessionStore {
	return &SessionStore{store: store}
}

// GetGame loads a catchmind session and its version.
func (s *SessionStore) GetGame(ctx context.Context, sessionID string) (*models.GameSession, int64, error) {
	rec, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, 0, err
	}
	var sess models.GameSession
	if err := json.Unmarshal(rec.Value, &sess); err != nil {
		return nil, 0, fmt.Errorf("failed to unmarshal game session %s: %w", sessionID, err)
	}
	return &sess, rec.Version, nil
}

// PutGame writes a catchmind session conditioned on expectedVersion. The
// record's ttl follows the session's expiry marker.
func (s *SessionStore) PutGame(ctx context.Context, sess *models.GameSession, expectedVersion int64, now time.Time) (int64, error) {
	value, err := json.Marshal(sess)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal game session %s: %w", sess.SessionID, err)
	}
	return s.store.Put(ctx, sess.SessionID, value, expectedVersion, ttlFor(sess.ExpiresAt, now))
}

// DeleteGame removes a catchmind session record.
func (s *SessionStore) DeleteGame(ctx context.Context, sessionID string) error {
	return s.store.Delete(ctx, sessionID)
}

// GetChain loads a word-chain session and its version.
func (s *SessionStore) GetChain(ctx context.Context, sessionID string) (*models.WordChainSession, int64, error) {
	rec, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, 0, err
	}
	var sess models.WordChainSession
	if err := json.Unmarshal(rec.Value, &sess); err != nil {
		return nil, 0, fmt.Errorf("failed to unmarshal word-chain session %s: %w", sessionID, err)
	}
	return &sess, rec.Version, nil
}

// PutChain writes a word-chain session conditioned on expectedVersion.
func (s *SessionStore) PutChain(ctx context.Context, sess *models.WordChainSession, expectedVersion int64, now time.Time) (int64, error) {
	value, err := json.Marshal(sess)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal word-chain session %s: %w", sess.SessionID, err)
	}
	return s.store.Put(ctx, sess.SessionID, value, expectedVersion, ttlFor(sess.ExpiresAt, now))
}

// DeleteChain removes a word-chain session record.
func (s *SessionStore) DeleteChain(ctx context.Context, sessionID string) error {
	return s.store.Delete(ctx, sessionID)
}

func ttlFor(expiresAt *time.Time, now time.Time) time.Duration {
	if expiresAt == nil {
		return 0
	}
	ttl := expiresAt.Sub(now)
	if ttl < time.Second {
		ttl = time.Second
	}
	return ttl
}
