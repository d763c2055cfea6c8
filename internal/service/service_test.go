package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatroom-minigame/internal/config"
	"github.com/chatroom-minigame/internal/gameerr"
	"github.com/chatroom-minigame/internal/models"
	"github.com/chatroom-minigame/internal/storage"
	"github.com/chatroom-minigame/internal/words"
	"github.com/chatroom-minigame/pkg/logger"
)

type recordedPayload struct {
	roomID string
	userID string
	env    models.Envelope
}

// fakeCaster records every delivered payload and reports the configured
// connection ids as gone.
type fakeCaster struct {
	delivered []recordedPayload
	gone      []string
}

func (c *fakeCaster) Deliver(ctx context.Context, roomID string, payload []byte) []string {
	var env models.Envelope
	json.Unmarshal(payload, &env)
	c.delivered = append(c.delivered, recordedPayload{roomID: roomID, env: env})
	return c.gone
}

func (c *fakeCaster) DeliverToUser(ctx context.Context, userID string, payload []byte) []string {
	var env models.Envelope
	json.Unmarshal(payload, &env)
	c.delivered = append(c.delivered, recordedPayload{userID: userID, env: env})
	return c.gone
}

func (c *fakeCaster) types() []string {
	out := make([]string, 0, len(c.delivered))
	for _, p := range c.delivered {
		out = append(out, p.env.Type)
	}
	return out
}

type fakePruner struct {
	unregistered []string
}

func (p *fakePruner) Unregister(connectionID string) {
	p.unregistered = append(p.unregistered, connectionID)
}

// conflictOnceStore injects a single version conflict on the first write so
// the retry path is exercised.
type conflictOnceStore struct {
	storage.Store
	conflicted bool
}

func (s *conflictOnceStore) Put(ctx context.Context, key string, value []byte, expectedVersion int64, ttl time.Duration) (int64, error) {
	if !s.conflicted {
		s.conflicted = true
		return 0, storage.ErrVersionConflict
	}
	return s.Store.Put(ctx, key, value, expectedVersion, ttl)
}

type fixedPicker struct {
	word words.Word
}

func (p fixedPicker) Pick(exclude string) words.Word { return p.word }

type fixture struct {
	catchmind *CatchmindService
	wordchain *WordChainService
	caster    *fakeCaster
	pruner    *fakePruner
	sessions  *storage.SessionStore
}

func newFixture(t *testing.T, store storage.Store) *fixture {
	t.Helper()
	rooms := NewStaticRooms()
	rooms.Upsert(models.Room{
		ID:      "room1",
		HostID:  "alice",
		Type:    models.RoomTypeGame,
		Members: []string{"alice", "bob", "carol"},
	})

	caster := &fakeCaster{}
	pruner := &fakePruner{}
	sessions := storage.NewSessionStore(store)
	picker := fixedPicker{word: words.Word{ID: "w1", Korean: "무지개", English: "rainbow"}}
	defaults := config.GameConfig{DefaultTotalRounds: 3, DefaultRoundDuration: 90}
	log := logger.New()

	return &fixture{
		catchmind: NewCatchmindService(sessions, rooms, caster, pruner, picker, defaults, log),
		wordchain: NewWordChainService(sessions, rooms, caster, pruner, log),
		caster:    caster,
		pruner:    pruner,
		sessions:  sessions,
	}
}

func startReq() models.StartGameRequest {
	return models.StartGameRequest{
		RoomID:        "room1",
		StarterID:     "alice",
		TotalRounds:   3,
		RoundDuration: 60,
	}
}

func TestStartGame(t *testing.T) {
	f := newFixture(t, storage.NewMemoryStore())
	ctx := context.Background()

	sess, err := f.catchmind.StartGame(ctx, startReq())
	require.NoError(t, err)

	assert.Equal(t, GameSessionID("room1"), sess.SessionID)
	assert.Equal(t, models.GameStatusPlaying, sess.Status)
	assert.Equal(t, []string{models.PayloadGameStatus}, f.caster.types())

	stored, version, err := f.sessions.GetGame(ctx, sess.SessionID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
	assert.Equal(t, sess.SessionID, stored.SessionID)
}

func TestStartGameAppliesConfiguredDefaults(t *testing.T) {
	f := newFixture(t, storage.NewMemoryStore())

	// A start command that omits rounds and duration picks up the configured
	// defaults instead of failing validation.
	sess, err := f.catchmind.StartGame(context.Background(), models.StartGameRequest{
		RoomID:    "room1",
		StarterID: "alice",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, sess.TotalRounds)
	assert.Equal(t, 90, sess.RoundDuration)
}

func TestStartGameConflictsWithRunningGame(t *testing.T) {
	f := newFixture(t, storage.NewMemoryStore())
	ctx := context.Background()

	_, err := f.catchmind.StartGame(ctx, startReq())
	require.NoError(t, err)

	_, err = f.catchmind.StartGame(ctx, startReq())
	assert.True(t, gameerr.IsKind(err, gameerr.KindConflict), "got %v", err)
}

func TestStartGameUnknownRoom(t *testing.T) {
	f := newFixture(t, storage.NewMemoryStore())

	req := startReq()
	req.RoomID = "nope"
	_, err := f.catchmind.StartGame(context.Background(), req)
	assert.True(t, gameerr.IsKind(err, gameerr.KindNotFound), "got %v", err)
}

func TestStartGameReplacesFinishedSession(t *testing.T) {
	f := newFixture(t, storage.NewMemoryStore())
	ctx := context.Background()

	first, err := f.catchmind.StartGame(ctx, startReq())
	require.NoError(t, err)
	_, err = f.catchmind.StopGame(ctx, models.StopGameRequest{
		SessionID:   first.SessionID,
		RequesterID: "alice",
	})
	require.NoError(t, err)

	second, err := f.catchmind.StartGame(ctx, startReq())
	require.NoError(t, err)
	assert.Equal(t, models.GameStatusPlaying, second.Status)
	assert.Equal(t, 1, second.CurrentRound)
}

func TestSubmitGuessRetriesOnceOnVersionConflict(t *testing.T) {
	inner := storage.NewMemoryStore()
	f := newFixture(t, inner)
	ctx := context.Background()

	sess, err := f.catchmind.StartGame(ctx, startReq())
	require.NoError(t, err)

	// Swap in a store that fails the first conditional write.
	conflicted := newFixture(t, &conflictOnceStore{Store: inner})

	_, result, err := conflicted.catchmind.SubmitGuess(ctx, models.SubmitGuessRequest{
		SessionID: sess.SessionID,
		UserID:    "bob",
		Text:      "rainbow",
	})
	require.NoError(t, err)
	assert.True(t, result.Correct)
}

func TestRoundTimeoutIsRoundGuarded(t *testing.T) {
	f := newFixture(t, storage.NewMemoryStore())
	ctx := context.Background()

	sess, err := f.catchmind.StartGame(ctx, startReq())
	require.NoError(t, err)
	f.caster.delivered = nil

	// A timer armed for a round the session has moved past changes nothing
	// and broadcasts nothing.
	after, err := f.catchmind.HandleRoundTimeout(ctx, models.TimeoutRequest{
		SessionID: sess.SessionID,
		Round:     2,
	})
	require.NoError(t, err)
	assert.Equal(t, models.GameStatusPlaying, after.Status)
	assert.Empty(t, f.caster.delivered)

	// The matching round freezes it.
	after, err = f.catchmind.HandleRoundTimeout(ctx, models.TimeoutRequest{
		SessionID: sess.SessionID,
		Round:     1,
	})
	require.NoError(t, err)
	assert.Equal(t, models.GameStatusRoundEnd, after.Status)
	assert.Equal(t, models.RoundEndTimeUp, after.RoundEndReason)
	assert.Equal(t, []string{models.PayloadGameStatus}, f.caster.types())
}

func TestBroadcastFailuresPruneConnections(t *testing.T) {
	f := newFixture(t, storage.NewMemoryStore())
	f.caster.gone = []string{"c9"}

	_, err := f.catchmind.StartGame(context.Background(), startReq())
	require.NoError(t, err)

	assert.Equal(t, []string{"c9"}, f.pruner.unregistered)
}

func TestStartWordChain(t *testing.T) {
	f := newFixture(t, storage.NewMemoryStore())
	ctx := context.Background()

	sess, err := f.wordchain.StartWordChain(ctx, models.StartWordChainRequest{
		RoomID:    "room1",
		StarterID: "alice",
		Players:   []string{"alice", "bob", "carol"},
	})
	require.NoError(t, err)

	assert.Equal(t, ChainSessionID("room1"), sess.SessionID)
	assert.Equal(t, "alice", sess.CurrentPlayerID)
	assert.Equal(t, []string{models.PayloadTurn}, f.caster.types())

	_, err = f.wordchain.StartWordChain(ctx, models.StartWordChainRequest{
		RoomID:    "room1",
		StarterID: "alice",
		Players:   []string{"alice", "bob"},
	})
	assert.True(t, gameerr.IsKind(err, gameerr.KindConflict), "got %v", err)
}

func TestSubmitWordBroadcastsScoreAndTurn(t *testing.T) {
	f := newFixture(t, storage.NewMemoryStore())
	ctx := context.Background()

	sess, err := f.wordchain.StartWordChain(ctx, models.StartWordChainRequest{
		RoomID:    "room1",
		StarterID: "alice",
		Players:   []string{"alice", "bob", "carol"},
	})
	require.NoError(t, err)
	f.caster.delivered = nil

	_, result, err := f.wordchain.SubmitWord(ctx, models.SubmitWordRequest{
		SessionID: sess.SessionID,
		UserID:    "alice",
		Word:      "apple",
	})
	require.NoError(t, err)
	assert.True(t, result.Accepted)
	assert.Equal(t, []string{models.PayloadScoreUpdate, models.PayloadTurn}, f.caster.types())
}

func TestTurnTimeoutEliminatesAndAnnounces(t *testing.T) {
	f := newFixture(t, storage.NewMemoryStore())
	ctx := context.Background()

	sess, err := f.wordchain.StartWordChain(ctx, models.StartWordChainRequest{
		RoomID:    "room1",
		StarterID: "alice",
		Players:   []string{"alice", "bob"},
	})
	require.NoError(t, err)
	f.caster.delivered = nil

	// Stale timer round first: nothing happens.
	_, err = f.wordchain.HandleTurnTimeout(ctx, models.TimeoutRequest{
		SessionID: sess.SessionID,
		Round:     7,
	})
	require.NoError(t, err)
	assert.Empty(t, f.caster.delivered)

	after, err := f.wordchain.HandleTurnTimeout(ctx, models.TimeoutRequest{
		SessionID: sess.SessionID,
		Round:     1,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ChainStatusFinished, after.Status)
	assert.Equal(t, []string{models.PayloadElimination, models.PayloadGameOver}, f.caster.types())
}

func TestScoreboardRankingIsStable(t *testing.T) {
	f := newFixture(t, storage.NewMemoryStore())
	ctx := context.Background()

	sess, err := f.catchmind.StartGame(ctx, startReq())
	require.NoError(t, err)

	_, _, err = f.catchmind.SubmitGuess(ctx, models.SubmitGuessRequest{
		SessionID: sess.SessionID,
		UserID:    "carol",
		Text:      "rainbow",
	})
	require.NoError(t, err)

	board, err := f.catchmind.Scoreboard(ctx, sess.SessionID)
	require.NoError(t, err)

	require.Len(t, board.Ranking, 3)
	assert.Equal(t, "carol", board.Ranking[0].UserID)
	assert.Equal(t, 1, board.Ranking[0].Rank)
	// Zero-score tie keeps stored player order.
	assert.Equal(t, "alice", board.Ranking[1].UserID)
	assert.Equal(t, "bob", board.Ranking[2].UserID)
}
