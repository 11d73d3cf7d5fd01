package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/Dosada05/arena/models"
	"github.com/Dosada05/arena/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type modeCall struct {
	op      string
	userID  string
	queueID string
	gameID  string
	elo     int
}

// fakeMode records every dispatched operation.
type fakeMode struct {
	mu    sync.Mutex
	calls []modeCall
	fail  error
}

func (f *fakeMode) record(c modeCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func (f *fakeMode) recorded() []modeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]modeCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeMode) AddPlayer(_ context.Context, p *models.Player) error {
	f.record(modeCall{op: "add", userID: p.UserID, elo: p.Elo})
	return f.fail
}

func (f *fakeMode) RemovePlayer(userID string) {
	f.record(modeCall{op: "remove", userID: userID})
}

func (f *fakeMode) FindRandomMatch(_ context.Context, userID string) error {
	f.record(modeCall{op: "find", userID: userID})
	return f.fail
}

func (f *fakeMode) JoinQueue(_ context.Context, queueID string, p *models.Player) error {
	f.record(modeCall{op: "join", userID: p.UserID, queueID: queueID, elo: p.Elo})
	return f.fail
}

func (f *fakeMode) HandleGameResult(_ context.Context, gameID, winnerID string) error {
	f.record(modeCall{op: "result", gameID: gameID, userID: winnerID})
	return f.fail
}

type fakeRatings struct {
	elos map[string]int
	err  error
}

func (f *fakeRatings) PlayerRating(_ context.Context, userID string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	if elo, ok := f.elos[userID]; ok {
		return elo, nil
	}
	return models.DefaultRating, nil
}

func newTestMatchmaker(ratings *fakeRatings) (*Matchmaker, *fakeMode, *fakeMode) {
	ranked := &fakeMode{}
	tournaments := &fakeMode{}
	hub := realtime.NewHub(testLogger())
	go hub.Run()
	return NewMatchmaker(hub, ranked, tournaments, ratings, testLogger()), ranked, tournaments
}

func TestFindMatchResolvesRatingAndStartsSearch(t *testing.T) {
	m, ranked, tournaments := newTestMatchmaker(&fakeRatings{elos: map[string]int{"alice": 1234}})

	require.NoError(t, m.FindMatch(context.Background(), "alice"))

	calls := ranked.recorded()
	require.Len(t, calls, 2)
	assert.Equal(t, modeCall{op: "add", userID: "alice", elo: 1234}, calls[0])
	assert.Equal(t, modeCall{op: "find", userID: "alice"}, calls[1])
	assert.Empty(t, tournaments.recorded())
}

func TestFindMatchFallsBackToDefaultRating(t *testing.T) {
	m, ranked, _ := newTestMatchmaker(&fakeRatings{err: errors.New("ratings db down")})

	require.NoError(t, m.FindMatch(context.Background(), "alice"))

	calls := ranked.recorded()
	require.NotEmpty(t, calls)
	assert.Equal(t, models.DefaultRating, calls[0].elo)
}

func TestFindMatchRequiresUserID(t *testing.T) {
	m, _, _ := newTestMatchmaker(&fakeRatings{})
	assert.ErrorIs(t, m.FindMatch(context.Background(), ""), ErrMissingUserID)
}

func TestJoinMatchRoutesByMode(t *testing.T) {
	m, ranked, tournaments := newTestMatchmaker(&fakeRatings{elos: map[string]int{"bob": 900}})

	require.NoError(t, m.JoinMatch(context.Background(), "q1", "bob", models.ModeTournament))

	require.Len(t, tournaments.recorded(), 1)
	assert.Equal(t, modeCall{op: "join", userID: "bob", queueID: "q1", elo: 900}, tournaments.recorded()[0])
	assert.Empty(t, ranked.recorded())
}

func TestJoinMatchRejectsUnknownMode(t *testing.T) {
	m, _, _ := newTestMatchmaker(&fakeRatings{})
	err := m.JoinMatch(context.Background(), "q1", "bob", "speedrun")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestLeaveRoutesToNamedMode(t *testing.T) {
	m, ranked, tournaments := newTestMatchmaker(&fakeRatings{})

	require.NoError(t, m.Leave("alice", models.ModeRanked))

	require.Len(t, ranked.recorded(), 1)
	assert.Equal(t, modeCall{op: "remove", userID: "alice"}, ranked.recorded()[0])
	assert.Empty(t, tournaments.recorded())
}

func TestHandleGameResultFansOutToAllModes(t *testing.T) {
	m, ranked, tournaments := newTestMatchmaker(&fakeRatings{})

	require.NoError(t, m.HandleGameResult(context.Background(), "game-7", "alice"))

	require.Len(t, ranked.recorded(), 1)
	require.Len(t, tournaments.recorded(), 1)
	assert.Equal(t, "game-7", ranked.recorded()[0].gameID)
	assert.Equal(t, "game-7", tournaments.recorded()[0].gameID)
}

func TestHandleGameResultRequiresWinner(t *testing.T) {
	m, _, _ := newTestMatchmaker(&fakeRatings{})
	assert.ErrorIs(t, m.HandleGameResult(context.Background(), "game-7", ""), ErrMissingWinnerID)
}

func TestHandleIntentRoutesFindMatch(t *testing.T) {
	m, ranked, _ := newTestMatchmaker(&fakeRatings{elos: map[string]int{"alice": 1500}})

	payload, _ := json.Marshal(models.FindMatchPayload{UserID: "alice"})
	m.HandleIntent(context.Background(), "alice", models.ClientMessage{
		Type:    models.IntentFindMatch,
		Payload: payload,
	})

	require.Len(t, ranked.recorded(), 2)
	assert.Equal(t, 1500, ranked.recorded()[0].elo)
}

func TestHandleIntentRoutesJoinAndLeave(t *testing.T) {
	m, ranked, tournaments := newTestMatchmaker(&fakeRatings{})

	joinPayload, _ := json.Marshal(models.JoinMatchPayload{QueueID: "q1", Mode: models.ModeTournament})
	m.HandleIntent(context.Background(), "bob", models.ClientMessage{
		Type:    models.IntentJoinMatch,
		Payload: joinPayload,
	})

	leavePayload, _ := json.Marshal(models.LeavePayload{Mode: models.ModeRanked})
	m.HandleIntent(context.Background(), "bob", models.ClientMessage{
		Type:    models.IntentLeave,
		Payload: leavePayload,
	})

	require.Len(t, tournaments.recorded(), 1)
	assert.Equal(t, "join", tournaments.recorded()[0].op)
	require.Len(t, ranked.recorded(), 1)
	assert.Equal(t, "remove", ranked.recorded()[0].op)
}

func TestHandleIntentUsesConnectionIdentity(t *testing.T) {
	m, ranked, _ := newTestMatchmaker(&fakeRatings{})

	// Payload claims to be someone else; the authenticated id wins.
	payload, _ := json.Marshal(models.FindMatchPayload{UserID: "mallory"})
	m.HandleIntent(context.Background(), "alice", models.ClientMessage{
		Type:    models.IntentFindMatch,
		Payload: payload,
	})

	require.NotEmpty(t, ranked.recorded())
	assert.Equal(t, "alice", ranked.recorded()[0].userID)
}

func TestHandleIntentUnknownTypeIsContained(t *testing.T) {
	m, ranked, tournaments := newTestMatchmaker(&fakeRatings{})

	// Must not panic or reach any engine.
	m.HandleIntent(context.Background(), "alice", models.ClientMessage{Type: "dance"})

	assert.Empty(t, ranked.recorded())
	assert.Empty(t, tournaments.recorded())
}
