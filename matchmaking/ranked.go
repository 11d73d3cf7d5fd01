package matchmaking

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/arena/models"
)

// DefaultRankedQueueID is the ledger bucket backing quick-match searches.
const DefaultRankedQueueID = "ranked"

const createGameTimeout = 5 * time.Second

// searchState tracks one player's in-flight search. The generation counter
// fences timer callbacks: every cancel bumps it, and a callback that wakes
// up with a stale generation returns without touching the pool.
type searchState struct {
	radius   int
	gen      uint64
	probe    *time.Timer
	deadline *time.Timer
}

type cooldownEntry struct {
	duration time.Duration
	until    time.Time
	timer    *time.Timer
}

// RankedEngine pairs quick-match players from an elo-sorted waiting pool,
// widening each searcher's acceptance window on every empty probe tick.
type RankedEngine struct {
	mu        sync.Mutex
	settings  Settings
	pool      []*models.Player
	states    map[string]*searchState
	cooldowns map[string]*cooldownEntry
	queues    *QueueSet
	games     GameStore
	notifier  Notifier
	logger    *slog.Logger
}

func NewRankedEngine(settings Settings, queues *QueueSet, games GameStore, notifier Notifier, logger *slog.Logger) *RankedEngine {
	return &RankedEngine{
		settings:  settings,
		states:    make(map[string]*searchState),
		cooldowns: make(map[string]*cooldownEntry),
		queues:    queues,
		games:     games,
		notifier:  notifier,
		logger:    logger,
	}
}

// AddPlayer inserts the player into the waiting pool, ordered by elo
// ascending with FIFO tie-break, and initializes search state at the
// starting window. Re-adding a player already in the pool is a no-op.
func (e *RankedEngine) AddPlayer(_ context.Context, player *models.Player) error {
	return e.enqueue(DefaultRankedQueueID, player)
}

// JoinQueue is AddPlayer into a named quick-match bucket.
func (e *RankedEngine) JoinQueue(ctx context.Context, queueID string, player *models.Player) error {
	if err := e.enqueue(queueID, player); err != nil {
		return err
	}
	return e.FindRandomMatch(ctx, player.UserID)
}

func (e *RankedEngine) enqueue(queueID string, player *models.Player) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.states[player.UserID]; ok {
		return nil
	}
	if _, ok := e.queues.Add(queueID, player); !ok {
		return ErrAlreadyQueued
	}

	idx := sort.Search(len(e.pool), func(i int) bool {
		return e.pool[i].Elo > player.Elo
	})
	e.pool = append(e.pool, nil)
	copy(e.pool[idx+1:], e.pool[idx:])
	e.pool[idx] = player

	e.states[player.UserID] = &searchState{radius: e.settings.InitialEloRange}
	e.logger.Info("player enqueued for ranked search",
		slog.String("user_id", player.UserID),
		slog.Int("elo", player.Elo),
		slog.Int("waiting", len(e.pool)))
	return nil
}

// FindRandomMatch starts (or restarts) the player's search. Calling it
// again resets the timers deterministically instead of stacking them. The
// search is deferred while the player's cooldown is running; a deferred
// player stays in the pool and remains matchable by other players' probes.
func (e *RankedEngine) FindRandomMatch(_ context.Context, userID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, ok := e.states[userID]
	if !ok {
		return ErrPlayerNotQueued
	}
	if cd, ok := e.cooldowns[userID]; ok && time.Now().Before(cd.until) {
		return nil
	}

	e.cancelTimersLocked(st)
	st.radius = e.settings.InitialEloRange
	gen := st.gen

	st.deadline = time.AfterFunc(e.settings.MaxWaitTime, func() {
		e.searchExpired(userID, gen)
	})
	st.probe = time.AfterFunc(e.settings.SearchInterval, func() {
		e.probeTick(userID, gen)
	})
	return nil
}

// RemovePlayer tears the player's search down: timers cancelled, cooldown
// cleared, pool and queue membership dropped. Safe to call at any point,
// including concurrently with a probe tick; a tick that already fired sees
// a bumped generation and gives up.
func (e *RankedEngine) RemovePlayer(userID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.removePlayerLocked(userID)

	if cd, ok := e.cooldowns[userID]; ok {
		cd.timer.Stop()
		delete(e.cooldowns, userID)
	}
}

func (e *RankedEngine) removePlayerLocked(userID string) {
	if st, ok := e.states[userID]; ok {
		e.cancelTimersLocked(st)
		delete(e.states, userID)
	}
	for i, p := range e.pool {
		if p.UserID == userID {
			e.pool = append(e.pool[:i], e.pool[i+1:]...)
			break
		}
	}
	e.queues.RemoveUser(userID)
}

// HandleGameResult is part of the Mode interface; the ranked engine holds
// no per-game state, so any game id is absorbed silently.
func (e *RankedEngine) HandleGameResult(context.Context, string, string) error {
	return nil
}

// Waiting returns the user ids currently in the pool, in pool order.
func (e *RankedEngine) Waiting() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	ids := make([]string, len(e.pool))
	for i, p := range e.pool {
		ids[i] = p.UserID
	}
	return ids
}

// SearchRadius reports the player's current acceptance window, or -1 if
// the player is not searching.
func (e *RankedEngine) SearchRadius(userID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if st, ok := e.states[userID]; ok {
		return st.radius
	}
	return -1
}

// CooldownFor reports the player's currently applied cooldown duration.
func (e *RankedEngine) CooldownFor(userID string) time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()

	if cd, ok := e.cooldowns[userID]; ok {
		return cd.duration
	}
	return 0
}

// cancelTimersLocked stops any armed timers and fences their callbacks.
func (e *RankedEngine) cancelTimersLocked(st *searchState) {
	st.gen++
	if st.probe != nil {
		st.probe.Stop()
		st.probe = nil
	}
	if st.deadline != nil {
		st.deadline.Stop()
		st.deadline = nil
	}
}

func (e *RankedEngine) searchExpired(userID string, gen uint64) {
	e.mu.Lock()
	st, ok := e.states[userID]
	if !ok || st.gen != gen {
		e.mu.Unlock()
		return
	}
	e.removePlayerLocked(userID)
	e.mu.Unlock()

	e.logger.Info("ranked search timed out", slog.String("user_id", userID))
	e.notifier.Notify(userID, models.Notification{
		Type:    models.NoticeSearchTimeout,
		Payload: models.SearchTimeoutPayload{Message: "no opponent found, search cancelled"},
	})
}

// probeTick scans the pool for the first other player inside the current
// window (first-fit by pool order). An empty tick widens the window and
// re-arms; a hit removes both players atomically and hands off to match
// creation.
func (e *RankedEngine) probeTick(userID string, gen uint64) {
	e.mu.Lock()

	st, ok := e.states[userID]
	if !ok || st.gen != gen {
		e.mu.Unlock()
		return
	}

	if len(e.pool) < 2 {
		// Nobody to scan against; wait for company without burning
		// window growth.
		st.probe = time.AfterFunc(e.settings.SearchInterval, func() {
			e.probeTick(userID, gen)
		})
		e.mu.Unlock()
		return
	}

	var me *models.Player
	for _, p := range e.pool {
		if p.UserID == userID {
			me = p
			break
		}
	}
	if me == nil {
		// Should not happen: state and pool entry are created together.
		e.cancelTimersLocked(st)
		delete(e.states, userID)
		e.mu.Unlock()
		return
	}

	var opponent *models.Player
	for _, p := range e.pool {
		if p.UserID == userID {
			continue
		}
		if diff := p.Elo - me.Elo; diff >= -st.radius && diff <= st.radius {
			opponent = p
			break
		}
	}

	if opponent == nil {
		st.radius += e.settings.EloRangeStep
		st.probe = time.AfterFunc(e.settings.SearchInterval, func() {
			e.probeTick(userID, gen)
		})
		e.mu.Unlock()
		return
	}

	e.removePlayerLocked(me.UserID)
	e.removePlayerLocked(opponent.UserID)
	e.applyCooldownLocked(me.UserID)
	e.applyCooldownLocked(opponent.UserID)
	e.mu.Unlock()

	// Both players are already out of every waiting structure, so the
	// creation call cannot race another probe into a double match.
	e.createMatch(me, opponent)
}

// applyCooldownLocked arms the post-match cooldown: base on first match,
// then previous + step, capped. The entry self-expires via its own timer,
// which also resets the escalation.
func (e *RankedEngine) applyCooldownLocked(userID string) {
	d := e.settings.CooldownBase
	if prev, ok := e.cooldowns[userID]; ok {
		prev.timer.Stop()
		d = prev.duration + e.settings.CooldownStep
		if d > e.settings.CooldownMax {
			d = e.settings.CooldownMax
		}
	}

	entry := &cooldownEntry{duration: d, until: time.Now().Add(d)}
	entry.timer = time.AfterFunc(d, func() {
		e.mu.Lock()
		if e.cooldowns[userID] == entry {
			delete(e.cooldowns, userID)
		}
		e.mu.Unlock()
	})
	e.cooldowns[userID] = entry
}

func (e *RankedEngine) createMatch(p1, p2 *models.Player) {
	ctx, cancel := context.WithTimeout(context.Background(), createGameTimeout)
	defer cancel()

	gameID, err := e.games.CreateGame(ctx, p1.UserID, p2.UserID)
	if err != nil {
		// Both players are already unpooled; they are told to re-enter
		// search explicitly rather than silently reinserted.
		e.logger.Error("game creation failed after pairing",
			slog.String("player1", p1.UserID),
			slog.String("player2", p2.UserID),
			slog.Any("error", err))
		failed := models.Notification{
			Type:    models.NoticeMatchFailed,
			Payload: models.MatchFailedPayload{Message: "match could not be created, please search again"},
		}
		e.notifier.NotifyAll([]string{p1.UserID, p2.UserID}, failed)
		return
	}

	e.logger.Info("ranked match created",
		slog.String("game_id", gameID),
		slog.String("player1", p1.UserID),
		slog.String("player2", p2.UserID))

	e.notifier.Notify(p1.UserID, models.Notification{
		Type:    models.NoticeMatchFound,
		Payload: models.MatchFoundPayload{GameID: gameID, OpponentID: p2.UserID, Mode: models.ModeRanked},
	})
	e.notifier.Notify(p2.UserID, models.Notification{
		Type:    models.NoticeMatchFound,
		Payload: models.MatchFoundPayload{GameID: gameID, OpponentID: p1.UserID, Mode: models.ModeRanked},
	})
}
