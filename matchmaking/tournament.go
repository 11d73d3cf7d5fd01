package matchmaking

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/Dosada05/arena/models"
)

// TournamentEngine drives fixed-size single-elimination brackets from
// asynchronous result events. Sessions are indexed by tournament id and
// matches by game id, so a result locates its session directly instead of
// scanning queue membership.
type TournamentEngine struct {
	mu       sync.Mutex
	sessions map[string]*models.TournamentSession
	byGame   map[string]string
	queues   *QueueSet
	games    GameStore
	meta     QueueStore
	notifier Notifier
	archive  Archiver
	logger   *slog.Logger
}

// NewTournamentEngine wires the engine; archive may be nil, in which case
// finished brackets are not persisted anywhere.
func NewTournamentEngine(queues *QueueSet, games GameStore, meta QueueStore, notifier Notifier, archive Archiver, logger *slog.Logger) *TournamentEngine {
	return &TournamentEngine{
		sessions: make(map[string]*models.TournamentSession),
		byGame:   make(map[string]string),
		queues:   queues,
		games:    games,
		meta:     meta,
		notifier: notifier,
		archive:  archive,
		logger:   logger,
	}
}

// notice is a notification held back until the engine lock is released.
type notice struct {
	userIDs []string
	n       models.Notification
}

func (e *TournamentEngine) deliver(notices []notice) {
	for _, nt := range notices {
		if len(nt.userIDs) == 1 {
			e.notifier.Notify(nt.userIDs[0], nt.n)
		} else {
			e.notifier.NotifyAll(nt.userIDs, nt.n)
		}
	}
}

// AddPlayer is not meaningful for tournaments; entry happens via JoinQueue.
func (e *TournamentEngine) AddPlayer(context.Context, *models.Player) error {
	return ErrUnsupportedOperation
}

// FindRandomMatch is not meaningful for tournaments.
func (e *TournamentEngine) FindRandomMatch(context.Context, string) error {
	return ErrUnsupportedOperation
}

// RemovePlayer drops the player from any forming tournament queue. Players
// already inside a running bracket stay in it; their matches resolve
// through results as usual.
func (e *TournamentEngine) RemovePlayer(userID string) {
	e.queues.RemoveUser(userID)
}

// JoinQueue adds the player to the named tournament queue and, once the
// queue reaches the bracket size configured for it, immediately starts the
// tournament with the queued players in join order. An unparsable variant
// fails the join before the ledger is touched.
func (e *TournamentEngine) JoinQueue(ctx context.Context, queueID string, player *models.Player) error {
	variant, err := e.meta.QueueVariant(ctx, queueID)
	if err != nil {
		return fmt.Errorf("queue %s: %w", queueID, err)
	}
	size, err := strconv.Atoi(variant)
	if err != nil || size < 2 {
		return fmt.Errorf("%w: queue %s variant %q", ErrInvalidQueueVariant, queueID, variant)
	}

	count, ok := e.queues.Add(queueID, player)
	if !ok {
		return ErrAlreadyQueued
	}
	e.logger.Info("player joined tournament queue",
		slog.String("queue_id", queueID),
		slog.String("user_id", player.UserID),
		slog.Int("waiting", count),
		slog.Int("size", size))

	if count < size {
		return nil
	}

	players := e.queues.Take(queueID, size)
	return e.CreateTournament(ctx, queueID, "Tournament "+queueID, size, players)
}

// CreateTournament registers a session and generates round 1. The bracket
// width must match the player count handed in; total rounds are
// ceil(log2(n)).
func (e *TournamentEngine) CreateTournament(ctx context.Context, tournamentID, name string, size int, players []*models.Player) error {
	if len(players) < 2 {
		return fmt.Errorf("%w: tournament %s needs at least 2 players", ErrNotEnoughPlayers, tournamentID)
	}

	e.mu.Lock()
	if _, ok := e.sessions[tournamentID]; ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrTournamentExists, tournamentID)
	}

	s := &models.TournamentSession{
		ID:            tournamentID,
		Name:          name,
		Size:          size,
		TotalRounds:   int(math.Ceil(math.Log2(float64(len(players))))),
		CurrentRound:  1,
		Status:        models.TournamentRoundInProgress,
		Players:       players,
		ActivePlayers: append([]*models.Player(nil), players...),
		CreatedAt:     time.Now(),
	}
	e.sessions[tournamentID] = s

	notices, err := e.generateMatchesLocked(ctx, s)
	e.mu.Unlock()

	e.deliver(notices)
	if err != nil {
		return err
	}

	e.logger.Info("tournament created",
		slog.String("tournament_id", tournamentID),
		slog.Int("players", len(players)),
		slog.Int("total_rounds", s.TotalRounds))
	return nil
}

// generateMatchesLocked pairs active players two at a time in pool order
// and creates the backing game for every pair before the round is open.
// An odd player out gets an automatic bye into the winners accumulator.
func (e *TournamentEngine) generateMatchesLocked(ctx context.Context, s *models.TournamentSession) ([]notice, error) {
	var notices []notice

	for len(s.ActivePlayers) >= 2 {
		p1, p2 := s.ActivePlayers[0], s.ActivePlayers[1]
		s.ActivePlayers = s.ActivePlayers[2:]

		gameID, err := e.games.CreateGame(ctx, p1.UserID, p2.UserID)
		if err != nil {
			// The session keeps whatever matches were already created and
			// is left to terminate naturally through their results.
			e.logger.Error("failed to create tournament game",
				slog.String("tournament_id", s.ID),
				slog.Int("round", s.CurrentRound),
				slog.Any("error", err))
			return notices, fmt.Errorf("tournament %s round %d: %w", s.ID, s.CurrentRound, err)
		}

		m := &models.TournamentMatch{
			GameID:  gameID,
			Round:   s.CurrentRound,
			Player1: p1,
			Player2: p2,
		}
		s.Matches = append(s.Matches, m)
		e.byGame[gameID] = s.ID

		notices = append(notices,
			notice{[]string{p1.UserID}, models.Notification{
				Type:    models.NoticeMatchFound,
				Payload: models.MatchFoundPayload{GameID: gameID, OpponentID: p2.UserID, Mode: models.ModeTournament, Round: s.CurrentRound},
			}},
			notice{[]string{p2.UserID}, models.Notification{
				Type:    models.NoticeMatchFound,
				Payload: models.MatchFoundPayload{GameID: gameID, OpponentID: p1.UserID, Mode: models.ModeTournament, Round: s.CurrentRound},
			}},
		)
	}

	if len(s.ActivePlayers) == 1 {
		bye := s.ActivePlayers[0]
		s.NextRoundPlayers = append(s.NextRoundPlayers, bye)
		s.CompletedMatches = append(s.CompletedMatches, &models.TournamentMatch{
			Round:      s.CurrentRound,
			Player1:    bye,
			WinnerID:   bye.UserID,
			IsBye:      true,
			IsComplete: true,
		})
		notices = append(notices, notice{[]string{bye.UserID}, models.Notification{
			Type:    models.NoticeAdvanced,
			Payload: models.TournamentNoticePayload{TournamentID: s.ID, Round: s.CurrentRound},
		}})
		e.logger.Info("bye granted",
			slog.String("tournament_id", s.ID),
			slog.Int("round", s.CurrentRound),
			slog.String("user_id", bye.UserID))
	}
	s.ActivePlayers = nil

	return notices, nil
}

// HandleGameResult marks the owning match complete and advances the
// bracket. Unknown game ids and duplicate deliveries are silent no-ops:
// network delivery may duplicate, and other engines fan results in blindly.
func (e *TournamentEngine) HandleGameResult(ctx context.Context, gameID, winnerID string) error {
	e.mu.Lock()

	tournamentID, ok := e.byGame[gameID]
	if !ok {
		e.mu.Unlock()
		return nil
	}
	s, ok := e.sessions[tournamentID]
	if !ok {
		delete(e.byGame, gameID)
		e.mu.Unlock()
		return nil
	}

	var match *models.TournamentMatch
	for _, m := range s.Matches {
		if m.GameID == gameID {
			match = m
			break
		}
	}
	if match == nil || match.IsComplete {
		delete(e.byGame, gameID)
		e.mu.Unlock()
		return nil
	}

	var winner, loser *models.Player
	switch winnerID {
	case match.Player1.UserID:
		winner, loser = match.Player1, match.Player2
	case match.Player2.UserID:
		winner, loser = match.Player2, match.Player1
	default:
		e.mu.Unlock()
		return fmt.Errorf("%w: game %s winner %s", ErrWinnerNotInMatch, gameID, winnerID)
	}

	match.IsComplete = true
	match.WinnerID = winnerID
	delete(e.byGame, gameID)
	s.NextRoundPlayers = append(s.NextRoundPlayers, winner)

	notices := []notice{{[]string{loser.UserID}, models.Notification{
		Type:    models.NoticeEliminated,
		Payload: models.TournamentNoticePayload{TournamentID: s.ID, Round: s.CurrentRound},
	}}}

	var err error
	if e.roundCompleteLocked(s) {
		if len(s.NextRoundPlayers) == 1 {
			notices = append(notices, e.endTournamentLocked(s)...)
		} else {
			notices = append(notices, notice{[]string{winner.UserID}, models.Notification{
				Type:    models.NoticeAdvanced,
				Payload: models.TournamentNoticePayload{TournamentID: s.ID, Round: s.CurrentRound},
			}})
			s.CompletedMatches = append(s.CompletedMatches, s.Matches...)
			s.Matches = nil
			s.ActivePlayers = s.NextRoundPlayers
			s.NextRoundPlayers = nil
			s.CurrentRound++

			var next []notice
			next, err = e.generateMatchesLocked(ctx, s)
			notices = append(notices, next...)
		}
	} else {
		notices = append(notices, notice{[]string{winner.UserID}, models.Notification{
			Type:    models.NoticeAdvanced,
			Payload: models.TournamentNoticePayload{TournamentID: s.ID, Round: s.CurrentRound},
		}})
	}
	e.mu.Unlock()

	e.deliver(notices)
	return err
}

func (e *TournamentEngine) roundCompleteLocked(s *models.TournamentSession) bool {
	for _, m := range s.Matches {
		if !m.IsComplete {
			return false
		}
	}
	return true
}

// endTournamentLocked removes the session and broadcasts the champion to
// the full roster. The roster left the queue ledger when the bracket was
// drawn, and result events arriving after this point miss the game index
// and are ignored.
func (e *TournamentEngine) endTournamentLocked(s *models.TournamentSession) []notice {
	champion := s.NextRoundPlayers[0]
	s.CompletedMatches = append(s.CompletedMatches, s.Matches...)
	s.Matches = nil
	s.NextRoundPlayers = nil
	s.Status = models.TournamentComplete

	delete(e.sessions, s.ID)

	e.logger.Info("tournament complete",
		slog.String("tournament_id", s.ID),
		slog.String("winner_id", champion.UserID),
		slog.Int("rounds", s.CurrentRound))

	if e.archive != nil {
		summary := &models.TournamentSummary{
			TournamentID: s.ID,
			Name:         s.Name,
			Size:         s.Size,
			Rounds:       s.CurrentRound,
			WinnerID:     champion.UserID,
			Matches:      s.CompletedMatches,
			CreatedAt:    s.CreatedAt,
			FinishedAt:   time.Now(),
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := e.archive.ArchiveTournament(ctx, summary); err != nil {
				e.logger.Error("failed to archive tournament summary",
					slog.String("tournament_id", summary.TournamentID),
					slog.Any("error", err))
			}
		}()
	}

	roster := make([]string, len(s.Players))
	for i, p := range s.Players {
		roster[i] = p.UserID
	}
	return []notice{{roster, models.Notification{
		Type:    models.NoticeTournamentWon,
		Payload: models.TournamentNoticePayload{TournamentID: s.ID, WinnerID: champion.UserID},
	}}}
}

// Session returns a shallow snapshot of a running session, or nil.
func (e *TournamentEngine) Session(tournamentID string) *models.TournamentSession {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[tournamentID]
	if !ok {
		return nil
	}
	snapshot := *s
	return &snapshot
}
