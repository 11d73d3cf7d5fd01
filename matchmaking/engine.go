package matchmaking

import (
	"context"
	"errors"
	"time"

	"github.com/Dosada05/arena/models"
)

var (
	ErrPlayerNotQueued      = errors.New("player is not queued for matchmaking")
	ErrAlreadyQueued        = errors.New("player is already waiting in a queue")
	ErrTournamentExists     = errors.New("tournament already exists")
	ErrTournamentNotFound   = errors.New("tournament not found")
	ErrNotEnoughPlayers     = errors.New("not enough players")
	ErrInvalidQueueVariant  = errors.New("queue variant does not parse to a bracket size")
	ErrWinnerNotInMatch     = errors.New("reported winner is not a participant of the match")
	ErrUnsupportedOperation = errors.New("operation is not supported by this matchmaking mode")
)

// Mode is one matchmaking variant. The orchestrator dispatches every
// inbound intent through this interface; a mode must no-op safely on game
// ids it does not own.
type Mode interface {
	AddPlayer(ctx context.Context, player *models.Player) error
	RemovePlayer(userID string)
	FindRandomMatch(ctx context.Context, userID string) error
	JoinQueue(ctx context.Context, queueID string, player *models.Player) error
	HandleGameResult(ctx context.Context, gameID, winnerID string) error
}

// RatingStore resolves a player's current rating. Implementations return
// models.DefaultRating for unknown users rather than an error.
type RatingStore interface {
	PlayerRating(ctx context.Context, userID string) (int, error)
}

// GameStore creates and settles the persistent game rows backing matches.
type GameStore interface {
	CreateGame(ctx context.Context, player1ID, player2ID string) (string, error)
	RecordResult(ctx context.Context, gameID, winnerID string) error
}

// QueueStore resolves queue metadata; the variant string parses to the
// bracket size of the tournament the queue feeds.
type QueueStore interface {
	QueueVariant(ctx context.Context, queueID string) (string, error)
}

// Notifier delivers notifications to live client connections. Delivery to
// a disconnected user is a silent no-op; NotifyAll attempts every
// recipient independently.
type Notifier interface {
	Notify(userID string, n models.Notification)
	NotifyAll(userIDs []string, n models.Notification)
}

// Archiver stores the summary of a finished tournament.
type Archiver interface {
	ArchiveTournament(ctx context.Context, summary *models.TournamentSummary) error
}

// Settings carries the matchmaking tunables. Zero values are not usable;
// start from DefaultSettings.
type Settings struct {
	InitialEloRange int
	EloRangeStep    int
	SearchInterval  time.Duration
	MaxWaitTime     time.Duration
	CooldownBase    time.Duration
	CooldownStep    time.Duration
	CooldownMax     time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		InitialEloRange: 50,
		EloRangeStep:    50,
		SearchInterval:  5 * time.Second,
		MaxWaitTime:     30 * time.Second,
		CooldownBase:    5 * time.Second,
		CooldownStep:    2 * time.Second,
		CooldownMax:     15 * time.Second,
	}
}
