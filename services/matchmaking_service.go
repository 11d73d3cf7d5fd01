package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/arena/matchmaking"
	"github.com/Dosada05/arena/models"
	"github.com/Dosada05/arena/realtime"
)

// Matchmaker is the orchestration façade: it owns one engine per mode,
// routes inbound client intents to the right one, and relays engine
// notifications out through the connection registry. Constructed once at
// process start; there is no ambient singleton.
type Matchmaker struct {
	hub     *realtime.Hub
	modes   map[string]matchmaking.Mode
	ratings matchmaking.RatingStore
	logger  *slog.Logger
}

func NewMatchmaker(
	hub *realtime.Hub,
	ranked matchmaking.Mode,
	tournaments matchmaking.Mode,
	ratings matchmaking.RatingStore,
	logger *slog.Logger,
) *Matchmaker {
	return &Matchmaker{
		hub: hub,
		modes: map[string]matchmaking.Mode{
			models.ModeRanked:     ranked,
			models.ModeTournament: tournaments,
		},
		ratings: ratings,
		logger:  logger,
	}
}

// AddClient registers a live connection with the registry.
func (m *Matchmaker) AddClient(c *realtime.Client) {
	m.hub.Register <- c
}

// DeleteClient unregisters a live connection. The player's queue state is
// intentionally left alone so a reconnect resumes a pending search.
func (m *Matchmaker) DeleteClient(c *realtime.Client) {
	m.hub.Unregister <- c
}

// HandleIntent decodes and routes one inbound client message. The user id
// is the authenticated connection identity; a user id inside the payload
// is ignored if it disagrees.
func (m *Matchmaker) HandleIntent(ctx context.Context, userID string, msg models.ClientMessage) {
	var err error
	switch msg.Type {
	case models.IntentLeave:
		var p models.LeavePayload
		if err = unmarshalPayload(msg.Payload, &p); err == nil {
			m.warnOnSpoof(userID, p.UserID)
			err = m.Leave(userID, p.Mode)
		}
	case models.IntentFindMatch:
		var p models.FindMatchPayload
		if err = unmarshalPayload(msg.Payload, &p); err == nil {
			m.warnOnSpoof(userID, p.UserID)
			err = m.FindMatch(ctx, userID)
		}
	case models.IntentJoinMatch:
		var p models.JoinMatchPayload
		if err = unmarshalPayload(msg.Payload, &p); err == nil {
			m.warnOnSpoof(userID, p.UserID)
			err = m.JoinMatch(ctx, p.QueueID, userID, p.Mode)
		}
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownIntent, msg.Type)
	}

	if err != nil {
		// Engine failures never propagate to the transport; the client is
		// informed and the error stays at this boundary.
		m.logger.Warn("intent rejected",
			slog.String("user_id", userID),
			slog.String("type", msg.Type),
			slog.Any("error", err))
		m.hub.Notify(userID, models.Notification{
			Type:    models.NoticeMatchFailed,
			Payload: models.MatchFailedPayload{Message: err.Error()},
		})
	}
}

func unmarshalPayload(raw json.RawMessage, dst interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func (m *Matchmaker) warnOnSpoof(authID, payloadID string) {
	if payloadID != "" && payloadID != authID {
		m.logger.Warn("payload user id differs from connection identity",
			slog.String("authenticated", authID),
			slog.String("payload", payloadID))
	}
}

// Leave removes the player from the named mode's waiting structures and
// cancels any pending search.
func (m *Matchmaker) Leave(userID, mode string) error {
	engine, ok := m.modes[mode]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	engine.RemovePlayer(userID)
	return nil
}

// FindMatch resolves the player's rating, builds the ephemeral player
// record and starts a ranked search. A rating lookup failure falls back to
// the default rating rather than blocking the search.
func (m *Matchmaker) FindMatch(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrMissingUserID
	}
	player := m.buildPlayer(ctx, userID)

	ranked := m.modes[models.ModeRanked]
	if err := ranked.AddPlayer(ctx, player); err != nil {
		return err
	}
	return ranked.FindRandomMatch(ctx, userID)
}

// JoinMatch adds the player to a specific queue on the addressed engine.
func (m *Matchmaker) JoinMatch(ctx context.Context, queueID, userID, mode string) error {
	if userID == "" {
		return ErrMissingUserID
	}
	if queueID == "" {
		return ErrMissingQueueID
	}
	engine, ok := m.modes[mode]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	return engine.JoinQueue(ctx, queueID, m.buildPlayer(ctx, userID))
}

// HandleGameResult fans the result out to every engine; the originating
// mode is not always known to the caller, and engines no-op on game ids
// they do not own.
func (m *Matchmaker) HandleGameResult(ctx context.Context, gameID, winnerID string) error {
	if winnerID == "" {
		return ErrMissingWinnerID
	}
	for mode, engine := range m.modes {
		if err := engine.HandleGameResult(ctx, gameID, winnerID); err != nil {
			m.logger.Error("engine rejected game result",
				slog.String("mode", mode),
				slog.String("game_id", gameID),
				slog.Any("error", err))
			return fmt.Errorf("%w: %v", ErrResultNotApplied, err)
		}
	}
	return nil
}

func (m *Matchmaker) buildPlayer(ctx context.Context, userID string) *models.Player {
	elo, err := m.ratings.PlayerRating(ctx, userID)
	if err != nil {
		m.logger.Warn("rating lookup failed, using default",
			slog.String("user_id", userID),
			slog.Any("error", err))
		elo = models.DefaultRating
	}
	return &models.Player{UserID: userID, Elo: elo, JoinedAt: time.Now()}
}
