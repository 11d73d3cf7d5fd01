package models

import "encoding/json"

// Matchmaking modes routable by the orchestrator.
const (
	ModeRanked     = "ranked"
	ModeTournament = "tournament"
)

// Inbound intent types accepted over the websocket.
const (
	IntentLeave     = "leave"
	IntentFindMatch = "find_match"
	IntentJoinMatch = "join_match"
)

// Outbound notification types.
const (
	NoticeMatchFound    = "match_found"
	NoticeSearchTimeout = "search_timeout"
	NoticeMatchFailed   = "match_failed"
	NoticeEliminated    = "eliminated"
	NoticeAdvanced      = "advanced"
	NoticeTournamentWon = "tournament_won"
)

// ClientMessage is the envelope for inbound intents. Payload decoding is
// deferred so each intent can carry its own shape.
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type LeavePayload struct {
	UserID string `json:"user_id"`
	Mode   string `json:"mode"`
}

type FindMatchPayload struct {
	UserID string `json:"user_id"`
	Mode   string `json:"mode,omitempty"`
}

type JoinMatchPayload struct {
	QueueID string `json:"queue_id"`
	UserID  string `json:"user_id"`
	Mode    string `json:"mode"`
}

// Notification is the envelope for everything the core pushes to clients.
type Notification struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type MatchFoundPayload struct {
	GameID     string `json:"game_id"`
	OpponentID string `json:"opponent_id"`
	Mode       string `json:"mode"`
	Round      int    `json:"round,omitempty"`
}

type SearchTimeoutPayload struct {
	Message string `json:"message"`
}

type MatchFailedPayload struct {
	Message string `json:"message"`
}

type TournamentNoticePayload struct {
	TournamentID string `json:"tournament_id"`
	Round        int    `json:"round,omitempty"`
	WinnerID     string `json:"winner_id,omitempty"`
}
