package models

import "time"

type TournamentStatus string

const (
	TournamentForming         TournamentStatus = "forming"
	TournamentRoundInProgress TournamentStatus = "round_in_progress"
	TournamentComplete        TournamentStatus = "complete"
)

// TournamentMatch is one bracket slot. IsComplete is monotonic: once a
// result names the match's GameID it flips to true and never reverts.
type TournamentMatch struct {
	GameID     string  `json:"game_id"`
	Round      int     `json:"round"`
	Player1    *Player `json:"player1"`
	Player2    *Player `json:"player2,omitempty"`
	WinnerID   string  `json:"winner_id,omitempty"`
	IsBye      bool    `json:"is_bye,omitempty"`
	IsComplete bool    `json:"is_complete"`
}

// TournamentSession holds one running single-elimination bracket.
// ActivePlayers feeds the next round generation; NextRoundPlayers
// accumulates winners of the round in progress.
type TournamentSession struct {
	ID               string
	Name             string
	Size             int
	TotalRounds      int
	CurrentRound     int
	Status           TournamentStatus
	Players          []*Player
	ActivePlayers    []*Player
	NextRoundPlayers []*Player
	Matches          []*TournamentMatch
	CompletedMatches []*TournamentMatch
	CreatedAt        time.Time
}

// TournamentSummary is the archived shape of a finished bracket.
type TournamentSummary struct {
	TournamentID string             `json:"tournament_id"`
	Name         string             `json:"name"`
	Size         int                `json:"size"`
	Rounds       int                `json:"rounds"`
	WinnerID     string             `json:"winner_id"`
	Matches      []*TournamentMatch `json:"matches"`
	CreatedAt    time.Time          `json:"created_at"`
	FinishedAt   time.Time          `json:"finished_at"`
}
