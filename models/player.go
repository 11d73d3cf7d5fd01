package models

import "time"

// DefaultRating is assigned to players without a stored rating.
const DefaultRating = 1000

// Player is the process-local record of one user waiting for a match.
// It lives inside exactly one waiting structure at a time and is never
// persisted; delivery to the user goes through the connection registry,
// addressed by UserID.
type Player struct {
	UserID   string    `json:"user_id"`
	Elo      int       `json:"elo"`
	JoinedAt time.Time `json:"joined_at"`
}
