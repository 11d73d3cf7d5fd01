package services

import "errors"

// Errors shared across the service layer and the HTTP mapping.
var (
	ErrUnknownMode      = errors.New("unknown matchmaking mode")
	ErrUnknownIntent    = errors.New("unknown intent type")
	ErrMissingUserID    = errors.New("user id is required")
	ErrMissingQueueID   = errors.New("queue id is required")
	ErrMissingWinnerID  = errors.New("winner id is required")
	ErrResultNotApplied = errors.New("game result could not be applied")
)
