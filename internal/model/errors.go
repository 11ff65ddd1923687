package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound   = errors.New("player not found")
	ErrAlreadyInSession = errors.New("player is already in a session")

	// Queue errors
	ErrNotEnoughQueued = errors.New("not enough players queued to pair")

	// Session errors
	ErrSessionNotFound    = errors.New("session not found")
	ErrNotInSession       = errors.New("player is not part of this session")
	ErrGameAlreadyStarted = errors.New("game has already started")
	ErrGameNotInProgress  = errors.New("game is not in progress")
	ErrNotPlayerTurn      = errors.New("not this player's turn")
	ErrInvalidPosition    = errors.New("invalid board position")
	ErrCellOccupied       = errors.New("cell is already occupied")
	ErrNoMarkerAssigned   = errors.New("player has no marker assigned")
)
