package model

import "time"

// SessionID uniquely identifies a game session
type SessionID string

// Marker is one of the two mutually exclusive symbols placed on the board.
// An empty Marker denotes an empty cell.
type Marker string

const (
	MarkerNone Marker = ""
	MarkerX    Marker = "X"
	MarkerO    Marker = "O"
)

// BoardSize is the number of cells on a board
const BoardSize = 9

// Board is the 3x3 grid in row-major order. Empty cells hold MarkerNone.
type Board [BoardSize]Marker

// IsValidPosition returns true if the position is within bounds
func (b Board) IsValidPosition(pos int) bool {
	return pos >= 0 && pos < BoardSize
}

// IsEmpty returns true if the cell at the given position is empty
func (b Board) IsEmpty(pos int) bool {
	return b.IsValidPosition(pos) && b[pos] == MarkerNone
}

// IsFull returns true if all cells are filled
func (b Board) IsFull() bool {
	for _, cell := range b {
		if cell == MarkerNone {
			return false
		}
	}
	return true
}

// SessionStatus represents the lifecycle state of a session.
// Transitions only move forward: awaiting_ready -> in_progress -> finished.
type SessionStatus string

const (
	StatusAwaitingReady SessionStatus = "awaiting_ready"
	StatusInProgress    SessionStatus = "in_progress"
	StatusFinished      SessionStatus = "finished"
)

// Session represents one two-player game from pairing to terminal outcome
type Session struct {
	ID    SessionID
	Board Board

	// Players in pairing order: Players[0] was dequeued first, plays X
	// and takes the first turn.
	Players [2]ConnID

	// CurrentTurn is empty unless Status is StatusInProgress
	CurrentTurn ConnID

	Status SessionStatus

	// Winner is empty while unfinished and on a draw; Status disambiguates
	Winner ConnID

	CreatedAt  time.Time
	FinishedAt time.Time // Zero until Status is StatusFinished
}

// HasPlayer returns true if the given connection is one of the two players
func (s *Session) HasPlayer(id ConnID) bool {
	return s.Players[0] == id || s.Players[1] == id
}

// Opponent returns the other player's connection id
func (s *Session) Opponent(id ConnID) (ConnID, bool) {
	switch id {
	case s.Players[0]:
		return s.Players[1], true
	case s.Players[1]:
		return s.Players[0], true
	}
	return "", false
}

// MarkerFor returns the marker assigned to the given player
func (s *Session) MarkerFor(id ConnID) Marker {
	switch id {
	case s.Players[0]:
		return MarkerX
	case s.Players[1]:
		return MarkerO
	}
	return MarkerNone
}
