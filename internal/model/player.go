package model

import "time"

// ConnID uniquely identifies a live connection. It is assigned by the
// transport and never reused within a connection's lifetime.
type ConnID string

// PlayerPhase represents where a player is in the matchmaking lifecycle
type PlayerPhase string

const (
	PhaseIdle    PlayerPhase = "idle"    // Connected, not queued, not in a game
	PhaseQueued  PlayerPhase = "queued"  // Waiting in the matchmaking queue
	PhasePlaying PlayerPhase = "playing" // Paired into a session
)

// GameState is a tagged record of a player's matchmaking state.
// Marker, SessionID and Ready are only meaningful while Phase is PhasePlaying.
type GameState struct {
	Phase     PlayerPhase
	Marker    Marker
	SessionID SessionID
	Ready     bool
}

// IdleState returns the zero game state for a player outside queue and game
func IdleState() GameState {
	return GameState{Phase: PhaseIdle}
}

// QueuedState returns the game state for a player waiting in the queue
func QueuedState() GameState {
	return GameState{Phase: PhaseQueued}
}

// PlayingState returns the game state for a player paired into a session
func PlayingState(marker Marker, sessionID SessionID) GameState {
	return GameState{Phase: PhasePlaying, Marker: marker, SessionID: sessionID}
}

// Player represents a connected participant
type Player struct {
	ID          ConnID
	DisplayName string
	State       GameState
	CreatedAt   time.Time
}

// IsQueued returns true if the player is waiting in the matchmaking queue
func (p *Player) IsQueued() bool {
	return p.State.Phase == PhaseQueued
}

// IsPlaying returns true if the player is paired into a session
func (p *Player) IsPlaying() bool {
	return p.State.Phase == PhasePlaying
}
