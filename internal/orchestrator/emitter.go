package orchestrator

import "github.com/mcoot/tictacmatch-go/internal/model"

// Emitter is the outbound side of the transport. The orchestrator addresses
// individual connections by id, session rooms by name, or all connections.
type Emitter interface {
	// Unicast sends an event to a single connection
	Unicast(id model.ConnID, event model.Outbound)

	// ToRoom sends an event to every connection in a room
	ToRoom(room string, event model.Outbound)

	// Broadcast sends an event to every connection
	Broadcast(event model.Outbound)

	// JoinRoom adds a connection to a room
	JoinRoom(room string, id model.ConnID)

	// LeaveRoom removes a connection from a room
	LeaveRoom(room string, id model.ConnID)
}

// RoomName returns the multicast room name for a session
func RoomName(id model.SessionID) string {
	return "session:" + string(id)
}
