package model

// InboundType identifies a client-to-server event
type InboundType string

const (
	InboundJoinQueue  InboundType = "joinQueue"
	InboundLeaveQueue InboundType = "leaveQueue"
	InboundJoinGame   InboundType = "joinGame"
	InboundMakeMove   InboundType = "makeMove"
)

// Inbound is the decoded envelope for client-to-server events. Fields beyond
// Type are populated per event type.
type Inbound struct {
	Type InboundType `json:"type"`

	// Name is the display name for joinQueue
	Name string `json:"name,omitempty"`

	// SessionID targets a session for joinGame and makeMove
	SessionID SessionID `json:"sessionId,omitempty"`

	// Position is the 0-8 board index for makeMove
	Position int `json:"position"`
}

// OutboundType identifies a server-to-client event
type OutboundType string

const (
	OutboundConnected  OutboundType = "connected"
	OutboundQueueSize  OutboundType = "queueSize"
	OutboundGameFound  OutboundType = "gameFound"
	OutboundGameUpdate OutboundType = "gameUpdate"
	OutboundError      OutboundType = "error"
)

// PlayerSnapshot is the wire representation of a session participant
type PlayerSnapshot struct {
	ID     ConnID `json:"id"`
	Name   string `json:"name"`
	Marker Marker `json:"marker"`
}

// SessionSnapshot is the full wire representation of a session
type SessionSnapshot struct {
	ID          SessionID        `json:"id"`
	Board       Board            `json:"board"`
	Players     []PlayerSnapshot `json:"players"`
	CurrentTurn ConnID           `json:"currentTurn,omitempty"`
	Status      SessionStatus    `json:"status"`
	Winner      ConnID           `json:"winner,omitempty"`
}

// Outbound is the envelope for server-to-client events. Exactly one payload
// field is set, matching Type.
type Outbound struct {
	Type OutboundType `json:"type"`

	// Connected payload: the id the server assigned to this connection
	ConnID ConnID `json:"connId,omitempty"`

	// QueueSize payload
	QueueSize *int `json:"queueSize,omitempty"`

	// GameFound payload
	SessionID SessionID `json:"sessionId,omitempty"`

	// GameUpdate payload
	Session *SessionSnapshot `json:"session,omitempty"`

	// Error payload
	Reason string `json:"reason,omitempty"`
}

// ConnectedEvent builds a connected outbound event
func ConnectedEvent(id ConnID) Outbound {
	return Outbound{Type: OutboundConnected, ConnID: id}
}

// QueueSizeEvent builds a queueSize outbound event
func QueueSizeEvent(size int) Outbound {
	return Outbound{Type: OutboundQueueSize, QueueSize: &size}
}

// GameFoundEvent builds a gameFound outbound event
func GameFoundEvent(id SessionID) Outbound {
	return Outbound{Type: OutboundGameFound, SessionID: id}
}

// GameUpdateEvent builds a gameUpdate outbound event
func GameUpdateEvent(snapshot SessionSnapshot) Outbound {
	return Outbound{Type: OutboundGameUpdate, Session: &snapshot}
}

// ErrorEvent builds an error outbound event
func ErrorEvent(reason string) Outbound {
	return Outbound{Type: OutboundError, Reason: reason}
}
