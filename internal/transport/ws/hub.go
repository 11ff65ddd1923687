// Package ws implements the websocket transport: per-connection identity,
// unicast and room-scoped multicast delivery, and dispatch of decoded
// inbound events into the orchestrator.
package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/mcoot/tictacmatch-go/internal/dependencies/random"
	"github.com/mcoot/tictacmatch-go/internal/model"
)

// ConnIDLength is the length of generated connection ids
const ConnIDLength = 20

// Sink consumes decoded inbound events. Implemented by the orchestrator.
type Sink interface {
	Message(conn model.ConnID, msg model.Inbound)
	Disconnect(conn model.ConnID)
}

// Hub tracks live connections and room membership, and delivers outbound
// events to them
type Hub struct {
	mu      sync.RWMutex
	clients map[model.ConnID]*Client
	rooms   map[string]map[model.ConnID]bool

	sink     Sink
	random   random.Random
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewHub creates a new Hub. A Sink must be attached before serving
// connections.
func NewHub(random random.Random, logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[model.ConnID]*Client),
		rooms:   make(map[string]map[model.ConnID]bool),
		random:  random,
		logger:  logger.With(slog.String("component", "ws")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// SetSink attaches the consumer of inbound events
func (h *Hub) SetSink(sink Sink) {
	h.sink = sink
}

// ServeWS upgrades an HTTP request to a websocket connection and starts the
// client's read and write pumps
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := &Client{
		id:   model.ConnID(h.random.Token(ConnIDLength)),
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	h.addClient(client)

	go client.writePump()
	go client.readPump()

	// Tell the client which id it was assigned
	h.Unicast(client.id, model.ConnectedEvent(client.id))
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Unicast sends an event to a single connection
func (h *Hub) Unicast(id model.ConnID, event model.Outbound) {
	data, ok := h.encode(event)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if client := h.clients[id]; client != nil {
		h.deliver(client, data)
	}
}

// ToRoom sends an event to every connection in a room
func (h *Hub) ToRoom(room string, event model.Outbound) {
	data, ok := h.encode(event)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for id := range h.rooms[room] {
		if client := h.clients[id]; client != nil {
			h.deliver(client, data)
		}
	}
}

// Broadcast sends an event to every connection
func (h *Hub) Broadcast(event model.Outbound) {
	data, ok := h.encode(event)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		h.deliver(client, data)
	}
}

// JoinRoom adds a connection to a room
func (h *Hub) JoinRoom(room string, id model.ConnID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[model.ConnID]bool)
	}
	h.rooms[room][id] = true
}

// LeaveRoom removes a connection from a room
func (h *Hub) LeaveRoom(room string, id model.ConnID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromRoomLocked(room, id)
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client.id] = client
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("client connected",
		slog.String("conn_id", string(client.id)),
		slog.Int("total_clients", count),
	)
}

// removeClient drops a client from the hub and every room, then notifies
// the sink. Safe to call more than once per client.
func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.id)
	close(client.send)
	for room := range h.rooms {
		h.removeFromRoomLocked(room, client.id)
	}
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("client disconnected",
		slog.String("conn_id", string(client.id)),
		slog.Int("total_clients", count),
	)

	if h.sink != nil {
		h.sink.Disconnect(client.id)
	}
}

func (h *Hub) removeFromRoomLocked(room string, id model.ConnID) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, id)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

func (h *Hub) encode(event model.Outbound) ([]byte, bool) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("outbound event marshal failed",
			slog.String("type", string(event.Type)),
			slog.String("error", err.Error()),
		)
		return nil, false
	}
	return data, true
}

// deliver hands data to a client's write pump, dropping the message if the
// client's buffer is full. Must be called with mu held: close of the send
// channel happens under the write lock, so the send here cannot race it.
func (h *Hub) deliver(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		h.logger.Warn("message dropped, client buffer full",
			slog.String("conn_id", string(client.id)),
		)
	}
}
