// Package orchestrator is the event-driven core of the server. It consumes
// inbound connection events one at a time, drives the queue, registry and
// session controllers, and emits outbound events through the transport.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/tictacmatch-go/internal/model"
	"github.com/mcoot/tictacmatch-go/internal/services/player"
	"github.com/mcoot/tictacmatch-go/internal/services/queue"
	"github.com/mcoot/tictacmatch-go/internal/services/session"
)

// eventBuffer is the capacity of the inbound event channel
const eventBuffer = 256

// event is one unit of work. A nil msg signals a disconnect.
type event struct {
	conn model.ConnID
	msg  *model.Inbound
}

// Orchestrator wires the queue, registry and session controllers together
// and owns all state transitions
type Orchestrator struct {
	players  *player.Service
	queue    *queue.Service
	sessions *session.Service
	emitter  Emitter
	logger   *slog.Logger
	events   chan event
}

// New creates a new Orchestrator
func New(
	players *player.Service,
	queue *queue.Service,
	sessions *session.Service,
	emitter Emitter,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		players:  players,
		queue:    queue,
		sessions: sessions,
		emitter:  emitter,
		logger:   logger.With(slog.String("component", "orchestrator")),
		events:   make(chan event, eventBuffer),
	}
}

// Message queues an inbound client event for processing
func (o *Orchestrator) Message(conn model.ConnID, msg model.Inbound) {
	o.events <- event{conn: conn, msg: &msg}
}

// Disconnect queues a connection-close event for processing
func (o *Orchestrator) Disconnect(conn model.ConnID) {
	o.events <- event{conn: conn}
}

// Run processes events until ctx is cancelled. Every event is handled to
// completion on this goroutine, so two events arriving in sequence are
// applied in arrival order and shared state needs no further locking.
func (o *Orchestrator) Run(ctx context.Context) {
	o.logger.Info("orchestrator started")
	for {
		select {
		case <-ctx.Done():
			o.logger.Info("orchestrator stopped")
			return
		case ev := <-o.events:
			o.handle(ctx, ev)
		}
	}
}

func (o *Orchestrator) handle(ctx context.Context, ev event) {
	if ev.msg == nil {
		o.handleDisconnect(ctx, ev.conn)
		return
	}

	switch ev.msg.Type {
	case model.InboundJoinQueue:
		o.handleJoinQueue(ctx, ev.conn, ev.msg.Name)
	case model.InboundLeaveQueue:
		o.handleLeaveQueue(ctx, ev.conn)
	case model.InboundJoinGame:
		o.handleJoinGame(ctx, ev.conn, ev.msg.SessionID)
	case model.InboundMakeMove:
		o.handleMakeMove(ctx, ev.conn, ev.msg.SessionID, ev.msg.Position)
	default:
		o.emitter.Unicast(ev.conn, model.ErrorEvent("unknown event type"))
	}
}

func (o *Orchestrator) handleJoinQueue(ctx context.Context, conn model.ConnID, name string) {
	if _, err := o.players.Register(ctx, conn, name); err != nil {
		o.fail(conn, "register player", err)
		return
	}

	size, changed, err := o.queue.Join(ctx, conn)
	if err != nil {
		o.fail(conn, "join queue", err)
		return
	}
	if changed {
		o.emitter.Broadcast(model.QueueSizeEvent(size))
	}

	o.tryPair(ctx)
}

func (o *Orchestrator) handleLeaveQueue(ctx context.Context, conn model.ConnID) {
	size, changed, err := o.queue.Leave(ctx, conn)
	if err != nil {
		o.fail(conn, "leave queue", err)
		return
	}
	if changed {
		o.emitter.Broadcast(model.QueueSizeEvent(size))
	}
}

func (o *Orchestrator) handleJoinGame(ctx context.Context, conn model.ConnID, id model.SessionID) {
	sess, started, err := o.sessions.MarkReady(ctx, id, conn)
	if err != nil {
		o.fail(conn, "join game", err)
		return
	}

	o.emitter.JoinRoom(RoomName(id), conn)

	if started {
		snapshot := o.sessions.Snapshot(ctx, sess)
		o.emitter.ToRoom(RoomName(id), model.GameUpdateEvent(snapshot))
	}
}

func (o *Orchestrator) handleMakeMove(ctx context.Context, conn model.ConnID, id model.SessionID, pos int) {
	sess, err := o.sessions.ApplyMove(ctx, id, conn, pos)
	if err != nil {
		o.fail(conn, "make move", err)
		return
	}

	snapshot := o.sessions.Snapshot(ctx, sess)
	o.emitter.ToRoom(RoomName(id), model.GameUpdateEvent(snapshot))

	if sess.Status == model.StatusFinished {
		for _, playerID := range sess.Players {
			o.emitter.LeaveRoom(RoomName(id), playerID)
		}
	}
}

func (o *Orchestrator) handleDisconnect(ctx context.Context, conn model.ConnID) {
	size, changed, err := o.queue.Leave(ctx, conn)
	if err != nil {
		o.logger.Error("disconnect queue cleanup failed",
			slog.String("conn_id", string(conn)),
			slog.String("error", err.Error()),
		)
	} else if changed {
		o.emitter.Broadcast(model.QueueSizeEvent(size))
	}

	sessions, err := o.sessions.SessionsFor(ctx, conn)
	if err != nil {
		o.logger.Error("disconnect session scan failed",
			slog.String("conn_id", string(conn)),
			slog.String("error", err.Error()),
		)
		sessions = nil
	}

	for _, sess := range sessions {
		switch sess.Status {
		case model.StatusAwaitingReady:
			o.discardPending(ctx, sess, conn)
		case model.StatusInProgress:
			o.forfeit(ctx, sess, conn)
		case model.StatusFinished:
			// Terminal record, nothing to do
		}
	}

	if err := o.players.Unregister(ctx, conn); err != nil {
		o.logger.Error("unregister failed",
			slog.String("conn_id", string(conn)),
			slog.String("error", err.Error()),
		)
	}
}

// tryPair pairs the two longest-waiting players for as long as the queue
// holds at least two entries
func (o *Orchestrator) tryPair(ctx context.Context) {
	for {
		first, second, err := o.queue.TakePair(ctx)
		if errors.Is(err, model.ErrNotEnoughQueued) {
			return
		}
		if err != nil {
			o.logger.Error("pairing failed", slog.String("error", err.Error()))
			return
		}

		size, err := o.queue.Len(ctx)
		if err == nil {
			o.emitter.Broadcast(model.QueueSizeEvent(size))
		}

		playerA, errA := o.players.Lookup(ctx, first)
		playerB, errB := o.players.Lookup(ctx, second)
		if errA != nil || errB != nil {
			// Should not occur under correct event sequencing; drop the
			// pair without re-queueing rather than loop on bad state
			o.logger.Error("pairing aborted, player metadata missing",
				slog.String("first", string(first)),
				slog.String("second", string(second)),
			)
			continue
		}

		sess, err := o.sessions.Create(ctx, playerA, playerB)
		if err != nil {
			o.logger.Error("session creation failed", slog.String("error", err.Error()))
			continue
		}

		o.emitter.Unicast(first, model.GameFoundEvent(sess.ID))
		o.emitter.Unicast(second, model.GameFoundEvent(sess.ID))
	}
}

// discardPending drops a session whose game never started and returns the
// surviving player to the queue with a notification
func (o *Orchestrator) discardPending(ctx context.Context, sess *model.Session, leaver model.ConnID) {
	other, ok := sess.Opponent(leaver)
	if !ok {
		return
	}

	if err := o.sessions.Discard(ctx, sess); err != nil {
		o.logger.Error("session discard failed",
			slog.String("session_id", string(sess.ID)),
			slog.String("error", err.Error()),
		)
		return
	}
	o.emitter.LeaveRoom(RoomName(sess.ID), other)

	if _, err := o.players.Lookup(ctx, other); err != nil {
		// Both players gone, nothing to notify
		return
	}

	o.emitter.Unicast(other, model.ErrorEvent("opponent left before the game started"))

	size, changed, err := o.queue.Join(ctx, other)
	if err != nil {
		o.fail(other, "requeue after discard", err)
		return
	}
	if changed {
		o.emitter.Broadcast(model.QueueSizeEvent(size))
	}
	o.tryPair(ctx)
}

// forfeit finishes an in-progress session in favor of the remaining player
// and sends them the final state
func (o *Orchestrator) forfeit(ctx context.Context, sess *model.Session, leaver model.ConnID) {
	remaining, _ := sess.Opponent(leaver)

	updated, err := o.sessions.Forfeit(ctx, sess, leaver)
	if err != nil {
		o.logger.Error("forfeit failed",
			slog.String("session_id", string(sess.ID)),
			slog.String("error", err.Error()),
		)
		return
	}
	sess = updated

	o.emitter.LeaveRoom(RoomName(sess.ID), leaver)
	snapshot := o.sessions.Snapshot(ctx, sess)
	o.emitter.ToRoom(RoomName(sess.ID), model.GameUpdateEvent(snapshot))
	o.emitter.LeaveRoom(RoomName(sess.ID), remaining)
}

// fail reports a recoverable handler error to the offending connection only
func (o *Orchestrator) fail(conn model.ConnID, action string, err error) {
	o.logger.Warn("request rejected",
		slog.String("conn_id", string(conn)),
		slog.String("action", action),
		slog.String("error", err.Error()),
	)
	o.emitter.Unicast(conn, model.ErrorEvent(err.Error()))
}
