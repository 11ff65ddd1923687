package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/tictacmatch-go/internal/dependencies/mocks"
	"github.com/mcoot/tictacmatch-go/internal/model"
	"github.com/mcoot/tictacmatch-go/internal/services/player"
	"github.com/mcoot/tictacmatch-go/internal/services/queue"
	"github.com/mcoot/tictacmatch-go/internal/services/session"
	"github.com/mcoot/tictacmatch-go/internal/storage/memory"
	"github.com/mcoot/tictacmatch-go/internal/testutil"
)

// emission records one outbound event and where it was sent
type emission struct {
	scope  string // "unicast", "room" or "broadcast"
	target string // connection id or room name; empty for broadcast
	event  model.Outbound
}

// fakeEmitter records emissions and room membership for assertions
type fakeEmitter struct {
	emissions []emission
	rooms     map[string]map[model.ConnID]bool
}

var _ Emitter = (*fakeEmitter)(nil)

func newFakeEmitter() *fakeEmitter {
	return &fakeEmitter{rooms: make(map[string]map[model.ConnID]bool)}
}

func (e *fakeEmitter) Unicast(id model.ConnID, event model.Outbound) {
	e.emissions = append(e.emissions, emission{scope: "unicast", target: string(id), event: event})
}

func (e *fakeEmitter) ToRoom(room string, event model.Outbound) {
	e.emissions = append(e.emissions, emission{scope: "room", target: room, event: event})
}

func (e *fakeEmitter) Broadcast(event model.Outbound) {
	e.emissions = append(e.emissions, emission{scope: "broadcast", event: event})
}

func (e *fakeEmitter) JoinRoom(room string, id model.ConnID) {
	if e.rooms[room] == nil {
		e.rooms[room] = make(map[model.ConnID]bool)
	}
	e.rooms[room][id] = true
}

func (e *fakeEmitter) LeaveRoom(room string, id model.ConnID) {
	delete(e.rooms[room], id)
}

// ofType returns all recorded emissions of the given event type
func (e *fakeEmitter) ofType(t model.OutboundType) []emission {
	var result []emission
	for _, em := range e.emissions {
		if em.event.Type == t {
			result = append(result, em)
		}
	}
	return result
}

// queueSizes returns the broadcast queueSize values in emission order
func (e *fakeEmitter) queueSizes() []int {
	var sizes []int
	for _, em := range e.ofType(model.OutboundQueueSize) {
		sizes = append(sizes, *em.event.QueueSize)
	}
	return sizes
}

func (e *fakeEmitter) reset() {
	e.emissions = nil
}

type OrchestratorSuite struct {
	suite.Suite
	storage *memory.Storage
	emitter *fakeEmitter
	orch    *Orchestrator
	ctx     context.Context
}

func TestOrchestratorSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorSuite))
}

func (s *OrchestratorSuite) SetupTest() {
	s.storage = memory.New()
	clk := mocks.NewMockClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	rnd := mocks.NewMockRandom()
	logger := testutil.NopLogger()

	players := player.New(s.storage, clk, logger)
	queueService := queue.New(s.storage, logger)
	sessions := session.New(s.storage, clk, rnd, logger)

	s.emitter = newFakeEmitter()
	s.orch = New(players, queueService, sessions, s.emitter, logger)
	s.ctx = context.Background()
}

// Event helpers, driving handlers the way Run does

func (s *OrchestratorSuite) joinQueue(conn model.ConnID, name string) {
	s.orch.handle(s.ctx, event{conn: conn, msg: &model.Inbound{Type: model.InboundJoinQueue, Name: name}})
}

func (s *OrchestratorSuite) leaveQueue(conn model.ConnID) {
	s.orch.handle(s.ctx, event{conn: conn, msg: &model.Inbound{Type: model.InboundLeaveQueue}})
}

func (s *OrchestratorSuite) joinGame(conn model.ConnID, id model.SessionID) {
	s.orch.handle(s.ctx, event{conn: conn, msg: &model.Inbound{Type: model.InboundJoinGame, SessionID: id}})
}

func (s *OrchestratorSuite) makeMove(conn model.ConnID, id model.SessionID, pos int) {
	s.orch.handle(s.ctx, event{conn: conn, msg: &model.Inbound{Type: model.InboundMakeMove, SessionID: id, Position: pos}})
}

func (s *OrchestratorSuite) disconnect(conn model.ConnID) {
	s.orch.handle(s.ctx, event{conn: conn})
}

// pairUp joins two players and returns the shared session id
func (s *OrchestratorSuite) pairUp(first, second model.ConnID) model.SessionID {
	s.joinQueue(first, "player "+string(first))
	s.joinQueue(second, "player "+string(second))

	found := s.emitter.ofType(model.OutboundGameFound)
	s.Require().Len(found, 2)
	s.Require().Equal(found[0].event.SessionID, found[1].event.SessionID)
	return found[0].event.SessionID
}

// startGame pairs and readies both players
func (s *OrchestratorSuite) startGame(first, second model.ConnID) model.SessionID {
	id := s.pairUp(first, second)
	s.joinGame(first, id)
	s.joinGame(second, id)
	return id
}

// Queue behavior

func (s *OrchestratorSuite) TestJoinQueueBroadcastsQueueSize() {
	s.joinQueue("c1", "Alice")

	s.Equal([]int{1}, s.emitter.queueSizes())
}

func (s *OrchestratorSuite) TestJoinQueueTwiceDoesNotRebroadcast() {
	s.joinQueue("c1", "Alice")
	s.joinQueue("c1", "Alice")

	s.Equal([]int{1}, s.emitter.queueSizes())
}

func (s *OrchestratorSuite) TestLeaveQueueBroadcastsQueueSize() {
	s.joinQueue("c1", "Alice")
	s.leaveQueue("c1")

	s.Equal([]int{1, 0}, s.emitter.queueSizes())
}

func (s *OrchestratorSuite) TestLeaveQueueWhenNotQueuedDoesNotBroadcast() {
	s.leaveQueue("c1")

	s.Empty(s.emitter.queueSizes())
}

// Pairing behavior

func (s *OrchestratorSuite) TestTwoJoinsProducePairing() {
	id := s.pairUp("c1", "c2")

	s.NotEmpty(id)
	s.Equal([]int{1, 2, 0}, s.emitter.queueSizes())

	found := s.emitter.ofType(model.OutboundGameFound)
	s.Equal("c1", found[0].target)
	s.Equal("c2", found[1].target)
}

func (s *OrchestratorSuite) TestPairingIsFIFO() {
	s.joinQueue("c1", "Alice")
	s.joinQueue("c2", "Bob")
	s.joinQueue("c3", "Carol")

	found := s.emitter.ofType(model.OutboundGameFound)
	s.Require().Len(found, 2)
	s.Equal("c1", found[0].target)
	s.Equal("c2", found[1].target)

	// Carol is still waiting
	carol, err := s.storage.GetPlayer(s.ctx, "c3")
	s.Require().NoError(err)
	s.Equal(model.PhaseQueued, carol.State.Phase)
}

func (s *OrchestratorSuite) TestJoinQueueWhileInSessionIsRejected() {
	s.pairUp("c1", "c2")
	s.emitter.reset()

	s.joinQueue("c1", "Alice")

	errs := s.emitter.ofType(model.OutboundError)
	s.Require().Len(errs, 1)
	s.Equal("c1", errs[0].target)
	s.Empty(s.emitter.ofType(model.OutboundGameFound))
}

// Ready-up behavior

func (s *OrchestratorSuite) TestGameStartsWhenBothPlayersJoin() {
	id := s.pairUp("c1", "c2")
	s.emitter.reset()

	s.joinGame("c1", id)
	s.Empty(s.emitter.ofType(model.OutboundGameUpdate), "no update until both are ready")

	s.joinGame("c2", id)

	updates := s.emitter.ofType(model.OutboundGameUpdate)
	s.Require().Len(updates, 1)
	s.Equal(RoomName(id), updates[0].target)

	snapshot := updates[0].event.Session
	s.Require().NotNil(snapshot)
	s.Equal(model.StatusInProgress, snapshot.Status)
	s.Equal(model.ConnID("c1"), snapshot.CurrentTurn, "first-queued player moves first")

	s.True(s.emitter.rooms[RoomName(id)]["c1"])
	s.True(s.emitter.rooms[RoomName(id)]["c2"])
}

func (s *OrchestratorSuite) TestJoinGameByOutsiderIsRejected() {
	id := s.pairUp("c1", "c2")
	s.joinQueue("c3", "Carol")
	s.emitter.reset()

	s.joinGame("c3", id)

	errs := s.emitter.ofType(model.OutboundError)
	s.Require().Len(errs, 1)
	s.Equal("c3", errs[0].target)
	s.False(s.emitter.rooms[RoomName(id)]["c3"])
}

// Move behavior

func (s *OrchestratorSuite) TestMoveBroadcastsUpdateToRoom() {
	id := s.startGame("c1", "c2")
	s.emitter.reset()

	s.makeMove("c1", id, 4)

	updates := s.emitter.ofType(model.OutboundGameUpdate)
	s.Require().Len(updates, 1)
	s.Equal(RoomName(id), updates[0].target)
	s.Equal(model.MarkerX, updates[0].event.Session.Board[4])
	s.Equal(model.ConnID("c2"), updates[0].event.Session.CurrentTurn)
}

func (s *OrchestratorSuite) TestRejectedMoveOnlySendsErrorToSender() {
	id := s.startGame("c1", "c2")
	s.emitter.reset()

	s.makeMove("c2", id, 0) // out of turn

	s.Empty(s.emitter.ofType(model.OutboundGameUpdate))
	errs := s.emitter.ofType(model.OutboundError)
	s.Require().Len(errs, 1)
	s.Equal("c2", errs[0].target)

	stored, err := s.storage.GetSession(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(model.MarkerNone, stored.Board[0])
}

func (s *OrchestratorSuite) TestMoveInUnknownSessionIsRejected() {
	s.joinQueue("c1", "Alice")
	s.emitter.reset()

	s.makeMove("c1", "nonexistent", 0)

	errs := s.emitter.ofType(model.OutboundError)
	s.Require().Len(errs, 1)
	s.Equal("c1", errs[0].target)
}

func (s *OrchestratorSuite) TestWinningMoveEmptiesRoom() {
	id := s.startGame("c1", "c2")

	s.makeMove("c1", id, 0)
	s.makeMove("c2", id, 3)
	s.makeMove("c1", id, 1)
	s.makeMove("c2", id, 4)
	s.makeMove("c1", id, 2)

	s.Empty(s.emitter.rooms[RoomName(id)])
}

// Disconnect behavior

func (s *OrchestratorSuite) TestDisconnectQueuedPlayerUpdatesQueueOnly() {
	s.joinQueue("c1", "Alice")
	s.emitter.reset()

	s.disconnect("c1")

	s.Equal([]int{0}, s.emitter.queueSizes())
	s.Empty(s.emitter.ofType(model.OutboundGameFound))

	_, err := s.storage.GetPlayer(s.ctx, "c1")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *OrchestratorSuite) TestDisconnectMidGameForfeitsToRemainingPlayer() {
	id := s.startGame("c1", "c2")
	s.emitter.reset()

	s.disconnect("c1")

	updates := s.emitter.ofType(model.OutboundGameUpdate)
	s.Require().Len(updates, 1, "final state broadcast exactly once")
	s.Equal(RoomName(id), updates[0].target)
	s.Equal(model.StatusFinished, updates[0].event.Session.Status)
	s.Equal(model.ConnID("c2"), updates[0].event.Session.Winner)

	// The disconnecting player left the room before the broadcast
	s.False(s.emitter.rooms[RoomName(id)]["c1"])
}

func (s *OrchestratorSuite) TestDisconnectBeforeReadyDiscardsSessionAndRequeuesOther() {
	id := s.pairUp("c1", "c2")
	s.joinGame("c2", id)
	s.emitter.reset()

	s.disconnect("c1")

	_, err := s.storage.GetSession(s.ctx, id)
	s.ErrorIs(err, model.ErrSessionNotFound)

	errs := s.emitter.ofType(model.OutboundError)
	s.Require().Len(errs, 1)
	s.Equal("c2", errs[0].target)

	s.Equal([]int{1}, s.emitter.queueSizes())
	other, err := s.storage.GetPlayer(s.ctx, "c2")
	s.Require().NoError(err)
	s.Equal(model.PhaseQueued, other.State.Phase)
}

func (s *OrchestratorSuite) TestDisconnectAfterFinishTakesNoSessionAction() {
	id := s.startGame("c1", "c2")
	s.disconnect("c1") // forfeits
	s.emitter.reset()

	s.disconnect("c2")

	s.Empty(s.emitter.ofType(model.OutboundGameUpdate))

	// The finished session is retained as a terminal record
	stored, err := s.storage.GetSession(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(model.StatusFinished, stored.Status)
}

func (s *OrchestratorSuite) TestPlayersCanRequeueAfterGameEnds() {
	id := s.startGame("c1", "c2")
	s.makeMove("c1", id, 0)
	s.makeMove("c2", id, 3)
	s.makeMove("c1", id, 1)
	s.makeMove("c2", id, 4)
	s.makeMove("c1", id, 2)
	s.emitter.reset()

	s.joinQueue("c1", "Alice")
	s.joinQueue("c2", "Bob")

	found := s.emitter.ofType(model.OutboundGameFound)
	s.Require().Len(found, 2)
	s.NotEqual(id, found[0].event.SessionID, "fresh session for the rematch")
}

// Full scenario from pairing to a win

func (s *OrchestratorSuite) TestFullGameScenario() {
	s.joinQueue("c1", "Alice")
	s.Equal([]int{1}, s.emitter.queueSizes())

	s.joinQueue("c2", "Bob")

	found := s.emitter.ofType(model.OutboundGameFound)
	s.Require().Len(found, 2)
	id := found[0].event.SessionID
	s.Equal(found[1].event.SessionID, id)

	s.joinGame("c1", id)
	s.joinGame("c2", id)

	updates := s.emitter.ofType(model.OutboundGameUpdate)
	s.Require().Len(updates, 1)
	s.Equal(model.StatusInProgress, updates[0].event.Session.Status)
	s.Equal(model.ConnID("c1"), updates[0].event.Session.CurrentTurn)

	s.makeMove("c1", id, 0)
	s.makeMove("c2", id, 3)
	s.makeMove("c1", id, 1)
	s.makeMove("c2", id, 4)
	s.makeMove("c1", id, 2)

	updates = s.emitter.ofType(model.OutboundGameUpdate)
	s.Require().Len(updates, 6)

	final := updates[len(updates)-1].event.Session
	s.Equal(model.StatusFinished, final.Status)
	s.Equal(model.ConnID("c1"), final.Winner)
	s.Equal(model.Board{
		model.MarkerX, model.MarkerX, model.MarkerX,
		model.MarkerO, model.MarkerO, model.MarkerNone,
		model.MarkerNone, model.MarkerNone, model.MarkerNone,
	}, final.Board)

	s.Require().Len(final.Players, 2)
	s.Equal("Alice", final.Players[0].Name)
	s.Equal(model.MarkerX, final.Players[0].Marker)
	s.Equal("Bob", final.Players[1].Name)
	s.Equal(model.MarkerO, final.Players[1].Marker)
}
