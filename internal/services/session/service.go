// Package session implements the game session store and lifecycle: creation
// on pairing, ready-up, move application via the rules engine, forfeit on
// disconnect, and eviction of finished sessions.
package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mcoot/tictacmatch-go/internal/dependencies/clock"
	"github.com/mcoot/tictacmatch-go/internal/dependencies/random"
	"github.com/mcoot/tictacmatch-go/internal/model"
	"github.com/mcoot/tictacmatch-go/internal/services/rules"
	"github.com/mcoot/tictacmatch-go/internal/storage"
)

// SessionIDLength is the length of generated session ids
const SessionIDLength = 16

// Service provides game session operations
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
}

// New creates a new session Service
func New(storage storage.Storage, clock clock.Clock, random random.Random, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		random:  random,
		logger:  logger,
	}
}

// Create allocates a session for a freshly dequeued pair. The first player
// is assigned X and will take the first turn once both have readied up.
func (s *Service) Create(ctx context.Context, first, second *model.Player) (*model.Session, error) {
	var id model.SessionID
	for {
		id = model.SessionID(s.random.Token(SessionIDLength))
		exists, err := s.storage.SessionExists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !exists {
			break
		}
	}

	session := &model.Session{
		ID:        id,
		Players:   [2]model.ConnID{first.ID, second.ID},
		Status:    model.StatusAwaitingReady,
		CreatedAt: s.clock.Now(),
	}

	first.State = model.PlayingState(model.MarkerX, id)
	second.State = model.PlayingState(model.MarkerO, id)

	if err := s.storage.SavePlayer(ctx, first); err != nil {
		return nil, err
	}
	if err := s.storage.SavePlayer(ctx, second); err != nil {
		return nil, err
	}
	if err := s.storage.SaveSession(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("session created",
		slog.String("session_id", string(id)),
		slog.String("player_x", string(first.ID)),
		slog.String("player_o", string(second.ID)),
	)
	return session, nil
}

// Get retrieves a session by id
func (s *Service) Get(ctx context.Context, id model.SessionID) (*model.Session, error) {
	return s.storage.GetSession(ctx, id)
}

// MarkReady records a player's explicit join for a session. Once both
// players are ready the session moves to in-progress with the first-paired
// player to move; the returned bool reports that transition.
func (s *Service) MarkReady(ctx context.Context, id model.SessionID, connID model.ConnID) (*model.Session, bool, error) {
	session, err := s.storage.GetSession(ctx, id)
	if err != nil {
		return nil, false, err
	}

	if !session.HasPlayer(connID) {
		return nil, false, model.ErrNotInSession
	}
	if session.Status != model.StatusAwaitingReady {
		return nil, false, model.ErrGameAlreadyStarted
	}

	player, err := s.storage.GetPlayer(ctx, connID)
	if err != nil {
		return nil, false, err
	}

	if !player.State.Ready {
		player.State.Ready = true
		if err := s.storage.SavePlayer(ctx, player); err != nil {
			return nil, false, err
		}
	}

	opponentID, _ := session.Opponent(connID)
	opponent, err := s.storage.GetPlayer(ctx, opponentID)
	if err != nil {
		return nil, false, err
	}

	if !opponent.State.Ready {
		return session, false, nil
	}

	session.Status = model.StatusInProgress
	session.CurrentTurn = session.Players[0]
	if err := s.storage.SaveSession(ctx, session); err != nil {
		return nil, false, err
	}

	s.logger.Info("session started",
		slog.String("session_id", string(id)),
		slog.String("first_turn", string(session.CurrentTurn)),
	)
	return session, true, nil
}

// ApplyMove validates and applies a move. Checks run in a fixed order and
// the first failure returns without mutation: session exists, game in
// progress, mover's turn, position valid and empty, mover has a marker.
func (s *Service) ApplyMove(ctx context.Context, id model.SessionID, connID model.ConnID, pos int) (*model.Session, error) {
	session, err := s.storage.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	if session.Status != model.StatusInProgress {
		return nil, model.ErrGameNotInProgress
	}
	if session.CurrentTurn != connID {
		return nil, model.ErrNotPlayerTurn
	}
	if err := rules.ValidatePlacement(session.Board, pos); err != nil {
		return nil, err
	}

	player, err := s.storage.GetPlayer(ctx, connID)
	if err != nil {
		return nil, err
	}
	marker := player.State.Marker
	if marker == model.MarkerNone {
		return nil, model.ErrNoMarkerAssigned
	}

	session.Board[pos] = marker

	switch {
	case rules.IsWinningBoard(session.Board):
		if err := s.finish(ctx, session, connID); err != nil {
			return nil, err
		}
	case rules.IsDraw(session.Board):
		if err := s.finish(ctx, session, ""); err != nil {
			return nil, err
		}
	default:
		opponentID, _ := session.Opponent(connID)
		session.CurrentTurn = opponentID
		if err := s.storage.SaveSession(ctx, session); err != nil {
			return nil, err
		}
	}

	return session, nil
}

// Forfeit finishes an in-progress session in favor of the remaining player
// after the other one disconnected
func (s *Service) Forfeit(ctx context.Context, session *model.Session, leaver model.ConnID) (*model.Session, error) {
	winner, ok := session.Opponent(leaver)
	if !ok {
		return nil, model.ErrNotInSession
	}
	if err := s.finish(ctx, session, winner); err != nil {
		return nil, err
	}
	s.logger.Info("session forfeited",
		slog.String("session_id", string(session.ID)),
		slog.String("leaver", string(leaver)),
		slog.String("winner", string(winner)),
	)
	return session, nil
}

// Discard removes a session that never left the awaiting-ready state and
// returns its surviving players to queue eligibility
func (s *Service) Discard(ctx context.Context, session *model.Session) error {
	if err := s.storage.DeleteSession(ctx, session.ID); err != nil {
		return err
	}
	for _, id := range session.Players {
		if err := s.resetPlayer(ctx, id); err != nil {
			return err
		}
	}
	s.logger.Info("session discarded",
		slog.String("session_id", string(session.ID)),
	)
	return nil
}

// SessionsFor returns all sessions that include the given player
func (s *Service) SessionsFor(ctx context.Context, id model.ConnID) ([]*model.Session, error) {
	return s.storage.SessionsForPlayer(ctx, id)
}

// EvictFinished removes finished sessions older than maxAge and returns how
// many were evicted
func (s *Service) EvictFinished(ctx context.Context, maxAge time.Duration) (int, error) {
	sessions, err := s.storage.ListSessions(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := s.clock.Now().Add(-maxAge)
	evicted := 0
	for _, session := range sessions {
		if session.Status != model.StatusFinished {
			continue
		}
		if session.FinishedAt.After(cutoff) {
			continue
		}
		if err := s.storage.DeleteSession(ctx, session.ID); err != nil {
			return evicted, err
		}
		evicted++
	}

	if evicted > 0 {
		s.logger.Info("finished sessions evicted", slog.Int("count", evicted))
	}
	return evicted, nil
}

// Snapshot builds the full wire representation of a session
func (s *Service) Snapshot(ctx context.Context, session *model.Session) model.SessionSnapshot {
	players := make([]model.PlayerSnapshot, 0, len(session.Players))
	for _, id := range session.Players {
		snapshot := model.PlayerSnapshot{ID: id, Marker: session.MarkerFor(id)}
		if player, err := s.storage.GetPlayer(ctx, id); err == nil {
			snapshot.Name = player.DisplayName
		}
		players = append(players, snapshot)
	}

	return model.SessionSnapshot{
		ID:          session.ID,
		Board:       session.Board,
		Players:     players,
		CurrentTurn: session.CurrentTurn,
		Status:      session.Status,
		Winner:      session.Winner,
	}
}

// finish moves a session to its terminal state and returns both players to
// queue eligibility. An empty winner denotes a draw.
func (s *Service) finish(ctx context.Context, session *model.Session, winner model.ConnID) error {
	session.Status = model.StatusFinished
	session.Winner = winner
	session.CurrentTurn = ""
	session.FinishedAt = s.clock.Now()

	if err := s.storage.SaveSession(ctx, session); err != nil {
		return err
	}
	for _, id := range session.Players {
		if err := s.resetPlayer(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Interface for dependency injection
type ServiceInterface interface {
	Create(ctx context.Context, first, second *model.Player) (*model.Session, error)
	Get(ctx context.Context, id model.SessionID) (*model.Session, error)
	MarkReady(ctx context.Context, id model.SessionID, connID model.ConnID) (*model.Session, bool, error)
	ApplyMove(ctx context.Context, id model.SessionID, connID model.ConnID, pos int) (*model.Session, error)
	Forfeit(ctx context.Context, session *model.Session, leaver model.ConnID) (*model.Session, error)
	Discard(ctx context.Context, session *model.Session) error
	SessionsFor(ctx context.Context, id model.ConnID) ([]*model.Session, error)
	EvictFinished(ctx context.Context, maxAge time.Duration) (int, error)
	Snapshot(ctx context.Context, session *model.Session) model.SessionSnapshot
}

var _ ServiceInterface = (*Service)(nil)

// resetPlayer clears a player's game state. A missing player (already
// disconnected) is not an error.
func (s *Service) resetPlayer(ctx context.Context, id model.ConnID) error {
	player, err := s.storage.GetPlayer(ctx, id)
	if errors.Is(err, model.ErrPlayerNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	player.State = model.IdleState()
	return s.storage.SavePlayer(ctx, player)
}
