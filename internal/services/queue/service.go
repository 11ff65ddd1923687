// Package queue implements the FIFO matchmaking queue. Entries are
// connection ids; the two oldest entries are always paired first.
package queue

import (
	"context"
	"log/slog"

	"github.com/mcoot/tictacmatch-go/internal/model"
	"github.com/mcoot/tictacmatch-go/internal/storage"
)

// Service provides matchmaking queue operations
type Service struct {
	storage storage.Storage
	logger  *slog.Logger
}

// New creates a new queue Service
func New(storage storage.Storage, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// Join appends a player to the queue. Idempotent if the player is already
// queued; fails with ErrAlreadyInSession if the player is in a game.
// The returned bool reports whether the queue length changed.
func (s *Service) Join(ctx context.Context, id model.ConnID) (int, bool, error) {
	player, err := s.storage.GetPlayer(ctx, id)
	if err != nil {
		return 0, false, err
	}

	if player.IsPlaying() {
		return 0, false, model.ErrAlreadyInSession
	}

	if player.IsQueued() {
		size, err := s.storage.QueueLen(ctx)
		return size, false, err
	}

	if err := s.storage.QueuePush(ctx, id); err != nil {
		return 0, false, err
	}

	player.State = model.QueuedState()
	if err := s.storage.SavePlayer(ctx, player); err != nil {
		return 0, false, err
	}

	size, err := s.storage.QueueLen(ctx)
	if err != nil {
		return 0, false, err
	}

	s.logger.Info("player joined queue",
		slog.String("conn_id", string(id)),
		slog.Int("queue_size", size),
	)
	return size, true, nil
}

// Leave removes a player from the queue. Idempotent if the player is not
// queued. The returned bool reports whether the queue length changed.
func (s *Service) Leave(ctx context.Context, id model.ConnID) (int, bool, error) {
	contains, err := s.storage.QueueContains(ctx, id)
	if err != nil {
		return 0, false, err
	}
	if !contains {
		size, err := s.storage.QueueLen(ctx)
		return size, false, err
	}

	if err := s.storage.QueueRemove(ctx, id); err != nil {
		return 0, false, err
	}

	if player, err := s.storage.GetPlayer(ctx, id); err == nil && player.IsQueued() {
		player.State = model.IdleState()
		if err := s.storage.SavePlayer(ctx, player); err != nil {
			return 0, false, err
		}
	}

	size, err := s.storage.QueueLen(ctx)
	if err != nil {
		return 0, false, err
	}

	s.logger.Info("player left queue",
		slog.String("conn_id", string(id)),
		slog.Int("queue_size", size),
	)
	return size, true, nil
}

// Len returns the current queue length
func (s *Service) Len(ctx context.Context) (int, error) {
	return s.storage.QueueLen(ctx)
}

// TakePair removes and returns the two longest-waiting queued players.
// Returns ErrNotEnoughQueued without removal if fewer than two are queued.
func (s *Service) TakePair(ctx context.Context) (model.ConnID, model.ConnID, error) {
	return s.storage.QueuePopPair(ctx)
}

// Interface for dependency injection
type ServiceInterface interface {
	Join(ctx context.Context, id model.ConnID) (int, bool, error)
	Leave(ctx context.Context, id model.ConnID) (int, bool, error)
	Len(ctx context.Context) (int, error)
	TakePair(ctx context.Context) (model.ConnID, model.ConnID, error)
}

var _ ServiceInterface = (*Service)(nil)
