// Package player implements the connection registry: one Player record per
// live connection, created on first queue join and removed on disconnect.
package player

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/tictacmatch-go/internal/dependencies/clock"
	"github.com/mcoot/tictacmatch-go/internal/model"
	"github.com/mcoot/tictacmatch-go/internal/storage"
)

// Service provides player registry operations
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates a new player Service
func New(storage storage.Storage, clock clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		logger:  logger,
	}
}

// Register creates a player record for a connection, or updates the display
// name if one already exists. Game state is preserved on re-registration.
func (s *Service) Register(ctx context.Context, id model.ConnID, name string) (*model.Player, error) {
	existing, err := s.storage.GetPlayer(ctx, id)
	if err == nil {
		existing.DisplayName = name
		if err := s.storage.SavePlayer(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}
	if !errors.Is(err, model.ErrPlayerNotFound) {
		return nil, err
	}

	player := &model.Player{
		ID:          id,
		DisplayName: name,
		State:       model.IdleState(),
		CreatedAt:   s.clock.Now(),
	}
	if err := s.storage.SavePlayer(ctx, player); err != nil {
		return nil, err
	}

	s.logger.Info("player registered",
		slog.String("conn_id", string(id)),
		slog.String("name", name),
	)
	return player, nil
}

// Lookup retrieves a player by connection id
func (s *Service) Lookup(ctx context.Context, id model.ConnID) (*model.Player, error) {
	return s.storage.GetPlayer(ctx, id)
}

// Unregister removes a player record. Called on disconnect after queue and
// session cleanup.
func (s *Service) Unregister(ctx context.Context, id model.ConnID) error {
	return s.storage.DeletePlayer(ctx, id)
}

// Interface for dependency injection
type ServiceInterface interface {
	Register(ctx context.Context, id model.ConnID, name string) (*model.Player, error)
	Lookup(ctx context.Context, id model.ConnID) (*model.Player, error)
	Unregister(ctx context.Context, id model.ConnID) error
}

var _ ServiceInterface = (*Service)(nil)
