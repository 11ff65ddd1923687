package storage

import (
	"context"

	"github.com/mcoot/tictacmatch-go/internal/model"
)

// Storage defines the interface for server state persistence
type Storage interface {
	// Player operations
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.ConnID) (*model.Player, error)
	DeletePlayer(ctx context.Context, id model.ConnID) error

	// Queue operations. The queue is FIFO and holds no duplicates.
	QueuePush(ctx context.Context, id model.ConnID) error
	QueueRemove(ctx context.Context, id model.ConnID) error
	QueueContains(ctx context.Context, id model.ConnID) (bool, error)
	QueueLen(ctx context.Context) (int, error)
	// QueuePopPair removes and returns the two oldest entries. Returns
	// model.ErrNotEnoughQueued without removal if fewer than two are queued.
	QueuePopPair(ctx context.Context) (model.ConnID, model.ConnID, error)

	// Session operations
	SaveSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, id model.SessionID) (*model.Session, error)
	DeleteSession(ctx context.Context, id model.SessionID) error
	SessionExists(ctx context.Context, id model.SessionID) (bool, error)
	ListSessions(ctx context.Context) ([]*model.Session, error)
	SessionsForPlayer(ctx context.Context, id model.ConnID) ([]*model.Session, error)
}
