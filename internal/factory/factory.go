// Package factory wires the application's components together
package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/mcoot/tictacmatch-go/internal/dependencies/clock"
	"github.com/mcoot/tictacmatch-go/internal/dependencies/random"
	"github.com/mcoot/tictacmatch-go/internal/orchestrator"
	"github.com/mcoot/tictacmatch-go/internal/services/player"
	"github.com/mcoot/tictacmatch-go/internal/services/queue"
	"github.com/mcoot/tictacmatch-go/internal/services/session"
	"github.com/mcoot/tictacmatch-go/internal/storage"
	"github.com/mcoot/tictacmatch-go/internal/storage/memory"
	redisstorage "github.com/mcoot/tictacmatch-go/internal/storage/redis"
	"github.com/mcoot/tictacmatch-go/internal/transport/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// The hub is the orchestrator's transport, and the orchestrator consumes
// the hub's inbound events
var (
	_ orchestrator.Emitter = (*ws.Hub)(nil)
	_ ws.Sink              = (*orchestrator.Orchestrator)(nil)
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	PlayerService  *player.Service
	QueueService   *queue.Service
	SessionService *session.Service

	// Core
	Orchestrator *orchestrator.Orchestrator
	Hub          *ws.Hub
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	return newWithDependencies(store, clock.New(), random.New(), logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, logger *slog.Logger) *App {
	playerService := player.New(store, clk, logger)
	queueService := queue.New(store, logger)
	sessionService := session.New(store, clk, rnd, logger)

	hub := ws.NewHub(rnd, logger)
	orch := orchestrator.New(playerService, queueService, sessionService, hub, logger)
	hub.SetSink(orch)

	return &App{
		Storage:        store,
		Clock:          clk,
		Random:         rnd,
		PlayerService:  playerService,
		QueueService:   queueService,
		SessionService: sessionService,
		Orchestrator:   orch,
		Hub:            hub,
	}
}
