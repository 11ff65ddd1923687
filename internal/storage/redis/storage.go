package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/tictacmatch-go/internal/model"
	"github.com/mcoot/tictacmatch-go/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface.
// The matchmaking queue is a Redis list, oldest entry at the head.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, playerKey(player.ID), data, s.cfg.PlayerTTL).Err()
}

func (s *Storage) GetPlayer(ctx context.Context, id model.ConnID) (*model.Player, error) {
	data, err := s.client.Get(ctx, playerKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var player model.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.ConnID) error {
	return s.client.Del(ctx, playerKey(id)).Err()
}

// Queue operations

func (s *Storage) QueuePush(ctx context.Context, id model.ConnID) error {
	contains, err := s.QueueContains(ctx, id)
	if err != nil {
		return err
	}
	if contains {
		return nil
	}
	return s.client.RPush(ctx, queueKey(), string(id)).Err()
}

func (s *Storage) QueueRemove(ctx context.Context, id model.ConnID) error {
	return s.client.LRem(ctx, queueKey(), 1, string(id)).Err()
}

func (s *Storage) QueueContains(ctx context.Context, id model.ConnID) (bool, error) {
	entries, err := s.client.LRange(ctx, queueKey(), 0, -1).Result()
	if err != nil {
		return false, err
	}
	for _, entry := range entries {
		if entry == string(id) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Storage) QueueLen(ctx context.Context) (int, error) {
	length, err := s.client.LLen(ctx, queueKey()).Result()
	if err != nil {
		return 0, err
	}
	return int(length), nil
}

func (s *Storage) QueuePopPair(ctx context.Context) (model.ConnID, model.ConnID, error) {
	length, err := s.client.LLen(ctx, queueKey()).Result()
	if err != nil {
		return "", "", err
	}
	if length < 2 {
		return "", "", model.ErrNotEnoughQueued
	}

	first, err := s.client.LPop(ctx, queueKey()).Result()
	if err != nil {
		return "", "", err
	}

	second, err := s.client.LPop(ctx, queueKey()).Result()
	if err != nil {
		// Restore the first entry to the head of the queue
		if errors.Is(err, redis.Nil) {
			_ = s.client.LPush(ctx, queueKey(), first).Err()
			return "", "", model.ErrNotEnoughQueued
		}
		return "", "", err
	}

	return model.ConnID(first), model.ConnID(second), nil
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, sessionKey(session.ID), data, s.cfg.SessionTTL)
	pipe.SAdd(ctx, sessionIndexKey(), string(session.ID))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Storage) DeleteSession(ctx context.Context, id model.SessionID) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, sessionKey(id))
	pipe.SRem(ctx, sessionIndexKey(), string(id))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) SessionExists(ctx context.Context, id model.SessionID) (bool, error) {
	count, err := s.client.Exists(ctx, sessionKey(id)).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Storage) ListSessions(ctx context.Context) ([]*model.Session, error) {
	ids, err := s.client.SMembers(ctx, sessionIndexKey()).Result()
	if err != nil {
		return nil, err
	}

	var sessions []*model.Session
	for _, id := range ids {
		session, err := s.GetSession(ctx, model.SessionID(id))
		if errors.Is(err, model.ErrSessionNotFound) {
			// Session value expired; drop the stale index entry
			_ = s.client.SRem(ctx, sessionIndexKey(), id).Err()
			continue
		}
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func (s *Storage) SessionsForPlayer(ctx context.Context, id model.ConnID) ([]*model.Session, error) {
	all, err := s.ListSessions(ctx)
	if err != nil {
		return nil, err
	}

	var sessions []*model.Session
	for _, session := range all {
		if session.HasPlayer(id) {
			sessions = append(sessions, session)
		}
	}
	return sessions, nil
}
