package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/tictacmatch-go/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

// Player tests

func (s *StorageSuite) TestSaveAndGetPlayer() {
	player := &model.Player{
		ID:          "conn-1",
		DisplayName: "Alice",
		State:       model.QueuedState(),
		CreatedAt:   time.Now(),
	}

	err := s.storage.SavePlayer(s.ctx, player)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetPlayer(s.ctx, "conn-1")
	s.Require().NoError(err)
	s.Equal(player.DisplayName, retrieved.DisplayName)
	s.Equal(model.PhaseQueued, retrieved.State.Phase)
}

func (s *StorageSuite) TestGetPlayerNotFound() {
	_, err := s.storage.GetPlayer(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestDeletePlayer() {
	_ = s.storage.SavePlayer(s.ctx, &model.Player{ID: "conn-1", DisplayName: "Alice"})

	err := s.storage.DeletePlayer(s.ctx, "conn-1")
	s.Require().NoError(err)

	_, err = s.storage.GetPlayer(s.ctx, "conn-1")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// Queue tests

func (s *StorageSuite) TestQueuePushAndLen() {
	_ = s.storage.QueuePush(s.ctx, "conn-1")
	_ = s.storage.QueuePush(s.ctx, "conn-2")

	length, err := s.storage.QueueLen(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, length)
}

func (s *StorageSuite) TestQueuePushIgnoresDuplicates() {
	_ = s.storage.QueuePush(s.ctx, "conn-1")
	_ = s.storage.QueuePush(s.ctx, "conn-1")

	length, err := s.storage.QueueLen(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, length)
}

func (s *StorageSuite) TestQueueRemove() {
	_ = s.storage.QueuePush(s.ctx, "conn-1")
	_ = s.storage.QueuePush(s.ctx, "conn-2")

	err := s.storage.QueueRemove(s.ctx, "conn-1")
	s.Require().NoError(err)

	contains, err := s.storage.QueueContains(s.ctx, "conn-1")
	s.Require().NoError(err)
	s.False(contains)

	length, _ := s.storage.QueueLen(s.ctx)
	s.Equal(1, length)
}

func (s *StorageSuite) TestQueueRemoveMissingIsNoop() {
	err := s.storage.QueueRemove(s.ctx, "nonexistent")
	s.Require().NoError(err)
}

func (s *StorageSuite) TestQueuePopPairReturnsOldestFirst() {
	_ = s.storage.QueuePush(s.ctx, "conn-1")
	_ = s.storage.QueuePush(s.ctx, "conn-2")
	_ = s.storage.QueuePush(s.ctx, "conn-3")

	first, second, err := s.storage.QueuePopPair(s.ctx)
	s.Require().NoError(err)
	s.Equal(model.ConnID("conn-1"), first)
	s.Equal(model.ConnID("conn-2"), second)

	length, _ := s.storage.QueueLen(s.ctx)
	s.Equal(1, length)
}

func (s *StorageSuite) TestQueuePopPairFailsWithOneQueued() {
	_ = s.storage.QueuePush(s.ctx, "conn-1")

	_, _, err := s.storage.QueuePopPair(s.ctx)
	s.ErrorIs(err, model.ErrNotEnoughQueued)

	// The lone entry must not have been removed
	length, _ := s.storage.QueueLen(s.ctx)
	s.Equal(1, length)
}

// Session tests

func (s *StorageSuite) TestSaveAndGetSession() {
	session := &model.Session{
		ID:      "sess-1",
		Players: [2]model.ConnID{"conn-1", "conn-2"},
		Status:  model.StatusAwaitingReady,
	}

	err := s.storage.SaveSession(s.ctx, session)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetSession(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.Equal(session.Players, retrieved.Players)
}

func (s *StorageSuite) TestGetSessionNotFound() {
	_, err := s.storage.GetSession(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *StorageSuite) TestDeleteSession() {
	_ = s.storage.SaveSession(s.ctx, &model.Session{ID: "sess-1"})

	err := s.storage.DeleteSession(s.ctx, "sess-1")
	s.Require().NoError(err)

	exists, err := s.storage.SessionExists(s.ctx, "sess-1")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *StorageSuite) TestListSessions() {
	_ = s.storage.SaveSession(s.ctx, &model.Session{ID: "sess-1"})
	_ = s.storage.SaveSession(s.ctx, &model.Session{ID: "sess-2"})

	sessions, err := s.storage.ListSessions(s.ctx)
	s.Require().NoError(err)
	s.Len(sessions, 2)
}

func (s *StorageSuite) TestSessionsForPlayer() {
	_ = s.storage.SaveSession(s.ctx, &model.Session{
		ID:      "sess-1",
		Players: [2]model.ConnID{"conn-1", "conn-2"},
	})
	_ = s.storage.SaveSession(s.ctx, &model.Session{
		ID:      "sess-2",
		Players: [2]model.ConnID{"conn-3", "conn-4"},
	})

	sessions, err := s.storage.SessionsForPlayer(s.ctx, "conn-1")
	s.Require().NoError(err)
	s.Require().Len(sessions, 1)
	s.Equal(model.SessionID("sess-1"), sessions[0].ID)
}
