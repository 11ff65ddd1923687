package player

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/tictacmatch-go/internal/dependencies/mocks"
	"github.com/mcoot/tictacmatch-go/internal/model"
	"github.com/mcoot/tictacmatch-go/internal/storage/memory"
	"github.com/mcoot/tictacmatch-go/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(s.storage, s.clock, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) TestRegisterCreatesIdlePlayer() {
	player, err := s.service.Register(s.ctx, "conn-1", "Alice")
	s.Require().NoError(err)

	s.Equal(model.ConnID("conn-1"), player.ID)
	s.Equal("Alice", player.DisplayName)
	s.Equal(model.PhaseIdle, player.State.Phase)
	s.Equal(s.clock.Now(), player.CreatedAt)
}

func (s *ServiceSuite) TestRegisterUpdatesNameAndKeepsState() {
	_, err := s.service.Register(s.ctx, "conn-1", "Alice")
	s.Require().NoError(err)

	stored, err := s.storage.GetPlayer(s.ctx, "conn-1")
	s.Require().NoError(err)
	stored.State = model.QueuedState()
	s.Require().NoError(s.storage.SavePlayer(s.ctx, stored))

	player, err := s.service.Register(s.ctx, "conn-1", "Alice the Second")
	s.Require().NoError(err)
	s.Equal("Alice the Second", player.DisplayName)
	s.Equal(model.PhaseQueued, player.State.Phase)
}

func (s *ServiceSuite) TestLookupUnknownPlayerFails() {
	_, err := s.service.Lookup(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *ServiceSuite) TestUnregisterRemovesPlayer() {
	_, err := s.service.Register(s.ctx, "conn-1", "Alice")
	s.Require().NoError(err)

	s.Require().NoError(s.service.Unregister(s.ctx, "conn-1"))

	_, err = s.service.Lookup(s.ctx, "conn-1")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}
