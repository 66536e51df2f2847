package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/duoplay/internal/dependencies/mocks"
	"github.com/mcoot/duoplay/internal/model"
	"github.com/mcoot/duoplay/internal/services/connectfour"
	"github.com/mcoot/duoplay/internal/services/game"
	"github.com/mcoot/duoplay/internal/services/tictactoe"
	"github.com/mcoot/duoplay/internal/testutil"
)

type ManagerSuite struct {
	suite.Suite
	clock   *mocks.MockClock
	random  *mocks.MockRandom
	manager *Manager
	alice   model.Identity
	bob     model.Identity
	carol   model.Identity
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	games := game.NewRegistry()
	games.Register(tictactoe.Name, tictactoe.New)
	games.Register(connectfour.Name, connectfour.New)
	s.manager = NewManager(DefaultConfig(), games, s.clock, s.random, NewInlineExecutor, testutil.NopLogger())
	s.alice = model.Identity{UserID: "u-alice", DisplayName: "Alice"}
	s.bob = model.Identity{UserID: "u-bob", DisplayName: "Bob"}
	s.carol = model.Identity{UserID: "u-carol", DisplayName: "Carol"}
}

func (s *ManagerSuite) create() *Entry {
	s.random.QueueString("ABC123")
	e, err := s.manager.CreateRoom("tic-tac-toe", s.alice, "c-alice", CreateOptions{})
	s.Require().NoError(err)
	return e
}

func (s *ManagerSuite) exec(fn func(e *Entry)) {
	s.Require().NoError(s.manager.Exec("ABC123", fn))
}

func (s *ManagerSuite) join(who model.Identity, conn model.ConnectionID) (created bool, err error) {
	execErr := s.manager.Exec("ABC123", func(e *Entry) {
		created, err = e.Join("Tic Tac Toe", who, conn)
	})
	s.Require().NoError(execErr)
	return created, err
}

// CreateRoom tests

func (s *ManagerSuite) TestCreateRoom() {
	e := s.create()

	s.Equal(model.RoomCode("ABC123"), e.Room.Code)
	s.Equal(tictactoe.Name, e.Room.GameName)
	s.Equal(2, e.Room.MaxPlayers)
	s.Equal(s.clock.Now(), e.Room.CreatedAt)
	s.Require().Len(e.Room.Players, 1)
	s.Equal(s.alice, e.Room.Players[0].Identity)
	s.Equal(model.ConnectionID("c-alice"), e.Room.Players[0].ConnectionID)
	s.Nil(e.Session)
	s.Equal(1, s.manager.Count())
}

func (s *ManagerSuite) TestCreateRoomRetriesOnCollision() {
	s.create()
	s.random.QueueString("ABC123", "ABC123", "XYZ789")

	e, err := s.manager.CreateRoom("Tic Tac Toe", s.bob, "c-bob", CreateOptions{})
	s.Require().NoError(err)
	s.Equal(model.RoomCode("XYZ789"), e.Room.Code)
}

func (s *ManagerSuite) TestCreateRoomExhausted() {
	s.create()
	s.random.StringCalls = 0

	_, err := s.manager.CreateRoom("Tic Tac Toe", s.bob, "c-bob", CreateOptions{})
	s.ErrorIs(err, model.ErrRoomCreationExhausted)
	s.Equal(DefaultConfig().CodeAttempts, s.random.StringCalls)
	s.Equal(1, s.manager.Count())
}

func (s *ManagerSuite) TestCreateRoomUnknownGame() {
	_, err := s.manager.CreateRoom("chess", s.alice, "c-alice", CreateOptions{})
	s.ErrorIs(err, model.ErrUnknownGame)
}

// Join tests

func (s *ManagerSuite) TestJoinFillsRoomAndCreatesSession() {
	s.create()
	created, err := s.join(s.bob, "c-bob")
	s.Require().NoError(err)
	s.True(created)

	s.exec(func(e *Entry) {
		s.Require().NotNil(e.Session)
		s.False(e.Announced)
		state := e.Session.State()
		s.Equal(model.MarkerX, *state.Turn)
		s.Equal(s.alice.UserID, state.Players[0].UserID)
	})
}

func (s *ManagerSuite) TestJoinErrors() {
	s.create()

	err := s.manager.Exec("NOPE99", func(e *Entry) {})
	s.ErrorIs(err, model.ErrRoomNotFound)

	s.exec(func(e *Entry) {
		_, err := e.Join("Connect Four", s.bob, "c-bob")
		s.ErrorIs(err, model.ErrGameMismatch)
	})

	_, err = s.join(s.alice, "c-alice")
	s.ErrorIs(err, model.ErrAlreadyInRoom)

	_, err = s.join(s.bob, "c-bob")
	s.Require().NoError(err)
	_, err = s.join(s.carol, "c-carol")
	s.ErrorIs(err, model.ErrRoomFull)

	s.exec(func(e *Entry) {
		s.Len(e.Room.Players, 2)
	})
}

// Leave tests

func (s *ManagerSuite) TestLeaveDiscardsLiveSession() {
	s.create()
	_, err := s.join(s.bob, "c-bob")
	s.Require().NoError(err)

	s.exec(func(e *Entry) {
		res, err := e.Leave(s.bob.UserID)
		s.Require().NoError(err)
		s.True(res.SessionDiscarded)
		s.True(res.WasLive)
		s.False(res.Empty)
		s.Nil(e.Session)
		s.Len(e.Room.Players, 1)
	})
}

func (s *ManagerSuite) TestLeaveFinishedSessionIsNotLive() {
	s.create()
	_, err := s.join(s.bob, "c-bob")
	s.Require().NoError(err)

	s.exec(func(e *Entry) {
		e.Session.Forfeit(s.bob.UserID)
		res, err := e.Leave(s.alice.UserID)
		s.Require().NoError(err)
		s.True(res.SessionDiscarded)
		s.False(res.WasLive)
	})
}

func (s *ManagerSuite) TestLeaveNotAPlayer() {
	s.create()
	s.exec(func(e *Entry) {
		_, err := e.Leave(s.carol.UserID)
		s.ErrorIs(err, model.ErrNotAPlayer)
	})
}

func (s *ManagerSuite) TestLastLeaveEmptiesRoom() {
	s.create()
	s.exec(func(e *Entry) {
		res, err := e.Leave(s.alice.UserID)
		s.Require().NoError(err)
		s.True(res.Empty)
		s.True(s.manager.Destroy(e.Room.Code))
	})
	s.Equal(0, s.manager.Count())
	s.ErrorIs(s.manager.Exec("ABC123", func(*Entry) {}), model.ErrRoomNotFound)
}

// Rejoin tests

func (s *ManagerSuite) TestRejoinAfterOffline() {
	s.create()
	_, err := s.join(s.bob, "c-bob")
	s.Require().NoError(err)

	s.exec(func(e *Entry) {
		s.Require().True(e.Session.ApplyMove(model.Actor{ConnectionID: "c-alice"}, move(4)).Success)

		changed, allOffline := e.MarkOffline(s.alice.UserID, "c-alice")
		s.True(changed)
		s.False(allOffline)
		s.True(e.Room.GetPlayer(s.alice.UserID).Offline())
		before := e.Session.State()

		sync, err := e.Rejoin(s.alice.UserID, "c-alice-2")
		s.Require().NoError(err)
		s.True(sync.WasOffline)
		s.Require().NotNil(sync.State)
		s.Equal(before, *sync.State)

		pm, ok := e.Session.PlayerMarkerFor("c-alice-2")
		s.True(ok)
		s.Equal(model.MarkerX, pm.Marker)
	})
}

func (s *ManagerSuite) TestRejoinIsIdempotent() {
	s.create()
	_, err := s.join(s.bob, "c-bob")
	s.Require().NoError(err)

	s.exec(func(e *Entry) {
		first, err := e.Rejoin(s.bob.UserID, "c-bob")
		s.Require().NoError(err)
		second, err := e.Rejoin(s.bob.UserID, "c-bob")
		s.Require().NoError(err)

		s.Equal(first, second)
		s.False(second.WasOffline)
		s.Len(e.Room.Players, 2)
	})
}

func (s *ManagerSuite) TestRejoinNotAPlayer() {
	s.create()
	s.exec(func(e *Entry) {
		_, err := e.Rejoin(s.carol.UserID, "c-carol")
		s.ErrorIs(err, model.ErrNotAPlayer)
	})
}

func (s *ManagerSuite) TestMarkOfflineIgnoresStaleConnection() {
	s.create()
	s.exec(func(e *Entry) {
		_, err := e.Rejoin(s.alice.UserID, "c-alice-2")
		s.Require().NoError(err)
		changed, _ := e.MarkOffline(s.alice.UserID, "c-alice")
		s.False(changed)
		s.False(e.Room.GetPlayer(s.alice.UserID).Offline())
	})
}

// Cleanup tests

func (s *ManagerSuite) TestCleanupDestroysAbandonedRoom() {
	s.create()
	destroyed := 0
	s.exec(func(e *Entry) {
		_, allOffline := e.MarkOffline(s.alice.UserID, "c-alice")
		s.Require().True(allOffline)
		s.manager.ScheduleCleanup(e, func(*Entry) { destroyed++ })
	})

	s.clock.Advance(DefaultConfig().OfflineGrace - time.Second)
	s.Equal(1, s.manager.Count())
	s.clock.Advance(time.Second)
	s.Equal(0, s.manager.Count())
	s.Equal(1, destroyed)
}

func (s *ManagerSuite) TestRejoinWithinGraceKeepsRoom() {
	s.create()
	s.exec(func(e *Entry) {
		e.MarkOffline(s.alice.UserID, "c-alice")
		s.manager.ScheduleCleanup(e, nil)
	})
	s.clock.Advance(time.Minute)
	s.exec(func(e *Entry) {
		_, err := e.Rejoin(s.alice.UserID, "c-alice-2")
		s.Require().NoError(err)
		s.False(e.CleanupPending())
	})
	s.clock.Advance(time.Hour)
	s.Equal(1, s.manager.Count())
}

func (s *ManagerSuite) TestJoinCancelsPendingCleanup() {
	s.create()
	s.exec(func(e *Entry) {
		e.MarkOffline(s.alice.UserID, "c-alice")
		s.manager.ScheduleCleanup(e, nil)
		s.Require().True(e.CleanupPending())
	})

	_, err := s.join(s.bob, "c-bob")
	s.Require().NoError(err)

	s.exec(func(e *Entry) {
		s.False(e.CleanupPending())
	})
	s.Equal(0, s.clock.PendingTimers())
}

func (s *ManagerSuite) TestCleanupRevalidatesAtFireTime() {
	s.create()
	var entry *Entry
	s.exec(func(e *Entry) {
		entry = e
		e.MarkOffline(s.alice.UserID, "c-alice")
		s.manager.ScheduleCleanup(e, nil)
		// come back online without going through Rejoin so the timer stays armed
		e.Room.GetPlayer(s.alice.UserID).ComeOnline("c-alice-2", s.clock.Now())
	})
	s.clock.Advance(time.Hour)
	s.Equal(1, s.manager.Count())
	s.False(entry.CleanupPending())
}

// Ready tests

func (s *ManagerSuite) TestMarkReady() {
	s.create()
	_, err := s.join(s.bob, "c-bob")
	s.Require().NoError(err)

	s.exec(func(e *Entry) {
		s.False(e.MarkReady(s.alice.UserID))
		s.False(e.MarkReady(s.carol.UserID))
		s.True(e.MarkReady(s.bob.UserID))
	})
}

func (s *ManagerSuite) TestRecipients() {
	s.create()
	_, err := s.join(s.bob, "c-bob")
	s.Require().NoError(err)

	s.exec(func(e *Entry) {
		s.Equal([]model.ConnectionID{"c-bob"}, e.Recipients(s.alice.UserID))
		s.Equal([]model.ConnectionID{"c-alice", "c-bob"}, e.Recipients(""))
		e.MarkOffline(s.bob.UserID, "c-bob")
		s.Equal([]model.ConnectionID{"c-alice"}, e.Recipients(""))
		s.Equal([]model.UserID{s.alice.UserID, s.bob.UserID}, e.PlayerIDs())
	})
}

func (s *ManagerSuite) TestShutdownDestroysAll() {
	s.create()
	s.random.QueueString("ZZZ999")
	_, err := s.manager.CreateRoom("Connect Four", s.bob, "c-bob", CreateOptions{})
	s.Require().NoError(err)
	s.Equal([]model.RoomCode{"ABC123", "ZZZ999"}, s.manager.Codes())

	s.manager.Shutdown()
	s.Equal(0, s.manager.Count())
}

func move(i int) model.MoveParams { return model.MoveParams{Index: &i} }
