package tictactoe

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/duoplay/internal/model"
)

type SessionSuite struct {
	suite.Suite
	session *Session
	alice   model.Identity
	bob     model.Identity
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}

func (s *SessionSuite) SetupTest() {
	s.session = New().(*Session)
	s.alice = model.Identity{UserID: "u-alice", DisplayName: "Alice"}
	s.bob = model.Identity{UserID: "u-bob", DisplayName: "Bob"}
	s.session.Start([2]model.Identity{s.alice, s.bob}, [2]model.ConnectionID{"c-alice", "c-bob"})
}

func idx(i int) model.MoveParams { return model.MoveParams{Index: &i} }

func (s *SessionSuite) move(who model.Identity, i int) model.MoveResult {
	return s.session.ApplyMove(model.Actor{UserID: who.UserID}, idx(i))
}

func (s *SessionSuite) TestStartState() {
	state := s.session.State()
	s.Equal(Name, state.Game)
	s.Len(state.Board, 9)
	s.Require().NotNil(state.Turn)
	s.Equal(model.MarkerX, *state.Turn)
	s.Nil(state.Winner)
	s.Equal([]model.PlayerMarker{
		{UserID: "u-alice", DisplayName: "Alice", Marker: model.MarkerX},
		{UserID: "u-bob", DisplayName: "Bob", Marker: model.MarkerO},
	}, state.Players)
}

func (s *SessionSuite) TestTopRowWin() {
	s.True(s.move(s.alice, 0).Success)
	s.True(s.move(s.bob, 4).Success)
	s.True(s.move(s.alice, 1).Success)
	s.True(s.move(s.bob, 7).Success)

	result := s.move(s.alice, 2)
	s.True(result.Success)
	s.Equal(model.MarkerX, result.Winner)

	state := s.session.State()
	s.Require().NotNil(state.Winner)
	s.Equal("X", *state.Winner)
	s.Nil(state.Turn)
	s.Equal([]string{"X", "X", "X"}, state.Board[:3])
	s.True(s.session.IsTerminal())
}

func (s *SessionSuite) TestDrawRejectsReplay() {
	moves := []struct {
		who model.Identity
		i   int
	}{
		{s.alice, 0}, {s.bob, 1}, {s.alice, 2}, {s.bob, 4}, {s.alice, 3},
		{s.bob, 5}, {s.alice, 7}, {s.bob, 6},
	}
	for _, m := range moves {
		s.Require().True(s.move(m.who, m.i).Success)
	}
	result := s.move(s.alice, 8)
	s.True(result.Success)
	s.True(result.IsDraw)

	state := s.session.State()
	s.Require().NotNil(state.Winner)
	s.Equal(model.WinnerDraw, *state.Winner)

	for _, m := range moves {
		replay := s.move(m.who, m.i)
		s.False(replay.Success)
		s.ErrorIs(replay.Reason, model.ErrGameOver)
	}
	s.Equal(state, s.session.State())
}

func (s *SessionSuite) TestNotYourTurn() {
	result := s.move(s.bob, 0)
	s.False(result.Success)
	s.ErrorIs(result.Reason, model.ErrNotPlayerTurn)
	s.Equal(make([]string, 9), s.session.State().Board)
}

func (s *SessionSuite) TestSameMarkerNeverMovesTwice() {
	s.True(s.move(s.alice, 0).Success)
	s.False(s.move(s.alice, 1).Success)
	s.True(s.move(s.bob, 1).Success)
	s.False(s.move(s.bob, 2).Success)
}

func (s *SessionSuite) TestOccupiedCell() {
	s.True(s.move(s.alice, 4).Success)
	result := s.move(s.bob, 4)
	s.False(result.Success)
	s.ErrorIs(result.Reason, model.ErrCellOccupied)
}

func (s *SessionSuite) TestIndexBoundaries() {
	for _, bad := range []int{-1, 9} {
		result := s.move(s.alice, bad)
		s.False(result.Success)
		s.ErrorIs(result.Reason, model.ErrInvalidPosition)
	}
	s.Equal(make([]string, 9), s.session.State().Board)

	result := s.move(s.alice, 8)
	s.True(result.Success)
	s.Equal(model.Position{Row: 2, Col: 2}, result.Position)
}

func (s *SessionSuite) TestRowColAddressing() {
	row, col := 1, 2
	result := s.session.ApplyMove(model.Actor{UserID: s.alice.UserID}, model.MoveParams{Row: &row, Col: &col})
	s.True(result.Success)
	s.Equal("X", s.session.State().Board[5])

	row, col = 3, 0
	result = s.session.ApplyMove(model.Actor{UserID: s.bob.UserID}, model.MoveParams{Row: &row, Col: &col})
	s.ErrorIs(result.Reason, model.ErrInvalidPosition)
}

func (s *SessionSuite) TestMoveByConnection() {
	result := s.session.ApplyMove(model.Actor{ConnectionID: "c-alice"}, idx(0))
	s.True(result.Success)

	result = s.session.ApplyMove(model.Actor{ConnectionID: "c-stranger"}, idx(1))
	s.ErrorIs(result.Reason, model.ErrUnknownPlayer)
}

func (s *SessionSuite) TestRebindConnection() {
	s.True(s.session.RebindConnection(s.alice.UserID, "c-alice-2"))

	_, ok := s.session.PlayerMarkerFor("c-alice")
	s.False(ok)
	pm, ok := s.session.PlayerMarkerFor("c-alice-2")
	s.True(ok)
	s.Equal(model.MarkerX, pm.Marker)

	s.False(s.session.RebindConnection("u-nobody", "c-x"))
}

func (s *SessionSuite) TestResetSwapsFirstMover() {
	start := s.session.State()
	s.True(s.move(s.alice, 0).Success)

	reset := s.session.Reset()
	s.Equal(make([]string, 9), reset.Board)
	s.Nil(reset.Winner)
	s.Require().NotNil(reset.Turn)
	s.Equal(model.MarkerX, *reset.Turn)
	s.Equal(model.MarkerO, reset.Players[0].Marker)
	s.Equal(model.MarkerX, reset.Players[1].Marker)

	// same shape as the opening snapshot
	s.Equal(start.Game, reset.Game)
	s.Equal(len(start.Board), len(reset.Board))
	s.Equal(len(start.Players), len(reset.Players))

	current, ok := s.session.CurrentPlayer()
	s.True(ok)
	s.Equal(s.bob.UserID, current)
	s.True(s.move(s.bob, 0).Success)
}

func (s *SessionSuite) TestPassTurnAndForfeit() {
	s.True(s.session.PassTurn())
	current, _ := s.session.CurrentPlayer()
	s.Equal(s.bob.UserID, current)

	winner, ok := s.session.Forfeit(s.bob.UserID)
	s.True(ok)
	s.Equal(model.MarkerX, winner)
	s.True(s.session.IsTerminal())
	s.False(s.session.PassTurn())

	_, ok = s.session.Forfeit(s.alice.UserID)
	s.False(ok)
	_, ok = s.session.CurrentPlayer()
	s.False(ok)
}

func (s *SessionSuite) TestMoveBeforeStart() {
	fresh := New()
	result := fresh.ApplyMove(model.Actor{UserID: s.alice.UserID}, idx(0))
	s.ErrorIs(result.Reason, model.ErrNotEnoughPlayers)
}
