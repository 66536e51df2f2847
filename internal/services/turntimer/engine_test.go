package turntimer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/duoplay/internal/dependencies/mocks"
	"github.com/mcoot/duoplay/internal/model"
	"github.com/mcoot/duoplay/internal/services/game"
	"github.com/mcoot/duoplay/internal/services/tictactoe"
	"github.com/mcoot/duoplay/internal/testutil"
)

type turnStarted struct {
	player model.UserID
	turn   int
}

type timeout struct {
	player model.UserID
	count  int
}

type forfeit struct {
	loser  model.UserID
	winner model.Marker
}

type EngineSuite struct {
	suite.Suite
	clock    *mocks.MockClock
	session  game.Session
	engine   *Engine
	started  []turnStarted
	timeouts []timeout
	forfeits []forfeit
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

const window = 70 * time.Second

func (s *EngineSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.session = tictactoe.New()
	s.session.Start(
		[2]model.Identity{{UserID: "a", DisplayName: "A"}, {UserID: "b", DisplayName: "B"}},
		[2]model.ConnectionID{"ca", "cb"},
	)
	s.started, s.timeouts, s.forfeits = nil, nil, nil
	s.engine = New(s.session, DefaultConfig(), s.clock, nil, Hooks{
		OnTurnStarted: func(p model.UserID, turn int, _ time.Duration) {
			s.started = append(s.started, turnStarted{p, turn})
		},
		OnTimeout: func(p model.UserID, _ int, count, _ int) {
			s.timeouts = append(s.timeouts, timeout{p, count})
		},
		OnForfeit: func(loser model.UserID, winner model.Marker) {
			s.forfeits = append(s.forfeits, forfeit{loser, winner})
		},
	}, testutil.NopLogger())
	s.engine.Start([]model.UserID{"a", "b"})
}

func (s *EngineSuite) move(actor model.UserID, index int) {
	result := s.session.ApplyMove(model.Actor{UserID: actor}, model.MoveParams{Index: &index})
	s.Require().True(result.Success)
	s.engine.RecordMove(actor, model.MoveParams{Index: &index})
	s.Require().NoError(s.engine.EndTurn(actor))
}

func (s *EngineSuite) TestStartEmitsFirstTurn() {
	s.Equal([]turnStarted{{"a", 1}}, s.started)
	view := s.engine.Snapshot()
	s.Equal(model.UserID("a"), view.CurrentPlayer)
	s.Equal(1, view.TurnNumber)
	s.Equal(window, view.RemainingTime)
	s.Equal([]model.UserID{"a", "b"}, view.Players)
}

func (s *EngineSuite) TestDefaults() {
	cfg := DefaultConfig()
	s.Equal(60*time.Second, cfg.Duration)
	s.Equal(10*time.Second, cfg.GracePeriod)
	s.Equal(3, cfg.MaxTimeouts)
}

func (s *EngineSuite) TestEndTurnAdvances() {
	s.move("a", 0)
	s.Equal([]turnStarted{{"a", 1}, {"b", 2}}, s.started)
	s.Equal(1, s.clock.PendingTimers())
}

func (s *EngineSuite) TestEndTurnWrongPlayer() {
	s.ErrorIs(s.engine.EndTurn("b"), model.ErrNotTurnHolder)
}

func (s *EngineSuite) TestDeadlineIncludesGrace() {
	s.clock.Advance(window - time.Second)
	s.Empty(s.timeouts)
	s.clock.Advance(time.Second)
	s.Equal([]timeout{{"a", 1}}, s.timeouts)

	current, _ := s.session.CurrentPlayer()
	s.Equal(model.UserID("b"), current)
	s.Equal(turnStarted{"b", 2}, s.started[len(s.started)-1])
}

func (s *EngineSuite) TestRepeatedTimeoutsForfeitExactlyOnce() {
	s.clock.Advance(5 * window)

	s.Len(s.forfeits, 1)
	s.Equal(forfeit{"a", model.MarkerO}, s.forfeits[0])
	s.Equal(3, s.engine.State().TimeoutCounts["a"])
	s.Equal(2, s.engine.State().TimeoutCounts["b"])
	s.True(s.session.IsTerminal())

	startedBefore := len(s.started)
	s.clock.Advance(10 * window)
	s.Len(s.forfeits, 1)
	s.Len(s.started, startedBefore)
	s.Equal(5, startedBefore)
	s.False(s.engine.Running())
	s.Equal(0, s.clock.PendingTimers())
}

func (s *EngineSuite) TestPauseFreezesRemaining() {
	s.clock.Advance(20 * time.Second)
	s.True(s.engine.Pause())
	s.False(s.engine.Pause())

	s.clock.Advance(time.Hour)
	s.Empty(s.timeouts)
	view := s.engine.Snapshot()
	s.True(view.IsPaused)
	s.Equal(50*time.Second, view.RemainingTime)

	s.True(s.engine.Resume())
	s.Equal(50*time.Second, s.engine.Snapshot().RemainingTime)
	s.clock.Advance(49 * time.Second)
	s.Empty(s.timeouts)
	s.clock.Advance(time.Second)
	s.Len(s.timeouts, 1)
}

func (s *EngineSuite) TestStaleExpireIgnored() {
	s.move("a", 0)
	s.engine.Expire(1)
	s.Empty(s.timeouts)
	current, _ := s.session.CurrentPlayer()
	s.Equal(model.UserID("b"), current)
}

func (s *EngineSuite) TestTerminalMoveStopsTimer() {
	s.move("a", 0)
	s.move("b", 3)
	s.move("a", 1)
	s.move("b", 4)
	s.move("a", 2)

	s.False(s.engine.Running())
	s.Equal(0, s.clock.PendingTimers())
	s.clock.Advance(10 * window)
	s.Empty(s.timeouts)
	s.Empty(s.forfeits)
}

func (s *EngineSuite) TestRecordMoveHistory() {
	s.move("a", 4)
	s.clock.Advance(time.Second)
	s.move("b", 0)

	history := s.engine.State().MoveHistory
	s.Require().Len(history, 2)
	s.Equal(model.UserID("a"), history[0].PlayerID)
	s.Equal(1, history[0].TurnNumber)
	s.Equal(2, history[1].TurnNumber)
	s.Equal(s.clock.Now(), history[1].Timestamp)

	// returned state is a copy
	history[0].PlayerID = "z"
	s.Equal(model.UserID("a"), s.engine.State().MoveHistory[0].PlayerID)
}

func (s *EngineSuite) TestTurnStartedWhilePausedStaysFrozen() {
	s.True(s.engine.Pause())
	s.move("a", 0)
	view := s.engine.Snapshot()
	s.True(view.IsPaused)
	s.Equal(window, view.RemainingTime)
	s.Equal(0, s.clock.PendingTimers())
}

func (s *EngineSuite) TestRestartResetsCounts() {
	s.clock.Advance(window)
	s.Equal(1, s.engine.State().TimeoutCounts["a"])

	s.engine.Stop()
	s.session.PassTurn()
	s.engine.Start([]model.UserID{"a", "b"})
	s.Equal(0, s.engine.State().TimeoutCounts["a"])
	s.Equal(1, s.engine.State().TurnNumber)
}
