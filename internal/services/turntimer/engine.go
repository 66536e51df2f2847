// Package turntimer wraps a game session with per-turn deadlines, timeout
// accounting, pause on disconnect and forfeiture after repeated timeouts.
package turntimer

import (
	"log/slog"
	"time"

	"github.com/mcoot/duoplay/internal/dependencies/clock"
	"github.com/mcoot/duoplay/internal/model"
	"github.com/mcoot/duoplay/internal/services/game"
)

// Config holds the timing rules
type Config struct {
	Duration    time.Duration
	GracePeriod time.Duration
	MaxTimeouts int
}

// DefaultConfig returns the rules used when nothing is configured
func DefaultConfig() Config {
	return Config{
		Duration:    60 * time.Second,
		GracePeriod: 10 * time.Second,
		MaxTimeouts: 3,
	}
}

// Hooks receive the engine's notices. Nil hooks are skipped.
type Hooks struct {
	OnTurnStarted func(player model.UserID, turnNumber int, duration time.Duration)
	// OnTimeout runs after the turn has passed to the opponent
	OnTimeout func(player model.UserID, turnNumber, count, maxTimeouts int)
	OnForfeit func(loser model.UserID, winner model.Marker)
}

// ArmFunc schedules fire after d. Room code supplies one that posts the
// firing into the room's event queue.
type ArmFunc func(d time.Duration, fire func()) clock.Timer

// Engine is the turn timer decorator. It is not safe for concurrent use;
// every call, including deadline firings, must be serialized by the caller.
type Engine struct {
	session game.Session
	cfg     Config
	clock   clock.Clock
	arm     ArmFunc
	hooks   Hooks
	logger  *slog.Logger

	state     model.TurnTimerState
	players   []model.UserID
	holder    model.UserID
	deadline  time.Time
	remaining time.Duration // frozen while paused
	timer     clock.Timer
	gen       int // bumped on every arm so stale firings are ignored
	running   bool
}

// New creates an engine around session. A nil arm uses clk.AfterFunc directly.
func New(session game.Session, cfg Config, clk clock.Clock, arm ArmFunc, hooks Hooks, logger *slog.Logger) *Engine {
	if cfg.Duration <= 0 {
		cfg.Duration = DefaultConfig().Duration
	}
	if cfg.GracePeriod < 0 {
		cfg.GracePeriod = 0
	}
	if cfg.MaxTimeouts <= 0 {
		cfg.MaxTimeouts = DefaultConfig().MaxTimeouts
	}
	if arm == nil {
		arm = clk.AfterFunc
	}
	return &Engine{
		session: session,
		cfg:     cfg,
		clock:   clk,
		arm:     arm,
		hooks:   hooks,
		logger:  logger,
	}
}

// Start resets the bookkeeping for a fresh game and starts the first turn
func (e *Engine) Start(players []model.UserID) {
	e.disarm()
	e.players = append([]model.UserID(nil), players...)
	counts := make(map[model.UserID]int, len(players))
	for _, p := range players {
		counts[p] = 0
	}
	e.state = model.TurnTimerState{
		Duration:      e.cfg.Duration,
		GracePeriod:   e.cfg.GracePeriod,
		TimeoutCounts: counts,
	}
	e.holder = ""
	e.remaining = 0
	e.running = true
	e.StartTurn()
}

// StartTurn begins the next turn for whoever the session says is to move
func (e *Engine) StartTurn() {
	if !e.running {
		return
	}
	if e.session.IsTerminal() {
		e.Stop()
		return
	}
	current, ok := e.session.CurrentPlayer()
	if !ok {
		return
	}

	e.state.TurnNumber++
	e.state.TurnStartedAt = e.clock.Now()
	e.holder = current

	window := e.cfg.Duration + e.cfg.GracePeriod
	if e.state.IsPaused {
		e.remaining = window
	} else {
		e.armFor(window)
	}

	if e.hooks.OnTurnStarted != nil {
		e.hooks.OnTurnStarted(current, e.state.TurnNumber, e.cfg.Duration)
	}
}

// EndTurn closes the current turn after the session accepted playerID's move
// and starts the next one. Calling it for anyone but the turn holder is a
// programming error.
func (e *Engine) EndTurn(playerID model.UserID) error {
	if !e.running {
		return model.ErrTimerStopped
	}
	if playerID != e.holder {
		return model.ErrNotTurnHolder
	}
	e.disarm()
	if e.session.IsTerminal() {
		e.Stop()
		return nil
	}
	e.StartTurn()
	return nil
}

// Expire handles the deadline of turnNumber. Stale turns, a paused engine and
// a session that already ended are no-ops.
func (e *Engine) Expire(turnNumber int) {
	if !e.running || e.state.IsPaused || turnNumber != e.state.TurnNumber {
		return
	}
	if e.session.IsTerminal() {
		e.Stop()
		return
	}

	player := e.holder
	e.timer = nil
	e.state.TimeoutCounts[player]++
	count := e.state.TimeoutCounts[player]

	e.logger.Info("turn timed out",
		slog.String("player", string(player)),
		slog.Int("turn", turnNumber),
		slog.Int("count", count),
	)

	if count >= e.cfg.MaxTimeouts {
		winner, _ := e.session.Forfeit(player)
		e.Stop()
		if e.hooks.OnForfeit != nil {
			e.hooks.OnForfeit(player, winner)
		}
		return
	}

	e.session.PassTurn()
	if e.hooks.OnTimeout != nil {
		e.hooks.OnTimeout(player, turnNumber, count, e.cfg.MaxTimeouts)
	}
	e.StartTurn()
}

// Pause freezes the remaining time of the current turn
func (e *Engine) Pause() bool {
	if !e.running || e.state.IsPaused {
		return false
	}
	e.remaining = e.untilDeadline()
	e.disarm()
	e.state.IsPaused = true
	return true
}

// Resume re-arms the current turn with exactly the time that was left
func (e *Engine) Resume() bool {
	if !e.running || !e.state.IsPaused {
		return false
	}
	e.state.IsPaused = false
	e.armFor(e.remaining)
	e.remaining = 0
	return true
}

// RecordMove appends to the move history
func (e *Engine) RecordMove(playerID model.UserID, move model.MoveParams) {
	e.state.MoveHistory = append(e.state.MoveHistory, model.MoveRecord{
		PlayerID:   playerID,
		Move:       move,
		TurnNumber: e.state.TurnNumber,
		Timestamp:  e.clock.Now(),
	})
}

// Stop cancels any pending deadline. A stopped engine ignores everything
// until the next Start.
func (e *Engine) Stop() {
	e.disarm()
	e.running = false
}

// Running reports whether the engine is counting turns
func (e *Engine) Running() bool {
	return e.running
}

// IsPaused reports whether the countdown is frozen
func (e *Engine) IsPaused() bool {
	return e.state.IsPaused
}

// State returns a copy of the full bookkeeping
func (e *Engine) State() model.TurnTimerState {
	st := e.state
	st.TimeoutCounts = make(map[model.UserID]int, len(e.state.TimeoutCounts))
	for k, v := range e.state.TimeoutCounts {
		st.TimeoutCounts[k] = v
	}
	st.MoveHistory = append([]model.MoveRecord(nil), e.state.MoveHistory...)
	return st
}

// Snapshot is the public view of the timer
func (e *Engine) Snapshot() model.TimerView {
	var remaining time.Duration
	switch {
	case !e.running:
	case e.state.IsPaused:
		remaining = e.remaining
	default:
		remaining = e.untilDeadline()
	}
	return model.TimerView{
		CurrentPlayer: e.holder,
		TurnNumber:    e.state.TurnNumber,
		IsPaused:      e.state.IsPaused,
		Players:       append([]model.UserID(nil), e.players...),
		RemainingTime: remaining,
	}
}

func (e *Engine) untilDeadline() time.Duration {
	left := e.deadline.Sub(e.clock.Now())
	if left < 0 {
		return 0
	}
	return left
}

func (e *Engine) armFor(d time.Duration) {
	e.disarm()
	e.gen++
	gen, turn := e.gen, e.state.TurnNumber
	e.deadline = e.clock.Now().Add(d)
	e.timer = e.arm(d, func() {
		if gen != e.gen {
			return
		}
		e.Expire(turn)
	})
}

func (e *Engine) disarm() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.gen++
}
