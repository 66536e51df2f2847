package room

import (
	"github.com/mcoot/duoplay/internal/dependencies/clock"
	"github.com/mcoot/duoplay/internal/model"
	"github.com/mcoot/duoplay/internal/services/game"
	"github.com/mcoot/duoplay/internal/services/turntimer"
)

// Entry is one live room with its session. Every method must run on the
// room's executor (see Manager.Exec).
type Entry struct {
	Room    *model.Room
	Session game.Session      // nil until the room is full
	Timer   *turntimer.Engine // nil unless the room is timed

	// Announced is set once game:start went out for the current session
	Announced bool

	manager    *Manager
	exec       Executor
	ready      map[model.UserID]bool
	startTimer clock.Timer
	cleanup    clock.Timer
	destroyed  bool
}

// LeaveResult describes what a departure did to the room
type LeaveResult struct {
	Player           model.RoomPlayer
	SessionDiscarded bool
	// WasLive is true when the discarded session had not finished
	WasLive bool
	Empty   bool
}

// StateSync is everything a reconnecting client needs to redraw the room
type StateSync struct {
	Room       model.RoomSummary
	State      *model.StateSnapshot
	WasOffline bool
}

// Post queues fn on the room's executor. Used by timers.
func (e *Entry) Post(fn func()) {
	e.exec.Post(func() {
		if e.destroyed {
			return
		}
		fn()
	})
}

// Join adds a player. When the room fills, the game session is created
// straight away; sessionCreated reports that.
func (e *Entry) Join(gameName string, identity model.Identity, conn model.ConnectionID) (sessionCreated bool, err error) {
	if e.Room.GetPlayer(identity.UserID) != nil {
		return false, model.ErrAlreadyInRoom
	}
	if gameName != "" && !game.SameGame(e.Room.GameName, gameName) {
		return false, model.ErrGameMismatch
	}
	if e.Room.IsFull() {
		return false, model.ErrRoomFull
	}

	now := e.manager.clock.Now()
	e.Room.Players = append(e.Room.Players, model.RoomPlayer{
		Identity:     identity,
		ConnectionID: conn,
		Presence:     model.PresenceOnline,
		LastSeen:     now,
	})
	e.Room.UpdatedAt = now
	e.cancelCleanup()

	if !e.Room.IsFull() {
		return false, nil
	}
	if err := e.newSession(); err != nil {
		return false, err
	}
	return true, nil
}

func (e *Entry) newSession() error {
	session, err := e.manager.games.New(e.Room.GameName)
	if err != nil {
		return err
	}
	var ids [2]model.Identity
	var conns [2]model.ConnectionID
	for i := 0; i < len(ids) && i < len(e.Room.Players); i++ {
		ids[i] = e.Room.Players[i].Identity
		conns[i] = e.Room.Players[i].ConnectionID
	}
	session.Start(ids, conns)
	e.Session = session
	e.Announced = false
	e.ready = make(map[model.UserID]bool)
	return nil
}

// Leave removes a player and discards any session, live or finished
func (e *Entry) Leave(userID model.UserID) (LeaveResult, error) {
	var res LeaveResult
	idx := -1
	for i, p := range e.Room.Players {
		if p.Identity.UserID == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return res, model.ErrNotAPlayer
	}

	res.Player = e.Room.Players[idx]
	e.Room.Players = append(e.Room.Players[:idx], e.Room.Players[idx+1:]...)
	e.Room.UpdatedAt = e.manager.clock.Now()

	if e.Session != nil {
		res.SessionDiscarded = true
		res.WasLive = !e.Session.IsTerminal()
	}
	e.discardSession()
	res.Empty = len(e.Room.Players) == 0

	if !res.Empty && !e.Room.AllOffline() {
		e.cancelCleanup()
	}
	return res, nil
}

// Rejoin binds conn to an existing member. Rejoining with the connection
// that is already bound is a no-op success.
func (e *Entry) Rejoin(userID model.UserID, conn model.ConnectionID) (StateSync, error) {
	player := e.Room.GetPlayer(userID)
	if player == nil {
		return StateSync{}, model.ErrNotAPlayer
	}

	wasOffline := player.Offline()
	if wasOffline || player.ConnectionID != conn {
		player.ComeOnline(conn, e.manager.clock.Now())
		if e.Session != nil {
			e.Session.RebindConnection(userID, conn)
		}
	}
	e.cancelCleanup()

	sync := StateSync{
		Room:       e.Room.Summary(),
		WasOffline: wasOffline,
	}
	if e.Session != nil {
		st := e.Session.State()
		sync.State = &st
	}
	return sync, nil
}

// MarkOffline moves a member offline if conn is still their connection.
// changed is false for stale connections.
func (e *Entry) MarkOffline(userID model.UserID, conn model.ConnectionID) (changed, allOffline bool) {
	player := e.Room.GetPlayer(userID)
	if player == nil || player.Offline() || player.ConnectionID != conn {
		return false, e.Room.AllOffline()
	}
	if err := player.GoOffline(e.manager.clock.Now()); err != nil {
		return false, e.Room.AllOffline()
	}
	return true, e.Room.AllOffline()
}

// MarkReady records a player's readiness and reports whether everyone is ready
func (e *Entry) MarkReady(userID model.UserID) bool {
	if e.Room.GetPlayer(userID) == nil {
		return false
	}
	e.ready[userID] = true
	for _, p := range e.Room.Players {
		if !e.ready[p.Identity.UserID] {
			return false
		}
	}
	return e.Room.IsFull()
}

// SetStartTimer holds the fallback game start timer so it can be cancelled
func (e *Entry) SetStartTimer(t clock.Timer) {
	e.cancelStart()
	e.startTimer = t
}

// MarkAnnounced records that game:start went out and cancels the fallback
func (e *Entry) MarkAnnounced() {
	e.Announced = true
	e.cancelStart()
}

// PlayerIDs lists member user IDs in seat order
func (e *Entry) PlayerIDs() []model.UserID {
	ids := make([]model.UserID, len(e.Room.Players))
	for i, p := range e.Room.Players {
		ids[i] = p.Identity.UserID
	}
	return ids
}

// Recipients returns the live connections of every member except skip
func (e *Entry) Recipients(skip model.UserID) []model.ConnectionID {
	var conns []model.ConnectionID
	for _, p := range e.Room.Players {
		if p.Identity.UserID == skip || p.ConnectionID == "" {
			continue
		}
		conns = append(conns, p.ConnectionID)
	}
	return conns
}

// CleanupPending reports whether the offline grace timer is armed
func (e *Entry) CleanupPending() bool {
	return e.cleanup != nil
}

func (e *Entry) discardSession() {
	e.cancelStart()
	if e.Timer != nil {
		e.Timer.Stop()
		e.Timer = nil
	}
	e.Session = nil
	e.Announced = false
	e.ready = make(map[model.UserID]bool)
}

func (e *Entry) cancelStart() {
	if e.startTimer != nil {
		e.startTimer.Stop()
		e.startTimer = nil
	}
}

func (e *Entry) cancelCleanup() {
	if e.cleanup != nil {
		e.cleanup.Stop()
		e.cleanup = nil
	}
}
