package dispatch

import (
	"log/slog"
	"time"

	"github.com/mcoot/duoplay/internal/dependencies/clock"
	"github.com/mcoot/duoplay/internal/model"
	"github.com/mcoot/duoplay/internal/services/room"
	"github.com/mcoot/duoplay/internal/services/turntimer"
)

// prepareGame runs once the room filled and its session exists
func (d *Dispatcher) prepareGame(e *room.Entry) {
	if e.Room.Timed {
		e.Timer = turntimer.New(e.Session, d.cfg.TurnTimer, d.clock, d.armer(e), d.timerHooks(e),
			d.logger.With(slog.String("room", string(e.Room.Code))))
	}
	if d.cfg.StartDelay <= 0 {
		d.announce(e)
		return
	}

	session := e.Session
	e.SetStartTimer(d.clock.AfterFunc(d.cfg.StartDelay, func() {
		e.Post(func() {
			if e.Session == session && !e.Announced {
				d.announce(e)
			}
		})
	}))
}

// announce sends game:start for the current session exactly once
func (d *Dispatcher) announce(e *room.Entry) {
	if e.Announced || e.Session == nil {
		return
	}
	e.MarkAnnounced()
	st := e.Session.State()
	d.broadcast(e, "", model.EventGameStart, startPayload(st))
	d.startTimer(e, st)

	d.logger.Info("game started",
		slog.String("room", string(e.Room.Code)),
		slog.String("game", st.Game),
	)
}

func (d *Dispatcher) startTimer(e *room.Entry, st model.StateSnapshot) {
	if e.Timer == nil {
		return
	}
	players := make([]model.UserID, len(st.Players))
	for i, p := range st.Players {
		players[i] = p.UserID
	}
	e.Timer.Start(players)
	if e.Room.AnyOffline() && e.Timer.Pause() {
		d.broadcast(e, "", model.EventTimerPaused, model.TimerPayloadFrom(e.Timer.Snapshot()))
	}
}

func startPayload(st model.StateSnapshot) model.GameStartPayload {
	return model.GameStartPayload{
		Players: st.Players,
		Board:   st.Board,
		Turn:    st.Turn,
		Game:    st.Game,
		Rows:    st.Rows,
		Cols:    st.Cols,
	}
}

// armer schedules timer firings as events on the room's executor
func (d *Dispatcher) armer(e *room.Entry) turntimer.ArmFunc {
	return func(dur time.Duration, fire func()) clock.Timer {
		return d.clock.AfterFunc(dur, func() { e.Post(fire) })
	}
}

func (d *Dispatcher) timerHooks(e *room.Entry) turntimer.Hooks {
	return turntimer.Hooks{
		OnTurnStarted: func(player model.UserID, turnNumber int, duration time.Duration) {
			d.broadcast(e, "", model.EventTurnStarted, model.TurnStartedPayload{
				Player:     player,
				TurnNumber: turnNumber,
				DurationMs: duration.Milliseconds(),
			})
		},
		OnTimeout: func(player model.UserID, turnNumber, count, maxTimeouts int) {
			d.broadcast(e, "", model.EventTurnTimeout, model.TurnTimeoutPayload{
				Player:       player,
				TurnNumber:   turnNumber,
				TimeoutCount: count,
				MaxTimeouts:  maxTimeouts,
			})
			st := e.Session.State()
			d.broadcast(e, "", model.EventGameUpdate, model.GameUpdatePayload{Board: st.Board, Turn: st.Turn})
		},
		OnForfeit: func(loser model.UserID, winner model.Marker) {
			d.broadcast(e, "", model.EventGameForfeit, model.ForfeitPayload{Player: loser, Winner: string(winner)})
			st := e.Session.State()
			d.broadcast(e, "", model.EventGameOver, model.GameOverPayload{
				Winner: string(winner),
				Board:  st.Board,
				Reason: "forfeit",
			})
			d.logger.Info("game forfeited",
				slog.String("room", string(e.Room.Code)),
				slog.String("loser", string(loser)),
			)
		},
	}
}

// member resolves the caller to a room player through their live connection
func member(e *room.Entry, conn Conn) (*model.RoomPlayer, error) {
	player := e.Room.PlayerByConnection(conn.ID)
	if player == nil || player.Identity.UserID != conn.Identity.UserID {
		return nil, model.ErrNotAPlayer
	}
	return player, nil
}

func (d *Dispatcher) ready(conn Conn, env Envelope) (model.RoomCode, error) {
	var req RoomRequest
	if err := decode(env, &req); err != nil {
		return "", err
	}
	code := NormalizeCode(req.RoomID)

	err := d.inRoom(code, func(e *room.Entry) error {
		player, err := member(e, conn)
		if err != nil {
			return err
		}
		if e.Session == nil {
			return model.ErrNotEnoughPlayers
		}
		if e.Announced {
			return nil
		}
		if e.MarkReady(player.Identity.UserID) {
			d.announce(e)
		}
		return nil
	})
	return code, err
}

func (d *Dispatcher) move(conn Conn, env Envelope) (model.RoomCode, error) {
	var req MoveRequest
	if err := decode(env, &req); err != nil {
		return "", err
	}
	code := NormalizeCode(req.RoomID)
	params := req.Params()

	err := d.inRoom(code, func(e *room.Entry) error {
		player, err := member(e, conn)
		if err != nil {
			return err
		}
		if e.Session == nil {
			return model.ErrNoSession
		}
		if !e.Announced {
			d.announce(e)
		}

		result := e.Session.ApplyMove(model.Actor{ConnectionID: conn.ID}, params)
		if !result.Success {
			return result.Reason
		}

		st := e.Session.State()
		switch {
		case result.IsDraw:
			d.broadcast(e, "", model.EventGameDraw, model.GameDrawPayload{Board: st.Board})
		case result.Winner != model.MarkerNone:
			d.broadcast(e, "", model.EventGameOver, model.GameOverPayload{Winner: string(result.Winner), Board: st.Board})
		default:
			d.broadcast(e, "", model.EventGameUpdate, model.GameUpdatePayload{
				Board:    st.Board,
				Turn:     st.Turn,
				LastMove: result.Position,
			})
		}

		if e.Timer != nil {
			userID := player.Identity.UserID
			e.Timer.RecordMove(userID, params)
			if err := e.Timer.EndTurn(userID); err != nil {
				d.logger.Error("turn timer out of step with session",
					slog.String("room", string(code)),
					slog.String("player", string(userID)),
					slog.String("error", err.Error()),
				)
				return err
			}
		}
		return nil
	})
	return code, err
}

func (d *Dispatcher) reset(conn Conn, env Envelope) (model.RoomCode, error) {
	var req RoomRequest
	if err := decode(env, &req); err != nil {
		return "", err
	}
	code := NormalizeCode(req.RoomID)

	err := d.inRoom(code, func(e *room.Entry) error {
		if _, err := member(e, conn); err != nil {
			return err
		}
		if e.Session == nil {
			return model.ErrNoSession
		}
		if !e.Session.IsTerminal() {
			return model.ErrGameInProgress
		}

		st := e.Session.Reset()
		e.MarkAnnounced()
		d.broadcast(e, "", model.EventGameStart, startPayload(st))
		d.startTimer(e, st)
		return nil
	})
	return code, err
}
