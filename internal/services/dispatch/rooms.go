package dispatch

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/duoplay/internal/model"
	"github.com/mcoot/duoplay/internal/services/room"
)

func (d *Dispatcher) createRoom(conn Conn, env Envelope) (model.RoomCode, error) {
	var req CreateRoomRequest
	if err := decode(env, &req); err != nil {
		return "", err
	}
	userID := conn.Identity.UserID
	if err := d.ensureFree(userID, ""); err != nil {
		return "", err
	}

	timed := d.cfg.TimedByDefault
	if req.Timed != nil {
		timed = *req.Timed
	}
	e, err := d.rooms.CreateRoom(req.GameName, conn.Identity, conn.ID, room.CreateOptions{Timed: timed})
	if err != nil {
		return "", err
	}
	code := e.Room.Code
	d.presence.SetRoom(userID, code)

	err = d.inRoom(code, func(e *room.Entry) error {
		d.send(conn.ID, model.EventRoomCreated, model.RoomPayload{RoomID: code, Room: e.Room.Summary()})
		d.publishRoom(e)
		return nil
	})
	return code, err
}

func (d *Dispatcher) joinRoom(conn Conn, env Envelope) (model.RoomCode, error) {
	var req JoinRoomRequest
	if err := decode(env, &req); err != nil {
		return "", err
	}
	code := NormalizeCode(req.RoomID)
	userID := conn.Identity.UserID
	if err := d.ensureFree(userID, code); err != nil {
		return code, err
	}

	err := d.inRoom(code, func(e *room.Entry) error {
		created, err := e.Join(req.GameName, conn.Identity, conn.ID)
		if err != nil {
			return err
		}
		d.presence.SetRoom(userID, code)

		d.send(conn.ID, model.EventRoomJoined, model.RoomPayload{RoomID: code, Room: e.Room.Summary()})
		d.broadcast(e, userID, model.EventPlayerJoined, model.PlayerPayload{
			RoomID:      code,
			UserID:      userID,
			DisplayName: conn.Identity.DisplayName,
		})
		d.publishRoom(e)

		if created {
			d.prepareGame(e)
		}
		return nil
	})
	return code, err
}

func (d *Dispatcher) leaveRoom(conn Conn, env Envelope) (model.RoomCode, error) {
	var req RoomRequest
	if err := decode(env, &req); err != nil {
		return "", err
	}
	code := NormalizeCode(req.RoomID)
	userID := conn.Identity.UserID

	err := d.inRoom(code, func(e *room.Entry) error {
		res, err := e.Leave(userID)
		if err != nil {
			return err
		}
		d.presence.ClearRoom(userID, code)

		left := model.PlayerPayload{RoomID: code, UserID: userID, DisplayName: conn.Identity.DisplayName}
		d.send(conn.ID, model.EventPlayerLeft, left)
		d.broadcast(e, userID, model.EventPlayerLeft, left)
		if res.WasLive {
			d.broadcast(e, userID, model.EventGameOpponentLeft, model.MessagePayload{
				Message: fmt.Sprintf("%s left the game", conn.Identity.DisplayName),
			})
		}

		if res.Empty {
			d.rooms.Destroy(code)
			d.removeRoom(code)
			return nil
		}
		d.publishRoom(e)
		if e.Room.AllOffline() {
			d.rooms.ScheduleCleanup(e, d.onAbandoned)
		}
		return nil
	})
	if errors.Is(err, model.ErrRoomNotFound) {
		d.presence.ClearRoom(userID, code)
	}
	return code, err
}

func (d *Dispatcher) rejoinRoom(conn Conn, env Envelope) (model.RoomCode, error) {
	var req RoomRequest
	if err := decode(env, &req); err != nil {
		return "", err
	}
	code := NormalizeCode(req.RoomID)
	userID := conn.Identity.UserID

	err := d.inRoom(code, func(e *room.Entry) error {
		sync, err := e.Rejoin(userID, conn.ID)
		if err != nil {
			return err
		}
		d.presence.SetRoom(userID, code)

		resumed := false
		if e.Timer != nil && e.Timer.IsPaused() && !e.Room.AnyOffline() {
			resumed = e.Timer.Resume()
		}

		payload := model.GameSyncPayload{RoomID: code, Room: sync.Room}
		if sync.State != nil {
			payload.Board = sync.State.Board
			payload.Turn = sync.State.Turn
			payload.Players = sync.State.Players
			payload.Winner = sync.State.Winner
		}
		if e.Timer != nil && e.Timer.Running() {
			payload.Timer = model.TimerPayloadFrom(e.Timer.Snapshot())
		}
		d.send(conn.ID, model.EventGameSync, payload)

		if sync.WasOffline {
			d.broadcast(e, userID, model.EventPlayerRejoined, model.PlayerPayload{
				RoomID:      code,
				UserID:      userID,
				DisplayName: conn.Identity.DisplayName,
			})
			d.publishRoom(e)
		}
		if resumed {
			d.broadcast(e, "", model.EventTimerResumed, model.TimerPayloadFrom(e.Timer.Snapshot()))
		}
		return nil
	})
	return code, err
}

// markOffline moves a member offline after their connection went away
func (d *Dispatcher) markOffline(code model.RoomCode, userID model.UserID, conn model.ConnectionID) {
	err := d.inRoom(code, func(e *room.Entry) error {
		changed, allOffline := e.MarkOffline(userID, conn)
		if !changed {
			return nil
		}
		player := e.Room.GetPlayer(userID)
		d.broadcast(e, userID, model.EventPlayerOffline, model.PlayerPayload{
			RoomID:      code,
			UserID:      userID,
			DisplayName: player.Identity.DisplayName,
		})
		if e.Timer != nil && e.Timer.Pause() {
			d.broadcast(e, userID, model.EventTimerPaused, model.TimerPayloadFrom(e.Timer.Snapshot()))
		}
		d.publishRoom(e)
		if allOffline {
			d.rooms.ScheduleCleanup(e, d.onAbandoned)
		}
		return nil
	})
	if errors.Is(err, model.ErrRoomNotFound) {
		d.presence.ClearRoom(userID, code)
	} else if err != nil {
		d.logger.Error("mark offline failed",
			slog.String("room", string(code)),
			slog.String("error", err.Error()),
		)
	}
}

// onAbandoned runs on the room's executor after the grace cleanup destroyed it
func (d *Dispatcher) onAbandoned(e *room.Entry) {
	code := e.Room.Code
	for _, p := range e.Room.Players {
		d.presence.ClearRoom(p.Identity.UserID, code)
	}
	d.removeRoom(code)
	d.logger.Info("abandoned room removed", slog.String("room", string(code)))
}

// ensureFree fails when the user already belongs to a room other than target
func (d *Dispatcher) ensureFree(userID model.UserID, target model.RoomCode) error {
	rec, ok := d.presence.Lookup(userID)
	if !ok || rec.RoomCode == "" || rec.RoomCode == target {
		return nil
	}
	member := false
	err := d.rooms.Exec(rec.RoomCode, func(e *room.Entry) {
		member = e.Room.GetPlayer(userID) != nil
	})
	if err != nil && !errors.Is(err, model.ErrRoomNotFound) {
		return err
	}
	if member {
		return model.ErrAlreadyInRoom
	}
	d.presence.ClearRoom(userID, rec.RoomCode)
	return nil
}
