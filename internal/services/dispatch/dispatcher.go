// Package dispatch translates inbound client messages into room and game
// operations and fans the resulting state out to room members.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/mcoot/duoplay/internal/api/apierr"
	"github.com/mcoot/duoplay/internal/dependencies/clock"
	"github.com/mcoot/duoplay/internal/model"
	"github.com/mcoot/duoplay/internal/services/presence"
	"github.com/mcoot/duoplay/internal/services/room"
	"github.com/mcoot/duoplay/internal/services/turntimer"
)

// DefaultMaxChatLength is the longest chat line relayed, in runes
const DefaultMaxChatLength = 500

// Config holds dispatcher behaviour
type Config struct {
	// StartDelay is the fallback wait for game:ready before game:start is
	// announced anyway. Zero announces as soon as the room fills.
	StartDelay     time.Duration
	TimedByDefault bool
	TurnTimer      turntimer.Config
	MaxChatLength  int
}

// DefaultConfig returns the standard dispatcher settings
func DefaultConfig() Config {
	return Config{
		StartDelay:    300 * time.Millisecond,
		TurnTimer:     turntimer.DefaultConfig(),
		MaxChatLength: DefaultMaxChatLength,
	}
}

// Dispatcher is the boundary between connections and rooms
type Dispatcher struct {
	rooms     *room.Manager
	presence  *presence.Registry
	sender    Sender
	publisher RoomPublisher
	clock     clock.Clock
	cfg       Config
	logger    *slog.Logger
}

// New creates a Dispatcher. publisher may be nil.
func New(
	cfg Config,
	rooms *room.Manager,
	presence *presence.Registry,
	sender Sender,
	publisher RoomPublisher,
	clock clock.Clock,
	logger *slog.Logger,
) *Dispatcher {
	if cfg.MaxChatLength <= 0 {
		cfg.MaxChatLength = DefaultMaxChatLength
	}
	return &Dispatcher{
		rooms:     rooms,
		presence:  presence,
		sender:    sender,
		publisher: publisher,
		clock:     clock,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "dispatch")),
	}
}

// Connect binds a freshly authenticated connection to its identity. An
// older connection of the same identity is told it was replaced and closed.
func (d *Dispatcher) Connect(conn Conn) {
	userID := conn.Identity.UserID
	prev := d.presence.Bind(userID, conn.ID)
	d.logger.Info("connection opened",
		slog.String("user", string(userID)),
		slog.String("conn", string(conn.ID)),
	)
	if prev == "" {
		return
	}

	d.sender.Send(prev, model.NewEvent(model.EventSessionReplaced, model.MessagePayload{
		Message: "signed in from another connection",
	}))
	d.sender.Close(prev)

	if rec, ok := d.presence.Lookup(userID); ok && rec.RoomCode != "" {
		d.markOffline(rec.RoomCode, userID, prev)
	}
}

// Disconnect handles a closed connection. The player stays in their room,
// offline, until they rejoin or the room is cleaned up.
func (d *Dispatcher) Disconnect(conn Conn) {
	userID := conn.Identity.UserID
	if !d.presence.Unbind(userID, conn.ID) {
		// superseded connection closing late
		return
	}
	d.logger.Info("connection closed",
		slog.String("user", string(userID)),
		slog.String("conn", string(conn.ID)),
	)
	if rec, ok := d.presence.Lookup(userID); ok && rec.RoomCode != "" {
		d.markOffline(rec.RoomCode, userID, conn.ID)
	}
}

// Handle processes one inbound message. Failures are reported to conn only.
func (d *Dispatcher) Handle(ctx context.Context, conn Conn, raw []byte) {
	if ctx.Err() != nil {
		return
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Type == "" {
		d.fail(conn, env.RequestID, model.ErrMalformedMessage)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic handling message",
				slog.String("type", env.Type),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			d.fail(conn, env.RequestID, &room.PanicError{Value: r})
		}
	}()

	d.presence.Touch(conn.Identity.UserID)

	var (
		code model.RoomCode
		err  error
	)
	switch env.Type {
	case TypeCreateRoom:
		code, err = d.createRoom(conn, env)
	case TypeJoinRoom:
		code, err = d.joinRoom(conn, env)
	case TypeLeaveRoom:
		code, err = d.leaveRoom(conn, env)
	case TypeRejoinRoom:
		code, err = d.rejoinRoom(conn, env)
	case TypeGameReady:
		code, err = d.ready(conn, env)
	case TypeGameMove:
		code, err = d.move(conn, env)
	case TypeGameReset:
		code, err = d.reset(conn, env)
	case TypeChat:
		code, err = d.chat(conn, env)
	case TypePing:
		d.sender.Send(conn.ID, model.Event{Type: model.EventPong, RequestID: env.RequestID})
		return
	default:
		err = model.ErrUnknownMessage
	}

	if err != nil {
		d.fail(conn, env.RequestID, err)
		return
	}
	d.ack(conn, env.RequestID, code)
}

// Shutdown destroys every room and stops their timers
func (d *Dispatcher) Shutdown() {
	d.rooms.Shutdown()
}

// inRoom runs fn on the room's executor and folds both error paths together
func (d *Dispatcher) inRoom(code model.RoomCode, fn func(e *room.Entry) error) error {
	var inner error
	if err := d.rooms.Exec(code, func(e *room.Entry) { inner = fn(e) }); err != nil {
		return err
	}
	return inner
}

func (d *Dispatcher) send(conn model.ConnectionID, t model.EventType, payload any) {
	if conn == "" {
		return
	}
	d.sender.Send(conn, model.NewEvent(t, payload))
}

// broadcast sends to every online member except skip
func (d *Dispatcher) broadcast(e *room.Entry, skip model.UserID, t model.EventType, payload any) {
	ev := model.NewEvent(t, payload)
	for _, conn := range e.Recipients(skip) {
		d.sender.Send(conn, ev)
	}
}

func (d *Dispatcher) ack(conn Conn, requestID string, code model.RoomCode) {
	if requestID == "" {
		return
	}
	d.sender.Send(conn.ID, model.Event{
		Type:      model.EventAck,
		RequestID: requestID,
		Payload:   model.AckPayload{OK: true, RoomID: code},
	})
}

// fail reports err to the triggering connection as a named event, plus a
// failed ack when the request carried an ID
func (d *Dispatcher) fail(conn Conn, requestID string, err error) {
	desc := apierr.Describe(err)
	var pe *room.PanicError
	if errors.As(err, &pe) {
		desc = apierr.Describe(apierr.NewInternalError())
	}
	if desc.Code == apierr.CodeInternalError {
		d.logger.Error("request failed",
			slog.String("user", string(conn.Identity.UserID)),
			slog.String("error", err.Error()),
		)
	} else {
		d.logger.Debug("request rejected",
			slog.String("user", string(conn.Identity.UserID)),
			slog.String("code", desc.Code),
		)
	}

	d.send(conn.ID, errorEvent(err), model.ErrorPayload{Code: desc.Code, Message: desc.Message})
	if requestID != "" {
		d.sender.Send(conn.ID, model.Event{
			Type:      model.EventAck,
			RequestID: requestID,
			Payload:   model.AckPayload{OK: false, Error: desc.Message, Code: desc.Code},
		})
	}
}

// errorEvent picks the outbound event type for a failure
func errorEvent(err error) model.EventType {
	switch {
	case errors.Is(err, model.ErrRoomNotFound):
		return model.EventRoomNotFound
	case errors.Is(err, model.ErrRoomFull):
		return model.EventRoomFull
	case errors.Is(err, model.ErrNoSession),
		errors.Is(err, model.ErrGameOver),
		errors.Is(err, model.ErrGameInProgress),
		errors.Is(err, model.ErrNotPlayerTurn),
		errors.Is(err, model.ErrInvalidPosition),
		errors.Is(err, model.ErrCellOccupied),
		errors.Is(err, model.ErrColumnFull),
		errors.Is(err, model.ErrMissingMove),
		errors.Is(err, model.ErrUnknownPlayer),
		errors.Is(err, model.ErrNotEnoughPlayers):
		return model.EventGameError
	// chat input is a rule violation too; only the sender hears about it
	case errors.Is(err, model.ErrMessageEmpty),
		errors.Is(err, model.ErrMessageTooLong):
		return model.EventGameError
	default:
		return model.EventRoomError
	}
}

func (d *Dispatcher) publishRoom(e *room.Entry) {
	if d.publisher != nil {
		d.publisher.PublishRoom(e.Room.Summary())
	}
}

func (d *Dispatcher) removeRoom(code model.RoomCode) {
	if d.publisher != nil {
		d.publisher.RemoveRoom(code)
	}
}
