package factory

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/duoplay/internal/config"
	"github.com/mcoot/duoplay/internal/model"
	"github.com/mcoot/duoplay/internal/services/dispatch"
	"github.com/mcoot/duoplay/internal/services/room"
	"github.com/mcoot/duoplay/internal/services/turntimer"
	"github.com/mcoot/duoplay/internal/testutil"
)

type IntegrationSuite struct {
	suite.Suite
	app   *TestApp
	ctx   context.Context
	alice dispatch.Conn
	bob   dispatch.Conn
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
	s.alice = dispatch.Conn{ID: "c-alice", Identity: model.Identity{UserID: "u-alice", DisplayName: "Alice"}}
	s.bob = dispatch.Conn{ID: "c-bob", Identity: model.Identity{UserID: "u-bob", DisplayName: "Bob"}}
}

func (s *IntegrationSuite) TearDownTest() {
	s.Require().NoError(s.app.Close())
}

func (s *IntegrationSuite) handle(conn dispatch.Conn, t string, payload any) {
	raw, err := json.Marshal(payload)
	s.Require().NoError(err)
	env, err := json.Marshal(dispatch.Envelope{Type: t, Payload: raw})
	s.Require().NoError(err)
	s.app.Dispatcher.Handle(s.ctx, conn, env)
}

// seat connects both players into room ROOM01
func (s *IntegrationSuite) seat(timed bool) model.RoomCode {
	s.app.MockRandom.QueueString("ROOM01")
	s.app.Dispatcher.Connect(s.alice)
	s.app.Dispatcher.Connect(s.bob)
	s.handle(s.alice, dispatch.TypeCreateRoom, dispatch.CreateRoomRequest{GameName: "tic tac toe", Timed: &timed})
	s.handle(s.bob, dispatch.TypeJoinRoom, dispatch.JoinRoomRequest{RoomID: "room01"})
	s.Require().Equal(1, s.app.Rooms.Count())
	return "ROOM01"
}

func (s *IntegrationSuite) eventuallyRoom(code model.RoomCode, check func(summary *model.RoomSummary) bool) {
	s.Eventually(func() bool {
		summary, err := s.app.Storage.GetRoomSummary(s.ctx, code)
		if err != nil {
			return false
		}
		return check(summary)
	}, 2*time.Second, 10*time.Millisecond)
}

// Test: room membership and presence reach the read model
func (s *IntegrationSuite) TestReadModelFollowsRoom() {
	code := s.seat(false)

	s.eventuallyRoom(code, func(summary *model.RoomSummary) bool {
		return len(summary.Players) == 2 && summary.GameName == "Tic Tac Toe"
	})
	s.Eventually(func() bool {
		rec, err := s.app.Storage.GetPresence(s.ctx, s.bob.Identity.UserID)
		return err == nil && rec.Online && rec.RoomCode == code
	}, 2*time.Second, 10*time.Millisecond)

	s.app.Dispatcher.Disconnect(s.bob)
	s.eventuallyRoom(code, func(summary *model.RoomSummary) bool {
		return len(summary.Players) == 2 && !summary.Players[1].Online
	})

	s.handle(s.alice, dispatch.TypeLeaveRoom, dispatch.RoomRequest{RoomID: string(code)})
	s.eventuallyRoom(code, func(summary *model.RoomSummary) bool {
		return len(summary.Players) == 1
	})
}

// Test: the last player leaving removes the room everywhere
func (s *IntegrationSuite) TestEmptyRoomRemoved() {
	code := s.seat(false)
	s.eventuallyRoom(code, func(*model.RoomSummary) bool { return true })

	s.handle(s.alice, dispatch.TypeLeaveRoom, dispatch.RoomRequest{RoomID: string(code)})
	s.handle(s.bob, dispatch.TypeLeaveRoom, dispatch.RoomRequest{RoomID: string(code)})

	s.Equal(0, s.app.Rooms.Count())
	s.Eventually(func() bool {
		_, err := s.app.Storage.GetRoomSummary(s.ctx, code)
		return errors.Is(err, model.ErrRoomSummaryNotFound)
	}, 2*time.Second, 10*time.Millisecond)
}

// Test: a full game played through the dispatcher
func (s *IntegrationSuite) TestGameToCompletion() {
	code := s.seat(false)

	for i, conn := range []dispatch.Conn{s.alice, s.bob, s.alice, s.bob, s.alice} {
		index := []int{0, 4, 1, 7, 2}[i]
		s.handle(conn, dispatch.TypeGameMove, dispatch.MoveRequest{RoomID: string(code), Index: &index})
	}

	s.Require().NoError(s.app.Rooms.Exec(code, func(e *room.Entry) {
		st := e.Session.State()
		s.Require().NotNil(st.Winner)
		s.Equal("X", *st.Winner)
	}))
}

// Test: abandoned rooms are destroyed after the offline grace period
func (s *IntegrationSuite) TestAbandonedRoomDestroyed() {
	code := s.seat(true)

	s.app.Dispatcher.Disconnect(s.alice)
	s.app.Dispatcher.Disconnect(s.bob)
	s.app.MockClock.Advance(room.DefaultConfig().OfflineGrace - time.Second)
	s.Equal(1, s.app.Rooms.Count())

	s.app.MockClock.Advance(time.Second)

	s.Equal(0, s.app.Rooms.Count())
	s.Eventually(func() bool {
		_, err := s.app.Storage.GetRoomSummary(s.ctx, code)
		return errors.Is(err, model.ErrRoomSummaryNotFound)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestTimedByDefaultForfeit(t *testing.T) {
	cfg := Config{DispatchConfig: dispatch.Config{
		TimedByDefault: true,
		TurnTimer:      turntimer.Config{Duration: 10 * time.Second, MaxTimeouts: 1},
	}}
	app := NewTestAppWithConfig(cfg)
	defer app.Close()

	app.MockRandom.QueueString("ROOM01")
	alice := dispatch.Conn{ID: "c-alice", Identity: model.Identity{UserID: "u-alice"}}
	bob := dispatch.Conn{ID: "c-bob", Identity: model.Identity{UserID: "u-bob"}}
	app.Dispatcher.Connect(alice)
	app.Dispatcher.Connect(bob)
	ctx := context.Background()
	app.Dispatcher.Handle(ctx, alice, []byte(`{"type":"create-room","payload":{"gameName":"connect four"}}`))
	app.Dispatcher.Handle(ctx, bob, []byte(`{"type":"join-room","payload":{"roomId":"ROOM01"}}`))

	app.MockClock.Advance(10 * time.Second)

	err := app.Rooms.Exec("ROOM01", func(e *room.Entry) {
		if e.Timer == nil || e.Session == nil {
			t.Fatal("expected a timed session")
		}
		if !e.Session.IsTerminal() {
			t.Fatal("expected forfeit after one timeout")
		}
		if e.Timer.Running() {
			t.Fatal("timer still running after forfeit")
		}
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestConfigFromSettings(t *testing.T) {
	settings := config.Default()
	settings.Auth.Secret = "s3cret"
	settings.Storage.Type = config.StorageTypeRedis
	settings.Storage.RedisURL = "redis://cache:6379"
	settings.Game.MaxTimeouts = 5

	cfg := ConfigFromSettings(settings, testutil.NopLogger())

	if cfg.AuthConfig.Secret != "s3cret" {
		t.Errorf("secret not mapped: %q", cfg.AuthConfig.Secret)
	}
	if cfg.RedisConfig == nil || cfg.RedisConfig.URL != "redis://cache:6379" {
		t.Errorf("redis config not mapped: %+v", cfg.RedisConfig)
	}
	if cfg.DispatchConfig.TurnTimer.MaxTimeouts != 5 {
		t.Errorf("max timeouts not mapped: %d", cfg.DispatchConfig.TurnTimer.MaxTimeouts)
	}
	if cfg.RoomConfig.OfflineGrace != 10*time.Minute {
		t.Errorf("offline grace not mapped: %v", cfg.RoomConfig.OfflineGrace)
	}
}

func TestNewRequiresSecret(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected an error without an auth secret")
	}
}
