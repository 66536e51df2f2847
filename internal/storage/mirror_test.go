package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/duoplay/internal/model"
	"github.com/mcoot/duoplay/internal/storage"
	"github.com/mcoot/duoplay/internal/storage/memory"
	"github.com/mcoot/duoplay/internal/testutil"
)

type MirrorSuite struct {
	suite.Suite
	store  *memory.Storage
	mirror *storage.Mirror
	ctx    context.Context
}

func TestMirrorSuite(t *testing.T) {
	suite.Run(t, new(MirrorSuite))
}

func (s *MirrorSuite) SetupTest() {
	s.store = memory.New()
	s.mirror = storage.NewMirror(s.store, 16, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *MirrorSuite) TearDownTest() {
	s.mirror.Close()
}

func (s *MirrorSuite) TestPublishPresence() {
	s.mirror.PublishPresence(model.PresenceRecord{UserID: "u1", Online: true})
	s.mirror.Close()

	rec, err := s.store.GetPresence(s.ctx, "u1")
	s.Require().NoError(err)
	s.True(rec.Online)
}

func (s *MirrorSuite) TestPublishAndRemoveRoomInOrder() {
	summary := model.RoomSummary{Code: "ROOM01", GameName: "Tic Tac Toe", MaxPlayers: 2, CreatedAt: time.Now()}
	s.mirror.PublishRoom(summary)
	s.mirror.RemoveRoom("ROOM01")
	s.mirror.PublishRoom(model.RoomSummary{Code: "ROOM02"})
	s.mirror.Close()

	_, err := s.store.GetRoomSummary(s.ctx, "ROOM01")
	s.ErrorIs(err, model.ErrRoomSummaryNotFound)
	codes, err := s.store.ListRoomCodes(s.ctx)
	s.Require().NoError(err)
	s.Equal([]model.RoomCode{"ROOM02"}, codes)
}

func (s *MirrorSuite) TestPublishAfterCloseIsDropped() {
	s.mirror.Close()
	s.mirror.PublishPresence(model.PresenceRecord{UserID: "u1"})
	_, err := s.store.GetPresence(s.ctx, "u1")
	s.ErrorIs(err, model.ErrPresenceNotFound)
}
