package storage

import (
	"context"

	"github.com/mcoot/duoplay/internal/model"
)

// Storage is the read model of presence records and room summaries.
// Live game state is never stored here.
type Storage interface {
	// Presence operations
	SavePresence(ctx context.Context, rec model.PresenceRecord) error
	GetPresence(ctx context.Context, userID model.UserID) (*model.PresenceRecord, error)

	// Room summary operations
	SaveRoomSummary(ctx context.Context, summary model.RoomSummary) error
	GetRoomSummary(ctx context.Context, code model.RoomCode) (*model.RoomSummary, error)
	DeleteRoomSummary(ctx context.Context, code model.RoomCode) error
	ListRoomCodes(ctx context.Context) ([]model.RoomCode, error)

	// Ping checks the backend is reachable
	Ping(ctx context.Context) error
}
