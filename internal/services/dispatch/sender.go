package dispatch

import "github.com/mcoot/duoplay/internal/model"

// Sender delivers events to live connections. Implementations must not block.
type Sender interface {
	Send(conn model.ConnectionID, ev model.Event)
	Close(conn model.ConnectionID)
}

// RoomPublisher receives room summaries for the read model
type RoomPublisher interface {
	PublishRoom(summary model.RoomSummary)
	RemoveRoom(code model.RoomCode)
}

// Conn is an authenticated connection as seen by the dispatcher
type Conn struct {
	ID       model.ConnectionID
	Identity model.Identity
}
