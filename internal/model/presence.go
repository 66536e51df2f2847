package model

import "time"

// PresenceRecord is the connection registry entry for one user.
// An empty ConnectionID or RoomCode means none.
type PresenceRecord struct {
	UserID       UserID       `json:"userId" msgpack:"user_id"`
	ConnectionID ConnectionID `json:"connectionId,omitempty" msgpack:"connection_id"`
	RoomCode     RoomCode     `json:"roomId,omitempty" msgpack:"room_code"`
	Online       bool         `json:"online" msgpack:"online"`
	LastSeen     time.Time    `json:"lastSeen" msgpack:"last_seen"`
}

// PresenceState is the per-player online/offline state inside a room
type PresenceState string

const (
	PresenceOnline  PresenceState = "online"
	PresenceOffline PresenceState = "offline"
)
