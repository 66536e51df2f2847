package model

import "time"

// RoomCode is the human-readable identifier players use to join a room
type RoomCode string

// DefaultMaxPlayers is the capacity of every room
const DefaultMaxPlayers = 2

// RoomPlayer is a member of a room together with their live connection
type RoomPlayer struct {
	Identity     Identity
	ConnectionID ConnectionID // empty while offline
	Presence     PresenceState
	LastSeen     time.Time
}

// Offline reports whether the player currently has no live connection
func (p *RoomPlayer) Offline() bool {
	return p.Presence == PresenceOffline
}

// GoOffline moves the player from online to offline.
// It is only legal from the online state.
func (p *RoomPlayer) GoOffline(at time.Time) error {
	if p.Presence != PresenceOnline {
		return ErrInvalidPresenceTransition
	}
	p.Presence = PresenceOffline
	p.ConnectionID = ""
	p.LastSeen = at
	return nil
}

// ComeOnline binds a connection to the player.
// From offline this is the rejoin transition; while online it only replaces the connection.
func (p *RoomPlayer) ComeOnline(conn ConnectionID, at time.Time) {
	p.Presence = PresenceOnline
	p.ConnectionID = conn
	p.LastSeen = at
}

// Room is a container for up to MaxPlayers identities playing one game
type Room struct {
	Code       RoomCode
	GameName   string
	Players    []RoomPlayer // ordered by join time
	MaxPlayers int
	Timed      bool // wrap the session with the turn timer
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// GetPlayer returns the member with the given user ID, or nil if not found
func (r *Room) GetPlayer(userID UserID) *RoomPlayer {
	for i := range r.Players {
		if r.Players[i].Identity.UserID == userID {
			return &r.Players[i]
		}
	}
	return nil
}

// PlayerByConnection returns the member bound to the given connection, or nil
func (r *Room) PlayerByConnection(conn ConnectionID) *RoomPlayer {
	if conn == "" {
		return nil
	}
	for i := range r.Players {
		if r.Players[i].ConnectionID == conn {
			return &r.Players[i]
		}
	}
	return nil
}

// IsFull returns true once the room holds MaxPlayers members
func (r *Room) IsFull() bool {
	return len(r.Players) >= r.MaxPlayers
}

// AllOffline returns true if the room has members and none of them is online
func (r *Room) AllOffline() bool {
	if len(r.Players) == 0 {
		return false
	}
	for _, p := range r.Players {
		if !p.Offline() {
			return false
		}
	}
	return true
}

// AnyOffline returns true if at least one member is offline
func (r *Room) AnyOffline() bool {
	for _, p := range r.Players {
		if p.Offline() {
			return true
		}
	}
	return false
}

// Identities returns the identities of all members in join order
func (r *Room) Identities() []Identity {
	ids := make([]Identity, len(r.Players))
	for i, p := range r.Players {
		ids[i] = p.Identity
	}
	return ids
}

// OnlineConnections returns the live connections of all members
func (r *Room) OnlineConnections() []ConnectionID {
	var conns []ConnectionID
	for _, p := range r.Players {
		if p.ConnectionID != "" {
			conns = append(conns, p.ConnectionID)
		}
	}
	return conns
}

// RoomSummaryPlayer is the public view of a room member
type RoomSummaryPlayer struct {
	UserID      UserID `json:"userId" msgpack:"user_id"`
	DisplayName string `json:"displayName" msgpack:"display_name"`
	Online      bool   `json:"online" msgpack:"online"`
}

// RoomSummary is the broadcast-safe projection of a room
type RoomSummary struct {
	Code       RoomCode            `json:"roomId" msgpack:"code"`
	GameName   string              `json:"gameName" msgpack:"game_name"`
	Players    []RoomSummaryPlayer `json:"players" msgpack:"players"`
	MaxPlayers int                 `json:"maxPlayers" msgpack:"max_players"`
	Timed      bool                `json:"timed" msgpack:"timed"`
	CreatedAt  time.Time           `json:"createdAt" msgpack:"created_at"`
}

// Summary builds the public projection of the room
func (r *Room) Summary() RoomSummary {
	players := make([]RoomSummaryPlayer, len(r.Players))
	for i, p := range r.Players {
		players[i] = RoomSummaryPlayer{
			UserID:      p.Identity.UserID,
			DisplayName: p.Identity.DisplayName,
			Online:      !p.Offline(),
		}
	}
	return RoomSummary{
		Code:       r.Code,
		GameName:   r.GameName,
		Players:    players,
		MaxPlayers: r.MaxPlayers,
		Timed:      r.Timed,
		CreatedAt:  r.CreatedAt,
	}
}
