package response

import (
	"time"

	"github.com/mcoot/duoplay/internal/model"
)

// Identity represents the caller in API responses
type Identity struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// IdentityFromModel converts a model.Identity
func IdentityFromModel(i model.Identity) Identity {
	return Identity{
		UserID:      string(i.UserID),
		DisplayName: i.DisplayName,
	}
}

// RoomPlayer represents a room member
type RoomPlayer struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Online      bool   `json:"online"`
}

// Room represents a room in API responses
type Room struct {
	Code       string       `json:"code"`
	GameName   string       `json:"game_name"`
	Players    []RoomPlayer `json:"players"`
	MaxPlayers int          `json:"max_players"`
	Timed      bool         `json:"timed"`
	Full       bool         `json:"full"`
	CreatedAt  time.Time    `json:"created_at"`
}

// RoomFromModel converts a model.RoomSummary
func RoomFromModel(s model.RoomSummary) Room {
	players := make([]RoomPlayer, len(s.Players))
	for i, p := range s.Players {
		players[i] = RoomPlayer{
			UserID:      string(p.UserID),
			DisplayName: p.DisplayName,
			Online:      p.Online,
		}
	}
	return Room{
		Code:       string(s.Code),
		GameName:   s.GameName,
		Players:    players,
		MaxPlayers: s.MaxPlayers,
		Timed:      s.Timed,
		Full:       len(s.Players) >= s.MaxPlayers,
		CreatedAt:  s.CreatedAt,
	}
}

// RoomList is the response for the room listing
type RoomList struct {
	Rooms []string `json:"rooms"`
}

// Presence represents a presence record
type Presence struct {
	UserID   string    `json:"user_id"`
	Online   bool      `json:"online"`
	RoomCode *string   `json:"room_code"`
	LastSeen time.Time `json:"last_seen"`
}

// PresenceFromModel converts a model.PresenceRecord. The connection ID is never exposed.
func PresenceFromModel(rec model.PresenceRecord) Presence {
	var room *string
	if rec.RoomCode != "" {
		code := string(rec.RoomCode)
		room = &code
	}
	return Presence{
		UserID:   string(rec.UserID),
		Online:   rec.Online,
		RoomCode: room,
		LastSeen: rec.LastSeen,
	}
}

// GameList lists the playable game variants
type GameList struct {
	Games []string `json:"games"`
}

// Health is the health check response
type Health struct {
	Status      string `json:"status"`
	Storage     string `json:"storage"`
	Rooms       int    `json:"rooms"`
	Connections int    `json:"connections"`
}
