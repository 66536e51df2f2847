package model

import "time"

// EventType identifies an outbound message
type EventType string

const (
	// Room events
	EventRoomCreated     EventType = "room-created"
	EventRoomJoined      EventType = "room-joined"
	EventPlayerJoined    EventType = "player-joined"
	EventPlayerLeft      EventType = "player-left"
	EventPlayerOffline   EventType = "player-offline"
	EventPlayerRejoined  EventType = "player-rejoined"
	EventRoomNotFound    EventType = "room-not-found"
	EventRoomFull        EventType = "room-full"
	EventRoomError       EventType = "room-error"
	EventSessionReplaced EventType = "session-replaced"

	// Game events
	EventGameStart        EventType = "game:start"
	EventGameUpdate       EventType = "game:update"
	EventGameOver         EventType = "game:over"
	EventGameDraw         EventType = "game:draw"
	EventGameSync         EventType = "game:sync"
	EventGameOpponentLeft EventType = "game:opponent_left"
	EventGameError        EventType = "game:error"

	// Turn timer events
	EventTurnStarted  EventType = "turn-started"
	EventTurnTimeout  EventType = "turn-timeout"
	EventGameForfeit  EventType = "game-forfeit"
	EventTimerPaused  EventType = "timer-paused"
	EventTimerResumed EventType = "timer-resumed"

	// Relay and protocol events
	EventChatMessage EventType = "chat-message"
	EventAck         EventType = "ack"
	EventPong        EventType = "pong"
)

// Event is one outbound message
type Event struct {
	Type      EventType `json:"type"`
	RequestID string    `json:"requestId,omitempty"`
	Payload   any       `json:"payload,omitempty"`
}

// NewEvent builds an Event
func NewEvent(t EventType, payload any) Event {
	return Event{Type: t, Payload: payload}
}

// AckPayload answers a request that carried a request ID
type AckPayload struct {
	OK     bool     `json:"ok"`
	RoomID RoomCode `json:"roomId,omitempty"`
	Error  string   `json:"error,omitempty"`
	Code   string   `json:"code,omitempty"`
}

// ErrorPayload is sent with room-error, game:error, room-not-found and room-full
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RoomPayload carries the public room view for room-created and room-joined
type RoomPayload struct {
	RoomID RoomCode    `json:"roomId"`
	Room   RoomSummary `json:"room"`
}

// PlayerPayload identifies the member a presence or membership event is about
type PlayerPayload struct {
	RoomID      RoomCode `json:"roomId"`
	UserID      UserID   `json:"userId"`
	DisplayName string   `json:"displayName"`
}

// GameStartPayload contains data for game:start
type GameStartPayload struct {
	Players []PlayerMarker `json:"players"`
	Board   []string       `json:"board"`
	Turn    *Marker        `json:"turn"`
	Game    string         `json:"game"`
	Rows    int            `json:"rows"`
	Cols    int            `json:"cols"`
}

// GameUpdatePayload contains data for game:update
type GameUpdatePayload struct {
	Board    []string `json:"board"`
	Turn     *Marker  `json:"turn"`
	LastMove Position `json:"lastMove"`
}

// GameOverPayload contains data for game:over
type GameOverPayload struct {
	Winner string   `json:"winner"`
	Board  []string `json:"board"`
	Reason string   `json:"reason,omitempty"` // "forfeit" when ended by timeouts
}

// GameDrawPayload contains data for game:draw
type GameDrawPayload struct {
	Board []string `json:"board"`
}

// GameSyncPayload is replayed to a rejoining connection only
type GameSyncPayload struct {
	RoomID  RoomCode       `json:"roomId"`
	Room    RoomSummary    `json:"room"`
	Board   []string       `json:"board,omitempty"`
	Turn    *Marker        `json:"turn"`
	Players []PlayerMarker `json:"players,omitempty"`
	Winner  *string        `json:"winner"`
	Timer   *TimerPayload  `json:"timer,omitempty"`
}

// MessagePayload is a plain notice
type MessagePayload struct {
	Message string `json:"message"`
}

// TimerPayload is the public turn timer view
type TimerPayload struct {
	CurrentPlayer UserID   `json:"currentPlayer"`
	TurnNumber    int      `json:"turnNumber"`
	IsPaused      bool     `json:"isPaused"`
	Players       []UserID `json:"players"`
	RemainingMs   int64    `json:"remainingMs"`
}

// TimerPayloadFrom converts a TimerView for the wire
func TimerPayloadFrom(v TimerView) *TimerPayload {
	return &TimerPayload{
		CurrentPlayer: v.CurrentPlayer,
		TurnNumber:    v.TurnNumber,
		IsPaused:      v.IsPaused,
		Players:       v.Players,
		RemainingMs:   v.RemainingTime.Milliseconds(),
	}
}

// TurnStartedPayload contains data for turn-started
type TurnStartedPayload struct {
	Player     UserID `json:"player"`
	TurnNumber int    `json:"turnNumber"`
	DurationMs int64  `json:"duration"`
}

// TurnTimeoutPayload contains data for turn-timeout
type TurnTimeoutPayload struct {
	Player       UserID `json:"player"`
	TurnNumber   int    `json:"turnNumber"`
	TimeoutCount int    `json:"timeoutCount"`
	MaxTimeouts  int    `json:"maxTimeouts"`
}

// ForfeitPayload contains data for game-forfeit
type ForfeitPayload struct {
	Player UserID `json:"player"`
	Winner string `json:"winner"`
}

// ChatPayload is a relayed chat message
type ChatPayload struct {
	RoomID  RoomCode  `json:"roomId"`
	From    Identity  `json:"from"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sentAt"`
}
