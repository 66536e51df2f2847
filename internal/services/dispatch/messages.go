package dispatch

import (
	"encoding/json"
	"strings"

	"github.com/mcoot/duoplay/internal/model"
)

// Inbound message types
const (
	TypeCreateRoom = "create-room"
	TypeJoinRoom   = "join-room"
	TypeLeaveRoom  = "leave-room"
	TypeRejoinRoom = "rejoin-room"
	TypeGameReady  = "game:ready"
	TypeGameMove   = "game:move"
	TypeGameReset  = "game:reset"
	TypeChat       = "chat-message"
	TypePing       = "ping"
)

// Envelope is the wire shape of every inbound message
type Envelope struct {
	Type      string          `json:"type"`
	RequestID string          `json:"requestId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// CreateRoomRequest asks for a new room
type CreateRoomRequest struct {
	GameName string `json:"gameName"`
	Timed    *bool  `json:"timed,omitempty"`
}

// JoinRoomRequest asks to join an existing room
type JoinRoomRequest struct {
	RoomID   string `json:"roomId"`
	GameName string `json:"gameName"`
}

// RoomRequest addresses a room the caller belongs to
type RoomRequest struct {
	RoomID string `json:"roomId"`
}

// MoveRequest carries a move. Index, Row/Col and Column are all accepted;
// the game variant decides which it understands.
type MoveRequest struct {
	RoomID string `json:"roomId"`
	Index  *int   `json:"index,omitempty"`
	Row    *int   `json:"row,omitempty"`
	Col    *int   `json:"col,omitempty"`
	Column *int   `json:"column,omitempty"`
}

// Params converts the request into move params
func (r MoveRequest) Params() model.MoveParams {
	return model.MoveParams{Index: r.Index, Row: r.Row, Col: r.Col, Column: r.Column}
}

// ChatRequest carries a chat line to relay
type ChatRequest struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
}

func decode(env Envelope, v any) error {
	if len(env.Payload) == 0 {
		return model.ErrMalformedMessage
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return model.ErrMalformedMessage
	}
	return nil
}

// NormalizeCode upper-cases and trims a client supplied room code
func NormalizeCode(code string) model.RoomCode {
	return model.RoomCode(strings.ToUpper(strings.TrimSpace(code)))
}
