package model

import "errors"

// Common errors used across the application
var (
	// Identity errors
	ErrUnauthenticated = errors.New("connection is not authenticated")

	// Room errors
	ErrRoomNotFound          = errors.New("room not found")
	ErrRoomFull              = errors.New("room is full")
	ErrGameMismatch          = errors.New("room is playing a different game")
	ErrAlreadyInRoom         = errors.New("player is already in a room")
	ErrNotAPlayer            = errors.New("player is not a member of this room")
	ErrRoomCreationExhausted = errors.New("could not allocate a unique room code")
	ErrUnknownGame           = errors.New("unknown game")

	// Presence errors
	ErrInvalidPresenceTransition = errors.New("invalid presence transition")
	ErrPresenceNotFound          = errors.New("presence not found")

	// Game errors
	ErrNoSession        = errors.New("no game in progress")
	ErrGameOver         = errors.New("game is already over")
	ErrGameInProgress   = errors.New("game is still in progress")
	ErrNotPlayerTurn    = errors.New("not this player's turn")
	ErrInvalidPosition  = errors.New("invalid board position")
	ErrCellOccupied     = errors.New("cell is already occupied")
	ErrColumnFull       = errors.New("column is full")
	ErrMissingMove      = errors.New("move does not address a cell")
	ErrUnknownPlayer    = errors.New("player is not part of this game")
	ErrNotEnoughPlayers = errors.New("game needs two players")

	// Turn timer errors
	ErrNotTurnHolder = errors.New("player does not hold the turn")
	ErrTimerStopped  = errors.New("turn timer is stopped")

	// Chat errors
	ErrMessageEmpty   = errors.New("message is empty")
	ErrMessageTooLong = errors.New("message is too long")

	// Protocol errors
	ErrMalformedMessage = errors.New("malformed message")
	ErrUnknownMessage   = errors.New("unknown message type")

	// Read model errors
	ErrRoomSummaryNotFound = errors.New("room summary not found")
)
