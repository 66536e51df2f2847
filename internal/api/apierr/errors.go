package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/duoplay/internal/model"
	"github.com/mcoot/duoplay/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes, shared by HTTP responses and websocket error payloads
const (
	CodeInvalidRequest        = "INVALID_REQUEST"
	CodeUnauthorized          = "UNAUTHORIZED"
	CodeRoomNotFound          = "ROOM_NOT_FOUND"
	CodeRoomFull              = "ROOM_FULL"
	CodeGameMismatch          = "GAME_MISMATCH"
	CodeAlreadyInRoom         = "ALREADY_IN_ROOM"
	CodeNotAPlayer            = "NOT_A_PLAYER"
	CodeRoomCreationExhausted = "ROOM_CREATION_EXHAUSTED"
	CodeUnknownGame           = "UNKNOWN_GAME"
	CodeNoGameInProgress      = "NO_GAME_IN_PROGRESS"
	CodeGameOver              = "GAME_OVER"
	CodeGameInProgress        = "GAME_IN_PROGRESS"
	CodeNotYourTurn           = "NOT_YOUR_TURN"
	CodeInvalidPosition       = "INVALID_POSITION"
	CodeCellOccupied          = "CELL_OCCUPIED"
	CodeColumnFull            = "COLUMN_FULL"
	CodeMissingMove           = "MISSING_MOVE"
	CodeUnknownPlayer         = "UNKNOWN_PLAYER"
	CodeInsufficientPlayers   = "INSUFFICIENT_PLAYERS"
	CodeMessageEmpty          = "MESSAGE_EMPTY"
	CodeMessageTooLong        = "MESSAGE_TOO_LONG"
	CodeMalformedMessage      = "MALFORMED_MESSAGE"
	CodeUnknownMessage        = "UNKNOWN_MESSAGE"
	CodePresenceNotFound      = "PRESENCE_NOT_FOUND"
	CodeInternalError         = "INTERNAL_ERROR"
	CodeInvalidPresence       = "INVALID_PRESENCE_TRANSITION"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Describe returns the client-facing code and message for err
func Describe(err error) APIError {
	return toHTTPError(err).apiError
}

// Status returns the HTTP status for err
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrUnauthenticated):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
	case errors.Is(err, model.ErrRoomNotFound), errors.Is(err, model.ErrRoomSummaryNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeRoomNotFound, "Room not found"}}
	case errors.Is(err, model.ErrRoomFull):
		return &httpError{http.StatusConflict, APIError{CodeRoomFull, "Room is full"}}
	case errors.Is(err, model.ErrGameMismatch):
		return &httpError{http.StatusConflict, APIError{CodeGameMismatch, "Room is playing a different game"}}
	case errors.Is(err, model.ErrAlreadyInRoom):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyInRoom, "Already in a room"}}
	case errors.Is(err, model.ErrNotAPlayer):
		return &httpError{http.StatusForbidden, APIError{CodeNotAPlayer, "Not a player in this room"}}
	case errors.Is(err, model.ErrRoomCreationExhausted):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeRoomCreationExhausted, "Could not allocate a room, try again"}}
	case errors.Is(err, model.ErrUnknownGame):
		return &httpError{http.StatusBadRequest, APIError{CodeUnknownGame, "Unknown game"}}
	case errors.Is(err, model.ErrNoSession):
		return &httpError{http.StatusConflict, APIError{CodeNoGameInProgress, "No game in progress"}}
	case errors.Is(err, model.ErrGameOver):
		return &httpError{http.StatusConflict, APIError{CodeGameOver, "Game is already over"}}
	case errors.Is(err, model.ErrGameInProgress):
		return &httpError{http.StatusConflict, APIError{CodeGameInProgress, "Game is in progress"}}
	case errors.Is(err, model.ErrNotPlayerTurn):
		return &httpError{http.StatusForbidden, APIError{CodeNotYourTurn, "Not your turn"}}
	case errors.Is(err, model.ErrInvalidPosition):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidPosition, "Invalid board position"}}
	case errors.Is(err, model.ErrCellOccupied):
		return &httpError{http.StatusConflict, APIError{CodeCellOccupied, "Cell is already occupied"}}
	case errors.Is(err, model.ErrColumnFull):
		return &httpError{http.StatusConflict, APIError{CodeColumnFull, "Column is full"}}
	case errors.Is(err, model.ErrMissingMove):
		return &httpError{http.StatusBadRequest, APIError{CodeMissingMove, "Move must give an index or a row and column"}}
	case errors.Is(err, model.ErrUnknownPlayer):
		return &httpError{http.StatusForbidden, APIError{CodeUnknownPlayer, "Not a player in this game"}}
	case errors.Is(err, model.ErrNotEnoughPlayers):
		return &httpError{http.StatusConflict, APIError{CodeInsufficientPlayers, "Waiting for an opponent"}}
	case errors.Is(err, model.ErrMessageEmpty):
		return &httpError{http.StatusBadRequest, APIError{CodeMessageEmpty, "Message is empty"}}
	case errors.Is(err, model.ErrMessageTooLong):
		return &httpError{http.StatusBadRequest, APIError{CodeMessageTooLong, "Message is too long"}}
	case errors.Is(err, model.ErrMalformedMessage):
		return &httpError{http.StatusBadRequest, APIError{CodeMalformedMessage, "Malformed message"}}
	case errors.Is(err, model.ErrUnknownMessage):
		return &httpError{http.StatusBadRequest, APIError{CodeUnknownMessage, "Unknown message type"}}
	case errors.Is(err, model.ErrPresenceNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePresenceNotFound, "Player has never been seen"}}
	case errors.Is(err, model.ErrInvalidPresenceTransition):
		return &httpError{http.StatusConflict, APIError{CodeInvalidPresence, "Invalid presence transition"}}

	// Map auth errors
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrMissingToken):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or missing token"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
