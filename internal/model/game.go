package model

import "time"

// MoveParams addresses a move. Variants read the fields they understand:
// a flat Index, an explicit Row/Col pair, or a Column for drop games.
type MoveParams struct {
	Index  *int `json:"index,omitempty" msgpack:"index,omitempty"`
	Row    *int `json:"row,omitempty" msgpack:"row,omitempty"`
	Col    *int `json:"col,omitempty" msgpack:"col,omitempty"`
	Column *int `json:"column,omitempty" msgpack:"column,omitempty"`
}

// MoveResult is the outcome of ApplyMove. Rule violations are reported here, never panicked.
type MoveResult struct {
	Success  bool
	Reason   error  // set when Success is false
	Winner   Marker // set when the move won the game
	IsDraw   bool
	Position Position
}

// Rejected builds a failed MoveResult
func Rejected(reason error) MoveResult {
	return MoveResult{Success: false, Reason: reason}
}

// StateSnapshot is the broadcast-safe projection of a game session
type StateSnapshot struct {
	Game    string         `json:"game"`
	Rows    int            `json:"rows"`
	Cols    int            `json:"cols"`
	Board   []string       `json:"board"`
	Turn    *Marker        `json:"turn"`   // nil once terminal
	Winner  *string        `json:"winner"` // nil, a marker, or "draw"
	Players []PlayerMarker `json:"players"`
}

// IsTerminal returns true when the snapshot has a result
func (s StateSnapshot) IsTerminal() bool {
	return s.Winner != nil
}

// MoveRecord is one entry of the turn timer's append-only move history
type MoveRecord struct {
	PlayerID   UserID     `json:"playerId"`
	Move       MoveParams `json:"move"`
	TurnNumber int        `json:"turnNumber"`
	Timestamp  time.Time  `json:"timestamp"`
}

// TurnTimerState is the full bookkeeping of a turn timer
type TurnTimerState struct {
	TurnNumber    int
	TurnStartedAt time.Time
	Duration      time.Duration
	GracePeriod   time.Duration
	TimeoutCounts map[UserID]int
	IsPaused      bool
	MoveHistory   []MoveRecord
}

// TimerView is the public projection of a turn timer
type TimerView struct {
	CurrentPlayer UserID        `json:"currentPlayer"`
	TurnNumber    int           `json:"turnNumber"`
	IsPaused      bool          `json:"isPaused"`
	Players       []UserID      `json:"players"`
	RemainingTime time.Duration `json:"remainingTime"`
}
