// Package connectfour implements the 6x7 drop variant
package connectfour

import (
	"github.com/mcoot/duoplay/internal/model"
	"github.com/mcoot/duoplay/internal/services/board"
	"github.com/mcoot/duoplay/internal/services/game"
)

const (
	// Name is the registry name of the variant
	Name = "Connect Four"

	Rows    = 6
	Cols    = 7
	LineLen = 4
)

// Session is a connect-four game. Red moves first.
type Session struct {
	game.Base
}

var _ game.Session = (*Session)(nil)

// New creates an unstarted session
func New() game.Session {
	return &Session{Base: game.NewBase(Name, Rows, Cols, model.MarkerRed, model.MarkerYellow)}
}

// column reads the target column; a flat index is accepted as a column for
// clients that only send index
func column(params model.MoveParams) (int, error) {
	switch {
	case params.Column != nil:
		return *params.Column, nil
	case params.Col != nil:
		return *params.Col, nil
	case params.Index != nil:
		return *params.Index, nil
	}
	return 0, model.ErrMissingMove
}

// ApplyMove drops the mover's disc into the requested column
func (s *Session) ApplyMove(actor model.Actor, params model.MoveParams) model.MoveResult {
	marker, err := s.Mover(actor)
	if err != nil {
		return model.Rejected(err)
	}

	col, err := column(params)
	if err != nil {
		return model.Rejected(err)
	}
	row, err := board.DropRow(s.Board(), col)
	if err != nil {
		return model.Rejected(err)
	}

	pos := model.Position{Row: row, Col: col}
	s.Board().Set(pos, marker)
	winner, _ := board.LineThrough(s.Board(), pos, LineLen)
	return s.Conclude(pos, winner)
}
