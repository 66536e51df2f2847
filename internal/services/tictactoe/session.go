// Package tictactoe implements the 3x3 game variant
package tictactoe

import (
	"github.com/mcoot/duoplay/internal/model"
	"github.com/mcoot/duoplay/internal/services/board"
	"github.com/mcoot/duoplay/internal/services/game"
)

const (
	// Name is the registry name of the variant
	Name = "Tic Tac Toe"

	Size = 3
)

// Session is a tic-tac-toe game. X always moves first; Reset hands X to the other player.
type Session struct {
	game.Base
}

var _ game.Session = (*Session)(nil)

// New creates an unstarted session
func New() game.Session {
	return &Session{Base: game.NewBase(Name, Size, Size, model.MarkerX, model.MarkerO)}
}

// ApplyMove places the mover's marker on the addressed cell
func (s *Session) ApplyMove(actor model.Actor, params model.MoveParams) model.MoveResult {
	marker, err := s.Mover(actor)
	if err != nil {
		return model.Rejected(err)
	}

	pos, err := board.ResolvePosition(s.Board(), params)
	if err != nil {
		return model.Rejected(err)
	}
	if err := board.ValidatePlacement(s.Board(), pos); err != nil {
		return model.Rejected(err)
	}

	s.Board().Set(pos, marker)
	winner, _ := board.FindLine(s.Board(), Size)
	return s.Conclude(pos, winner)
}
