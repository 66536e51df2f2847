// Package game defines the contract every two-player game variant
// implements and the registry the room layer uses to create sessions by name.
package game

import "github.com/mcoot/duoplay/internal/model"

// Session is a single game instance bound to a room. Sessions are not safe
// for concurrent use; callers serialize access per room.
type Session interface {
	// Name returns the registry name of the variant
	Name() string

	// Start assigns markers to the two players and returns the opening state.
	// players[0] moves first on a fresh session.
	Start(players [2]model.Identity, conns [2]model.ConnectionID) model.StateSnapshot

	// ApplyMove validates and applies a move. Rule violations are reported
	// in the result and leave the state untouched.
	ApplyMove(actor model.Actor, params model.MoveParams) model.MoveResult

	// Reset clears the board and swaps which player moves first
	Reset() model.StateSnapshot

	// State returns the current snapshot
	State() model.StateSnapshot

	// PlayerMarkerFor resolves a live connection to the player's marker
	PlayerMarkerFor(conn model.ConnectionID) (model.PlayerMarker, bool)

	// RebindConnection points a player's seat at a new connection.
	// Returns false if the user has no seat.
	RebindConnection(userID model.UserID, conn model.ConnectionID) bool

	// CurrentPlayer returns the player whose turn it is, if the game is live
	CurrentPlayer() (model.UserID, bool)

	// PassTurn hands the turn to the opponent without a move
	PassTurn() bool

	// Forfeit ends the game with loser's opponent as the winner
	Forfeit(loser model.UserID) (model.Marker, bool)

	// IsTerminal reports whether the game has a winner or a draw
	IsTerminal() bool
}
