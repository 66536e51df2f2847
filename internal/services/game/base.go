package game

import "github.com/mcoot/duoplay/internal/model"

// Base carries the board, seats and outcome every variant shares. A variant
// embeds it and supplies only ApplyMove.
type Base struct {
	name   string
	board  *model.Board
	seats  Seats
	winner *string
}

// NewBase creates an unstarted rows x cols session, firstMarker moving first
func NewBase(name string, rows, cols int, firstMarker, secondMarker model.Marker) Base {
	return Base{
		name:  name,
		board: model.NewBoard(rows, cols),
		seats: NewSeats(firstMarker, secondMarker),
	}
}

// Name returns the registry name of the variant
func (b *Base) Name() string {
	return b.name
}

// Board exposes the grid for variant move logic
func (b *Base) Board() *model.Board {
	return b.board
}

// Start seats both players on a cleared board
func (b *Base) Start(players [2]model.Identity, conns [2]model.ConnectionID) model.StateSnapshot {
	b.board.Clear()
	b.winner = nil
	b.seats.Assign(players, conns)
	return b.State()
}

// Mover checks that actor may move now and returns the marker they place
func (b *Base) Mover(actor model.Actor) (model.Marker, error) {
	if !b.seats.Started() {
		return model.MarkerNone, model.ErrNotEnoughPlayers
	}
	if b.winner != nil {
		return model.MarkerNone, model.ErrGameOver
	}
	idx, ok := b.seats.Resolve(actor)
	if !ok {
		return model.MarkerNone, model.ErrUnknownPlayer
	}
	if turn, _ := b.seats.Turn(); turn != idx {
		return model.MarkerNone, model.ErrNotPlayerTurn
	}
	return b.seats.Seat(idx).Marker, nil
}

// Conclude settles a placed move: a line winner or a full board ends the
// game, otherwise the turn passes
func (b *Base) Conclude(pos model.Position, winner model.Marker) model.MoveResult {
	result := model.MoveResult{Success: true, Position: pos}
	switch {
	case winner != model.MarkerNone:
		b.finish(string(winner))
		result.Winner = winner
	case b.board.IsFull():
		b.finish(model.WinnerDraw)
		result.IsDraw = true
	default:
		b.seats.Advance()
	}
	return result
}

func (b *Base) finish(winner string) {
	b.winner = &winner
	b.seats.End()
}

// Reset clears the board and hands the first move to the other player
func (b *Base) Reset() model.StateSnapshot {
	b.board.Clear()
	b.winner = nil
	if b.seats.Started() {
		b.seats.SwapFirst()
	}
	return b.State()
}

// State snapshots the board, turn and result
func (b *Base) State() model.StateSnapshot {
	var winner *string
	if b.winner != nil {
		w := *b.winner
		winner = &w
	}
	return model.StateSnapshot{
		Game:    b.name,
		Rows:    b.board.Rows,
		Cols:    b.board.Cols,
		Board:   b.board.Flat(),
		Turn:    b.seats.TurnMarker(),
		Winner:  winner,
		Players: b.seats.Players(),
	}
}

// PlayerMarkerFor resolves a connection to its seated player
func (b *Base) PlayerMarkerFor(conn model.ConnectionID) (model.PlayerMarker, bool) {
	return b.seats.MarkerForConn(conn)
}

// RebindConnection moves a reconnecting player's seat to conn
func (b *Base) RebindConnection(userID model.UserID, conn model.ConnectionID) bool {
	return b.seats.Rebind(userID, conn)
}

// CurrentPlayer returns the user to move
func (b *Base) CurrentPlayer() (model.UserID, bool) {
	return b.seats.Current()
}

// PassTurn skips the current player
func (b *Base) PassTurn() bool {
	return b.seats.Advance()
}

// Forfeit ends the game in favour of loser's opponent
func (b *Base) Forfeit(loser model.UserID) (model.Marker, bool) {
	if b.winner != nil {
		return model.MarkerNone, false
	}
	idx, ok := b.seats.Opponent(loser)
	if !ok {
		return model.MarkerNone, false
	}
	winner := b.seats.Seat(idx).Marker
	b.finish(string(winner))
	return winner, true
}

// IsTerminal reports whether the game has a result
func (b *Base) IsTerminal() bool {
	return b.winner != nil
}
