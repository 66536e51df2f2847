package game

import "github.com/mcoot/duoplay/internal/model"

// Seat is one player's place in a two-player session
type Seat struct {
	Identity model.Identity
	Conn     model.ConnectionID
	Marker   model.Marker
}

// Seats tracks who sits where, which marker each holds and whose turn it is.
// Variants embed it to share the turn bookkeeping.
type Seats struct {
	seats   [2]Seat
	markers [2]model.Marker // markers[0] always moves first
	first   int             // seat holding markers[0]
	turn    int             // seat to move, -1 once the game is over
	started bool
}

// NewSeats creates seats for the given marker pair, first mover first
func NewSeats(firstMarker, secondMarker model.Marker) Seats {
	return Seats{markers: [2]model.Marker{firstMarker, secondMarker}, turn: -1}
}

// Assign seats the players. players[0] takes the first-mover marker.
func (s *Seats) Assign(players [2]model.Identity, conns [2]model.ConnectionID) {
	for i := range s.seats {
		s.seats[i] = Seat{Identity: players[i], Conn: conns[i]}
	}
	s.first = 0
	s.applyMarkers()
	s.turn = s.first
	s.started = true
}

// SwapFirst gives the first-mover marker to the other player and hands them the turn
func (s *Seats) SwapFirst() {
	s.first = 1 - s.first
	s.applyMarkers()
	s.turn = s.first
}

func (s *Seats) applyMarkers() {
	s.seats[s.first].Marker = s.markers[0]
	s.seats[1-s.first].Marker = s.markers[1]
}

// Started reports whether players have been assigned
func (s *Seats) Started() bool {
	return s.started
}

// Turn returns the seat index to move
func (s *Seats) Turn() (int, bool) {
	if s.turn < 0 {
		return -1, false
	}
	return s.turn, true
}

// TurnMarker returns the marker of the player to move, or nil once over
func (s *Seats) TurnMarker() *model.Marker {
	if s.turn < 0 {
		return nil
	}
	m := s.seats[s.turn].Marker
	return &m
}

// Advance passes the turn to the other seat
func (s *Seats) Advance() bool {
	if s.turn < 0 {
		return false
	}
	s.turn = 1 - s.turn
	return true
}

// End marks the game as over
func (s *Seats) End() {
	s.turn = -1
}

// Seat returns a copy of the seat at idx
func (s *Seats) Seat(idx int) Seat {
	return s.seats[idx]
}

// Resolve finds the seat of an actor, preferring the connection
func (s *Seats) Resolve(actor model.Actor) (int, bool) {
	if !s.started {
		return -1, false
	}
	if actor.ConnectionID != "" {
		return s.byConn(actor.ConnectionID)
	}
	return s.byUser(actor.UserID)
}

func (s *Seats) byConn(conn model.ConnectionID) (int, bool) {
	for i, seat := range s.seats {
		if seat.Conn == conn {
			return i, true
		}
	}
	return -1, false
}

func (s *Seats) byUser(userID model.UserID) (int, bool) {
	for i, seat := range s.seats {
		if seat.Identity.UserID == userID {
			return i, true
		}
	}
	return -1, false
}

// MarkerForConn resolves a live connection to its player marker
func (s *Seats) MarkerForConn(conn model.ConnectionID) (model.PlayerMarker, bool) {
	if !s.started || conn == "" {
		return model.PlayerMarker{}, false
	}
	idx, ok := s.byConn(conn)
	if !ok {
		return model.PlayerMarker{}, false
	}
	return s.playerMarker(idx), true
}

// Rebind points the user's seat at a new connection
func (s *Seats) Rebind(userID model.UserID, conn model.ConnectionID) bool {
	if !s.started {
		return false
	}
	idx, ok := s.byUser(userID)
	if !ok {
		return false
	}
	s.seats[idx].Conn = conn
	return true
}

// Current returns the user whose turn it is
func (s *Seats) Current() (model.UserID, bool) {
	if s.turn < 0 {
		return "", false
	}
	return s.seats[s.turn].Identity.UserID, true
}

// Opponent returns the seat index facing userID
func (s *Seats) Opponent(userID model.UserID) (int, bool) {
	idx, ok := s.byUser(userID)
	if !ok {
		return -1, false
	}
	return 1 - idx, true
}

// Players lists both players with their markers, seat order
func (s *Seats) Players() []model.PlayerMarker {
	if !s.started {
		return nil
	}
	return []model.PlayerMarker{s.playerMarker(0), s.playerMarker(1)}
}

func (s *Seats) playerMarker(idx int) model.PlayerMarker {
	seat := s.seats[idx]
	return model.PlayerMarker{
		UserID:      seat.Identity.UserID,
		DisplayName: seat.Identity.DisplayName,
		Marker:      seat.Marker,
	}
}
