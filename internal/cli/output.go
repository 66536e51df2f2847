package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format, w: os.Stdout}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

// PrintEvent outputs a server event. JSON output is one event per line.
func (o *Output) PrintEvent(evt ServerEvent, view *boardView) {
	if o.format == "json" {
		data, _ := json.Marshal(evt)
		fmt.Fprintln(o.w, string(data))
		return
	}

	timestamp := time.Now().Format("15:04:05")
	payload := strings.ReplaceAll(string(evt.Payload), "\n", " ")
	if len(payload) > 120 {
		payload = payload[:120] + "..."
	}
	fmt.Fprintf(o.w, "[%s] %s %s\n", timestamp, evt.Type, payload)

	var board BoardPayload
	if len(evt.Payload) == 0 || json.Unmarshal(evt.Payload, &board) != nil || len(board.Board) == 0 {
		return
	}
	if board.Cols > 0 {
		view.cols = board.Cols
	}
	o.printBoard(board.Board, view.columnsFor(len(board.Board)))
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Identity:
		o.printIdentity(v)
	case TokenResult:
		o.printTokenResult(v)
	case Room:
		o.printRoom(v)
	case RoomList:
		o.printRoomList(v)
	case Presence:
		o.printPresence(v)
	case GameList:
		fmt.Fprintf(o.w, "Games: %s\n", strings.Join(v.Games, ", "))
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Identity response type (matches API)
type Identity struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// TokenResult is a freshly minted token
type TokenResult struct {
	Identity  Identity  `json:"identity"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RoomPlayer response type
type RoomPlayer struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Online      bool   `json:"online"`
}

// Room response type
type Room struct {
	Code       string       `json:"code"`
	GameName   string       `json:"game_name"`
	Players    []RoomPlayer `json:"players"`
	MaxPlayers int          `json:"max_players"`
	Timed      bool         `json:"timed"`
	Full       bool         `json:"full"`
	CreatedAt  time.Time    `json:"created_at"`
}

// RoomList response type
type RoomList struct {
	Rooms []string `json:"rooms"`
}

// Presence response type
type Presence struct {
	UserID   string    `json:"user_id"`
	Online   bool      `json:"online"`
	RoomCode *string   `json:"room_code"`
	LastSeen time.Time `json:"last_seen"`
}

// GameList response type
type GameList struct {
	Games []string `json:"games"`
}

// HealthResult response type
type HealthResult struct {
	Status      string `json:"status"`
	Storage     string `json:"storage"`
	Rooms       int    `json:"rooms"`
	Connections int    `json:"connections"`
	WebSocket   string `json:"websocket,omitempty"`
}

// BoardPayload picks the board out of any game event
type BoardPayload struct {
	Board []string `json:"board"`
	Cols  int      `json:"cols"`
}

// boardView remembers the board width announced by game:start
type boardView struct {
	cols int
}

func (v *boardView) columnsFor(cells int) int {
	if v.cols > 0 && cells%v.cols == 0 {
		return v.cols
	}
	switch cells {
	case 9:
		return 3
	case 42:
		return 7
	}
	return cells
}

func (o *Output) printIdentity(i Identity) {
	fmt.Fprintf(o.w, "Player: %s (%s)\n", i.DisplayName, i.UserID)
}

func (o *Output) printTokenResult(t TokenResult) {
	o.printIdentity(t.Identity)
	fmt.Fprintf(o.w, "Token: %s\n", t.Token)
	fmt.Fprintf(o.w, "Expires: %s\n", t.ExpiresAt.Format(time.RFC3339))
}

func (o *Output) printRoom(r Room) {
	fmt.Fprintf(o.w, "Room: %s\n", r.Code)
	fmt.Fprintf(o.w, "Game: %s\n", r.GameName)
	fmt.Fprintf(o.w, "Timed: %t\n", r.Timed)
	fmt.Fprintf(o.w, "Players (%d/%d):\n", len(r.Players), r.MaxPlayers)
	for _, p := range r.Players {
		status := "online"
		if !p.Online {
			status = "offline"
		}
		fmt.Fprintf(o.w, "  - %s (%s) - %s\n", p.DisplayName, p.UserID, status)
	}
}

func (o *Output) printRoomList(l RoomList) {
	if len(l.Rooms) == 0 {
		fmt.Fprintln(o.w, "No open rooms")
		return
	}
	for _, code := range l.Rooms {
		fmt.Fprintln(o.w, code)
	}
}

func (o *Output) printPresence(p Presence) {
	status := "offline"
	if p.Online {
		status = "online"
	}
	fmt.Fprintf(o.w, "Player: %s\n", p.UserID)
	fmt.Fprintf(o.w, "Status: %s\n", status)
	if p.RoomCode != nil {
		fmt.Fprintf(o.w, "Room: %s\n", *p.RoomCode)
	}
	fmt.Fprintf(o.w, "Last seen: %s\n", p.LastSeen.Format(time.RFC3339))
}

func (o *Output) printBoard(cells []string, cols int) {
	if cols <= 0 {
		return
	}
	rows := len(cells) / cols

	// Print column headers
	fmt.Fprint(o.w, "    ")
	for col := 0; col < cols; col++ {
		fmt.Fprintf(o.w, " %d ", col)
	}
	fmt.Fprintln(o.w)

	// Print top border
	fmt.Fprint(o.w, "   +")
	for col := 0; col < cols; col++ {
		fmt.Fprint(o.w, "---")
	}
	fmt.Fprintln(o.w, "+")

	// Print rows
	for row := 0; row < rows; row++ {
		fmt.Fprintf(o.w, " %d |", row)
		for col := 0; col < cols; col++ {
			cell := cells[row*cols+col]
			if cell == "" {
				fmt.Fprint(o.w, " . ")
			} else {
				fmt.Fprintf(o.w, " %s ", cell)
			}
		}
		fmt.Fprintln(o.w, "|")
	}

	// Print bottom border
	fmt.Fprint(o.w, "   +")
	for col := 0; col < cols; col++ {
		fmt.Fprint(o.w, "---")
	}
	fmt.Fprintln(o.w, "+")
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	fmt.Fprintf(o.w, "Storage: %s\n", h.Storage)
	fmt.Fprintf(o.w, "Rooms: %d\n", h.Rooms)
	fmt.Fprintf(o.w, "Connections: %d\n", h.Connections)
	if h.WebSocket != "" {
		fmt.Fprintf(o.w, "WebSocket: %s\n", h.WebSocket)
	}
}
