package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/mcoot/duoplay/internal/services/dispatch"
)

// ErrEmptyCommand is returned for blank input lines
var ErrEmptyCommand = errors.New("empty command")

const commandHelp = `Commands:
  create <game> [timed|untimed]   create a room
  join <code> [game]              join a room
  leave <code>                    leave a room
  rejoin <code>                   resume a room after reconnecting
  ready <code>                    signal ready to start
  move <code> <index>             claim a cell by index
  move <code> <row> <col>         claim a cell by row and column
  drop <code> <column>            drop a disc into a column
  reset <code>                    start a rematch after the game ends
  chat <code> <message...>        send a chat message
  ping                            check the connection
  {...}                           send a raw JSON envelope`

// ParseCommand turns an interactive input line into a client message
func ParseCommand(line string) ([]byte, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, ErrEmptyCommand
	}
	if strings.HasPrefix(line, "{") {
		var env dispatch.Envelope
		if err := json.Unmarshal([]byte(line), &env); err != nil {
			return nil, fmt.Errorf("invalid JSON envelope: %w", err)
		}
		return []byte(line), nil
	}

	fields := strings.Fields(line)
	verb, args := strings.ToLower(fields[0]), fields[1:]

	switch verb {
	case "create":
		if len(args) < 1 {
			return nil, fmt.Errorf("usage: create <game> [timed|untimed]")
		}
		req := dispatch.CreateRoomRequest{GameName: args[0]}
		if len(args) > 1 {
			timed := args[1] == "timed"
			if !timed && args[1] != "untimed" {
				return nil, fmt.Errorf("expected timed or untimed, got %q", args[1])
			}
			req.Timed = &timed
		}
		return envelope(dispatch.TypeCreateRoom, req)

	case "join":
		if len(args) < 1 {
			return nil, fmt.Errorf("usage: join <code> [game]")
		}
		req := dispatch.JoinRoomRequest{RoomID: args[0]}
		if len(args) > 1 {
			req.GameName = strings.Join(args[1:], " ")
		}
		return envelope(dispatch.TypeJoinRoom, req)

	case "leave", "rejoin", "ready", "reset":
		if len(args) != 1 {
			return nil, fmt.Errorf("usage: %s <code>", verb)
		}
		types := map[string]string{
			"leave":  dispatch.TypeLeaveRoom,
			"rejoin": dispatch.TypeRejoinRoom,
			"ready":  dispatch.TypeGameReady,
			"reset":  dispatch.TypeGameReset,
		}
		return envelope(types[verb], dispatch.RoomRequest{RoomID: args[0]})

	case "move":
		nums, err := ints(args, 1)
		if err != nil || (len(nums) != 1 && len(nums) != 2) {
			return nil, fmt.Errorf("usage: move <code> <index> | move <code> <row> <col>")
		}
		req := dispatch.MoveRequest{RoomID: args[0]}
		if len(nums) == 1 {
			req.Index = &nums[0]
		} else {
			req.Row, req.Col = &nums[0], &nums[1]
		}
		return envelope(dispatch.TypeGameMove, req)

	case "drop":
		nums, err := ints(args, 1)
		if err != nil || len(nums) != 1 {
			return nil, fmt.Errorf("usage: drop <code> <column>")
		}
		return envelope(dispatch.TypeGameMove, dispatch.MoveRequest{RoomID: args[0], Column: &nums[0]})

	case "chat":
		if len(args) < 2 {
			return nil, fmt.Errorf("usage: chat <code> <message...>")
		}
		return envelope(dispatch.TypeChat, dispatch.ChatRequest{RoomID: args[0], Message: strings.Join(args[1:], " ")})

	case "ping":
		return envelope(dispatch.TypePing, nil)

	default:
		return nil, fmt.Errorf("unknown command %q", verb)
	}
}

// envelope wraps a payload with a fresh request ID so acks can be matched
func envelope(msgType string, payload any) ([]byte, error) {
	env := dispatch.Envelope{Type: msgType, RequestID: uuid.NewString()}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		env.Payload = raw
	}
	return json.Marshal(env)
}

// ints parses args[skip:] as integers
func ints(args []string, skip int) ([]int, error) {
	if len(args) <= skip {
		return nil, errors.New("missing arguments")
	}
	out := make([]int, 0, len(args)-skip)
	for _, a := range args[skip:] {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
