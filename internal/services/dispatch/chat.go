package dispatch

import (
	"strings"
	"unicode/utf8"

	"github.com/mcoot/duoplay/internal/model"
	"github.com/mcoot/duoplay/internal/services/room"
)

// ValidateChat trims a chat line and checks its length
func ValidateChat(message string, maxLen int) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", model.ErrMessageEmpty
	}
	if utf8.RuneCountInString(message) > maxLen {
		return "", model.ErrMessageTooLong
	}
	return message, nil
}

func (d *Dispatcher) chat(conn Conn, env Envelope) (model.RoomCode, error) {
	var req ChatRequest
	if err := decode(env, &req); err != nil {
		return "", err
	}
	code := NormalizeCode(req.RoomID)
	message, err := ValidateChat(req.Message, d.cfg.MaxChatLength)
	if err != nil {
		return code, err
	}

	err = d.inRoom(code, func(e *room.Entry) error {
		if _, err := member(e, conn); err != nil {
			return err
		}
		d.broadcast(e, "", model.EventChatMessage, model.ChatPayload{
			RoomID:  code,
			From:    conn.Identity,
			Message: message,
			SentAt:  d.clock.Now(),
		})
		return nil
	})
	return code, err
}
