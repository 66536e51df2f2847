package ws

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/duoplay/internal/dependencies/clock"
	"github.com/mcoot/duoplay/internal/model"
	"github.com/mcoot/duoplay/internal/services/dispatch"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer
	pongWait = 60 * time.Second

	// Send pings at this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Largest inbound message accepted
	maxMessageSize = 8192

	// Buffer size for outgoing messages
	sendBufferSize = 256
)

// Client is one websocket connection
type Client struct {
	id          model.ConnectionID
	identity    model.Identity
	ws          *websocket.Conn
	clock       clock.Clock
	connectedAt time.Time

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// NewClient wraps an upgraded socket
func NewClient(id model.ConnectionID, identity model.Identity, ws *websocket.Conn, clk clock.Clock) *Client {
	return &Client{
		id:          id,
		identity:    identity,
		ws:          ws,
		clock:       clk,
		connectedAt: clk.Now(),
		send:        make(chan []byte, sendBufferSize),
	}
}

// Conn is the dispatcher's view of the client
func (c *Client) Conn() dispatch.Conn {
	return dispatch.Conn{ID: c.id, Identity: c.identity}
}

func (c *Client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump feeds inbound frames to the dispatcher until the socket fails
func (c *Client) readPump(ctx context.Context, d Dispatcher, logger *slog.Logger) {
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	conn := c.Conn()
	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Warn("ws read error",
					slog.String("conn", string(c.id)),
					slog.String("error", err.Error()))
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}
		d.Handle(ctx, conn, data)
	}
}

// writePump drains the send queue and keeps the socket alive with pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
