package ws

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mcoot/duoplay/internal/api/apierr"
	"github.com/mcoot/duoplay/internal/api/middleware"
	"github.com/mcoot/duoplay/internal/dependencies/clock"
	"github.com/mcoot/duoplay/internal/model"
	"github.com/mcoot/duoplay/internal/services/dispatch"
)

// Dispatcher is the part of dispatch.Dispatcher the transport drives
type Dispatcher interface {
	Connect(conn dispatch.Conn)
	Disconnect(conn dispatch.Conn)
	Handle(ctx context.Context, conn dispatch.Conn, raw []byte)
}

// Handler upgrades authenticated requests to websocket sessions.
// It must sit behind middleware.Auth.
type Handler struct {
	hub        *Hub
	dispatcher Dispatcher
	clock      clock.Clock
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

// NewHandler creates a websocket handler. allowedOrigins empty accepts any origin.
func NewHandler(hub *Hub, dispatcher Dispatcher, clk clock.Clock, allowedOrigins []string, logger *slog.Logger) *Handler {
	return &Handler{
		hub:        hub,
		dispatcher: dispatcher,
		clock:      clk,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger.With(slog.String("component", "ws")),
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

// ServeHTTP runs one websocket session to completion
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		apierr.WriteError(w, apierr.NewUnauthorizedError())
		return
	}

	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		h.logger.Warn("ws upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := NewClient(model.ConnectionID(uuid.NewString()), identity, socket, h.clock)
	h.hub.Register(client)
	h.dispatcher.Connect(client.Conn())

	go client.writePump()

	// the request context is cancelled once the handler returns, so the
	// session gets its own
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client.readPump(ctx, h.dispatcher, h.logger)

	h.hub.Unregister(client)
	h.dispatcher.Disconnect(client.Conn())
}
