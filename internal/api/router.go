package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/duoplay/internal/api/handler"
	"github.com/mcoot/duoplay/internal/api/middleware"
	"github.com/mcoot/duoplay/internal/services/auth"
	"github.com/mcoot/duoplay/internal/services/game"
	"github.com/mcoot/duoplay/internal/storage"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	Verifier    auth.Verifier
	Storage     storage.Storage
	Games       *game.Registry
	Rooms       handler.Counter
	Connections handler.Counter
	// WebSocket serves /ws once the caller is authenticated
	WebSocket http.Handler
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	healthHandler := handler.NewHealthHandler(cfg.Storage, cfg.Rooms, cfg.Connections, cfg.Logger)
	roomHandler := handler.NewRoomHandler(cfg.Storage, cfg.Games)
	playerHandler := handler.NewPlayerHandler(cfg.Storage)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.Verifier)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	// Websocket endpoint; unauthenticated handshakes get 401 before upgrade
	if cfg.WebSocket != nil {
		r.Handle("/ws", authMiddleware(cfg.WebSocket)).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api/v1").Subrouter()

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/games", roomHandler.Games).Methods(http.MethodGet)

	// Room routes (all require auth)
	rooms := api.PathPrefix("/rooms").Subrouter()
	rooms.Use(authMiddleware)
	rooms.HandleFunc("", roomHandler.List).Methods(http.MethodGet)
	rooms.HandleFunc("/{code}", roomHandler.Get).Methods(http.MethodGet)

	// Player routes (all require auth)
	players := api.PathPrefix("/players").Subrouter()
	players.Use(authMiddleware)
	players.HandleFunc("/me", playerHandler.GetMe).Methods(http.MethodGet)
	players.HandleFunc("/{id}/presence", playerHandler.GetPresence).Methods(http.MethodGet)

	return r
}
