package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mcoot/duoplay/internal/api"
	"github.com/mcoot/duoplay/internal/config"
	"github.com/mcoot/duoplay/internal/dependencies/clock"
	"github.com/mcoot/duoplay/internal/dependencies/random"
	"github.com/mcoot/duoplay/internal/services/auth"
	"github.com/mcoot/duoplay/internal/services/connectfour"
	"github.com/mcoot/duoplay/internal/services/dispatch"
	"github.com/mcoot/duoplay/internal/services/game"
	"github.com/mcoot/duoplay/internal/services/presence"
	"github.com/mcoot/duoplay/internal/services/room"
	"github.com/mcoot/duoplay/internal/services/tictactoe"
	"github.com/mcoot/duoplay/internal/services/turntimer"
	"github.com/mcoot/duoplay/internal/storage"
	"github.com/mcoot/duoplay/internal/storage/memory"
	redisstorage "github.com/mcoot/duoplay/internal/storage/redis"
	"github.com/mcoot/duoplay/internal/ws"
)

// Storage type constants
const (
	StorageTypeMemory = config.StorageTypeMemory
	StorageTypeRedis  = config.StorageTypeRedis
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage
	Mirror  *storage.Mirror

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Games       *game.Registry
	AuthService *auth.Service
	Presence    *presence.Registry
	Rooms       *room.Manager
	Dispatcher  *dispatch.Dispatcher
	Hub         *ws.Hub
	WSHandler   *ws.Handler

	logger *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service; Secret is required
	AuthConfig auth.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the read model backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// MirrorBuffer is the read model write queue length (optional)
	MirrorBuffer int
	// RoomConfig and DispatchConfig default when zero
	RoomConfig     room.Config
	DispatchConfig dispatch.Config
	// AllowedOrigins restricts websocket upgrades (optional)
	AllowedOrigins []string
}

// ConfigFromSettings maps loaded settings onto the factory config
func ConfigFromSettings(c *config.Config, logger *slog.Logger) Config {
	cfg := Config{
		AuthConfig: auth.Config{
			Secret:        c.Auth.Secret,
			Issuer:        c.Auth.Issuer,
			TokenDuration: c.Auth.TokenDuration.Std(),
		},
		Logger:       logger,
		StorageType:  c.Storage.Type,
		MirrorBuffer: c.Storage.MirrorBuffer,
		RoomConfig: room.Config{
			CodeLength:   c.Rooms.CodeLength,
			CodeAttempts: c.Rooms.CodeAttempts,
			OfflineGrace: c.Rooms.OfflineGrace.Std(),
		},
		DispatchConfig: dispatch.Config{
			StartDelay:     c.Game.StartDelay.Std(),
			TimedByDefault: c.Game.TimedByDefault,
			TurnTimer: turntimer.Config{
				Duration:    c.Game.TurnDuration.Std(),
				GracePeriod: c.Game.GracePeriod.Std(),
				MaxTimeouts: c.Game.MaxTimeouts,
			},
			MaxChatLength: c.Game.MaxChatLength,
		},
		AllowedOrigins: c.Server.AllowedOrigins,
	}
	if c.Storage.Type == config.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = c.Storage.RedisURL
		redisCfg.PoolSize = c.Storage.PoolSize
		redisCfg.MinIdleConns = c.Storage.MinIdleConns
		redisCfg.PresenceTTL = c.Storage.PresenceTTL.Std()
		redisCfg.RoomTTL = c.Storage.RoomTTL.Std()
		cfg.RedisConfig = &redisCfg
	}
	return cfg
}

// DefaultGames registers every playable game variant
func DefaultGames() *game.Registry {
	games := game.NewRegistry()
	games.Register(tictactoe.Name, tictactoe.New)
	games.Register(connectfour.Name, connectfour.New)
	return games
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	authCfg := cfg.AuthConfig
	if authCfg.Issuer == "" {
		authCfg.Issuer = auth.DefaultConfig().Issuer
	}
	if authCfg.TokenDuration == 0 {
		authCfg.TokenDuration = auth.DefaultConfig().TokenDuration
	}
	authService, err := auth.New(clk, authCfg)
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}

	return newWithDependencies(cfg, store, clk, rnd, authService, room.NewLoopExecutor, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	cfg Config,
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	authService *auth.Service,
	newExecutor room.ExecutorFactory,
	logger *slog.Logger,
) *App {
	roomCfg := cfg.RoomConfig
	if roomCfg == (room.Config{}) {
		roomCfg = room.DefaultConfig()
	}
	dispatchCfg := cfg.DispatchConfig
	if dispatchCfg == (dispatch.Config{}) {
		dispatchCfg = dispatch.DefaultConfig()
	}

	// Create services
	games := DefaultGames()
	mirror := storage.NewMirror(store, cfg.MirrorBuffer, logger.With(slog.String("component", "mirror")))
	presenceRegistry := presence.NewRegistry(clk, mirror, logger.With(slog.String("component", "presence")))
	rooms := room.NewManager(roomCfg, games, clk, rnd, newExecutor, logger.With(slog.String("component", "room")))
	hub := ws.NewHub(logger)
	dispatcher := dispatch.New(dispatchCfg, rooms, presenceRegistry, hub, mirror, clk, logger)
	wsHandler := ws.NewHandler(hub, dispatcher, clk, cfg.AllowedOrigins, logger)

	return &App{
		Storage:     store,
		Mirror:      mirror,
		Clock:       clk,
		Random:      rnd,
		Games:       games,
		AuthService: authService,
		Presence:    presenceRegistry,
		Rooms:       rooms,
		Dispatcher:  dispatcher,
		Hub:         hub,
		WSHandler:   wsHandler,
		logger:      logger,
	}
}

// Router builds the HTTP surface of the app
func (a *App) Router() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:      a.logger,
		Verifier:    a.AuthService,
		Storage:     a.Storage,
		Games:       a.Games,
		Rooms:       a.Rooms,
		Connections: a.Hub,
		WebSocket:   a.WSHandler,
	})
}

// Close stops rooms, drops connections and flushes the read model
func (a *App) Close() error {
	a.Dispatcher.Shutdown()
	a.Hub.Shutdown()
	a.Mirror.Close()
	if closer, ok := a.Storage.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
