// Package room owns the set of active rooms, their membership and the game
// session each one hosts.
package room

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/mcoot/duoplay/internal/dependencies/clock"
	"github.com/mcoot/duoplay/internal/dependencies/random"
	"github.com/mcoot/duoplay/internal/model"
	"github.com/mcoot/duoplay/internal/services/game"
)

const (
	// CodeLength is the length of generated room codes
	CodeLength = 6
	// CodeAlphabet is the characters used in room codes (avoid confusing chars)
	CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// Config controls room allocation and cleanup
type Config struct {
	CodeLength   int
	CodeAttempts int
	OfflineGrace time.Duration
	MaxPlayers   int
}

// DefaultConfig returns the standard room settings
func DefaultConfig() Config {
	return Config{
		CodeLength:   CodeLength,
		CodeAttempts: 10,
		OfflineGrace: 10 * time.Minute,
		MaxPlayers:   model.DefaultMaxPlayers,
	}
}

// CreateOptions are per-room choices made by the creator
type CreateOptions struct {
	Timed bool
}

// Manager holds the room code to room mapping. The map is guarded by mu;
// the contents of each room are only touched on that room's executor.
type Manager struct {
	mu          sync.RWMutex
	rooms       map[model.RoomCode]*Entry
	games       *game.Registry
	clock       clock.Clock
	random      random.Random
	newExecutor ExecutorFactory
	cfg         Config
	logger      *slog.Logger
}

// NewManager creates a room manager. A nil factory gives every room its own message loop.
func NewManager(
	cfg Config,
	games *game.Registry,
	clock clock.Clock,
	random random.Random,
	newExecutor ExecutorFactory,
	logger *slog.Logger,
) *Manager {
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = CodeLength
	}
	if cfg.CodeAttempts <= 0 {
		cfg.CodeAttempts = 1
	}
	if cfg.MaxPlayers <= 0 {
		cfg.MaxPlayers = model.DefaultMaxPlayers
	}
	if newExecutor == nil {
		newExecutor = NewLoopExecutor
	}
	return &Manager{
		rooms:       make(map[model.RoomCode]*Entry),
		games:       games,
		clock:       clock,
		random:      random,
		newExecutor: newExecutor,
		cfg:         cfg,
		logger:      logger,
	}
}

// CreateRoom allocates a room with creator as its first player
func (m *Manager) CreateRoom(gameName string, creator model.Identity, conn model.ConnectionID, opts CreateOptions) (*Entry, error) {
	canonical, ok := m.games.Canonical(gameName)
	if !ok {
		return nil, model.ErrUnknownGame
	}

	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Generate unique room code
	var code model.RoomCode
	for attempt := 0; ; attempt++ {
		if attempt == m.cfg.CodeAttempts {
			m.logger.Warn("room code space exhausted", slog.Int("attempts", attempt))
			return nil, model.ErrRoomCreationExhausted
		}
		code = model.RoomCode(m.random.String(m.cfg.CodeLength, CodeAlphabet))
		if _, exists := m.rooms[code]; !exists {
			break
		}
	}

	r := &model.Room{
		Code:       code,
		GameName:   canonical,
		MaxPlayers: m.cfg.MaxPlayers,
		Timed:      opts.Timed,
		Players: []model.RoomPlayer{{
			Identity:     creator,
			ConnectionID: conn,
			Presence:     model.PresenceOnline,
			LastSeen:     now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	e := &Entry{
		Room:    r,
		manager: m,
		exec:    m.newExecutor(string(code), m.logger),
		ready:   make(map[model.UserID]bool),
	}
	m.rooms[code] = e

	m.logger.Info("room created",
		slog.String("room", string(code)),
		slog.String("game", canonical),
		slog.String("creator", string(creator.UserID)),
	)
	return e, nil
}

// Get returns the entry for code
func (m *Manager) Get(code model.RoomCode) (*Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.rooms[code]
	return e, ok
}

// Exec runs fn on the room's executor. It fails with ErrRoomNotFound when
// the room does not exist or was destroyed before fn got its turn.
func (m *Manager) Exec(code model.RoomCode, fn func(e *Entry)) error {
	e, ok := m.Get(code)
	if !ok {
		return model.ErrRoomNotFound
	}
	gone := false
	err := e.exec.Do(func() {
		if e.destroyed {
			gone = true
			return
		}
		fn(e)
	})
	if gone || errors.Is(err, ErrExecutorClosed) {
		return model.ErrRoomNotFound
	}
	return err
}

// Destroy removes the room, stops its timers and closes its executor.
// Call it from the room's executor.
func (m *Manager) Destroy(code model.RoomCode) bool {
	m.mu.Lock()
	e, ok := m.rooms[code]
	if ok {
		delete(m.rooms, code)
	}
	m.mu.Unlock()
	if !ok {
		return false
	}

	e.destroyed = true
	e.cancelCleanup()
	e.discardSession()
	e.exec.Close()

	m.logger.Info("room destroyed", slog.String("room", string(code)))
	return true
}

// ScheduleCleanup arms the offline grace period. When it fires the room is
// destroyed only if every player is still offline; onDestroy then runs on
// the room's executor.
func (m *Manager) ScheduleCleanup(e *Entry, onDestroy func(e *Entry)) {
	e.cancelCleanup()
	e.cleanup = m.clock.AfterFunc(m.cfg.OfflineGrace, func() {
		e.exec.Post(func() {
			if e.destroyed {
				return
			}
			e.cleanup = nil
			if m.CleanupIfAbandoned(e) && onDestroy != nil {
				onDestroy(e)
			}
		})
	})
	m.logger.Info("room cleanup scheduled",
		slog.String("room", string(e.Room.Code)),
		slog.Duration("grace", m.cfg.OfflineGrace),
	)
}

// CleanupIfAbandoned destroys the room if all its players are offline
func (m *Manager) CleanupIfAbandoned(e *Entry) bool {
	if !e.Room.AllOffline() {
		return false
	}
	return m.Destroy(e.Room.Code)
}

// Count returns the number of live rooms
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// Codes lists the live room codes, sorted
func (m *Manager) Codes() []model.RoomCode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	codes := make([]model.RoomCode, 0, len(m.rooms))
	for code := range m.rooms {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// Shutdown destroys every room
func (m *Manager) Shutdown() {
	for _, code := range m.Codes() {
		_ = m.Exec(code, func(e *Entry) {
			m.Destroy(e.Room.Code)
		})
	}
}
