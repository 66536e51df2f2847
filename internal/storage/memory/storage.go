package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mcoot/duoplay/internal/model"
	"github.com/mcoot/duoplay/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	presence map[model.UserID]model.PresenceRecord
	rooms    map[model.RoomCode]model.RoomSummary
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		presence: make(map[model.UserID]model.PresenceRecord),
		rooms:    make(map[model.RoomCode]model.RoomSummary),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Presence operations

func (s *Storage) SavePresence(ctx context.Context, rec model.PresenceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presence[rec.UserID] = rec
	return nil
}

func (s *Storage) GetPresence(ctx context.Context, userID model.UserID) (*model.PresenceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.presence[userID]
	if !ok {
		return nil, model.ErrPresenceNotFound
	}
	return &rec, nil
}

// Room summary operations

func (s *Storage) SaveRoomSummary(ctx context.Context, summary model.RoomSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	summary.Players = append([]model.RoomSummaryPlayer(nil), summary.Players...)
	s.rooms[summary.Code] = summary
	return nil
}

func (s *Storage) GetRoomSummary(ctx context.Context, code model.RoomCode) (*model.RoomSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summary, ok := s.rooms[code]
	if !ok {
		return nil, model.ErrRoomSummaryNotFound
	}
	summary.Players = append([]model.RoomSummaryPlayer(nil), summary.Players...)
	return &summary, nil
}

func (s *Storage) DeleteRoomSummary(ctx context.Context, code model.RoomCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, code)
	return nil
}

func (s *Storage) ListRoomCodes(ctx context.Context) ([]model.RoomCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	codes := make([]model.RoomCode, 0, len(s.rooms))
	for code := range s.rooms {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return nil
}
