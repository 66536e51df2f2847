// Package presence tracks, per identity, the live connection, the room the
// identity belongs to and when it was last seen.
package presence

import (
	"log/slog"
	"sync"

	"github.com/mcoot/duoplay/internal/dependencies/clock"
	"github.com/mcoot/duoplay/internal/model"
)

// Publisher receives a copy of every presence change
type Publisher interface {
	PublishPresence(rec model.PresenceRecord)
}

// Registry is the connection registry. Records live for the process lifetime.
type Registry struct {
	mu        sync.RWMutex
	records   map[model.UserID]*model.PresenceRecord
	clock     clock.Clock
	publisher Publisher
	logger    *slog.Logger
}

// NewRegistry creates an empty registry. publisher may be nil.
func NewRegistry(clock clock.Clock, publisher Publisher, logger *slog.Logger) *Registry {
	return &Registry{
		records:   make(map[model.UserID]*model.PresenceRecord),
		clock:     clock,
		publisher: publisher,
		logger:    logger,
	}
}

// Bind records conn as the user's current connection and marks them online.
// Room membership is left untouched. The replaced connection, if any, is returned.
func (r *Registry) Bind(userID model.UserID, conn model.ConnectionID) model.ConnectionID {
	r.mu.Lock()
	rec := r.recordLocked(userID)
	previous := rec.ConnectionID
	rec.ConnectionID = conn
	rec.Online = true
	rec.LastSeen = r.clock.Now()
	snapshot := *rec
	r.mu.Unlock()

	if previous != "" && previous != conn {
		r.logger.Info("connection superseded",
			slog.String("user", string(userID)),
			slog.String("previous", string(previous)),
			slog.String("conn", string(conn)),
		)
	}
	r.publish(snapshot)
	if previous == conn {
		return ""
	}
	return previous
}

// Unbind marks the user offline and clears the connection, keeping the room
// and last-seen time. It is ignored when conn is no longer current.
func (r *Registry) Unbind(userID model.UserID, conn model.ConnectionID) bool {
	r.mu.Lock()
	rec, ok := r.records[userID]
	if !ok || rec.ConnectionID != conn {
		r.mu.Unlock()
		return false
	}
	rec.ConnectionID = ""
	rec.Online = false
	snapshot := *rec
	r.mu.Unlock()

	r.publish(snapshot)
	return true
}

// Touch refreshes the last-seen time of a user
func (r *Registry) Touch(userID model.UserID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[userID]; ok {
		rec.LastSeen = r.clock.Now()
	}
}

// Lookup returns a copy of the user's record. Not found means never seen.
func (r *Registry) Lookup(userID model.UserID) (model.PresenceRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[userID]
	if !ok {
		return model.PresenceRecord{}, false
	}
	return *rec, true
}

// Current returns the live connection of a user
func (r *Registry) Current(userID model.UserID) (model.ConnectionID, bool) {
	rec, ok := r.Lookup(userID)
	if !ok || rec.ConnectionID == "" {
		return "", false
	}
	return rec.ConnectionID, true
}

// SetRoom records the room the user belongs to
func (r *Registry) SetRoom(userID model.UserID, code model.RoomCode) {
	r.mu.Lock()
	rec := r.recordLocked(userID)
	rec.RoomCode = code
	snapshot := *rec
	r.mu.Unlock()

	r.publish(snapshot)
}

// ClearRoom forgets the user's room if it is still code
func (r *Registry) ClearRoom(userID model.UserID, code model.RoomCode) {
	r.mu.Lock()
	rec, ok := r.records[userID]
	if !ok || rec.RoomCode != code {
		r.mu.Unlock()
		return
	}
	rec.RoomCode = ""
	snapshot := *rec
	r.mu.Unlock()

	r.publish(snapshot)
}

// Count returns the number of users ever seen
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

func (r *Registry) recordLocked(userID model.UserID) *model.PresenceRecord {
	rec, ok := r.records[userID]
	if !ok {
		rec = &model.PresenceRecord{UserID: userID}
		r.records[userID] = rec
	}
	return rec
}

func (r *Registry) publish(rec model.PresenceRecord) {
	if r.publisher != nil {
		r.publisher.PublishPresence(rec)
	}
}
