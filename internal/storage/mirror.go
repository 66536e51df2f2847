package storage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/duoplay/internal/model"
)

// DefaultMirrorBuffer is the number of pending writes the mirror holds
const DefaultMirrorBuffer = 256

type mirrorOp struct {
	name string
	key  string
	run  func(ctx context.Context, s Storage) error
}

// Mirror copies presence and room changes into the read model from a
// single background goroutine. Publishing never blocks; when the buffer is
// full the write is dropped.
type Mirror struct {
	store   Storage
	ops     chan mirrorOp
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewMirror creates a mirror and starts its writer
func NewMirror(store Storage, buffer int, logger *slog.Logger) *Mirror {
	if buffer <= 0 {
		buffer = DefaultMirrorBuffer
	}
	m := &Mirror{
		store:   store,
		ops:     make(chan mirrorOp, buffer),
		timeout: 2 * time.Second,
		logger:  logger,
	}
	m.wg.Add(1)
	go m.run()
	return m
}

func (m *Mirror) run() {
	defer m.wg.Done()
	for op := range m.ops {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		if err := op.run(ctx, m.store); err != nil {
			m.logger.Warn("read model write failed",
				slog.String("op", op.name),
				slog.String("key", op.key),
				slog.String("error", err.Error()),
			)
		}
		cancel()
	}
}

func (m *Mirror) enqueue(op mirrorOp) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return
	}
	select {
	case m.ops <- op:
	default:
		m.logger.Warn("read model buffer full, dropping write",
			slog.String("op", op.name),
			slog.String("key", op.key),
		)
	}
}

// PublishPresence mirrors a presence record
func (m *Mirror) PublishPresence(rec model.PresenceRecord) {
	m.enqueue(mirrorOp{
		name: "save_presence",
		key:  string(rec.UserID),
		run: func(ctx context.Context, s Storage) error {
			return s.SavePresence(ctx, rec)
		},
	})
}

// PublishRoom mirrors a room summary
func (m *Mirror) PublishRoom(summary model.RoomSummary) {
	m.enqueue(mirrorOp{
		name: "save_room",
		key:  string(summary.Code),
		run: func(ctx context.Context, s Storage) error {
			return s.SaveRoomSummary(ctx, summary)
		},
	})
}

// RemoveRoom deletes a destroyed room from the read model
func (m *Mirror) RemoveRoom(code model.RoomCode) {
	m.enqueue(mirrorOp{
		name: "delete_room",
		key:  string(code),
		run: func(ctx context.Context, s Storage) error {
			return s.DeleteRoomSummary(ctx, code)
		},
	})
}

// Close stops accepting writes and waits for the queue to drain
func (m *Mirror) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	close(m.ops)
	m.mu.Unlock()
	m.wg.Wait()
}
