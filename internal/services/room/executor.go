package room

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// ErrExecutorClosed is returned when work is submitted to a destroyed room
var ErrExecutorClosed = errors.New("room executor is closed")

// PanicError is returned by Do when the submitted function panicked
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in room event: %v", e.Value)
}

// Executor serializes every mutation of one room
type Executor interface {
	// Do runs fn on the room's serialized path and waits for it
	Do(fn func()) error
	// Post queues fn without waiting. Used by timers.
	Post(fn func())
	// Close stops accepting work. Safe to call from inside fn.
	Close()
}

// ExecutorFactory builds the executor of a new room
type ExecutorFactory func(code string, logger *slog.Logger) Executor

func runSafely(fn func(), logger *slog.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic in room event",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			err = &PanicError{Value: r}
		}
	}()
	fn()
	return nil
}

type task struct {
	fn   func()
	done chan struct{}
	err  error
}

// loopExecutor runs one goroutine per room draining a mailbox in FIFO order
type loopExecutor struct {
	mailbox   chan *task
	quit      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
	logger    *slog.Logger
}

// MailboxSize is the number of queued events a room buffers
const MailboxSize = 64

// NewLoopExecutor starts a room message loop
func NewLoopExecutor(code string, logger *slog.Logger) Executor {
	l := &loopExecutor{
		mailbox: make(chan *task, MailboxSize),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
		logger:  logger.With(slog.String("room", code)),
	}
	go l.loop()
	return l
}

func (l *loopExecutor) loop() {
	defer close(l.stopped)
	for {
		select {
		case <-l.quit:
			return
		case t := <-l.mailbox:
			t.err = runSafely(t.fn, l.logger)
			if t.done != nil {
				close(t.done)
			}
		}
	}
}

func (l *loopExecutor) Do(fn func()) error {
	t := &task{fn: fn, done: make(chan struct{})}
	select {
	case l.mailbox <- t:
	case <-l.quit:
		return ErrExecutorClosed
	}
	select {
	case <-t.done:
		return t.err
	case <-l.stopped:
		// the loop may have finished t just before exiting
		select {
		case <-t.done:
			return t.err
		default:
			return ErrExecutorClosed
		}
	}
}

func (l *loopExecutor) Post(fn func()) {
	select {
	case l.mailbox <- &task{fn: fn}:
	case <-l.quit:
	}
}

func (l *loopExecutor) Close() {
	l.closeOnce.Do(func() { close(l.quit) })
}

// inlineExecutor runs work on the caller's goroutine behind a mutex.
// Timer posts run synchronously, which keeps tests on a mock clock deterministic.
type inlineExecutor struct {
	mu     sync.Mutex
	closed atomic.Bool
	logger *slog.Logger
}

// NewInlineExecutor creates a mutex-guarded executor
func NewInlineExecutor(code string, logger *slog.Logger) Executor {
	return &inlineExecutor{logger: logger.With(slog.String("room", code))}
}

func (e *inlineExecutor) Do(fn func()) error {
	if e.closed.Load() {
		return ErrExecutorClosed
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed.Load() {
		return ErrExecutorClosed
	}
	return runSafely(fn, e.logger)
}

func (e *inlineExecutor) Post(fn func()) {
	_ = e.Do(fn)
}

func (e *inlineExecutor) Close() {
	e.closed.Store(true)
}
