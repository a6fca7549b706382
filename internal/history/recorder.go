package history

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-netfsm/internal/status"
)

// DefaultBufferSize is the Recorder queue length used when none is given.
const DefaultBufferSize = 64

// writeTimeout bounds a single insert.
const writeTimeout = 5 * time.Second

// Logger is the subset of logging.Logger the Recorder uses.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Recorder queues events and writes them to a Repository in the background.
// Events that arrive while the queue is full are dropped and counted.
type Recorder struct {
	repo   Repository
	logger Logger
	now    func() time.Time

	mu      sync.RWMutex
	closed  bool
	ch      chan *Entry
	done    chan struct{}
	dropped atomic.Int64
}

// NewRecorder starts the background writer. Close must be called to flush
// and stop it.
func NewRecorder(repo Repository, logger Logger, size int) *Recorder {
	if size <= 0 {
		size = DefaultBufferSize
	}
	r := &Recorder{
		repo:   repo,
		logger: logger,
		now:    time.Now,
		ch:     make(chan *Entry, size),
		done:   make(chan struct{}),
	}
	go r.drain()
	return r
}

// Record implements status.Sink. It never blocks.
func (r *Recorder) Record(ev status.Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.dropped.Add(1)
		return
	}

	select {
	case r.ch <- EntryFromEvent(ev, r.now()):
	default:
		r.dropped.Add(1)
		r.logger.Warn("history queue full, dropping transition",
			"cycle_id", ev.CycleID,
			"to", ev.To.String(),
		)
	}
}

// Dropped returns the number of events that were not queued.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Close stops accepting events and waits for queued ones to be written.
// Safe to call more than once.
func (r *Recorder) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.ch)
	}
	r.mu.Unlock()

	<-r.done
}

func (r *Recorder) drain() {
	defer close(r.done)

	for e := range r.ch {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := r.repo.Record(ctx, e)
		cancel()
		if err != nil {
			r.logger.Error("history write failed",
				"cycle_id", e.CycleID,
				"to", e.To,
				"error", err,
			)
		}
	}
}
