package history

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/gray-logic-netfsm/internal/netfsm"
)

type fakeLogger struct {
	mu     sync.Mutex
	warns  []string
	errors []string
}

func (l *fakeLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *fakeLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

// gatedRepo blocks each Record until release is closed.
type gatedRepo struct {
	started chan struct{}
	release chan struct{}
	err     error

	mu      sync.Mutex
	entries []Entry
}

func newGatedRepo() *gatedRepo {
	return &gatedRepo{
		started: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

func (r *gatedRepo) Record(_ context.Context, e *Entry) error {
	r.started <- struct{}{}
	<-r.release
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *e)
	return r.err
}

func (r *gatedRepo) ListCycle(context.Context, string) ([]Entry, error) { return nil, nil }
func (r *gatedRepo) ListRecent(context.Context, int) ([]Entry, error)   { return nil, nil }
func (r *gatedRepo) Prune(context.Context, time.Time) (int64, error)    { return 0, nil }

func (r *gatedRepo) recorded() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

func TestRecorderWritesInOrder(t *testing.T) {
	repo := newGatedRepo()
	close(repo.release)
	rec := NewRecorder(repo, &fakeLogger{}, 8)

	rec.Record(event("c1", netfsm.StateIdle, netfsm.StateWifiConnecting, netfsm.ReasonNone, 1))
	rec.Record(event("c1", netfsm.StateWifiConnecting, netfsm.StateWifiConnected, netfsm.ReasonNone, 1))
	rec.Close()

	got := repo.recorded()
	require.Len(t, got, 2)
	assert.Equal(t, "wifi_connecting", got[0].To)
	assert.Equal(t, "wifi_connected", got[1].To)
	assert.Zero(t, rec.Dropped())
}

func TestRecorderDropsWhenFull(t *testing.T) {
	repo := newGatedRepo()
	logger := &fakeLogger{}
	rec := NewRecorder(repo, logger, 1)

	rec.Record(event("c1", netfsm.StateIdle, netfsm.StateWifiConnecting, netfsm.ReasonNone, 1))
	<-repo.started // writer holds the first entry

	rec.Record(event("c1", netfsm.StateWifiConnecting, netfsm.StateWifiConnected, netfsm.ReasonNone, 1))
	rec.Record(event("c1", netfsm.StateWifiConnected, netfsm.StateMqttConnecting, netfsm.ReasonNone, 1))

	assert.Equal(t, int64(1), rec.Dropped())

	close(repo.release)
	rec.Close()

	assert.Len(t, repo.recorded(), 2)
	assert.Equal(t, []string{"history queue full, dropping transition"}, logger.warns)
}

func TestRecorderAfterClose(t *testing.T) {
	repo := newGatedRepo()
	close(repo.release)
	rec := NewRecorder(repo, &fakeLogger{}, 0)

	rec.Close()
	rec.Close()
	rec.Record(event("c1", netfsm.StateIdle, netfsm.StateWifiConnecting, netfsm.ReasonNone, 1))

	assert.Empty(t, repo.recorded())
	assert.Equal(t, int64(1), rec.Dropped())
}

func TestRecorderLogsWriteErrors(t *testing.T) {
	repo := newGatedRepo()
	repo.err = errors.New("disk full")
	close(repo.release)
	logger := &fakeLogger{}
	rec := NewRecorder(repo, logger, 4)

	rec.Record(event("c1", netfsm.StateIdle, netfsm.StateWifiConnecting, netfsm.ReasonNone, 1))
	rec.Close()

	assert.Equal(t, []string{"history write failed"}, logger.errors)
}
