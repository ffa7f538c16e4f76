package tracker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskflow/deskflow/internal/config"
	"github.com/deskflow/deskflow/internal/logging"
	"github.com/deskflow/deskflow/internal/models"
	"github.com/deskflow/deskflow/pkg/window"
	"github.com/deskflow/deskflow/pkg/window/windowtest"
)

type memSink struct {
	mu        sync.Mutex
	sessions  []models.Session
	errs      []models.ErrorLog
	appendErr error
}

func (m *memSink) AppendSession(s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.sessions = append(m.sessions, *s)
	return nil
}

func (m *memSink) CreateErrorLog(e *models.ErrorLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, *e)
	return nil
}

func (m *memSink) Sessions() []models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Session(nil), m.sessions...)
}

func (m *memSink) Errors() []models.ErrorLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ErrorLog(nil), m.errs...)
}

// steppingClock returns t0, t0+1s, t0+2s, ... on successive calls.
func steppingClock() func() time.Time {
	var n atomic.Int64
	return func() time.Time {
		return at(int(n.Add(1) - 1))
	}
}

func newTestService(sink SessionSink, lister window.Lister) *Service {
	svc := NewService(config.Default(), sink, lister, nil, logging.Discard())
	svc.Now = steppingClock()
	return svc
}

func TestTickPersistsFinishedSessions(t *testing.T) {
	lister := windowtest.New(
		windowtest.Frame{Windows: []window.WindowKey{editor}},
		windowtest.Frame{Windows: []window.WindowKey{editor}},
		windowtest.Frame{},
	)
	sink := &memSink{}
	svc := newTestService(sink, lister)

	assert.Equal(t, 0, svc.Tick())
	assert.Equal(t, 0, svc.Tick())
	assert.Equal(t, 1, svc.Tick())

	sessions := sink.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, at(0), sessions[0].StartTime)
	assert.Equal(t, at(1), sessions[0].EndTime)
	assert.Equal(t, "Work", sessions[0].Category)
	assert.Empty(t, sink.Errors())
}

func TestTickSnapshotErrorClosesSessions(t *testing.T) {
	lister := windowtest.New(
		windowtest.Frame{Windows: []window.WindowKey{player}},
		windowtest.Frame{Err: errors.New("display went away")},
	)
	sink := &memSink{}
	svc := newTestService(sink, lister)

	svc.Tick()
	assert.Equal(t, 1, svc.Tick())

	errs := sink.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, SourceSnapshot, errs[0].Source)
	assert.Contains(t, errs[0].ErrorMsg, "display went away")
	assert.Len(t, sink.Sessions(), 1)
}

func TestTickSinkErrorIsRecorded(t *testing.T) {
	lister := windowtest.New(
		windowtest.Frame{Windows: []window.WindowKey{player}},
		windowtest.Frame{},
	)
	sink := &memSink{appendErr: errors.New("disk full")}
	svc := newTestService(sink, lister)

	svc.Tick()
	assert.Equal(t, 0, svc.Tick())

	errs := sink.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, SourceSink, errs[0].Source)
	assert.Contains(t, errs[0].ErrorMsg, "disk full")
	assert.Contains(t, errs[0].ErrorMsg, "spotify")
}

func TestTickTruncatesToSeconds(t *testing.T) {
	lister := windowtest.New(
		windowtest.Frame{Windows: []window.WindowKey{editor}},
		windowtest.Frame{},
	)
	sink := &memSink{}
	svc := newTestService(sink, lister)
	svc.Now = func() time.Time { return t0.Add(750 * time.Millisecond) }

	svc.Tick()
	svc.Tick()

	sessions := sink.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, t0, sessions[0].StartTime)
}

type manualTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time)}
}

func (m *manualTicker) New(time.Duration) (<-chan time.Time, func()) {
	return m.ch, func() { m.stopped.Store(true) }
}

func TestStartStopDrains(t *testing.T) {
	lister := windowtest.New(windowtest.Frame{Windows: []window.WindowKey{editor}})
	sink := &memSink{}
	svc := newTestService(sink, lister)
	ticker := newManualTicker()
	svc.NewTicker = ticker.New

	done := make(chan error, 1)
	go func() { done <- svc.Start(context.Background()) }()

	// The immediate tick runs at t0; six more follow.
	for i := 0; i < 6; i++ {
		ticker.ch <- time.Time{}
	}
	require.True(t, svc.IsRunning())
	svc.Stop()
	svc.Stop()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("tracker did not stop")
	}

	assert.False(t, svc.IsRunning())
	assert.True(t, ticker.stopped.Load())
	assert.Equal(t, 7, lister.Calls())

	sessions := sink.Sessions()
	require.Len(t, sessions, 2)
	assert.Equal(t, at(0), sessions[0].StartTime)
	assert.Equal(t, at(5), sessions[0].EndTime)
	assert.Equal(t, at(5), sessions[1].StartTime)
	assert.Equal(t, at(6), sessions[1].EndTime)
}

func TestStartContextCancel(t *testing.T) {
	lister := windowtest.New(windowtest.Frame{Windows: []window.WindowKey{player}})
	sink := &memSink{}
	svc := newTestService(sink, lister)
	ticker := newManualTicker()
	svc.NewTicker = ticker.New

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Start(ctx) }()

	ticker.ch <- time.Time{}
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("tracker did not stop")
	}

	sessions := sink.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, at(0), sessions[0].StartTime)
	assert.Equal(t, at(1), sessions[0].EndTime)
}

func TestStartTwice(t *testing.T) {
	svc := newTestService(&memSink{}, windowtest.New())
	ticker := newManualTicker()
	svc.NewTicker = ticker.New

	done := make(chan error, 1)
	go func() { done <- svc.Start(context.Background()) }()
	ticker.ch <- time.Time{}

	assert.Error(t, svc.Start(context.Background()))

	svc.Stop()
	<-done
}

func TestGetCurrentWindow(t *testing.T) {
	lister := windowtest.New()
	lister.Active = &window.WindowInfo{WindowKey: editor, AppName: "Code"}
	svc := newTestService(&memSink{}, lister)

	info, err := svc.GetCurrentWindow()
	require.NoError(t, err)
	assert.Equal(t, editor, info.WindowKey)
}
