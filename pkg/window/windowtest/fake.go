// Package windowtest provides a scripted window.Lister for tests.
package windowtest

import (
	"sync"

	"github.com/deskflow/deskflow/pkg/window"
)

// Frame is one scripted reply of a Lister.
type Frame struct {
	Windows []window.WindowKey
	Err     error
}

// Lister replays frames in order; once exhausted it keeps returning the last one.
type Lister struct {
	mu     sync.Mutex
	frames []Frame
	calls  int
	Active *window.WindowInfo
	closed bool
}

var _ window.Lister = (*Lister)(nil)

// New returns a Lister that replays frames.
func New(frames ...Frame) *Lister {
	return &Lister{frames: frames}
}

// Push appends frames to the script.
func (l *Lister) Push(frames ...Frame) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frames = append(l.frames, frames...)
}

func (l *Lister) VisibleWindows() ([]window.WindowKey, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.frames) == 0 {
		l.calls++
		return nil, nil
	}
	idx := l.calls
	if idx >= len(l.frames) {
		idx = len(l.frames) - 1
	}
	l.calls++
	f := l.frames[idx]
	return append([]window.WindowKey(nil), f.Windows...), f.Err
}

// Calls reports how many times VisibleWindows has been invoked.
func (l *Lister) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func (l *Lister) ActiveWindow() (*window.WindowInfo, error) {
	return l.Active, nil
}

func (l *Lister) IsAvailable() bool { return true }

func (l *Lister) DisplayServer() string { return "fake" }

func (l *Lister) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

// Closed reports whether Close was called.
func (l *Lister) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}
