package tracker

import (
	"sort"
	"sync"
	"time"

	"github.com/deskflow/deskflow/internal/category"
	"github.com/deskflow/deskflow/internal/models"
	"github.com/deskflow/deskflow/pkg/window"
)

// DefaultFlushInterval is used when a tracker is built with a non-positive interval.
const DefaultFlushInterval = 5 * time.Second

type entry struct {
	start    time.Time
	lastSeen time.Time
}

// TrackedWindow describes a window with a session currently open.
type TrackedWindow struct {
	window.WindowKey
	Category string    `json:"category"`
	Start    time.Time `json:"start"`
	LastSeen time.Time `json:"last_seen"`
}

// SessionTracker turns periodic window snapshots into finished sessions.
// Each visible window keeps one open entry; the entry is closed when the
// window leaves the snapshot and is split every flush interval while it
// stays visible.
type SessionTracker struct {
	mu            sync.Mutex
	entries       map[window.WindowKey]*entry
	flushInterval time.Duration
	categorizer   *category.Categorizer
}

// NewSessionTracker creates an empty tracker.
func NewSessionTracker(flushInterval time.Duration, categorizer *category.Categorizer) *SessionTracker {
	if flushInterval <= 0 {
		flushInterval = DefaultFlushInterval
	}
	if categorizer == nil {
		categorizer = category.Default()
	}
	return &SessionTracker{
		entries:       make(map[window.WindowKey]*entry),
		flushInterval: flushInterval,
		categorizer:   categorizer,
	}
}

// Reconcile folds one snapshot taken at now into the tracker and returns
// the sessions that finished. A window missing from the snapshot ends at
// the last time it was seen. A window seen for at least the flush interval
// ends at now and a new session starts at now. Inactivity wins over flush.
func (t *SessionTracker) Reconcile(now time.Time, snapshot []window.WindowKey) []models.Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	present := make(map[window.WindowKey]struct{}, len(snapshot))
	for _, key := range snapshot {
		present[key] = struct{}{}
		if e, ok := t.entries[key]; ok {
			e.lastSeen = now
			continue
		}
		t.entries[key] = &entry{start: now, lastSeen: now}
	}

	var finished []models.Session
	for key, e := range t.entries {
		if _, ok := present[key]; !ok {
			finished = append(finished, t.close(key, e.start, e.lastSeen))
			delete(t.entries, key)
			continue
		}

		if elapsed(now, e.start) >= t.flushInterval {
			finished = append(finished, t.close(key, e.start, now))
			e.start = now
			e.lastSeen = now
		}
	}

	sortSessions(finished)
	return finished
}

// Drain closes every open entry at its last-seen time and empties the tracker.
func (t *SessionTracker) Drain() []models.Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	finished := make([]models.Session, 0, len(t.entries))
	for key, e := range t.entries {
		finished = append(finished, t.close(key, e.start, e.lastSeen))
	}
	t.entries = make(map[window.WindowKey]*entry)

	sortSessions(finished)
	return finished
}

// Len returns the number of open entries.
func (t *SessionTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Tracked lists the open entries, oldest first.
func (t *SessionTracker) Tracked() []TrackedWindow {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]TrackedWindow, 0, len(t.entries))
	for key, e := range t.entries {
		out = append(out, TrackedWindow{
			WindowKey: key,
			Category:  t.categorizer.Categorize(key.Title, key.ProcessName),
			Start:     e.start,
			LastSeen:  e.lastSeen,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return lessKey(out[i].WindowKey, out[j].WindowKey)
	})
	return out
}

func (t *SessionTracker) close(key window.WindowKey, start, end time.Time) models.Session {
	cat := t.categorizer.Categorize(key.Title, key.ProcessName)
	return models.NewSession(key.ProcessName, key.Title, cat, start, end)
}

// elapsed saturates at zero so a clock stepping backwards never flushes early.
func elapsed(now, start time.Time) time.Duration {
	d := now.Sub(start)
	if d < 0 {
		return 0
	}
	return d
}

func lessKey(a, b window.WindowKey) bool {
	if a.ProcessName != b.ProcessName {
		return a.ProcessName < b.ProcessName
	}
	return a.Title < b.Title
}

func sortSessions(sessions []models.Session) {
	sort.Slice(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		if !a.StartTime.Equal(b.StartTime) {
			return a.StartTime.Before(b.StartTime)
		}
		if a.AppName != b.AppName {
			return a.AppName < b.AppName
		}
		return a.WindowTitle < b.WindowTitle
	})
}
