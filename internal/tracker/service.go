package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/deskflow/deskflow/internal/category"
	"github.com/deskflow/deskflow/internal/config"
	"github.com/deskflow/deskflow/internal/models"
	"github.com/deskflow/deskflow/pkg/window"
)

// Error sources recorded in the error log.
const (
	SourceSnapshot = "snapshot"
	SourceSink     = "sink"
)

// SessionSink receives finished sessions and tick-loop failures.
type SessionSink interface {
	AppendSession(session *models.Session) error
	CreateErrorLog(errorLog *models.ErrorLog) error
}

// Service drives the session tracker from a periodic tick.
type Service struct {
	config  *config.Config
	sink    SessionSink
	lister  window.Lister
	tracker *SessionTracker
	logger  *log.Logger

	// Now and NewTicker are swapped out by tests.
	Now       func() time.Time
	NewTicker func(d time.Duration) (<-chan time.Time, func())

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
}

// NewService wires a tracker service. A nil categorizer uses the built-in rules.
func NewService(cfg *config.Config, sink SessionSink, lister window.Lister, categorizer *category.Categorizer, logger *log.Logger) *Service {
	return &Service{
		config:    cfg,
		sink:      sink,
		lister:    lister,
		tracker:   NewSessionTracker(cfg.Tracker.FlushInterval, categorizer),
		logger:    logger,
		Now:       time.Now,
		NewTicker: systemTicker,
	}
}

func systemTicker(d time.Duration) (<-chan time.Time, func()) {
	ticker := time.NewTicker(d)
	return ticker.C, ticker.Stop
}

// Start runs the tick loop until ctx is done or Stop is called. Open
// sessions are drained and persisted before it returns.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("tracker is already running")
	}
	s.running = true
	s.stopChan = make(chan struct{})
	stopChan := s.stopChan
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	s.logger.Info("starting tracker",
		"tick", s.config.Tracker.TickPeriod,
		"flush", s.config.Tracker.FlushInterval,
		"display", s.lister.DisplayServer())

	ticks, stopTicker := s.NewTicker(s.config.Tracker.TickPeriod)
	defer stopTicker()

	s.Tick()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("tracker stopped by context")
			s.drain()
			return ctx.Err()

		case <-stopChan:
			s.logger.Info("tracker stopped")
			s.drain()
			return nil

		case <-ticks:
			s.Tick()
		}
	}
}

// Stop ends a running Start loop. It is safe to call more than once.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.stopChan == nil {
		return
	}
	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}
}

func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Tick takes one snapshot, reconciles it and persists the finished
// sessions. It returns how many sessions were persisted.
func (s *Service) Tick() int {
	now := s.Now().Truncate(time.Second)

	snapshot, err := s.lister.VisibleWindows()
	if err != nil {
		// Treat a failed snapshot as "nothing visible" so open sessions close.
		s.storeError(SourceSnapshot, fmt.Errorf("failed to list windows: %w", err))
		snapshot = nil
	}

	finished := s.tracker.Reconcile(now, snapshot)
	stored := s.persist(finished)
	if stored > 0 {
		s.logger.Debug("sessions flushed", "count", stored, "open", s.tracker.Len())
	}
	return stored
}

func (s *Service) drain() {
	finished := s.tracker.Drain()
	if n := s.persist(finished); n > 0 {
		s.logger.Info("drained open sessions", "count", n)
	}
}

func (s *Service) persist(sessions []models.Session) int {
	stored := 0
	for i := range sessions {
		session := sessions[i]
		if err := s.sink.AppendSession(&session); err != nil {
			s.storeError(SourceSink, fmt.Errorf("failed to save session %s (%s): %w",
				session.ID, session.AppName, err))
			continue
		}
		stored++
	}
	return stored
}

func (s *Service) storeError(source string, err error) {
	errorLog := &models.ErrorLog{
		Timestamp: s.Now(),
		Source:    source,
		ErrorMsg:  err.Error(),
	}

	if dbErr := s.sink.CreateErrorLog(errorLog); dbErr != nil {
		s.logger.Error("failed to store error in database", "err", dbErr, "original", err)
	} else {
		s.logger.Warn("error logged to database", "source", source, "err", err)
	}
}

// Tracked lists the windows with an open session.
func (s *Service) Tracked() []TrackedWindow {
	return s.tracker.Tracked()
}

// GetCurrentWindow returns the focused window as reported by the lister.
func (s *Service) GetCurrentWindow() (*window.WindowInfo, error) {
	info, err := s.lister.ActiveWindow()
	if err != nil {
		return nil, fmt.Errorf("failed to get active window: %w", err)
	}
	return info, nil
}
