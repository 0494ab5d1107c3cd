package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lorrc/helpdesk-backend/internal/core/ports"
)

// SweepScheduler drives the SLA sweep on a fixed cadence. One run executes
// immediately on Start, then the ticker takes over. Runs never overlap:
// the loop waits for each pass to finish before the next tick is consumed.
type SweepScheduler struct {
	sweeper  ports.SweepService
	interval time.Duration
	logger   *slog.Logger

	stop     chan struct{}
	done     chan struct{}
	startMu  sync.Mutex
	started  bool
}

// NewSweepScheduler creates a scheduler for the given sweep service.
func NewSweepScheduler(sweeper ports.SweepService, interval time.Duration, logger *slog.Logger) *SweepScheduler {
	return &SweepScheduler{
		sweeper:  sweeper,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the scheduling loop in its own goroutine.
func (s *SweepScheduler) Start() {
	s.startMu.Lock()
	defer s.startMu.Unlock()
	if s.started {
		return
	}
	s.started = true

	go s.run()
}

func (s *SweepScheduler) run() {
	defer close(s.done)

	s.logger.Info("sla sweep scheduler started", "interval", s.interval.String())
	s.runOnce()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runOnce()
		case <-s.stop:
			s.logger.Info("sla sweep scheduler stopped")
			return
		}
	}
}

// runOnce executes a single sweep pass. A panic or error is logged and
// absorbed so the process and the schedule survive until the next tick.
func (s *SweepScheduler) runOnce() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("sla sweep panicked", "panic", r)
		}
	}()

	ctx := context.Background()
	if _, err := s.sweeper.Sweep(ctx); err != nil {
		s.logger.Error("sla sweep failed", "error", err)
	}
}

// Stop signals the loop to exit and waits for the in-flight pass to finish.
func (s *SweepScheduler) Stop() {
	s.startMu.Lock()
	defer s.startMu.Unlock()
	if !s.started {
		return
	}

	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	<-s.done
}
