package scheduler_test

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/lorrc/helpdesk-backend/internal/core/mocks"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
	"github.com/lorrc/helpdesk-backend/internal/scheduler"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSweepScheduler(t *testing.T) {
	t.Run("first sweep runs immediately on start", func(t *testing.T) {
		sweeper := mocks.NewMockSweepService()
		ran := make(chan struct{}, 1)
		sweeper.On("Sweep", mock.Anything).
			Run(func(mock.Arguments) {
				select {
				case ran <- struct{}{}:
				default:
				}
			}).
			Return(ports.SweepSummary{}, nil)

		sched := scheduler.NewSweepScheduler(sweeper, time.Hour, discardLogger())
		sched.Start()
		defer sched.Stop()

		select {
		case <-ran:
		case <-time.After(2 * time.Second):
			t.Fatal("sweep did not run on start")
		}
	})

	t.Run("ticker triggers repeated sweeps", func(t *testing.T) {
		sweeper := mocks.NewMockSweepService()
		runs := make(chan struct{}, 10)
		sweeper.On("Sweep", mock.Anything).
			Run(func(mock.Arguments) {
				select {
				case runs <- struct{}{}:
				default:
				}
			}).
			Return(ports.SweepSummary{}, nil)

		sched := scheduler.NewSweepScheduler(sweeper, 10*time.Millisecond, discardLogger())
		sched.Start()
		defer sched.Stop()

		for i := 0; i < 3; i++ {
			select {
			case <-runs:
			case <-time.After(2 * time.Second):
				t.Fatalf("expected sweep run %d", i+1)
			}
		}
	})

	t.Run("a failing sweep does not stop the schedule", func(t *testing.T) {
		sweeper := mocks.NewMockSweepService()
		runs := make(chan struct{}, 10)
		sweeper.On("Sweep", mock.Anything).
			Run(func(mock.Arguments) {
				select {
				case runs <- struct{}{}:
				default:
				}
			}).
			Return(ports.SweepSummary{}, errors.New("db down"))

		sched := scheduler.NewSweepScheduler(sweeper, 10*time.Millisecond, discardLogger())
		sched.Start()
		defer sched.Stop()

		for i := 0; i < 2; i++ {
			select {
			case <-runs:
			case <-time.After(2 * time.Second):
				t.Fatal("schedule stopped after a failed sweep")
			}
		}
	})

	t.Run("stop waits for the loop to exit", func(t *testing.T) {
		sweeper := mocks.NewMockSweepService()
		sweeper.On("Sweep", mock.Anything).Return(ports.SweepSummary{}, nil)

		sched := scheduler.NewSweepScheduler(sweeper, time.Hour, discardLogger())
		sched.Start()
		sched.Stop()

		// Stop is idempotent.
		sched.Stop()
	})
}
