// Package scheduler runs the sync cycle on a fixed interval and on demand.
// Both paths share the same cycle logic behind a single execution token, so
// two cycles can never run concurrently: a timer tick or manual trigger that
// arrives while a cycle is in flight is skipped, and the next tick retries.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/dvloznov/budget-sync/internal/logger"
)

// CycleFunc is one full sync cycle. An error means the cycle aborted early;
// it is logged here and never propagated further.
type CycleFunc func(ctx context.Context) error

// Scheduler serializes cycle executions behind a mutex token.
type Scheduler struct {
	cycle    CycleFunc
	interval time.Duration

	// token is the single-flight guard; whoever holds it owns the only
	// running cycle.
	token sync.Mutex

	mu      sync.Mutex
	baseCtx context.Context
	closed  bool

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates a scheduler for the given cycle and interval.
func New(cycle CycleFunc, interval time.Duration) *Scheduler {
	return &Scheduler{
		cycle:    cycle,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the interval loop and runs one cycle immediately. The given
// context is also the base context for on-demand triggers, so cancelling it
// stops everything.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		log := logger.FromContext(ctx)
		log.Info().Dur("interval", s.interval).Msg("Scheduler started")

		// Run once on startup.
		s.runGuarded(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			case <-ticker.C:
				s.runGuarded(ctx)
			}
		}
	}()
}

// TryRun triggers a cycle on demand. It returns false without running when a
// cycle is already in flight or the scheduler is stopped; the caller decides
// how to report the rejection. The cycle runs in the background against the
// scheduler's base context, not the trigger's.
func (s *Scheduler) TryRun() bool {
	s.mu.Lock()
	ctx := s.baseCtx
	closed := s.closed
	s.mu.Unlock()

	if closed || ctx == nil {
		return false
	}
	if !s.token.TryLock() {
		return false
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.token.Unlock()
		s.execute(ctx)
	}()
	return true
}

// runGuarded runs one cycle from the interval loop, skipping the tick when a
// manually triggered cycle still holds the token.
func (s *Scheduler) runGuarded(ctx context.Context) {
	if !s.token.TryLock() {
		log := logger.FromContext(ctx)
		log.Info().Msg("Previous cycle still running, skipping tick")
		return
	}
	defer s.token.Unlock()
	s.execute(ctx)
}

// execute runs the cycle with the token held. Panics and errors are
// contained here; the process must stay live for the next cycle regardless
// of this one's outcome.
func (s *Scheduler) execute(ctx context.Context) {
	log := logger.FromContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Sync cycle panicked")
		}
	}()

	if err := s.cycle(ctx); err != nil {
		log.Error().Err(err).Msg("Sync cycle failed")
	}
}

// Stop rejects new triggers and waits for an in-flight cycle to finish, or
// for the context to expire, whichever comes first.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.stopCh)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
