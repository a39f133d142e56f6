// Package scheduler drives the extraction pipeline at a fixed period per
// active account. The scheduler object owns its ticker; Start and Stop
// are its only mutators.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/account-explorer/internal/logging"
)

// Runner is the work driven on every tick
type Runner interface {
	Run(ctx context.Context, accountID string)
}

// PollingScheduler re-invokes the runner at a fixed interval for one
// account at a time. Start is idempotent: starting while running cancels
// the existing timer first. Overlapping ticks are skipped rather than
// interleaved; stopping prevents future ticks but does not cancel a
// cycle already in flight.
type PollingScheduler struct {
	runner   Runner
	interval time.Duration
	logger   *logging.Logger

	mu       sync.Mutex
	stopCh   chan struct{}
	doneCh   chan struct{}
	account  string
	inFlight atomic.Bool
}

// New creates a scheduler with the given poll interval
func New(runner Runner, interval time.Duration, logger *logging.Logger) *PollingScheduler {
	return &PollingScheduler{
		runner:   runner,
		interval: interval,
		logger:   logger.WithField("component", "scheduler"),
	}
}

// Start begins polling for the account, running one immediate cycle so
// first data does not wait a full period. Any previously running timer is
// cancelled first.
func (s *PollingScheduler) Start(accountID string) {
	s.Stop()

	s.mu.Lock()
	stopCh := make(chan struct{})
	doneCh := make(chan struct{})
	s.stopCh = stopCh
	s.doneCh = doneCh
	s.account = accountID
	s.mu.Unlock()

	s.logger.WithField("account", accountID).Infof("polling every %s", s.interval)
	go s.loop(accountID, stopCh, doneCh)
}

// Stop cancels the active timer. Safe to call when no timer is active.
// Subsequent ticks never fire once Stop returns.
func (s *PollingScheduler) Stop() {
	s.mu.Lock()
	stopCh := s.stopCh
	doneCh := s.doneCh
	s.stopCh = nil
	s.doneCh = nil
	s.account = ""
	s.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-doneCh
}

// Running reports whether a timer is active
func (s *PollingScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopCh != nil
}

// Account returns the account currently being polled, if any
func (s *PollingScheduler) Account() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.account
}

func (s *PollingScheduler) loop(accountID string, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	s.dispatch(accountID)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.dispatch(accountID)
		case <-stopCh:
			return
		}
	}
}

// dispatch starts one cycle unless the previous one is still running, in
// which case the tick is skipped to keep cycles serialized.
func (s *PollingScheduler) dispatch(accountID string) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.WithField("account", accountID).Warn("previous cycle still in flight, skipping tick")
		return
	}
	go func() {
		defer s.inFlight.Store(false)
		s.runner.Run(context.Background(), accountID)
	}()
}
