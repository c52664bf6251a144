package engine

import (
	"sync"
	"time"
)

// Scheduler models the host's display-refresh primitive: a callback is
// requested once per refresh opportunity and re-requested at the end of each
// invocation. There is never a free-running timer behind playback; when the
// controller stops re-requesting, the chain is broken and no further tick runs.
type Scheduler interface {
	// Request schedules fn to run once at the next refresh opportunity.
	// The returned cancel func deterministically prevents that invocation;
	// cancelling an already-fired request is a no-op.
	Request(fn func()) (cancel func())
}

// TimerScheduler is a Scheduler backed by a wall-clock refresh interval,
// e.g. 60 Hz for a typical display.
type TimerScheduler struct {
	interval time.Duration
}

// NewTimerScheduler returns a scheduler firing at the given refresh rate.
// A rate <= 0 defaults to 60 Hz.
func NewTimerScheduler(refreshHz float64) *TimerScheduler {
	if refreshHz <= 0 {
		refreshHz = 60
	}
	return &TimerScheduler{interval: time.Duration(float64(time.Second) / refreshHz)}
}

// Request implements Scheduler using time.AfterFunc.
func (s *TimerScheduler) Request(fn func()) func() {
	t := time.AfterFunc(s.interval, fn)
	return func() { t.Stop() }
}

// ManualScheduler is a test scheduler; pending callbacks run only when the
// test pumps Fire.
type ManualScheduler struct {
	mu      sync.Mutex
	pending func()
}

// NewManualScheduler returns an empty manual scheduler.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// Request implements Scheduler. Only one request may be pending at a time,
// matching the re-request-at-end-of-tick contract; cancelling clears whatever
// is pending.
func (s *ManualScheduler) Request(fn func()) func() {
	s.mu.Lock()
	s.pending = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.pending = nil
		s.mu.Unlock()
	}
}

// Fire runs the pending callback, if any, and reports whether one ran.
func (s *ManualScheduler) Fire() bool {
	s.mu.Lock()
	fn := s.pending
	s.pending = nil
	s.mu.Unlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}

// Pending reports whether a callback is waiting for the next opportunity.
func (s *ManualScheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}
