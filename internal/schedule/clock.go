package schedule

import (
	"context"
	"sync"
	"time"
)

// #region clock
// Clock abstracts the subset of package time the control loop needs, so
// calibration and session cadence can run against simulated time in tests.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time                         { return time.Now() }
func (wallClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Wall is the real-time Clock.
var Wall Clock = wallClock{}

// #endregion clock

// #region sleep
// Sleep blocks for d on the given clock or until ctx is done.
func Sleep(ctx context.Context, clock Clock, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-clock.After(d):
		return nil
	}
}

// #endregion sleep

// #region simulated
// Simulated is a Clock whose time only moves forward when something waits
// on it. Every After call advances the clock by d and fires immediately.
type Simulated struct {
	mu     sync.Mutex
	now    time.Time
	waited time.Duration
}

// NewSimulated returns a simulated clock starting at start.
func NewSimulated(start time.Time) *Simulated {
	return &Simulated{now: start}
}

func (s *Simulated) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *Simulated) After(d time.Duration) <-chan time.Time {
	s.mu.Lock()
	if d > 0 {
		s.now = s.now.Add(d)
		s.waited += d
	}
	t := s.now
	s.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- t
	return ch
}

// Advance moves the clock forward without anyone waiting.
func (s *Simulated) Advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = s.now.Add(d)
}

// Waited returns the total duration spent in After calls.
func (s *Simulated) Waited() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waited
}

// #endregion simulated
