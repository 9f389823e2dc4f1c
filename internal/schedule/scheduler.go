package schedule

import (
	"context"
	"time"
)

// #region scheduler
// Scheduler produces cycle events at a fixed cadence.
type Scheduler interface {
	// Next blocks until the next cycle is due and returns its tick time.
	Next(ctx context.Context) (time.Time, error)
}

// FixedInterval ticks once per interval, measured from the end of the
// previous wait (sleep-then-poll).
type FixedInterval struct {
	clock    Clock
	interval time.Duration
}

// NewFixedInterval creates a scheduler on the given clock.
func NewFixedInterval(clock Clock, interval time.Duration) *FixedInterval {
	if clock == nil {
		clock = Wall
	}
	return &FixedInterval{clock: clock, interval: interval}
}

// Interval returns the configured cadence.
func (f *FixedInterval) Interval() time.Duration {
	return f.interval
}

func (f *FixedInterval) Next(ctx context.Context) (time.Time, error) {
	if err := Sleep(ctx, f.clock, f.interval); err != nil {
		return time.Time{}, err
	}
	return f.clock.Now(), nil
}

// #endregion scheduler
