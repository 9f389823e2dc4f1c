package schedule

import (
	"context"
	"errors"
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFixedIntervalAdvancesSimulatedTime(t *testing.T) {
	clock := NewSimulated(epoch)
	s := NewFixedInterval(clock, time.Second)

	for i := 1; i <= 3; i++ {
		tick, err := s.Next(context.Background())
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		want := epoch.Add(time.Duration(i) * time.Second)
		if !tick.Equal(want) {
			t.Fatalf("tick %d: expected %v, got %v", i, want, tick)
		}
	}
	if clock.Waited() != 3*time.Second {
		t.Errorf("expected 3s waited, got %v", clock.Waited())
	}
}

func TestFixedIntervalCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewFixedInterval(NewSimulated(epoch), time.Second)
	if _, err := s.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSleepZeroDuration(t *testing.T) {
	clock := NewSimulated(epoch)
	if err := Sleep(context.Background(), clock, 0); err != nil {
		t.Fatalf("Sleep: %v", err)
	}
	if !clock.Now().Equal(epoch) {
		t.Error("zero sleep should not move the clock")
	}
}

func TestSimulatedAdvance(t *testing.T) {
	clock := NewSimulated(epoch)
	clock.Advance(1500 * time.Millisecond)
	if got := clock.Now().Sub(epoch); got != 1500*time.Millisecond {
		t.Errorf("expected 1.5s, got %v", got)
	}
	if clock.Waited() != 0 {
		t.Error("Advance should not count as waiting")
	}
}
