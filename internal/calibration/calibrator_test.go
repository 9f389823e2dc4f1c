package calibration

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/acquisition"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/schedule"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/spectral"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// #region mock
// scriptedSampler returns errs[i] on the i-th call when set, otherwise a
// sample whose left alpha counts the successful calls.
type scriptedSampler struct {
	calls int
	ok    int
	errs  map[int]error
}

func (s *scriptedSampler) Sample(_ context.Context) (Sample, error) {
	s.calls++
	if err, found := s.errs[s.calls]; found {
		return Sample{}, err
	}
	s.ok++
	v := float64(s.ok) / 10
	return Sample{
		Left:  spectral.RelativePowers{Alpha: v, Beta: 0.2, Gamma: 0.1},
		Right: spectral.RelativePowers{Alpha: v, Beta: 0.2, Gamma: 0.1},
	}, nil
}

// #endregion mock

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.LeadIn = 3 * time.Second
	return cfg
}

func TestRunCollectsExactlyN(t *testing.T) {
	clock := schedule.NewSimulated(epoch)
	c := NewCalibrator(testConfig(), clock, nil)
	s := &scriptedSampler{}

	res, err := c.Run(context.Background(), s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.calls != 10 || res.Samples != 10 {
		t.Fatalf("expected 10 calls and samples, got %d/%d", s.calls, res.Samples)
	}
	if !approx(res.Baseline.Left.Alpha.Mean, 0.55) {
		t.Errorf("expected mean 0.55, got %f", res.Baseline.Left.Alpha.Mean)
	}
	// 3 s lead-in + 10 x 1 s
	if clock.Waited() != 13*time.Second {
		t.Errorf("expected 13s elapsed, got %v", clock.Waited())
	}
	if !res.CompletedAt.Equal(epoch.Add(13 * time.Second)) {
		t.Errorf("unexpected completion time %v", res.CompletedAt)
	}
}

func TestRunSkipsInsufficientWindows(t *testing.T) {
	clock := schedule.NewSimulated(epoch)
	c := NewCalibrator(testConfig(), clock, nil)
	insufficient := fmt.Errorf("%w: C3", acquisition.ErrInsufficient)
	s := &scriptedSampler{errs: map[int]error{1: insufficient, 2: insufficient, 5: insufficient}}

	res, err := c.Run(context.Background(), s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Samples != 10 {
		t.Fatalf("expected 10 valid samples, got %d", res.Samples)
	}
	if res.Skipped != 3 {
		t.Errorf("expected 3 skipped polls, got %d", res.Skipped)
	}
	if s.calls != 13 {
		t.Errorf("expected 13 polls, got %d", s.calls)
	}
	// skipped polls wait only the retry delay before the next attempt
	want := 3*time.Second + 10*time.Second + 3*100*time.Millisecond
	if clock.Waited() != want {
		t.Errorf("expected %v elapsed, got %v", want, clock.Waited())
	}
}

func TestRunAbortsOnFatalSourceError(t *testing.T) {
	c := NewCalibrator(testConfig(), schedule.NewSimulated(epoch), nil)
	boom := errors.New("board unplugged")
	s := &scriptedSampler{errs: map[int]error{4: boom}}

	_, err := c.Run(context.Background(), s)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped source error, got %v", err)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewCalibrator(testConfig(), schedule.NewSimulated(epoch), nil)
	_, err := c.Run(ctx, &scriptedSampler{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRunRejectsZeroSamples(t *testing.T) {
	cfg := testConfig()
	cfg.Samples = 0
	c := NewCalibrator(cfg, schedule.NewSimulated(epoch), nil)
	if _, err := c.Run(context.Background(), &scriptedSampler{}); err == nil {
		t.Fatal("expected error for zero sample count")
	}
}
