package calibration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/acquisition"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/schedule"
)

// #region config
// Config controls the calibration timeline.
type Config struct {
	LeadIn     time.Duration // countdown before the first sample
	Samples    int           // valid samples to collect
	Interval   time.Duration // spacing between samples
	RetryDelay time.Duration // wait after a poll whose window was not full
	Policy     Policy
}

// DefaultConfig returns the 10 s lead-in, 10 x 1 s baseline.
func DefaultConfig() Config {
	return Config{
		LeadIn:     10 * time.Second,
		Samples:    10,
		Interval:   time.Second,
		RetryDelay: 100 * time.Millisecond,
		Policy:     PolicyShared,
	}
}

// #endregion config

// #region sampler
// Sampler yields one resting feature sample for both channels. It returns an
// error wrapping acquisition.ErrInsufficient while the window is filling.
type Sampler interface {
	Sample(ctx context.Context) (Sample, error)
}

// #endregion sampler

// #region calibrator
// Calibrator collects a resting baseline and derives classification thresholds.
type Calibrator struct {
	config Config
	clock  schedule.Clock
	logger *slog.Logger
}

// NewCalibrator creates a calibrator. A nil clock uses wall time and a nil
// logger uses slog.Default().
func NewCalibrator(config Config, clock schedule.Clock, logger *slog.Logger) *Calibrator {
	if clock == nil {
		clock = schedule.Wall
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Calibrator{config: config, clock: clock, logger: logger}
}

// Run performs the countdown and sample collection, then computes the result.
// Polls with an insufficient window are retried after RetryDelay and do not
// count toward the sample total.
func (c *Calibrator) Run(ctx context.Context, sampler Sampler) (Result, error) {
	if c.config.Samples <= 0 {
		return Result{}, fmt.Errorf("calibration: sample count %d must be positive", c.config.Samples)
	}

	if err := c.countdown(ctx); err != nil {
		return Result{}, err
	}

	c.logger.Info("calibration started", "samples", c.config.Samples, "interval", c.config.Interval)

	samples := make([]Sample, 0, c.config.Samples)
	skipped := 0
	wait := c.config.Interval
	for len(samples) < c.config.Samples {
		if err := schedule.Sleep(ctx, c.clock, wait); err != nil {
			return Result{}, err
		}

		s, err := sampler.Sample(ctx)
		if errors.Is(err, acquisition.ErrInsufficient) {
			skipped++
			wait = c.config.RetryDelay
			continue
		}
		if err != nil {
			return Result{}, fmt.Errorf("calibration sample %d: %w", len(samples)+1, err)
		}

		samples = append(samples, s)
		wait = c.config.Interval
		c.logger.Debug("calibration sample",
			"n", len(samples),
			"alpha_l", s.Left.Alpha, "beta_l", s.Left.Beta, "gamma_l", s.Left.Gamma,
			"alpha_r", s.Right.Alpha, "beta_r", s.Right.Beta, "gamma_r", s.Right.Gamma,
		)
	}

	res, err := Compute(samples, c.config.Policy)
	if err != nil {
		return Result{}, err
	}
	res.Skipped = skipped
	res.CompletedAt = c.clock.Now()

	c.logger.Info("calibration complete",
		"policy", res.Policy,
		"skipped", skipped,
		"alpha_drop", res.Thresholds.Left.AlphaDrop,
		"beta_rise", res.Thresholds.Left.BetaRise,
		"gamma_high", res.Thresholds.Left.GammaHigh,
	)
	return res, nil
}

func (c *Calibrator) countdown(ctx context.Context) error {
	for remaining := c.config.LeadIn; remaining > 0; {
		c.logger.Info("relax, calibration begins shortly", "in", remaining)
		step := min(time.Second, remaining)
		if err := schedule.Sleep(ctx, c.clock, step); err != nil {
			return err
		}
		remaining -= step
	}
	return nil
}

// #endregion calibrator
