package calibration

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/spectral"
)

// ErrNotEnoughSamples is returned when statistics are requested over no samples.
var ErrNotEnoughSamples = errors.New("calibration: no samples")

// #region compute
// Compute derives the baseline and thresholds from resting samples using the
// population mean and standard deviation.
func Compute(samples []Sample, policy Policy) (Result, error) {
	if len(samples) == 0 {
		return Result{}, ErrNotEnoughSamples
	}
	if policy == "" {
		policy = PolicyShared
	}

	left := make([]spectral.RelativePowers, len(samples))
	right := make([]spectral.RelativePowers, len(samples))
	for i, s := range samples {
		left[i] = s.Left
		right[i] = s.Right
	}
	base := Baseline{
		Left:  sideStatistics(left),
		Right: sideStatistics(right),
	}

	th, err := deriveSides(base, policy)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Baseline:   base,
		Thresholds: th,
		Policy:     policy,
		Samples:    len(samples),
	}, nil
}

// #endregion compute

// #region derive
// DeriveThresholds maps one side's statistics to thresholds.
func DeriveThresholds(s BandStatistics) Thresholds {
	return Thresholds{
		AlphaDrop: s.Alpha.Std,
		BetaRise:  s.Beta.Std,
		GammaHigh: s.Gamma.Mean + GammaStdMultiplier*s.Gamma.Std,
	}
}

func deriveSides(base Baseline, policy Policy) (SideThresholds, error) {
	switch policy {
	case PolicyShared:
		shared := DeriveThresholds(base.Left)
		return SideThresholds{Left: shared, Right: shared}, nil
	case PolicyPerSide:
		return SideThresholds{
			Left:  DeriveThresholds(base.Left),
			Right: DeriveThresholds(base.Right),
		}, nil
	default:
		return SideThresholds{}, fmt.Errorf("unknown threshold policy %q", policy)
	}
}

// Rederive returns a copy of r with thresholds recomputed under policy.
// The baseline itself is unchanged.
func Rederive(r Result, policy Policy) (Result, error) {
	if policy == "" {
		policy = PolicyShared
	}
	th, err := deriveSides(r.Baseline, policy)
	if err != nil {
		return Result{}, err
	}
	r.Thresholds = th
	r.Policy = policy
	return r, nil
}

// #endregion derive

// #region helpers
func sideStatistics(xs []spectral.RelativePowers) BandStatistics {
	alpha := make([]float64, len(xs))
	beta := make([]float64, len(xs))
	gamma := make([]float64, len(xs))
	for i, x := range xs {
		alpha[i], beta[i], gamma[i] = x.Alpha, x.Beta, x.Gamma
	}
	return BandStatistics{
		Alpha: moments(alpha),
		Beta:  moments(beta),
		Gamma: moments(gamma),
	}
}

func moments(x []float64) Moments {
	mean, std := stat.PopMeanStdDev(x, nil)
	return Moments{Mean: mean, Std: std}
}

// #endregion helpers
