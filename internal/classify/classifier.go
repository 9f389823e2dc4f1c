package classify

import (
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/calibration"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/spectral"
)

// #region check-fault
// CheckFault applies the signal-quality checks in order; the first match wins.
func CheckFault(total float64, limits FaultLimits) FaultReason {
	switch {
	case total == 0:
		return FaultNoData
	case total < limits.NoiseFloor:
		return FaultTooLow
	case total > limits.Ceiling:
		return FaultTooHigh
	}
	return FaultNone
}

// #endregion check-fault

// #region classify-side
// ClassifySide applies the threshold rule to one side's relative powers.
func ClassifySide(rel spectral.RelativePowers, base calibration.BandStatistics, th calibration.Thresholds) State {
	alphaDrop := rel.Alpha < base.Alpha.Mean-th.AlphaDrop
	betaRise := rel.Beta > base.Beta.Mean+th.BetaRise
	gammaRise := rel.Gamma > th.GammaHigh

	switch {
	case alphaDrop && betaRise && !gammaRise:
		return Imagery
	case alphaDrop && betaRise && gammaRise:
		return Movement
	}
	return None
}

// #endregion classify-side

// #region classifier
// Classifier evaluates both channels against a frozen calibration. It holds
// no per-cycle state.
type Classifier struct {
	cal    calibration.Result
	limits FaultLimits
}

// NewClassifier creates a classifier bound to cal.
func NewClassifier(cal calibration.Result, limits FaultLimits) *Classifier {
	return &Classifier{cal: cal, limits: limits}
}

// Calibration returns the calibration the classifier was built with.
func (c *Classifier) Calibration() calibration.Result {
	return c.cal
}

// Evaluate computes both totals, checks faults (left first), and only then
// normalizes and classifies. On fault no hand states are produced.
func (c *Classifier) Evaluate(left, right spectral.BandPowers) Decision {
	totals := [2]float64{Left: left.Total(), Right: right.Total()}

	var d Decision
	for _, side := range []Side{Left, Right} {
		if reason := CheckFault(totals[side], c.limits); reason != FaultNone {
			d.Fault = Fault{Active: true, Reason: reason, Side: side, Total: totals[side]}
			break
		}
	}

	d.LeftRelative = spectral.Relative(left)
	d.RightRelative = spectral.Relative(right)
	if d.Fault.Active {
		return d
	}

	d.Hands.set(HandFor(Left), ClassifySide(d.LeftRelative, c.cal.Baseline.Left, c.cal.Thresholds.Left))
	d.Hands.set(HandFor(Right), ClassifySide(d.RightRelative, c.cal.Baseline.Right, c.cal.Thresholds.Right))
	return d
}

// #endregion classifier
