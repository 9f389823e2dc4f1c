package classify

import (
	"testing"

	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/calibration"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/spectral"
)

// #region helpers
// baseline builds a calibration where both sides rest at alpha 0.30,
// beta 0.20, gamma 0.10 with thresholds 0.05 / 0.05 / 0.25.
func baseline() calibration.Result {
	side := calibration.BandStatistics{
		Alpha: calibration.Moments{Mean: 0.30, Std: 0.05},
		Beta:  calibration.Moments{Mean: 0.20, Std: 0.05},
		Gamma: calibration.Moments{Mean: 0.10, Std: 0.10},
	}
	th := calibration.DeriveThresholds(side)
	return calibration.Result{
		Baseline:   calibration.Baseline{Left: side, Right: side},
		Thresholds: calibration.SideThresholds{Left: th, Right: th},
		Policy:     calibration.PolicyShared,
		Samples:    10,
	}
}

// powers scales relative powers to an absolute total of 100.
func powers(alpha, beta, gamma float64) spectral.BandPowers {
	return spectral.BandPowers{Alpha: alpha * 100, Beta: beta * 100, Gamma: gamma * 100}
}

func rest() spectral.BandPowers     { return powers(0.6, 0.3, 0.1) }
func imagery() spectral.BandPowers  { return powers(0.10, 0.75, 0.15) }
func movement() spectral.BandPowers { return powers(0.10, 0.50, 0.40) }

// #endregion helpers

// #region fault-tests
func TestCheckFaultOrder(t *testing.T) {
	limits := DefaultFaultLimits()
	cases := []struct {
		total float64
		want  FaultReason
	}{
		{0, FaultNoData},
		{1e-9, FaultTooLow},
		{1e-6, FaultNone},
		{600, FaultNone},
		{1200, FaultNone},
		{1200.5, FaultTooHigh},
	}
	for _, c := range cases {
		if got := CheckFault(c.total, limits); got != c.want {
			t.Errorf("total %g: expected %q, got %q", c.total, c.want, got)
		}
	}
}

func TestCheckFaultZeroIsNoDataEvenWithHighFloor(t *testing.T) {
	// zero also satisfies "below the floor"; no_data must still win
	limits := FaultLimits{NoiseFloor: 10, Ceiling: 1200}
	if got := CheckFault(0, limits); got != FaultNoData {
		t.Fatalf("expected no_data, got %q", got)
	}
}

func TestEvaluateLeftZeroTotalFaults(t *testing.T) {
	c := NewClassifier(baseline(), DefaultFaultLimits())
	d := c.Evaluate(spectral.BandPowers{}, imagery())

	if !d.Fault.Active || d.Fault.Reason != FaultNoData || d.Fault.Side != Left {
		t.Fatalf("expected left no_data fault, got %+v", d.Fault)
	}
	if d.Hands != (Hands{}) {
		t.Errorf("expected no hand states on fault, got %+v", d.Hands)
	}
	if d.LeftRelative != (spectral.RelativePowers{}) {
		t.Errorf("expected zero relative powers, got %+v", d.LeftRelative)
	}
}

func TestEvaluateRightArtifactFaults(t *testing.T) {
	c := NewClassifier(baseline(), DefaultFaultLimits())
	d := c.Evaluate(rest(), spectral.BandPowers{Alpha: 900, Beta: 300, Gamma: 100})

	if !d.Fault.Active || d.Fault.Reason != FaultTooHigh || d.Fault.Side != Right {
		t.Fatalf("expected right too_high fault, got %+v", d.Fault)
	}
	if d.Fault.Total != 1300 {
		t.Errorf("expected total 1300, got %f", d.Fault.Total)
	}
}

// #endregion fault-tests

// #region classify-tests
func TestClassifySideRules(t *testing.T) {
	cal := baseline()
	base, th := cal.Baseline.Left, cal.Thresholds.Left

	cases := []struct {
		name string
		rel  spectral.RelativePowers
		want State
	}{
		{"rest", spectral.RelativePowers{Alpha: 0.6, Beta: 0.3, Gamma: 0.1}, None},
		{"imagery", spectral.RelativePowers{Alpha: 0.10, Beta: 0.75, Gamma: 0.15}, Imagery},
		{"movement", spectral.RelativePowers{Alpha: 0.10, Beta: 0.50, Gamma: 0.40}, Movement},
		{"alpha drop only", spectral.RelativePowers{Alpha: 0.10, Beta: 0.20, Gamma: 0.10}, None},
		{"beta rise only", spectral.RelativePowers{Alpha: 0.30, Beta: 0.60, Gamma: 0.10}, None},
		{"gamma only", spectral.RelativePowers{Alpha: 0.30, Beta: 0.20, Gamma: 0.50}, None},
	}
	for _, c := range cases {
		if got := ClassifySide(c.rel, base, th); got != c.want {
			t.Errorf("%s: expected %s, got %s", c.name, c.want, got)
		}
	}
}

func TestAlphaDropBoundary(t *testing.T) {
	// relative alpha 0.10 vs mean 0.30 - threshold 0.05 = 0.25
	base := calibration.BandStatistics{
		Alpha: calibration.Moments{Mean: 0.30},
		Beta:  calibration.Moments{Mean: 0.20},
	}
	th := calibration.Thresholds{AlphaDrop: 0.05, BetaRise: 0.05, GammaHigh: 0.5}

	got := ClassifySide(spectral.RelativePowers{Alpha: 0.10, Beta: 0.60, Gamma: 0.30}, base, th)
	if got != Imagery {
		t.Fatalf("expected alpha drop to yield imagery, got %s", got)
	}
	got = ClassifySide(spectral.RelativePowers{Alpha: 0.25, Beta: 0.60, Gamma: 0.15}, base, th)
	if got != None {
		t.Fatalf("alpha exactly at the threshold is not a drop, got %s", got)
	}
}

func TestEvaluateLeftChannelDrivesRightHand(t *testing.T) {
	c := NewClassifier(baseline(), DefaultFaultLimits())
	d := c.Evaluate(imagery(), rest())

	if d.Fault.Active {
		t.Fatalf("unexpected fault: %+v", d.Fault)
	}
	if d.Hands.Right != Imagery {
		t.Errorf("expected right-hand imagery, got %s", d.Hands.Right)
	}
	if d.Hands.Left != None {
		t.Errorf("left hand must stay none, got %s", d.Hands.Left)
	}
}

func TestEvaluateRightChannelDrivesLeftHand(t *testing.T) {
	c := NewClassifier(baseline(), DefaultFaultLimits())
	d := c.Evaluate(rest(), movement())

	if d.Hands.Left != Movement || d.Hands.Right != None {
		t.Fatalf("expected left-hand movement only, got %+v", d.Hands)
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	c := NewClassifier(baseline(), DefaultFaultLimits())
	first := c.Evaluate(imagery(), movement())
	for i := 0; i < 5; i++ {
		if got := c.Evaluate(imagery(), movement()); got != first {
			t.Fatalf("iteration %d: decision changed: %+v vs %+v", i, got, first)
		}
	}
}

func TestEvaluatePerSideThresholds(t *testing.T) {
	cal := baseline()
	// a right side with a noisy baseline should not fire on the same input
	cal.Baseline.Right.Alpha.Std = 0.4
	perSide, err := calibration.Rederive(cal, calibration.PolicyPerSide)
	if err != nil {
		t.Fatalf("rederive: %v", err)
	}

	shared := NewClassifier(cal, DefaultFaultLimits()).Evaluate(rest(), imagery())
	split := NewClassifier(perSide, DefaultFaultLimits()).Evaluate(rest(), imagery())

	if shared.Hands.Left != Imagery {
		t.Errorf("shared policy: expected left-hand imagery, got %s", shared.Hands.Left)
	}
	if split.Hands.Left != None {
		t.Errorf("per-side policy: expected none, got %s", split.Hands.Left)
	}
}

func TestHandFor(t *testing.T) {
	if HandFor(Left) != RightHand || HandFor(Right) != LeftHand {
		t.Fatal("side to hand mapping must be contralateral")
	}
}

// #endregion classify-tests
