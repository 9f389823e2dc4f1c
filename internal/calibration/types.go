package calibration

import (
	"time"

	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/spectral"
)

// #region policy
// Policy selects how classification thresholds are derived from the baseline.
type Policy string

const (
	// PolicyShared derives one threshold set from the left channel and
	// applies it to both sides.
	PolicyShared Policy = "shared"
	// PolicyPerSide derives each side's thresholds from its own baseline.
	PolicyPerSide Policy = "per_side"
)

// GammaStdMultiplier scales the gamma std above the gamma mean.
const GammaStdMultiplier = 1.5

// #endregion policy

// #region sample
// Sample is one resting-state feature observation for both channels.
type Sample struct {
	Left  spectral.RelativePowers
	Right spectral.RelativePowers
}

// #endregion sample

// #region statistics
// Moments are the population mean and standard deviation of one band.
type Moments struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// BandStatistics holds per-band moments for one side.
type BandStatistics struct {
	Alpha Moments `json:"alpha"`
	Beta  Moments `json:"beta"`
	Gamma Moments `json:"gamma"`
}

// Baseline holds resting statistics for both sides.
type Baseline struct {
	Left  BandStatistics `json:"left"`
	Right BandStatistics `json:"right"`
}

// #endregion statistics

// #region thresholds
// Thresholds are the scalars the classifier compares relative powers against.
type Thresholds struct {
	AlphaDrop float64 `json:"alpha_drop"`
	BetaRise  float64 `json:"beta_rise"`
	GammaHigh float64 `json:"gamma_high"`
}

// SideThresholds pairs the thresholds applied to each side.
type SideThresholds struct {
	Left  Thresholds `json:"left"`
	Right Thresholds `json:"right"`
}

// #endregion thresholds

// #region result
// Result is the frozen outcome of a calibration run. It contains no
// references, so copies can be handed out freely.
type Result struct {
	Baseline    Baseline       `json:"baseline"`
	Thresholds  SideThresholds `json:"thresholds"`
	Policy      Policy         `json:"policy"`
	Samples     int            `json:"samples"`
	Skipped     int            `json:"skipped"`
	CompletedAt time.Time      `json:"completed_at"`
}

// #endregion result
