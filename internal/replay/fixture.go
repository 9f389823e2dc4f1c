package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/calibration"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/classify"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/record"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/spectral"
)

// #region fixture-types
// Fixture is a hand-curated or exported session used as a regression
// baseline.
type Fixture struct {
	Description string             `json:"description"`
	Calibration calibration.Result `json:"calibration"`
	Limits      *FixtureLimits     `json:"fault_limits,omitempty"`
	Cycles      []FixtureCycle     `json:"cycles"`
}

// FixtureLimits overrides the default fault limits.
type FixtureLimits struct {
	NoiseFloor float64 `json:"noise_floor"`
	Ceiling    float64 `json:"ceiling"`
}

// FixtureCycle is one recorded cycle plus the expected outcome.
type FixtureCycle struct {
	Seq      int64               `json:"seq"`
	Left     spectral.BandPowers `json:"left"`
	Right    spectral.BandPowers `json:"right"`
	Expected FixtureExpected     `json:"expected"`
}

// FixtureExpected is the outcome the cycle must reproduce.
type FixtureExpected struct {
	Fault     classify.FaultReason `json:"fault,omitempty"`
	LeftHand  classify.State       `json:"left_hand,omitempty"`
	RightHand classify.State       `json:"right_hand,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader
// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// Config returns the replay configuration described by the fixture.
func (f *Fixture) Config() Config {
	limits := classify.DefaultFaultLimits()
	if f.Limits != nil {
		limits = classify.FaultLimits{NoiseFloor: f.Limits.NoiseFloor, Ceiling: f.Limits.Ceiling}
	}
	return Config{Calibration: f.Calibration, Limits: limits}
}

// Records converts the fixture cycles to records carrying the expected
// outcome, so Replay reports matches against it.
func (f *Fixture) Records() []record.CycleRecord {
	out := make([]record.CycleRecord, len(f.Cycles))
	for i, c := range f.Cycles {
		out[i] = record.CycleRecord{
			Seq:       c.Seq,
			Left:      c.Left,
			Right:     c.Right,
			LeftRel:   spectral.Relative(c.Left),
			RightRel:  spectral.Relative(c.Right),
			Fault:     c.Expected.Fault,
			LeftHand:  c.Expected.LeftHand,
			RightHand: c.Expected.RightHand,
		}
	}
	return out
}

// #endregion fixture-loader
