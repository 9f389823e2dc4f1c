package record

import (
	"time"

	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/classify"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/spectral"
)

// #region cycle-record
// CycleRecord is the labeled output of one poll cycle. Fault cycles carry
// band values and an empty hand state.
type CycleRecord struct {
	SessionID string                  `json:"session_id"`
	Seq       int64                   `json:"seq"`
	Timestamp time.Time               `json:"timestamp"`
	Left      spectral.BandPowers     `json:"left"`
	Right     spectral.BandPowers     `json:"right"`
	LeftRel   spectral.RelativePowers `json:"left_rel"`
	RightRel  spectral.RelativePowers `json:"right_rel"`
	Marker    int                     `json:"marker,omitempty"` // 0 = no marker
	Fault     classify.FaultReason    `json:"fault,omitempty"`
	FaultSide string                  `json:"fault_side,omitempty"` // "L" or "R" when Fault is set
	LeftHand  classify.State          `json:"left_hand,omitempty"`
	RightHand classify.State          `json:"right_hand,omitempty"`
}

// #endregion cycle-record

// #region session-info
// SessionInfo describes one recording session.
type SessionInfo struct {
	SessionID    string    `json:"session_id"`
	StartedAt    time.Time `json:"started_at"`
	SamplingRate int       `json:"sampling_rate"`
	LeftChannel  string    `json:"left_channel"`
	RightChannel string    `json:"right_channel"`
	Source       string    `json:"source,omitempty"`

	// Settings replay needs to reproduce the session's decisions. Zero
	// means not recorded.
	NoiseFloor float64 `json:"noise_floor,omitempty"`
	Ceiling    float64 `json:"ceiling,omitempty"`
	MinDwell   int     `json:"min_dwell,omitempty"`
}

// FaultLimits returns the recorded fault limits, falling back to the
// defaults for any limit that was not recorded.
func (s SessionInfo) FaultLimits() classify.FaultLimits {
	limits := classify.DefaultFaultLimits()
	if s.NoiseFloor > 0 {
		limits.NoiseFloor = s.NoiseFloor
	}
	if s.Ceiling > 0 {
		limits.Ceiling = s.Ceiling
	}
	return limits
}

// #endregion session-info

// #region sink
// Sink receives one record per cycle. Close flushes and releases the sink.
type Sink interface {
	Append(rec CycleRecord) error
	Close() error
}

// #endregion sink
