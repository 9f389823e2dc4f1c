package classify

import "github.com/danielpatrickdp/motor-imagery/go-controller/internal/spectral"

// #region side
// Side identifies a physical recording channel. The left channel is C4 and
// the right channel is C3.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Left {
		return "L"
	}
	return "R"
}

// #endregion side

// #region hand
// Hand identifies an output indicator group.
type Hand int

const (
	LeftHand Hand = iota
	RightHand
)

func (h Hand) String() string {
	if h == LeftHand {
		return "left"
	}
	return "right"
}

// HandFor maps a channel side to the hand it drives. Motor cortex is
// contralateral: the left channel drives the right hand and vice versa.
func HandFor(s Side) Hand {
	if s == Left {
		return RightHand
	}
	return LeftHand
}

// #endregion hand

// #region state
// State is the per-hand classification outcome.
type State string

const (
	None     State = "none"
	Imagery  State = "imagery"
	Movement State = "movement"
)

// #endregion state

// #region fault
// FaultReason enumerates signal-quality faults.
type FaultReason string

const (
	FaultNone    FaultReason = ""
	FaultNoData  FaultReason = "no_data"
	FaultTooLow  FaultReason = "too_low"
	FaultTooHigh FaultReason = "too_high"
)

// FaultLimits bound plausible total band power.
type FaultLimits struct {
	NoiseFloor float64 // totals below this are too low
	Ceiling    float64 // totals above this are artifacts
}

// DefaultFaultLimits returns the 1e-6 floor and 1200 ceiling.
func DefaultFaultLimits() FaultLimits {
	return FaultLimits{
		NoiseFloor: 1e-6,
		Ceiling:    1200,
	}
}

// Fault is the signal-quality verdict for one cycle.
type Fault struct {
	Active bool
	Reason FaultReason
	Side   Side
	Total  float64
}

// #endregion fault

// #region decision
// Hands holds the state of each output hand.
type Hands struct {
	Left  State
	Right State
}

// Get returns the state for h.
func (h Hands) Get(hand Hand) State {
	if hand == LeftHand {
		return h.Left
	}
	return h.Right
}

func (h *Hands) set(hand Hand, s State) {
	if hand == LeftHand {
		h.Left = s
	} else {
		h.Right = s
	}
}

// Decision is the classifier output for one cycle. Hands is zero when
// Fault.Active is set.
type Decision struct {
	Fault         Fault
	LeftRelative  spectral.RelativePowers
	RightRelative spectral.RelativePowers
	Hands         Hands
}

// #endregion decision
