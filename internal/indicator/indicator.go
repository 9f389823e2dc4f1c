package indicator

import (
	"log/slog"

	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/classify"
)

// #region indicators
// Indicators drive the per-hand and fault outputs. Calls are idempotent and
// never fail from the caller's view; implementations log their own I/O errors.
type Indicators interface {
	SetState(hand classify.Hand, state classify.State)
	SetFault(on bool)
	Off()
}

// #endregion indicators

// #region role
// Role names one physical output.
type Role int

const (
	LeftImagery Role = iota
	LeftMovement
	Fault
	RightMovement
	RightImagery
)

// Roles lists every output in self-test order.
var Roles = []Role{LeftImagery, LeftMovement, Fault, RightMovement, RightImagery}

func (r Role) String() string {
	switch r {
	case LeftImagery:
		return "left-imagery"
	case LeftMovement:
		return "left-movement"
	case Fault:
		return "fault"
	case RightMovement:
		return "right-movement"
	case RightImagery:
		return "right-imagery"
	}
	return "unknown"
}

func imageryRole(h classify.Hand) Role {
	if h == classify.LeftHand {
		return LeftImagery
	}
	return RightImagery
}

func movementRole(h classify.Hand) Role {
	if h == classify.LeftHand {
		return LeftMovement
	}
	return RightMovement
}

// #endregion role

// #region multi
// Multi fans every call out to several indicator sets.
type Multi []Indicators

func (m Multi) SetState(hand classify.Hand, state classify.State) {
	for _, ind := range m {
		ind.SetState(hand, state)
	}
}

func (m Multi) SetFault(on bool) {
	for _, ind := range m {
		ind.SetFault(on)
	}
}

func (m Multi) Off() {
	for _, ind := range m {
		ind.Off()
	}
}

// #endregion multi

// #region log
// Log reports indicator changes through a logger. Repeated identical
// states are not logged again.
type Log struct {
	logger *slog.Logger
	hands  [2]classify.State
	fault  bool
}

// NewLog creates a log indicator. A nil logger uses slog.Default().
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger, hands: [2]classify.State{classify.None, classify.None}}
}

func (l *Log) SetState(hand classify.Hand, state classify.State) {
	if l.hands[hand] == state {
		return
	}
	l.hands[hand] = state
	if state != classify.None {
		l.logger.Info("hand event", "hand", hand.String(), "state", string(state))
	}
}

func (l *Log) SetFault(on bool) {
	if l.fault == on {
		return
	}
	l.fault = on
	l.logger.Info("fault indicator", "on", on)
}

func (l *Log) Off() {
	l.hands = [2]classify.State{classify.None, classify.None}
	l.fault = false
}

// #endregion log
