package replay

import (
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/calibration"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/classify"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/record"
)

// #region types
// Config controls how recorded cycles are re-classified.
type Config struct {
	Calibration calibration.Result
	Limits      classify.FaultLimits
	MinDwell    int // 0 or 1 disables smoothing
}

// Result is the outcome of re-classifying one recorded cycle.
type Result struct {
	Seq       int64
	Fault     classify.FaultReason
	FaultSide string
	LeftHand  classify.State
	RightHand classify.State
	Match     bool // same fault and hand states as the recording

	Recorded record.CycleRecord
}

// Action renders the replayed outcome as one token, e.g. "fault:no_data"
// or "L=none R=imagery".
func (r Result) Action() string {
	return action(r.Fault, r.LeftHand, r.RightHand)
}

// RecordedAction renders the recorded outcome the same way.
func (r Result) RecordedAction() string {
	return action(r.Recorded.Fault, r.Recorded.LeftHand, r.Recorded.RightHand)
}

func action(f classify.FaultReason, left, right classify.State) string {
	if f != classify.FaultNone {
		return "fault:" + string(f)
	}
	return "L=" + string(left) + " R=" + string(right)
}

// Summary aggregates a replay run.
type Summary struct {
	Total         int
	Matches       int
	Diverge       int
	Faults        int
	LeftImagery   int
	LeftMovement  int
	RightImagery  int
	RightMovement int
}

// #endregion types

// #region replay
// Replay runs recorded absolute band powers back through the classifier.
// It is pure and works entirely in memory.
func Replay(cycles []record.CycleRecord, config Config) []Result {
	c := classify.NewClassifier(config.Calibration, config.Limits)
	var smoother *classify.Smoother
	if config.MinDwell > 1 {
		smoother = classify.NewSmoother(config.MinDwell)
	}

	results := make([]Result, 0, len(cycles))
	for _, rec := range cycles {
		d := c.Evaluate(rec.Left, rec.Right)
		if smoother != nil {
			d = smoother.Apply(d)
		}

		r := Result{Seq: rec.Seq, Recorded: rec}
		if d.Fault.Active {
			r.Fault = d.Fault.Reason
			r.FaultSide = d.Fault.Side.String()
		} else {
			r.LeftHand = d.Hands.Left
			r.RightHand = d.Hands.Right
		}
		r.Match = r.Fault == rec.Fault && r.LeftHand == rec.LeftHand && r.RightHand == rec.RightHand
		results = append(results, r)
	}
	return results
}

// Summarize computes aggregate counts from replay results.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Match {
			s.Matches++
		} else {
			s.Diverge++
		}
		if r.Fault != classify.FaultNone {
			s.Faults++
			continue
		}
		switch r.LeftHand {
		case classify.Imagery:
			s.LeftImagery++
		case classify.Movement:
			s.LeftMovement++
		}
		switch r.RightHand {
		case classify.Imagery:
			s.RightImagery++
		case classify.Movement:
			s.RightMovement++
		}
	}
	return s
}

// #endregion replay
