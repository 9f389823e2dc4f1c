package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/acquisition"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/classify"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/indicator"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/marker"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/record"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/schedule"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/spectral"
)

// #region options
// Reader yields absolute band powers for both sides each cycle.
type Reader interface {
	Read(ctx context.Context) (left, right spectral.BandPowers, err error)
}

// Options wires a session. Features, Classifier, Scheduler and Sink are
// required; the rest have working defaults.
type Options struct {
	SessionID  string
	Features   Reader
	Classifier *classify.Classifier
	Smoother   *classify.Smoother // nil disables smoothing
	Scheduler  schedule.Scheduler
	Clock      schedule.Clock
	RetryDelay time.Duration
	Indicators indicator.Indicators
	Marker     marker.Marker
	Sink       record.Sink
	Logger     *slog.Logger
}

// #endregion options

// #region stats
// Stats counts what a session has done so far.
type Stats struct {
	Cycles        int
	Skipped       int
	Faults        int
	Markers       int
	LeftImagery   int
	LeftMovement  int
	RightImagery  int
	RightMovement int
}

func (s *Stats) count(hand classify.Hand, st classify.State) {
	switch {
	case hand == classify.LeftHand && st == classify.Imagery:
		s.LeftImagery++
	case hand == classify.LeftHand && st == classify.Movement:
		s.LeftMovement++
	case hand == classify.RightHand && st == classify.Imagery:
		s.RightImagery++
	case hand == classify.RightHand && st == classify.Movement:
		s.RightMovement++
	}
}

// #endregion stats

// #region session
// Session is the polling loop: one window pair, one decision and one record
// per cycle, all on the caller's goroutine.
type Session struct {
	opts  Options
	seq   int64
	stats Stats
}

// New validates opts and fills defaults.
func New(opts Options) (*Session, error) {
	switch {
	case opts.Features == nil:
		return nil, errors.New("session: features reader is required")
	case opts.Classifier == nil:
		return nil, errors.New("session: classifier is required")
	case opts.Scheduler == nil:
		return nil, errors.New("session: scheduler is required")
	case opts.Sink == nil:
		return nil, errors.New("session: record sink is required")
	}
	if opts.Clock == nil {
		opts.Clock = schedule.Wall
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 100 * time.Millisecond
	}
	if opts.Indicators == nil {
		opts.Indicators = indicator.Multi{}
	}
	if opts.Marker == nil {
		opts.Marker = marker.None{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Session{opts: opts}, nil
}

// Stats returns a copy of the counters.
func (s *Session) Stats() Stats {
	return s.stats
}

// Run polls until ctx is cancelled or a fatal error occurs. Cancellation is
// a clean stop and returns nil. Indicators are switched off and the sink is
// closed on every exit path.
func (s *Session) Run(ctx context.Context) (err error) {
	defer func() {
		s.opts.Indicators.Off()
		if cerr := s.opts.Sink.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close sink: %w", cerr))
		}
		s.opts.Logger.Info("session stopped",
			"cycles", s.stats.Cycles,
			"skipped", s.stats.Skipped,
			"faults", s.stats.Faults,
			"markers", s.stats.Markers,
		)
	}()

	retry := false
	for {
		if ctx.Err() != nil {
			return nil
		}

		var now time.Time
		if retry {
			if err := schedule.Sleep(ctx, s.opts.Clock, s.opts.RetryDelay); err != nil {
				return nil
			}
			now = s.opts.Clock.Now()
		} else {
			now, err = s.opts.Scheduler.Next(ctx)
			if err != nil {
				return nil
			}
		}

		left, right, err := s.opts.Features.Read(ctx)
		if errors.Is(err, acquisition.ErrInsufficient) {
			s.stats.Skipped++
			retry = true
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("cycle %d: %w", s.seq+1, err)
		}
		retry = false

		if err := s.cycle(now, left, right); err != nil {
			return err
		}
	}
}

// cycle classifies one window pair, drives the indicators and records the
// result. The record append is the last step.
func (s *Session) cycle(now time.Time, left, right spectral.BandPowers) error {
	d := s.opts.Classifier.Evaluate(left, right)
	if s.opts.Smoother != nil {
		d = s.opts.Smoother.Apply(d)
	}

	s.seq++
	rec := record.CycleRecord{
		SessionID: s.opts.SessionID,
		Seq:       s.seq,
		Timestamp: now,
		Left:      left,
		Right:     right,
		LeftRel:   d.LeftRelative,
		RightRel:  d.RightRelative,
	}
	if n, ok := s.opts.Marker.Poll(); ok {
		rec.Marker = n
		s.stats.Markers++
		s.opts.Logger.Info("marker", "n", n, "seq", s.seq)
	}

	ind := s.opts.Indicators
	if d.Fault.Active {
		rec.Fault = d.Fault.Reason
		rec.FaultSide = d.Fault.Side.String()
		ind.SetFault(true)
		ind.SetState(classify.LeftHand, classify.None)
		ind.SetState(classify.RightHand, classify.None)
		s.stats.Faults++
		s.opts.Logger.Warn("signal fault",
			"reason", string(d.Fault.Reason),
			"side", d.Fault.Side.String(),
			"total", d.Fault.Total,
		)
	} else {
		rec.LeftHand = d.Hands.Left
		rec.RightHand = d.Hands.Right
		ind.SetFault(false)
		for _, h := range []classify.Hand{classify.LeftHand, classify.RightHand} {
			st := d.Hands.Get(h)
			ind.SetState(h, st)
			s.stats.count(h, st)
		}
	}

	if err := s.opts.Sink.Append(rec); err != nil {
		return fmt.Errorf("record cycle %d: %w", s.seq, err)
	}
	s.stats.Cycles++

	s.opts.Logger.Debug("cycle",
		"seq", s.seq,
		"alpha_l", rec.LeftRel.Alpha, "beta_l", rec.LeftRel.Beta, "gamma_l", rec.LeftRel.Gamma,
		"alpha_r", rec.RightRel.Alpha, "beta_r", rec.RightRel.Beta, "gamma_r", rec.RightRel.Gamma,
		"left_hand", string(rec.LeftHand), "right_hand", string(rec.RightHand),
	)
	return nil
}

// #endregion session
