package indicator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/classify"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/schedule"
)

// #region line
// Line is one on/off output.
type Line interface {
	Set(on bool) error
	Close() error
}

// #endregion line

// #region panel
// Panel maps hand states and the fault flag onto five lines.
type Panel struct {
	lines  map[Role]Line
	logger *slog.Logger
}

// NewPanel builds a panel. Roles without a line are ignored.
func NewPanel(lines map[Role]Line, logger *slog.Logger) *Panel {
	if logger == nil {
		logger = slog.Default()
	}
	return &Panel{lines: lines, logger: logger}
}

// Set drives a single role.
func (p *Panel) Set(role Role, on bool) {
	line, ok := p.lines[role]
	if !ok {
		return
	}
	if err := line.Set(on); err != nil {
		p.logger.Warn("indicator write failed", "role", role.String(), "err", err)
	}
}

func (p *Panel) SetState(hand classify.Hand, state classify.State) {
	p.Set(imageryRole(hand), state == classify.Imagery)
	p.Set(movementRole(hand), state == classify.Movement)
}

func (p *Panel) SetFault(on bool) {
	p.Set(Fault, on)
}

func (p *Panel) Off() {
	for _, role := range Roles {
		p.Set(role, false)
	}
}

// Close turns every line off and releases it.
func (p *Panel) Close() error {
	p.Off()
	var errs []error
	for _, role := range Roles {
		if line, ok := p.lines[role]; ok {
			errs = append(errs, line.Close())
		}
	}
	return errors.Join(errs...)
}

// #endregion panel

// #region self-test
// SelfTestTiming controls the self-test cadence.
type SelfTestTiming struct {
	On    time.Duration // each role stays lit this long
	Pause time.Duration // gap after a full pass
}

// DefaultSelfTestTiming is one second per role and a half-second pause.
func DefaultSelfTestTiming() SelfTestTiming {
	return SelfTestTiming{On: time.Second, Pause: 500 * time.Millisecond}
}

// SelfTest lights each role in turn. passes <= 0 repeats until ctx is done.
// Every line is off when it returns.
func SelfTest(ctx context.Context, p *Panel, clock schedule.Clock, timing SelfTestTiming, passes int) error {
	defer p.Off()

	for pass := 0; passes <= 0 || pass < passes; pass++ {
		for _, role := range Roles {
			p.logger.Info("indicator on", "role", role.String())
			p.Set(role, true)
			err := schedule.Sleep(ctx, clock, timing.On)
			p.Set(role, false)
			if err != nil {
				return err
			}
		}
		p.logger.Info("self-test pass complete", "pass", pass+1)
		if err := schedule.Sleep(ctx, clock, timing.Pause); err != nil {
			return err
		}
	}
	return nil
}

// #endregion self-test
