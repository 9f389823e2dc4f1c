package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/acquisition"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/schedule"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/spectral"
)

// #region monitor
// Monitor logs relative band powers for both channels on every tick, without
// calibration or classification. It returns nil when ctx is cancelled.
func Monitor(ctx context.Context, f Reader, sched schedule.Scheduler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	for {
		if _, err := sched.Next(ctx); err != nil {
			return nil
		}
		left, right, err := f.Read(ctx)
		if errors.Is(err, acquisition.ErrInsufficient) {
			logger.Info("waiting for data")
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("monitor: %w", err)
		}
		l, r := spectral.Relative(left), spectral.Relative(right)
		logger.Info("relative power",
			"alpha_l", l.Alpha, "beta_l", l.Beta, "gamma_l", l.Gamma,
			"alpha_r", r.Alpha, "beta_r", r.Beta, "gamma_r", r.Gamma,
		)
	}
}

// #endregion monitor
