package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/config"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/indicator"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/logging"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/schedule"
)

// #region main
func main() {
	configPath := flag.String("config", envOr("EEG_CONFIG", ""), "path to YAML config (pins, gpio root)")
	passes := flag.Int("passes", 0, "number of passes; 0 runs until Ctrl+C")
	dry := flag.Bool("dry", false, "print transitions instead of driving GPIO")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	logger, err := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(2)
	}

	var panel *indicator.Panel
	if *dry {
		panel = dryPanel(logger)
	} else {
		panel, err = indicator.OpenGPIOPanel(cfg.Indicators.GPIORoot, cfg.Indicators.Pins, logger)
		if err != nil {
			logger.Error("open indicators", "err", err)
			os.Exit(1)
		}
	}
	defer panel.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting indicator self-test, press Ctrl+C to stop")
	err = indicator.SelfTest(ctx, panel, schedule.Wall, indicator.DefaultSelfTestTiming(), *passes)
	if errors.Is(err, context.Canceled) {
		logger.Info("self-test stopped, all indicators off")
		return
	}
	if err != nil {
		logger.Error("self-test failed", "err", err)
	}
}

// #endregion main

// #region dry-run
type printLine struct {
	role   indicator.Role
	logger *slog.Logger
}

func (p printLine) Set(on bool) error {
	p.logger.Debug("line", "role", p.role.String(), "on", on)
	return nil
}

func (printLine) Close() error { return nil }

func dryPanel(logger *slog.Logger) *indicator.Panel {
	lines := make(map[indicator.Role]indicator.Line, len(indicator.Roles))
	for _, r := range indicator.Roles {
		lines[r] = printLine{role: r, logger: logger}
	}
	return indicator.NewPanel(lines, logger)
}

// #endregion dry-run

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
