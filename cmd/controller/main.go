package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/acquisition"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/calibration"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/classify"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/config"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/indicator"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/logging"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/marker"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/record"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/schedule"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/session"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/stream"
)

// #region main
func main() {
	configPath := flag.String("config", envOr("EEG_CONFIG", ""), "path to YAML config")
	monitor := flag.Bool("monitor", false, "log relative band powers only; skip calibration and classification")
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
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *monitor, logger); err != nil {
		logger.Error("controller stopped", "err", err)
		os.Exit(1)
	}
}

// #endregion main

// #region run
func run(ctx context.Context, cfg config.Config, monitor bool, logger *slog.Logger) error {
	src, err := openSource(cfg)
	if err != nil {
		return err
	}
	defer src.Close()
	if err := src.Start(ctx); err != nil {
		return fmt.Errorf("start source: %w", err)
	}
	logger.Info("source ready", "kind", cfg.Source.Kind, "rate", src.SamplingRate(),
		"left", cfg.Channels.Left, "right", cfg.Channels.Right)

	features, err := session.NewFeatures(src, cfg.Channels.Left, cfg.Channels.Right)
	if err != nil {
		return err
	}
	sched := schedule.NewFixedInterval(schedule.Wall, cfg.Session.Interval)

	if monitor {
		return session.Monitor(ctx, features, sched, logger)
	}

	ind, closeIndicators, err := openIndicators(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeIndicators()

	sessionID := uuid.NewString()
	started := time.Now()
	logger = logger.With("session", sessionID)

	sinks, store, err := openSinks(cfg, started, logger)
	if err != nil {
		return err
	}
	if store != nil {
		err := store.BeginSession(record.SessionInfo{
			SessionID:    sessionID,
			StartedAt:    started,
			SamplingRate: src.SamplingRate(),
			LeftChannel:  cfg.Channels.Left,
			RightChannel: cfg.Channels.Right,
			Source:       cfg.Source.Kind,
			NoiseFloor:   cfg.Faults.NoiseFloor,
			Ceiling:      cfg.Faults.Ceiling,
			MinDwell:     cfg.Session.MinDwell,
		})
		if err != nil {
			sinks.Close()
			return err
		}
	}

	cal, err := calibration.NewCalibrator(cfg.CalibrationConfig(), schedule.Wall, logger).Run(ctx, features)
	if err != nil {
		sinks.Close()
		if ctx.Err() != nil {
			logger.Info("calibration interrupted")
			return nil
		}
		return err
	}
	if store != nil {
		if err := store.SaveCalibration(sessionID, cal); err != nil {
			sinks.Close()
			return err
		}
	}

	var mk marker.Marker = marker.None{}
	if cfg.Marker.Keyboard {
		k := marker.NewKeyboard(schedule.Wall, cfg.Marker.Debounce)
		go k.Listen(os.Stdin)
		mk = k
		logger.Info("press Enter to insert an event marker")
	}

	var smoother *classify.Smoother
	if cfg.Session.MinDwell > 1 {
		smoother = classify.NewSmoother(cfg.Session.MinDwell)
	}

	sess, err := session.New(session.Options{
		SessionID:  sessionID,
		Features:   features,
		Classifier: classify.NewClassifier(cal, cfg.FaultLimits()),
		Smoother:   smoother,
		Scheduler:  sched,
		Clock:      schedule.Wall,
		RetryDelay: cfg.Session.RetryDelay,
		Indicators: ind,
		Marker:     mk,
		Sink:       sinks,
		Logger:     logger,
	})
	if err != nil {
		sinks.Close()
		return err
	}

	logger.Info("session running, press Ctrl+C to stop")
	err = sess.Run(ctx)
	st := sess.Stats()
	logger.Info("session summary",
		"cycles", st.Cycles,
		"left_imagery", st.LeftImagery, "left_movement", st.LeftMovement,
		"right_imagery", st.RightImagery, "right_movement", st.RightMovement,
	)
	return err
}

// #endregion run

// #region wiring
func openSource(cfg config.Config) (acquisition.Source, error) {
	switch cfg.Source.Kind {
	case "grpc":
		g, err := acquisition.DialGRPC(cfg.Source.Addr)
		if err != nil {
			return nil, err
		}
		return g, nil
	case "synthetic":
		profiles := make(map[string]acquisition.Profile, len(cfg.Source.Profiles)+2)
		for ch, p := range cfg.Source.Profiles {
			profiles[ch] = p
		}
		for _, ch := range []string{cfg.Channels.Left, cfg.Channels.Right} {
			if _, ok := profiles[ch]; !ok {
				profiles[ch] = acquisition.RestProfile()
			}
		}
		return acquisition.NewSynthetic(cfg.Source.SamplingRate, profiles, cfg.Source.Seed, schedule.Wall), nil
	}
	return nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
}

// openSinks builds the CSV log plus the optional SQLite store and live feed.
// The returned store is also part of the sink set.
func openSinks(cfg config.Config, started time.Time, logger *slog.Logger) (record.Multi, *record.Store, error) {
	var sinks record.Multi
	fail := func(err error) (record.Multi, *record.Store, error) {
		sinks.Close()
		return nil, nil, err
	}

	csvPath := filepath.Join(cfg.Record.CSVDir, record.SessionFileName(started))
	csv, err := record.OpenCSV(csvPath)
	if err != nil {
		return fail(err)
	}
	sinks = append(sinks, csv)
	logger.Info("logging cycles", "csv", csvPath)

	var store *record.Store
	if cfg.Record.DBPath != "" {
		store, err = record.OpenStore(cfg.Record.DBPath)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, store)
		logger.Info("recording to database", "db", cfg.Record.DBPath)
	}

	if cfg.Record.FeedAddr != "" {
		hub := stream.NewHub(logger)
		mux := http.NewServeMux()
		mux.Handle("/feed", hub)
		srv := &http.Server{Addr: cfg.Record.FeedAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("feed server failed", "err", err)
			}
		}()
		sinks = append(sinks, hub, closerSink{close: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		}})
		logger.Info("live feed listening", "addr", cfg.Record.FeedAddr, "path", "/feed")
	}
	return sinks, store, nil
}

// closerSink ties a shutdown hook to the sink set's Close.
type closerSink struct {
	close func() error
}

func (closerSink) Append(record.CycleRecord) error { return nil }
func (c closerSink) Close() error { return c.close() }

func openIndicators(ctx context.Context, cfg config.Config, logger *slog.Logger) (indicator.Indicators, func(), error) {
	var set indicator.Multi
	var closers []func() error
	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn("indicator close failed", "err", err)
			}
		}
	}

	if cfg.Indicators.Log {
		set = append(set, indicator.NewLog(logger))
	}
	if cfg.Indicators.GPIO {
		panel, err := indicator.OpenGPIOPanel(cfg.Indicators.GPIORoot, cfg.Indicators.Pins, logger)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		set = append(set, panel)
		closers = append(closers, panel.Close)
	}
	if mq := cfg.Indicators.MQTT; mq.Broker != "" {
		pub, err := indicator.DialMQTT(ctx, mq.Broker, mq.ClientID, mq.Prefix, logger)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		set = append(set, pub)
		closers = append(closers, pub.Close)
		logger.Info("publishing indicators", "broker", mq.Broker, "prefix", mq.Prefix)
	}
	return set, closeAll, nil
}

// #endregion wiring

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
