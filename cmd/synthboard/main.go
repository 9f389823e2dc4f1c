package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/acquisition"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/logging"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/schedule"
)

// #region main
func main() {
	addr := flag.String("addr", envOr("EEG_SOURCE_ADDR", "localhost:50061"), "listen address")
	rate := flag.Int("rate", 250, "sampling rate in Hz")
	seed := flag.Int64("seed", 1, "noise seed")
	pulse := flag.Duration("pulse", 0, "cycle C3/C4 through imagery and movement phases of this length (0 = always rest)")
	logLevel := flag.String("log-level", envOr("EEG_LOG_LEVEL", "info"), "debug, info, warn or error")
	flag.Parse()

	logger, err := logging.New(os.Stdout, *logLevel, envOr("EEG_LOG_FORMAT", "text"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *addr, *rate, *seed, *pulse, logger); err != nil {
		logger.Error("synthboard stopped", "err", err)
		os.Exit(1)
	}
}

// #endregion main

// #region run
func run(ctx context.Context, addr string, rate int, seed int64, pulse time.Duration, logger *slog.Logger) error {
	board := acquisition.NewSynthetic(rate, map[string]acquisition.Profile{
		"C3": acquisition.RestProfile(),
		"C4": acquisition.RestProfile(),
	}, seed, schedule.Wall)
	if err := board.Start(ctx); err != nil {
		return err
	}
	defer board.Close()

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	srv := grpc.NewServer()
	acquisition.RegisterWindowServer(srv, acquisition.NewSourceServer(board, board.Channels()))

	if pulse > 0 {
		go cyclePhases(ctx, board, pulse, logger)
	}
	go func() {
		<-ctx.Done()
		srv.GracefulStop()
	}()

	logger.Info("synthetic board serving", "addr", lis.Addr().String(), "rate", rate, "channels", board.Channels())
	if err := srv.Serve(lis); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// #endregion run

// #region phases
type phase struct {
	name string
	c3   acquisition.Profile
	c4   acquisition.Profile
}

// phases walks each hand through imagery and movement with rest in between.
// C4 drives the right hand and C3 the left.
var phases = []phase{
	{"rest", acquisition.RestProfile(), acquisition.RestProfile()},
	{"right-hand imagery", acquisition.RestProfile(), acquisition.ImageryProfile()},
	{"rest", acquisition.RestProfile(), acquisition.RestProfile()},
	{"left-hand imagery", acquisition.ImageryProfile(), acquisition.RestProfile()},
	{"rest", acquisition.RestProfile(), acquisition.RestProfile()},
	{"right-hand movement", acquisition.RestProfile(), acquisition.MovementProfile()},
	{"rest", acquisition.RestProfile(), acquisition.RestProfile()},
	{"left-hand movement", acquisition.MovementProfile(), acquisition.RestProfile()},
}

func cyclePhases(ctx context.Context, board *acquisition.Synthetic, every time.Duration, logger *slog.Logger) {
	for i := 0; ; i++ {
		p := phases[i%len(phases)]
		board.SetProfile("C3", p.c3)
		board.SetProfile("C4", p.c4)
		logger.Info("phase", "name", p.name)
		if err := schedule.Sleep(ctx, schedule.Wall, every); err != nil {
			return
		}
	}
}

// #endregion phases

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
