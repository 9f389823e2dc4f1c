package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/record"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/replay"
)

// #region main

func main() {
	dbPath := flag.String("db", envOr("EEG_DB", ""), "path to the session database")
	sessionID := flag.String("session", "", "session to export")
	format := flag.String("format", "csv", "csv or fixture")
	outPath := flag.String("out", "", "output path")
	flag.Parse()

	if *dbPath == "" || *sessionID == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: export --db path/to/eeg.db --session id --out path [--format csv|fixture]")
		os.Exit(2)
	}

	if err := run(*dbPath, *sessionID, *format, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region extract

func run(dbPath, sessionID, format, outPath string) error {
	store, err := record.OpenStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	if _, err := store.Session(sessionID); err != nil {
		return err
	}
	cycles, err := store.Cycles(sessionID)
	if err != nil {
		return err
	}
	if len(cycles) == 0 {
		return fmt.Errorf("session %s has no cycles", sessionID)
	}
	fmt.Printf("Found %d cycles\n", len(cycles))

	switch format {
	case "csv":
		return writeCSV(cycles, outPath)
	case "fixture":
		fixture, err := buildFixture(store, sessionID, cycles)
		if err != nil {
			return err
		}
		return writeFixture(fixture, outPath)
	}
	return fmt.Errorf("unknown format %q", format)
}

// #endregion extract

// #region output

func writeCSV(cycles []record.CycleRecord, outPath string) error {
	if _, err := os.Stat(outPath); err == nil {
		return fmt.Errorf("%s already exists", outPath)
	}
	sink, err := record.OpenCSV(outPath)
	if err != nil {
		return err
	}
	for _, c := range cycles {
		if err := sink.Append(c); err != nil {
			sink.Close()
			return err
		}
	}
	if err := sink.Close(); err != nil {
		return err
	}
	fmt.Printf("Wrote %d rows to %s\n", len(cycles), outPath)
	return nil
}

// buildFixture pairs the session's calibration with every cycle, taking the
// recorded outcome as the expected one.
func buildFixture(store *record.Store, sessionID string, cycles []record.CycleRecord) (replay.Fixture, error) {
	info, err := store.Session(sessionID)
	if err != nil {
		return replay.Fixture{}, err
	}
	cal, err := store.Calibration(sessionID)
	if err != nil {
		return replay.Fixture{}, err
	}
	limits := info.FaultLimits()

	fc := make([]replay.FixtureCycle, len(cycles))
	for i, c := range cycles {
		fc[i] = replay.FixtureCycle{
			Seq:   c.Seq,
			Left:  c.Left,
			Right: c.Right,
			Expected: replay.FixtureExpected{
				Fault:     c.Fault,
				LeftHand:  c.LeftHand,
				RightHand: c.RightHand,
			},
		}
	}
	return replay.Fixture{
		Description: fmt.Sprintf("Session export: %d cycles from %s", len(cycles), sessionID),
		Calibration: cal,
		Limits:      &replay.FixtureLimits{NoiseFloor: limits.NoiseFloor, Ceiling: limits.Ceiling},
		Cycles:      fc,
	}, nil
}

func writeFixture(fixture replay.Fixture, outPath string) error {
	data, err := json.MarshalIndent(fixture, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}

	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}

	fmt.Printf("Wrote fixture to %s (%d bytes, %d cycles)\n", outPath, len(data), len(fixture.Cycles))
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion output
