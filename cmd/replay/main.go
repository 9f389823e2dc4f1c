package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/calibration"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/record"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/replay"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to the session database (DB mode)")
	sessionID := flag.String("session", "", "session to replay (DB mode)")
	fixturePath := flag.String("fixture", "", "path to fixture JSON (fixture mode)")
	policy := flag.String("policy", "", "re-derive thresholds with shared or per_side")
	dwell := flag.Int("dwell", 0, "consecutive cycles required before reporting a hand state (0 = as recorded)")
	flag.Parse()

	dbMode := *dbPath != "" && *sessionID != ""
	if dbMode == (*fixturePath != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --db path/to/eeg.db --session id [--policy p] [--dwell n]")
		fmt.Fprintln(os.Stderr, "       replay --fixture path/to/fixture.json [--policy p] [--dwell n]")
		os.Exit(2)
	}

	var exitCode int
	if dbMode {
		exitCode = runDBMode(*dbPath, *sessionID, calibration.Policy(*policy), *dwell)
	} else {
		exitCode = runFixtureMode(*fixturePath, calibration.Policy(*policy), *dwell)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region modes

func runDBMode(dbPath, sessionID string, policy calibration.Policy, dwell int) int {
	store, err := record.OpenStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 2
	}
	defer store.Close()

	info, err := store.Session(sessionID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load session: %v\n", err)
		return 2
	}
	cal, err := store.Calibration(sessionID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load calibration: %v\n", err)
		return 2
	}
	cycles, err := store.Cycles(sessionID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load cycles: %v\n", err)
		return 2
	}
	if len(cycles) == 0 {
		fmt.Fprintf(os.Stderr, "session %s has no cycles\n", sessionID)
		return 2
	}

	config := sessionConfig(info, cal, dwell)
	fmt.Printf("Fault limits: floor %g, ceiling %g; min dwell %d\n\n",
		config.Limits.NoiseFloor, config.Limits.Ceiling, config.MinDwell)
	return replayAndPrint(cycles, config, policy)
}

// sessionConfig rebuilds the settings a session ran with. A positive dwell
// overrides the recorded one.
func sessionConfig(info record.SessionInfo, cal calibration.Result, dwell int) replay.Config {
	if dwell <= 0 {
		dwell = info.MinDwell
	}
	return replay.Config{Calibration: cal, Limits: info.FaultLimits(), MinDwell: dwell}
}

func runFixtureMode(path string, policy calibration.Policy, dwell int) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}
	config := f.Config()
	if dwell > 0 {
		config.MinDwell = dwell
	}
	return replayAndPrint(f.Records(), config, policy)
}

func replayAndPrint(cycles []record.CycleRecord, config replay.Config, policy calibration.Policy) int {
	if policy != "" {
		cal, err := calibration.Rederive(config.Calibration, policy)
		if err != nil {
			fmt.Fprintf(os.Stderr, "re-derive thresholds: %v\n", err)
			return 2
		}
		config.Calibration = cal
		fmt.Printf("Thresholds re-derived with policy %s\n\n", policy)
	}
	results := replay.Replay(cycles, config)
	return printComparison(results)
}

// #endregion modes

// #region output

// printComparison outputs a comparison table and returns the exit code.
func printComparison(results []replay.Result) int {
	fmt.Printf("%-6s| %-22s| %-22s| %s\n", "Seq", "Recorded", "Replayed", "Match")
	fmt.Printf("%-6s+%-23s+%-23s+%s\n",
		"------", "-----------------------", "-----------------------", "------")

	for _, r := range results {
		match := "DIFF"
		if r.Match {
			match = "OK"
		}
		fmt.Printf("%-6d| %-22s| %-22s| %s\n", r.Seq, r.RecordedAction(), r.Action(), match)
	}

	s := replay.Summarize(results)
	fmt.Printf("\nSummary: %d total, %d match, %d diverge\n", s.Total, s.Matches, s.Diverge)
	fmt.Printf("Replayed events: %d faults, left imagery %d, left movement %d, right imagery %d, right movement %d\n",
		s.Faults, s.LeftImagery, s.LeftMovement, s.RightImagery, s.RightMovement)

	if s.Diverge > 0 {
		return 1
	}
	return 0
}

// #endregion output
