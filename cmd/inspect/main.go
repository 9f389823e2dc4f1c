package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/calibration"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/classify"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/record"
)

// #region main

func main() {
	dbPath := flag.String("db", envOr("EEG_DB", ""), "path to the session database")
	last := flag.Int("last", 20, "show N most recent sessions")
	sessionID := flag.String("session", "", "show single session detail")
	cycles := flag.Int("cycles", 10, "in detail mode, show the last N cycles (0 = all)")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/eeg.db [--last N] [--session id [--cycles N]] [--json]")
		os.Exit(2)
	}

	store, err := record.OpenStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *sessionID != "" {
		err = runDetailMode(store, *sessionID, *cycles, *jsonOut)
	} else {
		err = runListMode(store, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	SessionID string `json:"session_id"`
	StartedAt string `json:"started_at"`
	Rate      int    `json:"sampling_rate"`
	Source    string `json:"source,omitempty"`
	Policy    string `json:"policy,omitempty"`
	Counts    tally  `json:"counts"`
}

func runListMode(store *record.Store, last int, jsonOut bool) error {
	sessions, err := store.ListSessions(last)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(os.Stderr, "no sessions found")
		return nil
	}

	rows := make([]listRow, len(sessions))
	for i, s := range sessions {
		cycles, err := store.Cycles(s.SessionID)
		if err != nil {
			return err
		}
		row := listRow{
			SessionID: s.SessionID,
			StartedAt: s.StartedAt.Format("2006-01-02T15:04:05Z"),
			Rate:      s.SamplingRate,
			Source:    s.Source,
			Counts:    count(cycles),
		}
		if cal, err := store.Calibration(s.SessionID); err == nil {
			row.Policy = string(cal.Policy)
		}
		rows[i] = row
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-10s  %-20s  %6s  %-9s  %7s  %6s  %s\n",
		"Session", "Started", "Cycles", "Policy", "Faults", "Events", "Source")
	fmt.Printf("%-10s+-%-20s+-%6s+-%-9s+-%7s+-%6s+-%s\n",
		"----------", "--------------------", "------", "---------", "-------", "------", "---------")
	for _, r := range rows {
		policy := r.Policy
		if policy == "" {
			policy = "-"
		}
		fmt.Printf("%-10s  %-20s  %6d  %-9s  %7d  %6d  %s\n",
			shortID(r.SessionID), r.StartedAt, r.Counts.Cycles, policy, r.Counts.Faults, r.Counts.events(), r.Source)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	Session     record.SessionInfo   `json:"session"`
	Calibration *calibration.Result  `json:"calibration,omitempty"`
	Counts      tally                `json:"counts"`
	Cycles      []record.CycleRecord `json:"cycles"`
}

func runDetailMode(store *record.Store, sessionID string, lastCycles int, jsonOut bool) error {
	info, err := store.Session(sessionID)
	if err != nil {
		return err
	}
	cycles, err := store.Cycles(sessionID)
	if err != nil {
		return err
	}

	out := detailOutput{Session: info, Counts: count(cycles), Cycles: cycles}
	cal, err := store.Calibration(sessionID)
	switch {
	case err == nil:
		out.Calibration = &cal
	case !errors.Is(err, record.ErrSessionNotFound):
		return err
	}
	if lastCycles > 0 && len(out.Cycles) > lastCycles {
		out.Cycles = out.Cycles[len(out.Cycles)-lastCycles:]
	}

	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("Session:   %s\n", info.SessionID)
	fmt.Printf("Started:   %s\n", info.StartedAt.Format("2006-01-02T15:04:05Z"))
	fmt.Printf("Channels:  L=%s R=%s @ %d Hz\n", info.LeftChannel, info.RightChannel, info.SamplingRate)
	fmt.Printf("Source:    %s\n", info.Source)
	fmt.Printf("Cycles:    %d (%d faults, %d markers)\n", out.Counts.Cycles, out.Counts.Faults, out.Counts.Markers)
	fmt.Printf("Events:    left imagery %d, left movement %d, right imagery %d, right movement %d\n",
		out.Counts.LeftImagery, out.Counts.LeftMovement, out.Counts.RightImagery, out.Counts.RightMovement)

	if out.Calibration != nil {
		c := out.Calibration
		fmt.Printf("\nCalibration (%s, %d samples, %d skipped):\n", c.Policy, c.Samples, c.Skipped)
		printBaseline("L", c.Baseline.Left, c.Thresholds.Left)
		printBaseline("R", c.Baseline.Right, c.Thresholds.Right)
	}

	fmt.Printf("\n%5s  %-23s  %-17s  %-17s  %-9s  %-9s  %s\n",
		"Seq", "Time", "L rel a/b/g", "R rel a/b/g", "Left", "Right", "Marker")
	for _, c := range out.Cycles {
		left, right := string(c.LeftHand), string(c.RightHand)
		if c.Fault != classify.FaultNone {
			left, right = "fault:"+c.FaultSide, string(c.Fault)
		}
		marker := ""
		if c.Marker > 0 {
			marker = fmt.Sprintf("%d", c.Marker)
		}
		fmt.Printf("%5d  %-23s  %.3f/%.3f/%.3f  %.3f/%.3f/%.3f  %-9s  %-9s  %s\n",
			c.Seq, c.Timestamp.Format(record.TimestampLayout),
			c.LeftRel.Alpha, c.LeftRel.Beta, c.LeftRel.Gamma,
			c.RightRel.Alpha, c.RightRel.Beta, c.RightRel.Gamma,
			left, right, marker)
	}
	return nil
}

func printBaseline(side string, b calibration.BandStatistics, th calibration.Thresholds) {
	fmt.Printf("  %s  alpha %.3f±%.3f  beta %.3f±%.3f  gamma %.3f±%.3f  | drop %.3f rise %.3f gamma>%.3f\n",
		side, b.Alpha.Mean, b.Alpha.Std, b.Beta.Mean, b.Beta.Std, b.Gamma.Mean, b.Gamma.Std,
		th.AlphaDrop, th.BetaRise, th.GammaHigh)
}

// #endregion detail-mode

// #region tally

type tally struct {
	Cycles        int `json:"cycles"`
	Faults        int `json:"faults"`
	Markers       int `json:"markers"`
	LeftImagery   int `json:"left_imagery"`
	LeftMovement  int `json:"left_movement"`
	RightImagery  int `json:"right_imagery"`
	RightMovement int `json:"right_movement"`
}

func count(cycles []record.CycleRecord) tally {
	t := tally{Cycles: len(cycles)}
	for _, c := range cycles {
		if c.Marker > 0 {
			t.Markers++
		}
		if c.Fault != classify.FaultNone {
			t.Faults++
			continue
		}
		switch c.LeftHand {
		case classify.Imagery:
			t.LeftImagery++
		case classify.Movement:
			t.LeftMovement++
		}
		switch c.RightHand {
		case classify.Imagery:
			t.RightImagery++
		case classify.Movement:
			t.RightMovement++
		}
	}
	return t
}

func (t tally) events() int {
	return t.LeftImagery + t.LeftMovement + t.RightImagery + t.RightMovement
}

// #endregion tally

// #region output

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion output
