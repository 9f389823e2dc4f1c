package record

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/calibration"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/classify"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func beginSession(t *testing.T, s *Store, id string, started time.Time) {
	t.Helper()
	err := s.BeginSession(SessionInfo{
		SessionID:    id,
		StartedAt:    started,
		SamplingRate: 250,
		LeftChannel:  "C4",
		RightChannel: "C3",
		Source:       "synthetic",
	})
	if err != nil {
		t.Fatalf("BeginSession: %v", err)
	}
}

func TestStoreSessionRoundTrip(t *testing.T) {
	s := tempStore(t)
	started := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	beginSession(t, s, "s1", started)

	info, err := s.Session("s1")
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if !info.StartedAt.Equal(started) || info.LeftChannel != "C4" || info.Source != "synthetic" {
		t.Fatalf("unexpected session %+v", info)
	}

	_, err = s.Session("missing")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestStoreSessionSettings(t *testing.T) {
	s := tempStore(t)
	err := s.BeginSession(SessionInfo{
		SessionID:    "tuned",
		StartedAt:    time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		SamplingRate: 250,
		LeftChannel:  "C4",
		RightChannel: "C3",
		NoiseFloor:   0.01,
		Ceiling:      500,
		MinDwell:     3,
	})
	if err != nil {
		t.Fatalf("BeginSession: %v", err)
	}

	info, err := s.Session("tuned")
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	want := classify.FaultLimits{NoiseFloor: 0.01, Ceiling: 500}
	if got := info.FaultLimits(); got != want {
		t.Fatalf("FaultLimits = %+v, want %+v", got, want)
	}
	if info.MinDwell != 3 {
		t.Fatalf("MinDwell = %d, want 3", info.MinDwell)
	}
}

func TestSessionFaultLimitsDefaultWhenUnrecorded(t *testing.T) {
	s := tempStore(t)
	beginSession(t, s, "plain", time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))

	info, err := s.Session("plain")
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if got := info.FaultLimits(); got != classify.DefaultFaultLimits() {
		t.Fatalf("FaultLimits = %+v, want defaults", got)
	}
	if info.MinDwell != 0 {
		t.Fatalf("MinDwell = %d, want 0", info.MinDwell)
	}
}

func TestOpenStoreAddsSessionSettingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	_, err = db.Exec(`CREATE TABLE sessions (
		session_id    TEXT PRIMARY KEY,
		started_at    TEXT NOT NULL,
		sampling_rate INTEGER NOT NULL,
		left_channel  TEXT NOT NULL,
		right_channel TEXT NOT NULL,
		source        TEXT
	)`)
	if err != nil {
		t.Fatalf("create old schema: %v", err)
	}
	db.Close()

	s, err := OpenStore(path)
	if err != nil {
		t.Fatalf("OpenStore on old schema: %v", err)
	}
	defer s.Close()
	if err := s.BeginSession(SessionInfo{
		SessionID: "s1", StartedAt: time.Now(), SamplingRate: 250,
		LeftChannel: "C4", RightChannel: "C3", Ceiling: 800,
	}); err != nil {
		t.Fatalf("BeginSession after migration: %v", err)
	}
	info, err := s.Session("s1")
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if info.Ceiling != 800 {
		t.Fatalf("Ceiling = %v, want 800", info.Ceiling)
	}
}

func TestStoreListSessionsNewestFirst(t *testing.T) {
	s := tempStore(t)
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	beginSession(t, s, "old", base)
	beginSession(t, s, "new", base.Add(time.Hour))

	list, err := s.ListSessions(10)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(list) != 2 || list[0].SessionID != "new" {
		t.Fatalf("unexpected order %+v", list)
	}
}

func TestStoreCyclesRoundTrip(t *testing.T) {
	s := tempStore(t)
	beginSession(t, s, "s1", time.Now())

	ok := sampleRecord(1)
	ok.Marker = 2
	ok.LeftHand = classify.Imagery
	ok.RightHand = classify.None

	faulted := sampleRecord(2)
	faulted.Fault = classify.FaultNoData
	faulted.FaultSide = "L"

	for _, rec := range []CycleRecord{faulted, ok} {
		if err := s.Append(rec); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := s.Cycles("s1")
	if err != nil {
		t.Fatalf("Cycles: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 cycles, got %d", len(got))
	}
	if got[0].Seq != 1 || got[0].Marker != 2 || got[0].LeftHand != classify.Imagery {
		t.Fatalf("unexpected first cycle %+v", got[0])
	}
	if got[0].Left != ok.Left || got[0].RightRel != ok.RightRel {
		t.Fatal("band values should round-trip")
	}
	if !got[0].Timestamp.Equal(ok.Timestamp) {
		t.Fatalf("timestamp mismatch: %v", got[0].Timestamp)
	}
	if got[1].Fault != classify.FaultNoData || got[1].FaultSide != "L" || got[1].LeftHand != "" {
		t.Fatalf("unexpected fault cycle %+v", got[1])
	}
}

func TestStoreRejectsUnknownSession(t *testing.T) {
	s := tempStore(t)
	if err := s.Append(sampleRecord(1)); err == nil {
		t.Fatal("expected foreign key error")
	}
}

func TestStoreRejectsDuplicateSeq(t *testing.T) {
	s := tempStore(t)
	beginSession(t, s, "s1", time.Now())
	if err := s.Append(sampleRecord(1)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Append(sampleRecord(1)); err == nil {
		t.Fatal("expected duplicate key error")
	}
}

func TestStoreCalibration(t *testing.T) {
	s := tempStore(t)
	beginSession(t, s, "s1", time.Now())

	if _, err := s.Calibration("s1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	res := calibration.Result{
		Policy:  calibration.PolicyShared,
		Samples: 10,
		Skipped: 1,
		Baseline: calibration.Baseline{
			Left: calibration.BandStatistics{Alpha: calibration.Moments{Mean: 0.5, Std: 0.1}},
		},
		CompletedAt: time.Date(2026, 3, 14, 9, 0, 10, 0, time.UTC),
	}
	if err := s.SaveCalibration("s1", res); err != nil {
		t.Fatalf("SaveCalibration: %v", err)
	}
	res.Skipped = 2
	if err := s.SaveCalibration("s1", res); err != nil {
		t.Fatalf("SaveCalibration overwrite: %v", err)
	}

	got, err := s.Calibration("s1")
	if err != nil {
		t.Fatalf("Calibration: %v", err)
	}
	if got.Skipped != 2 || got.Baseline.Left.Alpha.Mean != 0.5 || got.Policy != calibration.PolicyShared {
		t.Fatalf("unexpected calibration %+v", got)
	}
}
