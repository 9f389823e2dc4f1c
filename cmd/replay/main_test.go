package main

import (
	"testing"

	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/calibration"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/classify"
	"github.com/danielpatrickdp/motor-imagery/go-controller/internal/record"
)

func TestSessionConfigUsesRecordedSettings(t *testing.T) {
	info := record.SessionInfo{SessionID: "s1", NoiseFloor: 0.5, Ceiling: 300, MinDwell: 4}
	cfg := sessionConfig(info, calibration.Result{}, 0)

	want := classify.FaultLimits{NoiseFloor: 0.5, Ceiling: 300}
	if cfg.Limits != want {
		t.Fatalf("Limits = %+v, want %+v", cfg.Limits, want)
	}
	if cfg.MinDwell != 4 {
		t.Fatalf("MinDwell = %d, want 4", cfg.MinDwell)
	}
}

func TestSessionConfigDwellOverride(t *testing.T) {
	info := record.SessionInfo{SessionID: "s1", MinDwell: 4}
	cfg := sessionConfig(info, calibration.Result{}, 2)
	if cfg.MinDwell != 2 {
		t.Fatalf("MinDwell = %d, want 2", cfg.MinDwell)
	}
	if cfg.Limits != classify.DefaultFaultLimits() {
		t.Fatalf("Limits = %+v, want defaults", cfg.Limits)
	}
}
