package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/windfield/config"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("expected nil manager for empty dir, got %v, %v", om, err)
	}
	// Nil manager methods are no-ops.
	if err := om.WriteStats(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestOutputManagerWritesCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		t.Errorf("WriteConfig: %v", err)
	}

	for i := uint64(1); i <= 3; i++ {
		if err := om.WriteStats(WindowStats{WindowEndFrame: i * 60, Frames: 60, Particles: 100}); err != nil {
			t.Fatalf("WriteStats: %v", err)
		}
		if err := om.WritePerf(PerfStats{}, i*60); err != nil {
			t.Fatalf("WritePerf: %v", err)
		}
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "stats.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "window_end,") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if !strings.HasPrefix(lines[3], "180,") {
		t.Errorf("unexpected last row %q", lines[3])
	}

	perf, _ := os.ReadFile(filepath.Join(dir, "perf.csv"))
	if n := strings.Count(string(perf), "window_end"); n != 1 {
		t.Errorf("perf.csv has %d header rows, want 1", n)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config snapshot missing: %v", err)
	}
}
