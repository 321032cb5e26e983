package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartFrame()
		pc.StartPhase(PhaseEvents)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseSubmit)
		time.Sleep(200 * time.Microsecond)
		pc.EndFrame()
	}

	stats := pc.Stats()

	if stats.AvgFrameDuration <= 0 {
		t.Error("expected positive average frame duration")
	}

	if _, ok := stats.PhaseAvg[PhaseEvents]; !ok {
		t.Error("expected events phase to be tracked")
	}

	if _, ok := stats.PhaseAvg[PhaseSubmit]; !ok {
		t.Error("expected submit phase to be tracked")
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5) // Small window

	for i := 0; i < 10; i++ {
		pc.StartFrame()
		pc.StartPhase(PhaseSubmit)
		pc.EndFrame()
	}

	stats := pc.Stats()

	if stats.AvgFrameDuration <= 0 {
		t.Error("expected positive average frame duration after window filled")
	}

	if stats.FramesPerSecond <= 0 {
		t.Error("expected positive frames per second")
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartFrame()
		pc.StartPhase("fast")
		time.Sleep(10 * time.Microsecond)
		pc.StartPhase("slow")
		time.Sleep(100 * time.Microsecond)
		pc.EndFrame()
	}

	stats := pc.Stats()

	fastPct := stats.PhasePct["fast"]
	slowPct := stats.PhasePct["slow"]

	if slowPct <= fastPct {
		t.Errorf("expected slow phase (%v%%) > fast phase (%v%%)", slowPct, fastPct)
	}
}

func TestPerfCollector_DevicePasses(t *testing.T) {
	pc := NewPerfCollector(4)

	for i := 0; i < 4; i++ {
		pc.StartFrame()
		pc.AddPasses(map[string]time.Duration{PassAdvect: 2 * time.Millisecond})
		pc.AddPasses(map[string]time.Duration{PassAdvect: 2 * time.Millisecond, PassFade: time.Millisecond})
		pc.EndFrame()
	}

	stats := pc.Stats()
	if got := stats.PassAvg[PassAdvect]; got != 4*time.Millisecond {
		t.Errorf("advect avg = %v, want 4ms", got)
	}
	if got := stats.PassAvg[PassFade]; got != time.Millisecond {
		t.Errorf("fade avg = %v, want 1ms", got)
	}

	row := stats.ToCSV(240)
	if row.WindowEnd != 240 || row.AdvectUS != 4000 || row.FadeUS != 1000 {
		t.Errorf("unexpected csv row %+v", row)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)

	stats := pc.Stats()

	if stats.AvgFrameDuration != 0 {
		t.Error("expected zero avg frame duration for empty collector")
	}

	if stats.PhaseAvg == nil || stats.PhasePct == nil || stats.PassAvg == nil {
		t.Error("expected non-nil maps")
	}
}

func TestPerfCollector_PresentTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	// First call establishes baseline
	pc.RecordPresent()
	time.Sleep(16 * time.Millisecond) // ~60fps frame time
	pc.RecordPresent()

	stats := pc.Stats()

	if stats.PresentInterval < 15*time.Millisecond {
		t.Errorf("expected present interval >= 15ms, got %v", stats.PresentInterval)
	}

	// With 16ms frames, expect ~60 FPS (allow range 20-80 for slow CI sleeps)
	if stats.FPS < 20 || stats.FPS > 80 {
		t.Errorf("expected FPS between 20-80 with 16ms frame time, got %v", stats.FPS)
	}
}
