package telemetry

import (
	"log/slog"
	"sort"
	"time"
)

// Host phase names for one frame.
const (
	PhaseEvents   = "events"   // draining queued parameter updates
	PhaseSubmit   = "submit"   // recording and submitting the frame's passes
	PhaseReadback = "readback" // telemetry readback at window end
)

// Device pass names, as labeled by the engine.
const (
	PassAdvect  = "advect"
	PassFade    = "fade"
	PassPoints  = "points"
	PassPresent = "present"
)

// PerfSample holds timing data for a single frame.
type PerfSample struct {
	FrameDuration time.Duration
	Phases        map[string]time.Duration // host phases
	Passes        map[string]time.Duration // device passes executed during the frame
}

// PerfCollector tracks performance metrics over a rolling window.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	currentPasses map[string]time.Duration
	frameStart    time.Time
	phaseStart    time.Time
	lastPhase     string

	// Display timing (windowed mode)
	lastPresent     time.Time
	presentInterval time.Duration
}

// NewPerfCollector creates a new performance collector.
// windowSize: number of frames to average over (e.g., 60 for 1 second at 60fps).
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
		currentPasses: make(map[string]time.Duration),
	}
}

// StartFrame begins timing a new frame.
func (p *PerfCollector) StartFrame() {
	p.frameStart = time.Now()
	p.currentPhases = make(map[string]time.Duration)
	p.currentPasses = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase begins timing a specific host phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	// End previous phase if any
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// AddPasses folds device pass timings into the current frame.
// Passes run asynchronously, so they are attributed to the frame that collected them.
func (p *PerfCollector) AddPasses(passes map[string]time.Duration) {
	for name, d := range passes {
		p.currentPasses[name] += d
	}
}

// EndFrame finishes timing the current frame and records the sample.
func (p *PerfCollector) EndFrame() {
	now := time.Now()
	// End final phase
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}

	p.samples[p.writeIndex] = PerfSample{
		FrameDuration: now.Sub(p.frameStart),
		Phases:        p.currentPhases,
		Passes:        p.currentPasses,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// RecordPresent records the interval between displayed frames.
func (p *PerfCollector) RecordPresent() {
	now := time.Now()
	if !p.lastPresent.IsZero() {
		p.presentInterval = now.Sub(p.lastPresent)
	}
	p.lastPresent = now
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	// Host frame timing
	AvgFrameDuration time.Duration
	MinFrameDuration time.Duration
	MaxFrameDuration time.Duration

	// Host phase breakdown (average durations and share of frame time)
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	// Device pass averages per frame
	PassAvg map[string]time.Duration

	// Throughput
	FramesPerSecond float64

	// Display timing (windowed mode)
	PresentInterval time.Duration
	FPS             float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	var fps float64
	if p.presentInterval > 0 {
		fps = float64(time.Second) / float64(p.presentInterval)
	}

	if p.sampleCount == 0 {
		return PerfStats{
			PhaseAvg:        make(map[string]time.Duration),
			PhasePct:        make(map[string]float64),
			PassAvg:         make(map[string]time.Duration),
			PresentInterval: p.presentInterval,
			FPS:             fps,
		}
	}

	var total, minFrame, maxFrame time.Duration
	phaseSum := make(map[string]time.Duration)
	passSum := make(map[string]time.Duration)

	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.FrameDuration

		if i == 0 || s.FrameDuration < minFrame {
			minFrame = s.FrameDuration
		}
		if s.FrameDuration > maxFrame {
			maxFrame = s.FrameDuration
		}
		for phase, d := range s.Phases {
			phaseSum[phase] += d
		}
		for pass, d := range s.Passes {
			passSum[pass] += d
		}
	}

	n := time.Duration(p.sampleCount)
	avg := total / n

	phaseAvg := make(map[string]time.Duration, len(phaseSum))
	phasePct := make(map[string]float64, len(phaseSum))
	for phase, sum := range phaseSum {
		phaseAvg[phase] = sum / n
		if avg > 0 {
			phasePct[phase] = float64(phaseAvg[phase]) / float64(avg) * 100
		}
	}
	passAvg := make(map[string]time.Duration, len(passSum))
	for pass, sum := range passSum {
		passAvg[pass] = sum / n
	}

	var perSec float64
	if avg > 0 {
		perSec = float64(time.Second) / float64(avg)
	}

	return PerfStats{
		AvgFrameDuration: avg,
		MinFrameDuration: minFrame,
		MaxFrameDuration: maxFrame,
		PhaseAvg:         phaseAvg,
		PhasePct:         phasePct,
		PassAvg:          passAvg,
		FramesPerSecond:  perSec,
		PresentInterval:  p.presentInterval,
		FPS:              fps,
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_frame_us", s.AvgFrameDuration.Microseconds()),
		slog.Int64("min_frame_us", s.MinFrameDuration.Microseconds()),
		slog.Int64("max_frame_us", s.MaxFrameDuration.Microseconds()),
		slog.Float64("frames_per_sec", s.FramesPerSecond),
	}

	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}

	for _, phase := range sortedKeys(s.PhasePct) {
		attrs = append(attrs, slog.Float64(phase+"_pct", s.PhasePct[phase]))
	}
	for _, pass := range sortedKeys(s.PassAvg) {
		attrs = append(attrs, slog.Int64(pass+"_us", s.PassAvg[pass].Microseconds()))
	}

	return slog.GroupValue(attrs...)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd     uint64  `csv:"window_end"`
	AvgFrameUS    int64   `csv:"avg_frame_us"`
	MinFrameUS    int64   `csv:"min_frame_us"`
	MaxFrameUS    int64   `csv:"max_frame_us"`
	FramesPerSec  float64 `csv:"frames_per_sec"`
	FPS           float64 `csv:"fps"`
	EventsPct     float64 `csv:"events_pct"`
	SubmitPct     float64 `csv:"submit_pct"`
	ReadbackPct   float64 `csv:"readback_pct"`
	AdvectUS      int64   `csv:"advect_us"`
	FadeUS        int64   `csv:"fade_us"`
	PointsUS      int64   `csv:"points_us"`
	PresentPassUS int64   `csv:"present_pass_us"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd uint64) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:     windowEnd,
		AvgFrameUS:    s.AvgFrameDuration.Microseconds(),
		MinFrameUS:    s.MinFrameDuration.Microseconds(),
		MaxFrameUS:    s.MaxFrameDuration.Microseconds(),
		FramesPerSec:  s.FramesPerSecond,
		FPS:           s.FPS,
		EventsPct:     s.PhasePct[PhaseEvents],
		SubmitPct:     s.PhasePct[PhaseSubmit],
		ReadbackPct:   s.PhasePct[PhaseReadback],
		AdvectUS:      s.PassAvg[PassAdvect].Microseconds(),
		FadeUS:        s.PassAvg[PassFade].Microseconds(),
		PointsUS:      s.PassAvg[PassPoints].Microseconds(),
		PresentPassUS: s.PassAvg[PassPresent].Microseconds(),
	}
}
