package main

import (
	"io"
	"log/slog"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/windfield/app"
	"github.com/pthm-cable/windfield/config"
	"github.com/pthm-cable/windfield/telemetry"
)

// Targets are the trail statistics a good parameter set should produce.
type Targets struct {
	Coverage     float64 // share of the screen with visible trail
	DropFraction float64 // respawns per particle-frame
}

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	frames      int
	seeds       []int64
	baseConfig  *config.Config
	statsWindow float64
	targets     Targets

	// Best run tracking
	mu           sync.Mutex
	bestFitness  float64
	bestWindows  []telemetry.WindowStats
	lastCoverage float64 // mean coverage from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, frames int, seeds []int64, baseCfg *config.Config, targets Targets) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		frames:      frames,
		seeds:       seeds,
		baseConfig:  baseCfg,
		statsWindow: 1.0,
		targets:     targets,
		bestFitness: math.Inf(1),
	}
}

// BestWindows returns the window stats of the best seed of the best evaluation.
func (fe *FitnessEvaluator) BestWindows() []telemetry.WindowStats {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestWindows
}

// LastCoverage returns the mean coverage from the most recent evaluation.
func (fe *FitnessEvaluator) LastCoverage() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastCoverage
}

// failedFitness scores a run that could not produce stats.
const failedFitness = 1e6

type seedResult struct {
	fitness  float64
	coverage float64
	windows  []telemetry.WindowStats
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Seeds run in parallel, each on its own device.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			windows, err := fe.runSimulation(x, s)
			if err != nil {
				results[idx] = seedResult{fitness: failedFitness}
				return
			}
			results[idx] = seedResult{
				fitness:  computeFitness(windows, fe.targets),
				coverage: meanOf(windows, func(w telemetry.WindowStats) float64 { return w.Coverage }),
				windows:  windows,
			}
		}(i, seed)
	}
	wg.Wait()

	var totalFitness, totalCoverage float64
	bestSeed := math.Inf(1)
	var bestSeedWindows []telemetry.WindowStats
	for _, r := range results {
		totalFitness += r.fitness
		totalCoverage += r.coverage
		if r.fitness < bestSeed {
			bestSeed = r.fitness
			bestSeedWindows = r.windows
		}
	}

	n := float64(len(fe.seeds))
	avgFitness := totalFitness / n

	fe.mu.Lock()
	if avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
		fe.bestWindows = bestSeedWindows
	}
	fe.lastCoverage = totalCoverage / n
	fe.mu.Unlock()

	return avgFitness
}

// runSimulation draws a fixed number of frames and returns every stats window.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) ([]telemetry.WindowStats, error) {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	a, err := app.New(cfg, app.Options{
		Seed:           seed,
		StatsWindowSec: fe.statsWindow,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		return nil, err
	}
	defer a.Close()

	var windows []telemetry.WindowStats
	a.SetStatsCallback(func(s telemetry.WindowStats) {
		windows = append(windows, s)
	})

	for i := 0; i < fe.frames; i++ {
		if _, err := a.Step(); err != nil {
			return nil, err
		}
	}
	return windows, nil
}

// copyConfig returns a copy of the base config whose simulation section can be
// changed independently. The color ramp is shared read-only.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	cfg.Telemetry.SampleCoverage = true
	return &cfg
}

// Fitness weights.
const (
	weightCoverage  = 1.0
	weightDrops     = 0.5
	weightStability = 0.25

	warmupWindows = 2 // trails need a few seconds to build up
)

// computeFitness scores how far the windows are from the targets (lower =
// better). Each term is a squared relative error; stability penalizes
// coverage that keeps drifting after warmup.
func computeFitness(windows []telemetry.WindowStats, t Targets) float64 {
	if len(windows) <= warmupWindows {
		return failedFitness
	}
	valid := windows[warmupWindows:]

	coverage := make([]float64, len(valid))
	drops := make([]float64, len(valid))
	for i, w := range valid {
		coverage[i] = w.Coverage
		drops[i] = w.DropFraction
	}

	covMean, covStd := stat.MeanStdDev(coverage, nil)
	dropMean := stat.Mean(drops, nil)

	f := weightCoverage * relErr2(covMean, t.Coverage)
	f += weightDrops * relErr2(dropMean, t.DropFraction)
	if len(valid) >= 2 && covMean > 0 {
		cv := covStd / covMean
		f += weightStability * cv * cv
	}
	return f
}

func relErr2(got, want float64) float64 {
	if want == 0 {
		return got * got
	}
	d := (got - want) / want
	return d * d
}

func meanOf(windows []telemetry.WindowStats, fn func(telemetry.WindowStats) float64) float64 {
	if len(windows) == 0 {
		return 0
	}
	var sum float64
	for _, w := range windows {
		sum += fn(w)
	}
	return sum / float64(len(windows))
}
