// Package main searches the simulation parameters with CMA-ES for a target
// trail coverage and respawn rate, running headless simulations per candidate.
//
// Usage: go run ./cmd/tune -output tune-out
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/windfield/config"
)

// evalRow is one line of the evaluation log.
type evalRow struct {
	Eval         int     `csv:"eval"`
	Fitness      float64 `csv:"fitness"`
	Coverage     float64 `csv:"coverage"`
	FadeOpacity  float64 `csv:"fade_opacity"`
	SpeedFactor  float64 `csv:"speed_factor"`
	DropRate     float64 `csv:"drop_rate"`
	DropRateBump float64 `csv:"drop_rate_bump"`
}

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	frames := flag.Int("frames", 600, "Frames per simulation run")
	seeds := flag.Int("seeds", 3, "Number of seeds per evaluation")
	maxEvals := flag.Int("max-evals", 100, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	width := flag.Int("width", 256, "Surface width for runs")
	height := flag.Int("height", 128, "Surface height for runs")
	particles := flag.Int("particles", 8192, "Particles per run")
	targetCoverage := flag.Float64("target-coverage", 0.35, "Target share of screen covered by trails")
	targetDrops := flag.Float64("target-drops", 0.004, "Target respawns per particle-frame")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	baseCfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	baseCfg.Screen.Width = *width
	baseCfg.Screen.Height = *height
	baseCfg.Particles.Count = *particles
	// Seeds already run in parallel; keep each device small.
	baseCfg.Derived.GPU.Workers = 2

	params := NewParamVector(baseCfg)

	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}

	targets := Targets{Coverage: *targetCoverage, DropFraction: *targetDrops}
	evaluator := NewFitnessEvaluator(params, *frames, evalSeeds, baseCfg, targets)

	dim := params.Dim()
	initX := params.Normalize(params.DefaultVector())

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return evaluator.Evaluate(params.Denormalize(x))
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0, // Sequential evaluation
	}

	popSize := *population
	if popSize == 0 {
		popSize = 4 + int(3.0*float64(dim)/2.0)
	}

	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}

	logPath := filepath.Join(*outputDir, "tune_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()
	headerWritten := false

	evalCount := 0
	bestFitness := 1e9
	var bestParams []float64
	startTime := time.Now()

	originalFunc := problem.Func
	problem.Func = func(x []float64) float64 {
		fitness := originalFunc(x)
		evalCount++

		clamped := params.Clamp(params.Denormalize(x))
		if fitness < bestFitness {
			bestFitness = fitness
			bestParams = clamped
		}

		coverage := evaluator.LastCoverage()
		rows := []evalRow{{
			Eval:         evalCount,
			Fitness:      fitness,
			Coverage:     coverage,
			FadeOpacity:  clamped[0],
			SpeedFactor:  clamped[1],
			DropRate:     clamped[2],
			DropRateBump: clamped[3],
		}}
		if !headerWritten {
			err = gocsv.Marshal(rows, logFile)
			headerWritten = true
		} else {
			err = gocsv.MarshalWithoutHeaders(rows, logFile)
		}
		if err != nil {
			log.Printf("failed to log evaluation: %v", err)
		}

		elapsed := time.Since(startTime)
		avgPerEval := elapsed / time.Duration(evalCount)
		remaining := time.Duration(*maxEvals-evalCount) * avgPerEval

		fmt.Printf("Eval %d/%d: fitness=%.4f coverage=%.3f (best=%.4f) | elapsed: %s, ETA: %s\n",
			evalCount, *maxEvals, fitness, coverage, bestFitness,
			formatDuration(elapsed), formatDuration(remaining))

		return fitness
	}

	fmt.Printf("Starting CMA-ES tuning with %d parameters, population=%d, max_evals=%d\n",
		dim, popSize, *maxEvals)
	fmt.Printf("Seeds per evaluation: %d, frames per run: %d, targets: coverage=%.2f drops=%.4f\n",
		*seeds, *frames, targets.Coverage, targets.DropFraction)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}

	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}
	if bestParams == nil {
		log.Fatal("no evaluations completed")
	}

	totalTime := time.Since(startTime)
	fmt.Printf("\nTuning complete after %d evaluations in %s\n", evalCount, formatDuration(totalTime))
	fmt.Printf("Best fitness: %.4f\n", bestFitness)

	fmt.Println("\nBest parameters:")
	for i, spec := range params.Specs {
		fmt.Printf("  %s: %.6f\n", spec.Path, bestParams[i])
	}

	// Save against the unmodified base file so screen and particle overrides
	// used for speed do not leak into the result.
	bestCfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to reload config: %v", err)
	}
	params.ApplyToConfig(bestCfg, bestParams)

	configOutPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		log.Printf("failed to write best config: %v", err)
	} else {
		fmt.Printf("\nBest config saved to: %s\n", configOutPath)
	}

	if windows := evaluator.BestWindows(); windows != nil {
		windowsPath := filepath.Join(*outputDir, "best_windows.json")
		data, err := json.MarshalIndent(windows, "", "  ")
		if err != nil {
			log.Printf("failed to marshal windows: %v", err)
		} else if err := os.WriteFile(windowsPath, data, 0644); err != nil {
			log.Printf("failed to write windows: %v", err)
		} else {
			fmt.Printf("Best run windows saved to: %s\n", windowsPath)
		}
	}
}
