// Package config provides configuration loading and access for the wind renderer.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/windfield/colorramp"
	"github.com/pthm-cable/windfield/engine"
	"github.com/pthm-cable/windfield/gpu"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	Particles  ParticlesConfig  `yaml:"particles"`
	Simulation SimulationConfig `yaml:"simulation"`
	ColorRamp  []colorramp.Stop `yaml:"color_ramp"`
	Wind       WindConfig       `yaml:"wind"`
	GPU        GPUConfig        `yaml:"gpu"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Server     ServerConfig     `yaml:"server"`
	UI         UIConfig         `yaml:"ui"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings. In headless mode it sizes the surface.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// ParticlesConfig holds the particle count and the range the controls allow.
type ParticlesConfig struct {
	Count int `yaml:"count"`
	Min   int `yaml:"min"`
	Max   int `yaml:"max"`
}

// SimulationConfig holds the per-frame simulation parameters.
type SimulationConfig struct {
	FadeOpacity  float64 `yaml:"fade_opacity"`
	SpeedFactor  float64 `yaml:"speed_factor"`
	DropRate     float64 `yaml:"drop_rate"`
	DropRateBump float64 `yaml:"drop_rate_bump"`
	SpeedScale   float64 `yaml:"speed_scale"`
	Seed         int64   `yaml:"seed"`
}

// WindConfig selects the wind field source.
// Meta and Image load a field from disk; otherwise a synthetic field is generated.
type WindConfig struct {
	Meta            string `yaml:"meta"`
	Image           string `yaml:"image"`
	Synthetic       string `yaml:"synthetic"`
	SyntheticWidth  int    `yaml:"synthetic_width"`
	SyntheticHeight int    `yaml:"synthetic_height"`
}

// GPUConfig holds device limits.
type GPUConfig struct {
	Workers        int `yaml:"workers"`
	MaxTextureSize int `yaml:"max_texture_size"`
	MemoryBudgetMB int `yaml:"memory_budget_mb"`
	QueueDepth     int `yaml:"queue_depth"`
}

// TelemetryConfig holds stats collection parameters.
type TelemetryConfig struct {
	StatsWindow    float64 `yaml:"stats_window"`    // Seconds of simulated time per window
	PerfWindow     int     `yaml:"perf_window"`     // Frames in rolling perf window
	SampleSpeeds   bool    `yaml:"sample_speeds"`   // Read back positions for speed stats
	SampleCoverage bool    `yaml:"sample_coverage"` // Read back trails for coverage
}

// ServerConfig holds the websocket endpoint settings.
type ServerConfig struct {
	Listen string `yaml:"listen"` // Empty disables the server
}

// Range is an inclusive slider range.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// UIConfig holds slider ranges for the control panel.
type UIConfig struct {
	FadeOpacity  Range `yaml:"fade_opacity"`
	SpeedFactor  Range `yaml:"speed_factor"`
	DropRate     Range `yaml:"drop_rate"`
	DropRateBump Range `yaml:"drop_rate_bump"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT     float64       // Seconds per frame at the target rate
	Params engine.Params // Simulation section as engine parameters
	GPU    gpu.Config    // Device limits (logger left unset)
}

var global *Config

// Init loads configuration from path (or defaults if empty) and sets it as global.
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	fps := c.Screen.TargetFPS
	if fps <= 0 {
		fps = 60
	}
	c.Derived.DT = 1 / float64(fps)

	c.Derived.Params = engine.Params{
		FadeOpacity:  float32(c.Simulation.FadeOpacity),
		SpeedFactor:  float32(c.Simulation.SpeedFactor),
		DropRate:     float32(c.Simulation.DropRate),
		DropRateBump: float32(c.Simulation.DropRateBump),
		SpeedScale:   float32(c.Simulation.SpeedScale),
	}

	workers := c.GPU.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	c.Derived.GPU = gpu.Config{
		Workers:        workers,
		MaxTextureSize: c.GPU.MaxTextureSize,
		MemoryBudget:   int64(c.GPU.MemoryBudgetMB) << 20,
		QueueDepth:     c.GPU.QueueDepth,
	}
}

// Validate checks the values the engine would otherwise reject at startup.
func (c *Config) Validate() error {
	if c.Screen.Width <= 0 || c.Screen.Height <= 0 {
		return fmt.Errorf("config: screen size %dx%d must be positive", c.Screen.Width, c.Screen.Height)
	}
	if c.Particles.Count <= 0 {
		return fmt.Errorf("config: particles.count %d must be positive", c.Particles.Count)
	}
	if c.Particles.Min > c.Particles.Max {
		return fmt.Errorf("config: particles.min %d > particles.max %d", c.Particles.Min, c.Particles.Max)
	}
	if err := c.Derived.Params.Validate(); err != nil {
		return fmt.Errorf("config: simulation: %w", err)
	}
	if _, err := colorramp.Build(c.ColorRamp); err != nil {
		return fmt.Errorf("config: color_ramp: %w", err)
	}
	if (c.Wind.Meta == "") != (c.Wind.Image == "") {
		return fmt.Errorf("config: wind.meta and wind.image must be set together")
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
