// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Domain    DomainConfig    `yaml:"domain"`
	Grid      GridConfig      `yaml:"grid"`
	Flock     FlockConfig     `yaml:"flock"`
	Boids     BoidsConfig     `yaml:"boids"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Autoscale AutoscaleConfig `yaml:"autoscale"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// DomainConfig holds the axis-aligned bounds of the simulated volume.
type DomainConfig struct {
	Lower [3]float64 `yaml:"lower"`
	Upper [3]float64 `yaml:"upper"`
}

// GridConfig holds nearest-neighbour grid parameters.
type GridConfig struct {
	CellSize  [3]float64 `yaml:"cell_size"`
	Capacity  int        `yaml:"capacity"`  // Max ids per cell per frame
	Bucketing string     `yaml:"bucketing"` // "ceil" (reference) or "floor"
}

// FlockConfig holds population parameters.
type FlockConfig struct {
	MaxPopulation int `yaml:"max_population"` // Backing array size; never reallocated
}

// BoidsConfig holds the steering parameter set.
type BoidsConfig struct {
	Speed              float64 `yaml:"speed"`
	SeparationRadius   float64 `yaml:"separation_radius"`
	SeparationStrength float64 `yaml:"separation_strength"`
	AlignmentRadius    float64 `yaml:"alignment_radius"`
	AlignmentStrength  float64 `yaml:"alignment_strength"`
	CohesionRadius     float64 `yaml:"cohesion_radius"`
	CohesionStrength   float64 `yaml:"cohesion_strength"`
}

// PhysicsConfig holds stepping parameters.
type PhysicsConfig struct {
	DT      float64 `yaml:"dt"`
	Workers int     `yaml:"workers"` // 1 = sequential, 0 = GOMAXPROCS
}

// AutoscaleConfig controls how the active population ramps up.
type AutoscaleConfig struct {
	Enabled       bool    `yaml:"enabled"`
	Initial       int     `yaml:"initial"`
	Step          int     `yaml:"step"`
	FrameBudgetMS float64 `yaml:"frame_budget_ms"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32        float32
	Lower       mgl32.Vec3
	Upper       mgl32.Vec3
	CellSize    mgl32.Vec3
	FrameBudget time.Duration
}

// ErrInvalidConfig is returned when a loaded configuration breaks a cross-field invariant.
var ErrInvalidConfig = errors.New("invalid config")

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
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
	if err := validateDocument(defaultsYAML); err != nil {
		return nil, fmt.Errorf("validating embedded defaults: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := validateDocument(data); err != nil {
			return nil, fmt.Errorf("validating config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate checks invariants the schema cannot express.
func (c *Config) Validate() error {
	for axis := 0; axis < 3; axis++ {
		if c.Domain.Lower[axis] >= c.Domain.Upper[axis] {
			return fmt.Errorf("%w: domain.lower[%d]=%v must be below domain.upper[%d]=%v",
				ErrInvalidConfig, axis, c.Domain.Lower[axis], axis, c.Domain.Upper[axis])
		}
		if c.Grid.CellSize[axis] <= 0 {
			return fmt.Errorf("%w: grid.cell_size[%d] must be positive", ErrInvalidConfig, axis)
		}
	}
	if c.Autoscale.Initial > c.Flock.MaxPopulation {
		return fmt.Errorf("%w: autoscale.initial %d exceeds flock.max_population %d",
			ErrInvalidConfig, c.Autoscale.Initial, c.Flock.MaxPopulation)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Physics.DT)
	c.Derived.Lower = vec3(c.Domain.Lower)
	c.Derived.Upper = vec3(c.Domain.Upper)
	c.Derived.CellSize = vec3(c.Grid.CellSize)
	c.Derived.FrameBudget = time.Duration(c.Autoscale.FrameBudgetMS * float64(time.Millisecond))
}

func vec3(v [3]float64) mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
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
