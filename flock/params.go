package flock

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/boids/config"
)

// Construction errors.
var (
	ErrInvalidDomain     = errors.New("flock: lower corner must be below upper corner")
	ErrInvalidCellSize   = errors.New("flock: cell size must be positive")
	ErrInvalidCapacity   = errors.New("flock: cell capacity out of range")
	ErrInvalidPopulation = errors.New("flock: population must be positive")
)

// Params holds the steering constants for one run.
// Radii gate each rule with a hard threshold; strengths scale the contribution.
type Params struct {
	Speed float32

	SeparationRadius   float32
	SeparationStrength float32
	AlignmentRadius    float32
	AlignmentStrength  float32
	CohesionRadius     float32
	CohesionStrength   float32
}

// DefaultParams returns the reference parameter set.
func DefaultParams() Params {
	return Params{
		Speed: 60.0,

		SeparationRadius: 25.0,
		AlignmentRadius:  50.0,
		CohesionRadius:   50.0,

		SeparationStrength: 4.0,
		AlignmentStrength:  6.0,
		CohesionStrength:   1.0,
	}
}

// ParamsFromConfig converts the boids config section.
func ParamsFromConfig(c config.BoidsConfig) Params {
	return Params{
		Speed:              float32(c.Speed),
		SeparationRadius:   float32(c.SeparationRadius),
		SeparationStrength: float32(c.SeparationStrength),
		AlignmentRadius:    float32(c.AlignmentRadius),
		AlignmentStrength:  float32(c.AlignmentStrength),
		CohesionRadius:     float32(c.CohesionRadius),
		CohesionStrength:   float32(c.CohesionStrength),
	}
}

// Config describes a simulation to construct.
type Config struct {
	Lower         mgl32.Vec3
	Upper         mgl32.Vec3
	CellSize      mgl32.Vec3
	Capacity      int
	Bucketing     Bucketing
	MaxPopulation int
	Params        Params
	Workers       int // 1 keeps interact on the calling goroutine; <= 0 uses GOMAXPROCS
	Seed          int64
}

// DefaultConfig returns the reference domain, grid and parameters.
func DefaultConfig() Config {
	return Config{
		Lower:         mgl32.Vec3{-500, -500, -500},
		Upper:         mgl32.Vec3{500, 500, 500},
		CellSize:      mgl32.Vec3{75, 75, 75},
		Capacity:      8,
		Bucketing:     BucketCeil,
		MaxPopulation: 50000,
		Params:        DefaultParams(),
		Workers:       1,
		Seed:          42,
	}
}

// ConfigFrom builds a simulation Config from loaded configuration.
func ConfigFrom(cfg *config.Config, seed int64) (Config, error) {
	bucketing, err := ParseBucketing(cfg.Grid.Bucketing)
	if err != nil {
		return Config{}, fmt.Errorf("grid: %w", err)
	}
	return Config{
		Lower:         cfg.Derived.Lower,
		Upper:         cfg.Derived.Upper,
		CellSize:      cfg.Derived.CellSize,
		Capacity:      cfg.Grid.Capacity,
		Bucketing:     bucketing,
		MaxPopulation: cfg.Flock.MaxPopulation,
		Params:        ParamsFromConfig(cfg.Boids),
		Workers:       cfg.Physics.Workers,
		Seed:          seed,
	}, nil
}
