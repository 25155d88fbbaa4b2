package main

import (
	"github.com/pthm-cable/boids/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name    string  // Column name in the log
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Starting point

	field func(*config.Config) *float64
}

// ParamVector holds the set of all tunable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the steering radii and strengths search space.
// Radii stop at the default cell size since neighbours never span cells.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "separation_radius", Path: "boids.separation_radius", Min: 5, Max: 75, Default: 25,
				field: func(c *config.Config) *float64 { return &c.Boids.SeparationRadius }},
			{Name: "separation_strength", Path: "boids.separation_strength", Min: 0, Max: 10, Default: 4,
				field: func(c *config.Config) *float64 { return &c.Boids.SeparationStrength }},
			{Name: "alignment_radius", Path: "boids.alignment_radius", Min: 10, Max: 75, Default: 50,
				field: func(c *config.Config) *float64 { return &c.Boids.AlignmentRadius }},
			{Name: "alignment_strength", Path: "boids.alignment_strength", Min: 0, Max: 10, Default: 6,
				field: func(c *config.Config) *float64 { return &c.Boids.AlignmentStrength }},
			{Name: "cohesion_radius", Path: "boids.cohesion_radius", Min: 10, Max: 75, Default: 50,
				field: func(c *config.Config) *float64 { return &c.Boids.CohesionRadius }},
			{Name: "cohesion_strength", Path: "boids.cohesion_strength", Min: 0, Max: 5, Default: 1,
				field: func(c *config.Config) *float64 { return &c.Boids.CohesionStrength }},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into cfg.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	for i, v := range pv.Clamp(values) {
		*pv.Specs[i].field(cfg) = v
	}
}

// ExtractFromConfig reads current parameter values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = *spec.field(cfg)
	}
	return v
}
