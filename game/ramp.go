package game

import (
	"time"

	"github.com/pthm-cable/boids/config"
)

// Ramp grows the active population while frames stay under budget.
// It never shrinks the population.
type Ramp struct {
	enabled bool
	active  int
	max     int
	step    int
	budget  time.Duration
}

// NewRamp builds a ramp from the autoscale section. When disabled the active
// count stays at the initial value.
func NewRamp(c config.AutoscaleConfig, budget time.Duration, maxPopulation int) *Ramp {
	return &Ramp{
		enabled: c.Enabled,
		active:  min(max(c.Initial, 0), maxPopulation),
		max:     maxPopulation,
		step:    c.Step,
		budget:  budget,
	}
}

// NewFixedRamp returns a disabled ramp pinned at n.
func NewFixedRamp(n, maxPopulation int) *Ramp {
	return &Ramp{active: min(max(n, 0), maxPopulation), max: maxPopulation}
}

// Observe feeds the duration of the last frame and returns the active count
// to use for the next one. A zero frame means no measurement yet.
func (r *Ramp) Observe(frame time.Duration) int {
	if r.enabled && frame > 0 && frame < r.budget && r.active < r.max {
		r.active = min(r.active+r.step, r.max)
	}
	return r.active
}

// Active returns the current active count.
func (r *Ramp) Active() int {
	return r.active
}

// Set overrides the active count, clamped to [0, max].
func (r *Ramp) Set(n int) {
	r.active = min(max(n, 0), r.max)
}
