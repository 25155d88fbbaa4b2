package game

import (
	"github.com/pthm-cable/boids/config"
	"github.com/pthm-cable/boids/telemetry"
)

// Options holds configuration for game initialization.
type Options struct {
	Seed           int64
	LogStats       bool
	StatsWindowSec float64 // 0 = use config
	SnapshotDir    string  // written on Unload and on CmdSnapshot; empty disables
	OutputDir      string  // stats.csv, perf.csv, config.yaml; empty disables
	StepsPerUpdate int     // simulation ticks per Update call

	// ResumeFrom restores flock state from a snapshot file instead of scattering.
	ResumeFrom string

	// FixedPopulation pins the active count and disables autoscale when > 0.
	FixedPopulation int

	// Config overrides the global config when non-nil.
	Config *config.Config

	// StatsCallback is invoked with every flushed stats window.
	StatsCallback func(telemetry.WindowStats)
}

// Steps-per-update bounds for console control.
const (
	minStepsPerUpdate = 1
	maxStepsPerUpdate = 10
)

func (o Options) stepsPerUpdate() int {
	return min(max(o.StepsPerUpdate, minStepsPerUpdate), maxStepsPerUpdate)
}
