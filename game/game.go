// Package game drives a flock simulation: population ramp, pause, console
// commands, telemetry and snapshots around the flock pipeline.
package game

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/boids/config"
	"github.com/pthm-cable/boids/flock"
	"github.com/pthm-cable/boids/telemetry"
)

// Game holds the complete run state.
type Game struct {
	cfg *config.Config
	sim *flock.Simulation

	ramp *Ramp

	// State
	rngSeed        int64
	tick           int32
	paused         bool
	stepsPerUpdate int
	dt             float32

	// Telemetry
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	outputManager *telemetry.OutputManager
	statsCallback func(telemetry.WindowStats)
	logStats      bool
	snapshotDir   string
}

// NewGameWithOptions creates a game with the given options.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}

	simCfg, err := flock.ConfigFrom(cfg, opts.Seed)
	if err != nil {
		return nil, err
	}
	sim, err := flock.New(simCfg)
	if err != nil {
		return nil, fmt.Errorf("creating flock: %w", err)
	}

	statsWindow := cfg.Telemetry.StatsWindow
	if opts.StatsWindowSec > 0 {
		statsWindow = opts.StatsWindowSec
	}

	g := &Game{
		cfg:            cfg,
		sim:            sim,
		rngSeed:        opts.Seed,
		stepsPerUpdate: opts.stepsPerUpdate(),
		dt:             cfg.Derived.DT32,
		collector:      telemetry.NewCollector(statsWindow, cfg.Derived.DT32),
		perfCollector:  telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		statsCallback:  opts.StatsCallback,
		logStats:       opts.LogStats,
		snapshotDir:    opts.SnapshotDir,
	}

	if opts.FixedPopulation > 0 {
		g.ramp = NewFixedRamp(opts.FixedPopulation, cfg.Flock.MaxPopulation)
	} else {
		g.ramp = NewRamp(cfg.Autoscale, cfg.Derived.FrameBudget, cfg.Flock.MaxPopulation)
	}

	if opts.ResumeFrom != "" {
		if err := g.resume(opts.ResumeFrom); err != nil {
			sim.Close()
			return nil, err
		}
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		sim.Close()
		return nil, err
	}
	g.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	g.logStartup()
	return g, nil
}

// Update runs one outer frame: the population ramp observes the previous
// frame time, then up to stepsPerUpdate ticks run unless paused.
func (g *Game) Update() {
	g.perfCollector.RecordFrame()
	if g.paused {
		return
	}

	g.ramp.Observe(g.perfCollector.LastFrame())
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.step()
	}
}

// Step runs exactly one tick regardless of pause state. The ramp is not consulted.
func (g *Game) Step() {
	g.step()
}

func (g *Game) step() {
	n := g.ramp.Active()

	g.perfCollector.StartTick()
	g.sim.UpdateRecorded(n, g.dt, g.perfCollector)

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.collector.RecordTick(g.sim.Grid().Dropped(), g.sim.Degenerate())
	g.tick++
	g.flushTelemetry()

	g.perfCollector.EndTick()
}

// Tick returns the number of ticks run so far.
func (g *Game) Tick() int32 {
	return g.tick
}

// Active returns the current active population.
func (g *Game) Active() int {
	return g.ramp.Active()
}

// Positions returns the live positions of the active prefix.
func (g *Game) Positions() []float32 {
	return g.sim.Positions(g.ramp.Active())
}

// Directions returns the live headings of the active prefix.
func (g *Game) Directions() []float32 {
	return g.sim.Directions(g.ramp.Active())
}

// Simulation returns the underlying flock.
func (g *Game) Simulation() *flock.Simulation {
	return g.sim
}

// Paused reports whether Update is suspended.
func (g *Game) Paused() bool {
	return g.paused
}

// SetPaused suspends or resumes Update.
func (g *Game) SetPaused(p bool) {
	g.paused = p
}

// TogglePause flips the pause state.
func (g *Game) TogglePause() {
	g.paused = !g.paused
}

// StepsPerUpdate returns the ticks run per Update call.
func (g *Game) StepsPerUpdate() int {
	return g.stepsPerUpdate
}

// Unload saves a final snapshot if enabled, stops workers and closes output files.
func (g *Game) Unload() {
	if g.snapshotDir != "" {
		g.saveSnapshot()
	}
	g.sim.Close()
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
}
