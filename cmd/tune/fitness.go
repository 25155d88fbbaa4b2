package main

import (
	"sync"

	"github.com/pthm-cable/boids/config"
	"github.com/pthm-cable/boids/game"
	"github.com/pthm-cable/boids/telemetry"
)

// Penalty weights applied to per-entity-tick rates.
const (
	dropPenalty       = 2.0
	degeneratePenalty = 5.0

	warmupWindows = 2 // skip first N windows while the flock organises

	// failedFitness scores runs with nothing to measure; worse than any real score.
	failedFitness = 10.0
)

// FitnessEvaluator runs fixed-population headless simulations and scores them.
type FitnessEvaluator struct {
	params      *ParamVector
	ticks       int32
	population  int
	seeds       []int64
	baseConfig  *config.Config
	statsWindow float64

	mu         sync.Mutex
	lastResult Score // from most recent Evaluate call
}

// Score breaks a fitness value into its components, averaged over seeds.
type Score struct {
	Fitness        float64
	Polarization   float64
	DroppedRate    float64
	DegenerateRate float64
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, ticks int32, population int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		ticks:       ticks,
		population:  population,
		seeds:       seeds,
		baseConfig:  baseCfg,
		statsWindow: 1.0,
	}
}

// LastScore returns the score from the most recent evaluation.
func (fe *FitnessEvaluator) LastScore() Score {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastResult
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)
	// Seeds already run concurrently
	cfg.Physics.Workers = 1

	results := make([]Score, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = scoreWindows(fe.runSimulation(cfg, s), fe.population)
		}(i, seed)
	}
	wg.Wait()

	var avg Score
	for _, r := range results {
		avg.Fitness += r.Fitness
		avg.Polarization += r.Polarization
		avg.DroppedRate += r.DroppedRate
		avg.DegenerateRate += r.DegenerateRate
	}
	n := float64(len(results))
	avg.Fitness /= n
	avg.Polarization /= n
	avg.DroppedRate /= n
	avg.DegenerateRate /= n

	fe.mu.Lock()
	fe.lastResult = avg
	fe.mu.Unlock()

	return avg.Fitness
}

// runSimulation executes a single headless run and returns its stats windows.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config, seed int64) []telemetry.WindowStats {
	var windows []telemetry.WindowStats

	g, err := game.NewGameWithOptions(game.Options{
		Seed:            seed,
		StatsWindowSec:  fe.statsWindow,
		FixedPopulation: fe.population,
		Config:          cfg,
		StatsCallback: func(stats telemetry.WindowStats) {
			windows = append(windows, stats)
		},
	})
	if err != nil {
		return nil
	}
	defer g.Unload()

	for g.Tick() < fe.ticks {
		g.Step()
	}
	return windows
}

// scoreWindows turns one run's windows into a Score.
func scoreWindows(windows []telemetry.WindowStats, population int) Score {
	if len(windows) <= warmupWindows || population <= 0 {
		return Score{Fitness: failedFitness}
	}
	valid := windows[warmupWindows:]

	var polSum float64
	var dropped, degenerate, entityTicks int
	for _, w := range valid {
		polSum += w.Polarization
		dropped += w.Dropped
		degenerate += w.Degenerate
		entityTicks += w.Active * int(w.WindowEndTick-w.WindowStartTick)
	}
	if entityTicks == 0 {
		return Score{Fitness: failedFitness}
	}

	s := Score{
		Polarization:   polSum / float64(len(valid)),
		DroppedRate:    float64(dropped) / float64(entityTicks),
		DegenerateRate: float64(degenerate) / float64(entityTicks),
	}
	s.Fitness = -s.Polarization + dropPenalty*s.DroppedRate + degeneratePenalty*s.DegenerateRate
	return s
}
