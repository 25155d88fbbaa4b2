package game

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/boids/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and emits it.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	stats := g.collector.Flush(g.tick, g.sample())
	perfStats := g.perfCollector.Stats()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := g.outputManager.WriteStats(stats); err != nil {
		slog.Error("failed to write stats", "error", err)
	}
	if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick, stats.Active); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
}

// sample gathers the end-of-window flock state. Cell counts reflect the
// most recent index pass.
func (g *Game) sample() telemetry.FlockSample {
	n := g.ramp.Active()
	grid := g.sim.Grid()
	return telemetry.FlockSample{
		Active:     n,
		Speed:      float64(g.sim.Params().Speed),
		Directions: g.sim.Directions(n),
		CellCounts: grid.Counts(),
		Capacity:   grid.Capacity(),
	}
}

// saveSnapshot writes the current flock state to the snapshot directory.
func (g *Game) saveSnapshot() {
	path, err := telemetry.SaveSnapshot(g.createSnapshot(), g.snapshotDir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}

	slog.Info("snapshot saved", "path", path, "tick", g.tick, "active", g.ramp.Active())
}

// createSnapshot copies the active prefix into a snapshot.
func (g *Game) createSnapshot() *telemetry.Snapshot {
	n := g.ramp.Active()
	lower, upper := g.sim.Grid().Bounds()

	snapshot := &telemetry.Snapshot{
		Version:    telemetry.SnapshotVersion,
		RNGSeed:    g.rngSeed,
		Lower:      lower,
		Upper:      upper,
		Tick:       g.tick,
		Active:     n,
		Positions:  make([]float32, 3*n),
		Directions: make([]float32, 3*n),
	}
	copy(snapshot.Positions, g.sim.Positions(n))
	copy(snapshot.Directions, g.sim.Directions(n))

	return snapshot
}

// resume loads a snapshot and overwrites the active prefix with it.
func (g *Game) resume(path string) error {
	snapshot, err := telemetry.LoadSnapshot(path)
	if err != nil {
		return err
	}
	if err := snapshot.Validate(g.sim.Population()); err != nil {
		return err
	}

	lower, upper := g.sim.Grid().Bounds()
	if snapshot.Lower != lower || snapshot.Upper != upper {
		return fmt.Errorf("%w: domain %v..%v, flock domain %v..%v",
			telemetry.ErrSnapshotMismatch, snapshot.Lower, snapshot.Upper, lower, upper)
	}

	copy(g.sim.Positions(snapshot.Active), snapshot.Positions)
	copy(g.sim.Directions(snapshot.Active), snapshot.Directions)
	g.ramp.Set(snapshot.Active)
	g.tick = snapshot.Tick
	g.collector.StartAt(g.tick)

	slog.Info("resumed from snapshot", "path", path, "tick", g.tick, "active", snapshot.Active)
	return nil
}
