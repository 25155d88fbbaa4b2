package game

import (
	"log/slog"
	"unsafe"
)

// logStartup logs the grid geometry and buffer footprint once at creation.
func (g *Game) logStartup() {
	grid := g.sim.Grid()
	dims := grid.Dims()
	pop := g.sim.Population()

	// counts + slots
	gridBytes := grid.NumCells() * (1 + grid.Capacity()*int(unsafe.Sizeof(uint32(0))))
	// positions + directions + cached cells
	flockBytes := pop * (6*int(unsafe.Sizeof(float32(0))) + int(unsafe.Sizeof(int32(0))))

	slog.Info("flock ready",
		"seed", g.rngSeed,
		"max_population", pop,
		"active", g.ramp.Active(),
		"grid_dims", dims,
		"cells", grid.NumCells(),
		"cell_capacity", grid.Capacity(),
		"bucketing", grid.Bucketing().String(),
		"parallel", g.sim.Parallel(),
		"grid_bytes", gridBytes,
		"flock_bytes", flockBytes,
	)
}

// logWorldState logs the current flock and grid state.
func (g *Game) logWorldState() {
	n := g.ramp.Active()
	occupied, full := g.sim.Grid().Occupancy()

	slog.Info("world",
		"tick", g.tick,
		"paused", g.paused,
		"steps_per_update", g.stepsPerUpdate,
		"active", n,
		"occupied_cells", occupied,
		"full_cells", full,
		"dropped", g.sim.Grid().Dropped(),
		"degenerate", g.sim.Degenerate(),
	)
}
