// Package telemetry provides flock health statistics, step timing, run output and snapshots.
package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Flock state at window end
	Active       int     `csv:"active"`
	Polarization float64 `csv:"polarization"` // |mean heading|, 1 when fully aligned
	Drift        float64 `csv:"drift"`        // speed of the flock centroid

	// Grid occupancy at window end
	OccupiedCells int     `csv:"occupied_cells"`
	FullCells     int     `csv:"full_cells"`
	OccupancyP50  float64 `csv:"occupancy_p50"`
	OccupancyP90  float64 `csv:"occupancy_p90"`

	// Summed over the window's ticks
	Dropped    int `csv:"dropped"`
	Degenerate int `csv:"degenerate"`
}

// Percentile returns the p-th quantile of an ascending slice by linear
// interpolation. p is clamped to [0, 1]. Returns 0 if the slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	p = math.Max(0, math.Min(1, p))
	return stat.Quantile(p, stat.LinInterp, sorted, nil)
}

// Polarization returns the length of the mean of the packed unit headings in dirs.
func Polarization(dirs []float32) float64 {
	n := len(dirs) / 3
	if n == 0 {
		return 0
	}

	var sx, sy, sz float64
	for i := 0; i < 3*n; i += 3 {
		sx += float64(dirs[i])
		sy += float64(dirs[i+1])
		sz += float64(dirs[i+2])
	}
	return math.Sqrt(sx*sx+sy*sy+sz*sz) / float64(n)
}

// ComputeOccupancyStats summarises per-cell counts, considering only occupied cells.
func ComputeOccupancyStats(counts []uint8, capacity int) (occupied, full int, p50, p90 float64) {
	values := make([]float64, 0, len(counts)/4)
	for _, c := range counts {
		if c == 0 {
			continue
		}
		occupied++
		if int(c) >= capacity {
			full++
		}
		values = append(values, float64(c))
	}
	sort.Float64s(values)

	return occupied, full, Percentile(values, 0.50), Percentile(values, 0.90)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("active", s.Active),
		slog.Float64("polarization", s.Polarization),
		slog.Float64("drift", s.Drift),
		slog.Int("occupied_cells", s.OccupiedCells),
		slog.Int("full_cells", s.FullCells),
		slog.Float64("occupancy_p50", s.OccupancyP50),
		slog.Float64("occupancy_p90", s.OccupancyP90),
		slog.Int("dropped", s.Dropped),
		slog.Int("degenerate", s.Degenerate),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"active", s.Active,
		"polarization", s.Polarization,
		"drift", s.Drift,
		"occupied_cells", s.OccupiedCells,
		"full_cells", s.FullCells,
		"occupancy_p50", s.OccupancyP50,
		"occupancy_p90", s.OccupancyP90,
		"dropped", s.Dropped,
		"degenerate", s.Degenerate,
	)
}
