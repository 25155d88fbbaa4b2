package telemetry

// Collector accumulates per-tick counters within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float32

	// Current window tracking
	windowStartTick int32

	// Counters for current window
	dropped    int
	degenerate int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec float64, dt float32) *Collector {
	ticksPerWindow := int32(windowDurationSec / float64(dt))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordTick adds one tick's grid overflow and degenerate heading counts.
func (c *Collector) RecordTick(dropped, degenerate int) {
	c.dropped += dropped
	c.degenerate += degenerate
}

// StartAt begins the current window at tick, for runs resumed mid-way.
func (c *Collector) StartAt(tick int32) {
	c.windowStartTick = tick
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// FlockSample is the end-of-window state the caller hands to Flush.
type FlockSample struct {
	Active     int
	Speed      float64
	Directions []float32 // packed headings of the active prefix
	CellCounts []uint8
	Capacity   int
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, sample FlockSample) WindowStats {
	polarization := Polarization(sample.Directions)
	occupied, full, p50, p90 := ComputeOccupancyStats(sample.CellCounts, sample.Capacity)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * float64(c.dt),

		Active:       sample.Active,
		Polarization: polarization,
		Drift:        polarization * sample.Speed,

		OccupiedCells: occupied,
		FullCells:     full,
		OccupancyP50:  p50,
		OccupancyP90:  p90,

		Dropped:    c.dropped,
		Degenerate: c.degenerate,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.dropped = 0
	c.degenerate = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
