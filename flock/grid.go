// Package flock implements the boids simulation core: a bounded-capacity
// uniform grid for neighbour lookups, structure-of-arrays flock storage and
// the per-frame index, interact, move pipeline.
package flock

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxCellCapacity is the largest per-cell capacity a grid accepts; occupancy is stored as uint8.
const MaxCellCapacity = math.MaxUint8

// Bucketing selects how a position maps to a cell coordinate along an axis.
type Bucketing uint8

const (
	// BucketCeil uses ceil((p-lower)/size). Cell 0 on an axis is only reached
	// by positions exactly on the lower bound.
	BucketCeil Bucketing = iota
	// BucketFloor uses floor((p-lower)/size).
	BucketFloor
)

// String returns the config name of the bucketing rule.
func (b Bucketing) String() string {
	switch b {
	case BucketCeil:
		return "ceil"
	case BucketFloor:
		return "floor"
	default:
		return fmt.Sprintf("bucketing(%d)", uint8(b))
	}
}

// ParseBucketing converts a config name into a Bucketing.
func ParseBucketing(s string) (Bucketing, error) {
	switch s {
	case "", "ceil":
		return BucketCeil, nil
	case "floor":
		return BucketFloor, nil
	default:
		return 0, fmt.Errorf("unknown bucketing %q", s)
	}
}

// SpatialGrid is a uniform 3D bucket grid with a fixed number of id slots per cell.
// Storage is allocated once; Reset only clears occupancy counts.
type SpatialGrid struct {
	lower     mgl32.Vec3
	upper     mgl32.Vec3
	size      mgl32.Vec3
	dims      [3]int
	capacity  int
	bucketing Bucketing

	counts []uint8  // occupancy per cell
	slots  []uint32 // cells*capacity ids; only counts[c] entries per cell are valid

	dropped int // inserts rejected since the last Reset
}

// NewSpatialGrid creates a grid covering [lower, upper] with the given cell size and per-cell capacity.
func NewSpatialGrid(lower, upper, size mgl32.Vec3, capacity int, bucketing Bucketing) (*SpatialGrid, error) {
	var dims [3]int
	for axis := 0; axis < 3; axis++ {
		if !(lower[axis] < upper[axis]) {
			return nil, fmt.Errorf("%w: axis %d lower=%v upper=%v", ErrInvalidDomain, axis, lower[axis], upper[axis])
		}
		if !(size[axis] > 0) {
			return nil, fmt.Errorf("%w: axis %d size=%v", ErrInvalidCellSize, axis, size[axis])
		}
		dims[axis] = int(math.Ceil(float64(upper[axis]-lower[axis]) / float64(size[axis])))
		if dims[axis] < 1 {
			dims[axis] = 1
		}
	}
	if capacity < 1 || capacity > MaxCellCapacity {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}

	cells := dims[0] * dims[1] * dims[2]
	return &SpatialGrid{
		lower:     lower,
		upper:     upper,
		size:      size,
		dims:      dims,
		capacity:  capacity,
		bucketing: bucketing,
		counts:    make([]uint8, cells),
		slots:     make([]uint32, cells*capacity),
	}, nil
}

// Reset marks every cell empty. Stale ids stay in the slot buffer but are unreachable.
func (g *SpatialGrid) Reset() {
	clear(g.counts)
	g.dropped = 0
}

// Insert records id in the cell containing pos and returns that cell's index.
// A full cell silently drops the id; the index is still returned.
func (g *SpatialGrid) Insert(pos mgl32.Vec3, id uint32) int {
	cell := g.CellIndex(pos)
	count := int(g.counts[cell])

	if count < g.capacity {
		g.slots[cell*g.capacity+count] = id
		g.counts[cell]++
	} else {
		g.dropped++
	}

	return cell
}

// CellIndex returns the row-major index (x*dy*dz + y*dz + z) of the cell containing pos.
// Coordinates are clamped to the grid so the index is always valid.
func (g *SpatialGrid) CellIndex(pos mgl32.Vec3) int {
	x := g.coord(pos[0], 0)
	y := g.coord(pos[1], 1)
	z := g.coord(pos[2], 2)
	return x*g.dims[1]*g.dims[2] + y*g.dims[2] + z
}

func (g *SpatialGrid) coord(v float32, axis int) int {
	t := (float64(v) - float64(g.lower[axis])) / float64(g.size[axis])

	var c float64
	if g.bucketing == BucketFloor {
		c = math.Floor(t)
	} else {
		c = math.Ceil(t)
	}

	// NaN fails both comparisons and lands in cell 0
	if !(c >= 0) {
		return 0
	}
	if c > float64(g.dims[axis]-1) {
		return g.dims[axis] - 1
	}
	return int(c)
}

// Cell returns the valid ids stored in cell c, in insertion order.
// The slice aliases grid storage and is only valid until the next Reset.
func (g *SpatialGrid) Cell(c int) []uint32 {
	start := c * g.capacity
	return g.slots[start : start+int(g.counts[c])]
}

// Count returns the occupancy of cell c.
func (g *SpatialGrid) Count(c int) int {
	return int(g.counts[c])
}

// Counts returns the occupancy array. Callers must not modify it.
func (g *SpatialGrid) Counts() []uint8 {
	return g.counts
}

// Dims returns the per-axis cell count.
func (g *SpatialGrid) Dims() [3]int {
	return g.dims
}

// NumCells returns the total number of cells.
func (g *SpatialGrid) NumCells() int {
	return len(g.counts)
}

// Capacity returns the per-cell slot count.
func (g *SpatialGrid) Capacity() int {
	return g.capacity
}

// Bucketing returns the cell coordinate rule.
func (g *SpatialGrid) Bucketing() Bucketing {
	return g.bucketing
}

// Bounds returns the lower and upper corners of the grid domain.
func (g *SpatialGrid) Bounds() (lower, upper mgl32.Vec3) {
	return g.lower, g.upper
}

// Dropped returns the number of inserts rejected by full cells since the last Reset.
func (g *SpatialGrid) Dropped() int {
	return g.dropped
}

// Occupancy returns how many cells hold at least one id and how many are at capacity.
func (g *SpatialGrid) Occupancy() (occupied, full int) {
	for _, c := range g.counts {
		if c > 0 {
			occupied++
			if int(c) >= g.capacity {
				full++
			}
		}
	}
	return occupied, full
}
