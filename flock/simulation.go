package flock

import (
	"fmt"
	"math"
	"math/rand"
	"runtime"

	"github.com/go-gl/mathgl/mgl32"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/pthm-cable/boids/telemetry"
)

// PhaseRecorder receives a call as each pipeline phase begins.
// telemetry.PerfCollector satisfies it.
type PhaseRecorder interface {
	StartPhase(phase string)
}

// Simulation owns one flock and its grid. It is not safe for concurrent use;
// callers must not touch the position or direction arrays during Update.
type Simulation struct {
	params Params
	grid   *SpatialGrid
	state  *State
	extent mgl32.Vec3

	degenerate int // entities that kept their heading in the last interact pass

	parallel *parallelState
}

// New allocates the grid and flock described by cfg and scatters the flock randomly.
func New(cfg Config) (*Simulation, error) {
	if cfg.MaxPopulation < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPopulation, cfg.MaxPopulation)
	}

	grid, err := NewSpatialGrid(cfg.Lower, cfg.Upper, cfg.CellSize, cfg.Capacity, cfg.Bucketing)
	if err != nil {
		return nil, err
	}

	state := NewState(cfg.MaxPopulation)
	state.Randomize(rand.New(rand.NewSource(cfg.Seed)), cfg.Lower, cfg.Upper)

	s := &Simulation{
		params: cfg.Params,
		grid:   grid,
		state:  state,
		extent: cfg.Upper.Sub(cfg.Lower),
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > 1 {
		s.parallel = newParallelState(workers, cfg.MaxPopulation)
	}
	return s, nil
}

// Update advances the first n entities by one frame: index, interact, move.
func (s *Simulation) Update(n int, dt float32) {
	s.UpdateRecorded(n, dt, nil)
}

// UpdateRecorded is Update with phase boundaries reported to rec (which may be nil).
func (s *Simulation) UpdateRecorded(n int, dt float32, rec PhaseRecorder) {
	s.checkActive(n)

	if rec != nil {
		rec.StartPhase(telemetry.PhaseIndex)
	}
	s.Index(n)

	if rec != nil {
		rec.StartPhase(telemetry.PhaseInteract)
	}
	s.Interact(n)

	if rec != nil {
		rec.StartPhase(telemetry.PhaseMove)
	}
	s.Move(n, dt)
}

// Index rebuilds the grid from the first n positions and caches each entity's cell.
func (s *Simulation) Index(n int) {
	s.checkActive(n)
	s.grid.Reset()

	for i := 0; i < n; i++ {
		s.state.Cells[i] = int32(s.grid.Insert(s.state.Position(i), uint32(i)))
	}
}

// Interact steers the first n entities using only the occupants of their own cell,
// then renormalizes each heading. Requires a preceding Index(n).
func (s *Simulation) Interact(n int) {
	s.checkActive(n)

	if s.parallel != nil && n >= parallelThreshold {
		s.degenerate = s.interactParallel(n)
		return
	}
	dirs := s.state.Directions
	s.degenerate = s.interactRange(0, n, dirs, dirs)
}

// interactRange updates headings for entities [i0, i1). Neighbour headings are
// read from read and results written to write; the sequential pass aliases the
// two so later entities see headings already updated this frame.
func (s *Simulation) interactRange(i0, i1 int, read, write []float32) (degenerate int) {
	p := &s.params
	pos := s.state.Positions
	cells := s.state.Cells

	for i := i0; i < i1; i++ {
		posI := vecAt(pos, i)
		dirI := vecAt(read, i)
		acc := dirI

		for _, id := range s.grid.Cell(int(cells[i])) {
			j := int(id)
			if j == i {
				continue
			}

			posJ := vecAt(pos, j)
			dirJ := vecAt(read, j)

			diff := posI.Sub(posJ)
			dist := diff.Len()

			// Coincident pairs have no axis: separation and cohesion vanish, alignment still applies
			var axis mgl32.Vec3
			if dist > 0 {
				axis = diff.Mul(1 / dist)
			}

			separation := p.SeparationStrength * gate(dist < p.SeparationRadius)
			alignment := p.AlignmentStrength * gate(dist < p.AlignmentRadius)
			cohesion := p.CohesionStrength * gate(dist < p.CohesionRadius)

			acc = acc.Add(axis.Mul(separation))
			acc = acc.Add(dirJ.Mul(alignment))
			acc = acc.Sub(axis.Mul(cohesion))
		}

		heading, ok := normalize(acc)
		if !ok {
			heading = dirI
			degenerate++
		}
		setVecAt(write, i, heading)
	}

	return degenerate
}

// Move advances the first n positions by speed*dt along their headings and
// wraps each axis toroidally.
func (s *Simulation) Move(n int, dt float32) {
	s.checkActive(n)
	if n == 0 {
		return
	}

	pos := s.state.Positions[:3*n]
	x := blas32.Vector{N: 3 * n, Inc: 1, Data: s.state.Directions[:3*n]}
	y := blas32.Vector{N: 3 * n, Inc: 1, Data: pos}
	blas32.Axpy(s.params.Speed*dt, x, y)

	lower, upper := s.grid.Bounds()
	for i := 0; i < 3*n; i += 3 {
		for axis := 0; axis < 3; axis++ {
			v := pos[i+axis]
			if v > upper[axis] {
				v -= s.extent[axis]
			} else if v < lower[axis] {
				v += s.extent[axis]
			}
			pos[i+axis] = v
		}
	}
}

// checkActive panics if n is not a valid active count.
func (s *Simulation) checkActive(n int) {
	if n < 0 || n > s.state.Count {
		panic(fmt.Sprintf("flock: active count %d outside [0, %d]", n, s.state.Count))
	}
}

// Positions returns the live position buffer for the first n entities.
func (s *Simulation) Positions(n int) []float32 {
	s.checkActive(n)
	return s.state.Positions[:3*n]
}

// Directions returns the live heading buffer for the first n entities.
func (s *Simulation) Directions(n int) []float32 {
	s.checkActive(n)
	return s.state.Directions[:3*n]
}

// Population returns the allocated maximum population.
func (s *Simulation) Population() int {
	return s.state.Count
}

// Params returns the steering parameters.
func (s *Simulation) Params() Params {
	return s.params
}

// Grid returns the neighbour grid.
func (s *Simulation) Grid() *SpatialGrid {
	return s.grid
}

// State returns the flock storage.
func (s *Simulation) State() *State {
	return s.state
}

// Degenerate returns how many entities kept their previous heading in the
// last interact pass because their steering sum had no usable length.
func (s *Simulation) Degenerate() int {
	return s.degenerate
}

// Parallel reports whether interact runs on a worker pool.
func (s *Simulation) Parallel() bool {
	return s.parallel != nil
}

// Close stops any worker goroutines.
func (s *Simulation) Close() {
	if s.parallel != nil {
		s.parallel.stopWorkers()
	}
}

func gate(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

// normalize returns v scaled to unit length, or false if v has no finite nonzero length.
func normalize(v mgl32.Vec3) (mgl32.Vec3, bool) {
	l := v.Len()
	if l == 0 || math.IsInf(float64(l), 0) || math.IsNaN(float64(l)) {
		return v, false
	}
	return v.Mul(1 / l), true
}
