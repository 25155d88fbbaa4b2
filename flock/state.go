package flock

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
)

// State stores the flock as flat arrays for cache coherency.
// Entity i occupies Positions[3i:3i+3] and Directions[3i:3i+3].
type State struct {
	Count      int
	Positions  []float32
	Directions []float32
	Cells      []int32 // grid cell from the most recent index pass
}

// NewState allocates storage for count entities.
func NewState(count int) *State {
	return &State{
		Count:      count,
		Positions:  make([]float32, 3*count),
		Directions: make([]float32, 3*count),
		Cells:      make([]int32, count),
	}
}

// Position returns the position of entity i.
func (s *State) Position(i int) mgl32.Vec3 {
	return vecAt(s.Positions, i)
}

// Direction returns the heading of entity i.
func (s *State) Direction(i int) mgl32.Vec3 {
	return vecAt(s.Directions, i)
}

// SetPosition overwrites the position of entity i.
func (s *State) SetPosition(i int, v mgl32.Vec3) {
	setVecAt(s.Positions, i, v)
}

// SetDirection overwrites the heading of entity i.
func (s *State) SetDirection(i int, v mgl32.Vec3) {
	setVecAt(s.Directions, i, v)
}

// Randomize scatters every entity uniformly inside [lower, upper) with a random unit heading.
func (s *State) Randomize(rng *rand.Rand, lower, upper mgl32.Vec3) {
	extent := upper.Sub(lower)
	for i := 0; i < s.Count; i++ {
		pos := mgl32.Vec3{
			lower[0] + rng.Float32()*extent[0],
			lower[1] + rng.Float32()*extent[1],
			lower[2] + rng.Float32()*extent[2],
		}
		s.SetPosition(i, pos)
		s.SetDirection(i, randomUnit(rng))
	}
}

// randomUnit draws a direction uniformly on the unit sphere.
func randomUnit(rng *rand.Rand) mgl32.Vec3 {
	for {
		v := mgl32.Vec3{
			float32(rng.NormFloat64()),
			float32(rng.NormFloat64()),
			float32(rng.NormFloat64()),
		}
		if u, ok := normalize(v); ok {
			return u
		}
	}
}

func vecAt(a []float32, i int) mgl32.Vec3 {
	return mgl32.Vec3{a[3*i], a[3*i+1], a[3*i+2]}
}

func setVecAt(a []float32, i int, v mgl32.Vec3) {
	a[3*i] = v[0]
	a[3*i+1] = v[1]
	a[3*i+2] = v[2]
}
