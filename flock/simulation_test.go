package flock

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

// newTestSim builds a reference-domain simulation of n entities with the given params.
func newTestSim(t *testing.T, n int, params Params) *Simulation {
	t.Helper()
	cfg := DefaultConfig()
	cfg.MaxPopulation = n
	cfg.Params = params
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

func TestNewScattersInsideDomain(t *testing.T) {
	s := newTestSim(t, 5000, DefaultParams())
	lower, upper := s.Grid().Bounds()

	for i := 0; i < s.Population(); i++ {
		p := s.State().Position(i)
		for axis := 0; axis < 3; axis++ {
			if p[axis] < lower[axis] || p[axis] > upper[axis] {
				t.Fatalf("entity %d axis %d at %v outside [%v, %v]", i, axis, p[axis], lower[axis], upper[axis])
			}
		}
		if l := s.State().Direction(i).Len(); !approx(l, 1) {
			t.Fatalf("entity %d heading length %v, want 1", i, l)
		}
	}
}

func TestNewIsSeeded(t *testing.T) {
	a := newTestSim(t, 100, DefaultParams())
	b := newTestSim(t, 100, DefaultParams())

	for i := range a.State().Positions {
		if a.State().Positions[i] != b.State().Positions[i] {
			t.Fatalf("positions differ at %d with equal seeds", i)
		}
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPopulation = 0
	if _, err := New(cfg); !errors.Is(err, ErrInvalidPopulation) {
		t.Errorf("err = %v, want ErrInvalidPopulation", err)
	}

	cfg = DefaultConfig()
	cfg.CellSize = mgl32.Vec3{75, 75, -1}
	if _, err := New(cfg); !errors.Is(err, ErrInvalidCellSize) {
		t.Errorf("err = %v, want ErrInvalidCellSize", err)
	}
}

func TestIndexCachesCells(t *testing.T) {
	s := newTestSim(t, 3000, DefaultParams())
	n := 2000

	s.Index(n)

	for i := 0; i < n; i++ {
		want := s.Grid().CellIndex(s.State().Position(i))
		if int(s.State().Cells[i]) != want {
			t.Fatalf("entity %d cached cell %d, want %d", i, s.State().Cells[i], want)
		}
	}

	total := 0
	for c := 0; c < s.Grid().NumCells(); c++ {
		total += s.Grid().Count(c)
	}
	if total+s.Grid().Dropped() != n {
		t.Errorf("indexed %d + dropped %d, want %d", total, s.Grid().Dropped(), n)
	}
}

func TestInteractSeparationPushesApart(t *testing.T) {
	params := DefaultParams()
	params.AlignmentStrength = 0
	params.CohesionStrength = 0
	s := newTestSim(t, 2, params)

	up := mgl32.Vec3{0, 0, 1}
	s.State().SetPosition(0, mgl32.Vec3{1, 1, 1})
	s.State().SetPosition(1, mgl32.Vec3{11, 1, 1})
	s.State().SetDirection(0, up)
	s.State().SetDirection(1, up)

	s.Index(2)
	if s.State().Cells[0] != s.State().Cells[1] {
		t.Fatalf("entities landed in different cells %d and %d", s.State().Cells[0], s.State().Cells[1])
	}
	s.Interact(2)

	// Before normalization: up + 4 * (unit axis away from the other)
	norm := float32(math.Sqrt(17))
	want0 := mgl32.Vec3{-4 / norm, 0, 1 / norm}
	want1 := mgl32.Vec3{4 / norm, 0, 1 / norm}

	got0, got1 := s.State().Direction(0), s.State().Direction(1)
	for axis := 0; axis < 3; axis++ {
		if !approx(got0[axis], want0[axis]) {
			t.Errorf("entity 0 heading = %v, want %v", got0, want0)
			break
		}
	}
	for axis := 0; axis < 3; axis++ {
		if !approx(got1[axis], want1[axis]) {
			t.Errorf("entity 1 heading = %v, want %v", got1, want1)
			break
		}
	}
}

func TestInteractSameCellOnly(t *testing.T) {
	tests := []struct {
		name string
		a, b mgl32.Vec3
	}{
		// ceil bucketing: x=-425 is cell 1, x=-424 is cell 2
		{"adjacent cells one unit apart", mgl32.Vec3{-425, 0, 0}, mgl32.Vec3{-424, 0, 0}},
		{"distant cells", mgl32.Vec3{-300, 0, 0}, mgl32.Vec3{300, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := DefaultParams()
			params.SeparationRadius = 5000
			params.AlignmentRadius = 5000
			params.CohesionRadius = 5000
			s := newTestSim(t, 2, params)

			headA := mgl32.Vec3{1, 0, 0}
			headB := mgl32.Vec3{0, 1, 0}
			s.State().SetPosition(0, tt.a)
			s.State().SetPosition(1, tt.b)
			s.State().SetDirection(0, headA)
			s.State().SetDirection(1, headB)

			s.Index(2)
			if s.State().Cells[0] == s.State().Cells[1] {
				t.Fatal("entities share a cell")
			}
			s.Interact(2)

			if s.State().Direction(0) != headA || s.State().Direction(1) != headB {
				t.Errorf("headings changed to %v, %v", s.State().Direction(0), s.State().Direction(1))
			}
		})
	}
}

func TestInteractUnitNorm(t *testing.T) {
	s := newTestSim(t, 20000, DefaultParams())
	n := 20000

	for frame := 0; frame < 3; frame++ {
		s.Index(n)
		s.Interact(n)

		for i := 0; i < n; i++ {
			if l := s.State().Direction(i).Len(); !approx(l, 1) {
				t.Fatalf("frame %d entity %d heading length %v", frame, i, l)
			}
		}
		s.Move(n, 1.0/60.0)
	}
}

func TestInteractZeroSumKeepsHeading(t *testing.T) {
	params := Params{AlignmentRadius: 50, AlignmentStrength: 1}
	s := newTestSim(t, 2, params)

	east := mgl32.Vec3{1, 0, 0}
	west := mgl32.Vec3{-1, 0, 0}
	s.State().SetPosition(0, mgl32.Vec3{1, 1, 1})
	s.State().SetPosition(1, mgl32.Vec3{5, 1, 1})
	s.State().SetDirection(0, east)
	s.State().SetDirection(1, west)

	s.Index(2)
	s.Interact(2)

	if s.State().Direction(0) != east || s.State().Direction(1) != west {
		t.Errorf("headings = %v, %v, want unchanged", s.State().Direction(0), s.State().Direction(1))
	}
	if s.Degenerate() != 2 {
		t.Errorf("degenerate = %d, want 2", s.Degenerate())
	}
}

func TestInteractCoincidentEntitiesStayFinite(t *testing.T) {
	s := newTestSim(t, 3, DefaultParams())
	for i := 0; i < 3; i++ {
		s.State().SetPosition(i, mgl32.Vec3{10, 10, 10})
	}
	s.State().SetDirection(0, mgl32.Vec3{0, 0, 1})
	s.State().SetDirection(1, mgl32.Vec3{0, 1, 0})
	s.State().SetDirection(2, mgl32.Vec3{1, 0, 0})

	s.Update(3, 1.0/60.0)

	for i := 0; i < 3; i++ {
		d := s.State().Direction(i)
		for axis := 0; axis < 3; axis++ {
			if math.IsNaN(float64(d[axis])) || math.IsInf(float64(d[axis]), 0) {
				t.Fatalf("entity %d heading %v is not finite", i, d)
			}
		}
		if !approx(d.Len(), 1) {
			t.Errorf("entity %d heading length %v", i, d.Len())
		}
	}
}

func TestMoveWrapsAtUpperBound(t *testing.T) {
	params := DefaultParams()
	params.Speed = 100
	s := newTestSim(t, 1, params)

	s.State().SetPosition(0, mgl32.Vec3{499, 0, 0})
	s.State().SetDirection(0, mgl32.Vec3{1, 0, 0})

	s.Move(1, 1)

	if got := s.State().Position(0); got != (mgl32.Vec3{-401, 0, 0}) {
		t.Errorf("position = %v, want [-401 0 0]", got)
	}
}

func TestMoveWrapsAtLowerBound(t *testing.T) {
	params := DefaultParams()
	params.Speed = 100
	s := newTestSim(t, 1, params)

	s.State().SetPosition(0, mgl32.Vec3{0, -499, 0})
	s.State().SetDirection(0, mgl32.Vec3{0, -1, 0})

	s.Move(1, 1)

	if got := s.State().Position(0); got != (mgl32.Vec3{0, 401, 0}) {
		t.Errorf("position = %v, want [0 401 0]", got)
	}
}

func TestMoveFullExtentReturnsToStart(t *testing.T) {
	for axis := 0; axis < 3; axis++ {
		params := DefaultParams()
		params.Speed = 1000
		s := newTestSim(t, 1, params)

		start := mgl32.Vec3{123.5, -77.25, 310}
		var dir mgl32.Vec3
		dir[axis] = 1
		s.State().SetPosition(0, start)
		s.State().SetDirection(0, dir)

		s.Move(1, 1)

		if got := s.State().Position(0); !approx(got[axis], start[axis]) {
			t.Errorf("axis %d: position %v, want %v", axis, got[axis], start[axis])
		}
	}
}

func TestMoveScalesByDeltaTime(t *testing.T) {
	s := newTestSim(t, 1, DefaultParams())
	s.State().SetPosition(0, mgl32.Vec3{0, 0, 0})
	s.State().SetDirection(0, mgl32.Vec3{0, 0, 1})

	s.Move(1, 0.5)

	if got := s.State().Position(0).Z(); !approx(got, 30) {
		t.Errorf("z = %v, want 30", got)
	}
}

func TestMoveOnlyTouchesActivePrefix(t *testing.T) {
	s := newTestSim(t, 10, DefaultParams())
	before := make([]float32, len(s.State().Positions))
	copy(before, s.State().Positions)

	s.Move(4, 1)

	for i := 3 * 4; i < len(before); i++ {
		if s.State().Positions[i] != before[i] {
			t.Fatalf("inactive slot %d moved", i)
		}
	}
}

func TestUpdateRejectsActiveCountBeyondPopulation(t *testing.T) {
	s := newTestSim(t, 10, DefaultParams())

	for _, n := range []int{11, -1} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("Update(%d) did not panic", n)
				}
			}()
			s.Update(n, 1)
		}()
	}
}

type phaseLog []string

func (p *phaseLog) StartPhase(phase string) { *p = append(*p, phase) }

func TestUpdateRecordedPhaseOrder(t *testing.T) {
	s := newTestSim(t, 100, DefaultParams())
	var log phaseLog

	s.UpdateRecorded(100, 1.0/60.0, &log)

	want := []string{"index", "interact", "move"}
	if len(log) != len(want) {
		t.Fatalf("phases = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("phase %d = %q, want %q", i, log[i], want[i])
		}
	}
}

func TestReadBackSlices(t *testing.T) {
	s := newTestSim(t, 50, DefaultParams())

	if got := len(s.Positions(20)); got != 60 {
		t.Errorf("len(Positions(20)) = %d, want 60", got)
	}
	if got := len(s.Directions(0)); got != 0 {
		t.Errorf("len(Directions(0)) = %d, want 0", got)
	}

	s.Positions(20)[0] = 7
	if s.State().Positions[0] != 7 {
		t.Error("Positions should alias backing storage")
	}
}

func BenchmarkUpdate(b *testing.B) {
	cfg := DefaultConfig()
	cfg.MaxPopulation = 50000
	s, err := New(cfg)
	if err != nil {
		b.Fatal(err)
	}
	defer s.Close()

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		s.Update(cfg.MaxPopulation, 1.0/60.0)
	}
}
