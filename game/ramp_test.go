package game

import (
	"testing"
	"time"

	"github.com/pthm-cable/boids/config"
)

func TestRampObserve(t *testing.T) {
	budget := 16 * time.Millisecond
	auto := config.AutoscaleConfig{Enabled: true, Initial: 1000, Step: 1000}

	tests := []struct {
		name   string
		start  int
		max    int
		frames []time.Duration
		want   int
	}{
		{"fast frames grow", 1000, 50000, []time.Duration{5 * time.Millisecond, 8 * time.Millisecond}, 3000},
		{"slow frame holds", 1000, 50000, []time.Duration{20 * time.Millisecond}, 1000},
		{"on budget holds", 1000, 50000, []time.Duration{budget}, 1000},
		{"unmeasured frame holds", 1000, 50000, []time.Duration{0}, 1000},
		{"clamped at max", 1000, 2500, []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}, 2500},
		{"slow after fast never shrinks", 1000, 50000, []time.Duration{time.Millisecond, time.Second}, 2000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := auto
			c.Initial = tt.start
			r := NewRamp(c, budget, tt.max)

			var got int
			for _, f := range tt.frames {
				got = r.Observe(f)
			}
			if got != tt.want || r.Active() != tt.want {
				t.Errorf("active = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRampDisabledStaysAtInitial(t *testing.T) {
	r := NewRamp(config.AutoscaleConfig{Enabled: false, Initial: 700, Step: 1000}, 16*time.Millisecond, 5000)

	for i := 0; i < 10; i++ {
		r.Observe(time.Millisecond)
	}
	if r.Active() != 700 {
		t.Errorf("active = %d, want 700", r.Active())
	}
}

func TestFixedRampClamps(t *testing.T) {
	if got := NewFixedRamp(9000, 5000).Observe(time.Millisecond); got != 5000 {
		t.Errorf("active = %d, want 5000", got)
	}

	r := NewFixedRamp(10, 100)
	r.Set(-3)
	if r.Active() != 0 {
		t.Errorf("Set(-3) -> %d, want 0", r.Active())
	}
}
