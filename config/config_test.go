package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}

	if cfg.Grid.Capacity != 8 {
		t.Errorf("capacity = %d, want 8", cfg.Grid.Capacity)
	}
	if cfg.Grid.Bucketing != "ceil" {
		t.Errorf("bucketing = %q, want ceil", cfg.Grid.Bucketing)
	}
	if cfg.Flock.MaxPopulation != 50000 {
		t.Errorf("max_population = %d, want 50000", cfg.Flock.MaxPopulation)
	}
	if cfg.Derived.Lower.X() != -500 || cfg.Derived.Upper.Z() != 500 {
		t.Errorf("derived bounds = %v..%v", cfg.Derived.Lower, cfg.Derived.Upper)
	}
	if cfg.Derived.CellSize.Y() != 75 {
		t.Errorf("derived cell size = %v", cfg.Derived.CellSize)
	}
	if cfg.Derived.FrameBudget != 16*time.Millisecond {
		t.Errorf("frame budget = %v, want 16ms", cfg.Derived.FrameBudget)
	}
}

func TestLoadOverridesOnlyPresentFields(t *testing.T) {
	path := writeFile(t, "boids:\n  speed: 10\ngrid:\n  bucketing: floor\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Boids.Speed != 10 {
		t.Errorf("speed = %v, want 10", cfg.Boids.Speed)
	}
	if cfg.Boids.SeparationStrength != 4 {
		t.Errorf("separation_strength = %v, want default 4", cfg.Boids.SeparationStrength)
	}
	if cfg.Grid.Bucketing != "floor" {
		t.Errorf("bucketing = %q, want floor", cfg.Grid.Bucketing)
	}
}

func TestLoadRejectsSchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown bucketing", "grid:\n  bucketing: round\n"},
		{"zero capacity", "grid:\n  capacity: 0\n"},
		{"negative cell size", "grid:\n  cell_size: [75, -1, 75]\n"},
		{"short vector", "domain:\n  lower: [0, 0]\n"},
		{"unknown section", "render:\n  fps: 60\n"},
		{"negative strength", "boids:\n  cohesion_strength: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeFile(t, tt.body)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadRejectsInvertedDomain(t *testing.T) {
	path := writeFile(t, "domain:\n  lower: [0, 0, 0]\n  upper: [10, 0, 10]\n")

	_, err := Load(path)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeFile(t, ""))
	if err != nil {
		t.Fatalf("Load empty file: %v", err)
	}
	if cfg.Boids.Speed != 60 {
		t.Errorf("speed = %v, want default 60", cfg.Boids.Speed)
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Boids.AlignmentStrength = 2.5

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	again, err := Load(path)
	if err != nil {
		t.Fatalf("reloading written config: %v", err)
	}
	if again.Boids.AlignmentStrength != 2.5 {
		t.Errorf("alignment_strength = %v, want 2.5", again.Boids.AlignmentStrength)
	}
}

func TestCfgPanicsBeforeInit(t *testing.T) {
	saved := global
	global = nil
	defer func() { global = saved }()

	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	Cfg()
}
