package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// ErrSnapshotMismatch is returned when a snapshot does not fit the flock it is restored into.
var ErrSnapshotMismatch = errors.New("snapshot does not match flock")

// Snapshot holds the flock state needed to resume a run.
type Snapshot struct {
	Version int   `json:"version"`
	RNGSeed int64 `json:"rng_seed"`

	Lower [3]float32 `json:"lower"`
	Upper [3]float32 `json:"upper"`

	Tick   int32 `json:"tick"`
	Active int   `json:"active"`

	// Packed xyz triples for the active prefix
	Positions  []float32 `json:"positions"`
	Directions []float32 `json:"directions"`
}

// Validate checks internal consistency and that the snapshot fits a flock of maxPopulation.
func (s *Snapshot) Validate(maxPopulation int) error {
	if s.Version != SnapshotVersion {
		return fmt.Errorf("%w: version %d, want %d", ErrSnapshotMismatch, s.Version, SnapshotVersion)
	}
	if s.Active < 0 || s.Active > maxPopulation {
		return fmt.Errorf("%w: active %d outside [0, %d]", ErrSnapshotMismatch, s.Active, maxPopulation)
	}
	if len(s.Positions) != 3*s.Active || len(s.Directions) != 3*s.Active {
		return fmt.Errorf("%w: %d positions and %d directions for %d entities",
			ErrSnapshotMismatch, len(s.Positions), len(s.Directions), s.Active)
	}
	return nil
}

// SaveSnapshot writes a snapshot to dir.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("snapshot_%d.json", snapshot.Tick))

	data, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	return &snapshot, nil
}
