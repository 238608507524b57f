package runner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"metaregistryCheck/internal/model"
)

// Checkpoint tracks progress of one run. A checkpoint only resumes a run
// against the same block and metaregistry.
type Checkpoint struct {
	RunID        string                `json:"run_id"`
	BlockNumber  uint64                `json:"block_number"`
	MetaRegistry string                `json:"metaregistry"`
	StartedAt    string                `json:"started_at"`
	NextIndex    map[string]uint64     `json:"next_index"`
	Totals       map[model.Outcome]int `json:"totals,omitempty"`
	UpdatedAt    string                `json:"updated_at"`
}

// Matches reports whether the checkpoint belongs to a run at block against metaRegistry.
func (c Checkpoint) Matches(block uint64, metaRegistry string) bool {
	return c.BlockNumber == block && c.MetaRegistry == metaRegistry
}

// CheckpointStore persists checkpoints to disk.
type CheckpointStore struct {
	path    string
	enabled bool
}

func NewCheckpointStore(path string, enabled bool) *CheckpointStore {
	return &CheckpointStore{path: path, enabled: enabled && path != ""}
}

func (c *CheckpointStore) Load() (Checkpoint, bool, error) {
	if !c.enabled {
		return Checkpoint{}, false, nil
	}

	stat, err := os.Stat(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Checkpoint{}, false, nil
		}
		return Checkpoint{}, false, fmt.Errorf("stat checkpoint: %w", err)
	}
	if stat.IsDir() {
		return Checkpoint{}, false, fmt.Errorf("checkpoint path is a directory")
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("read checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, false, fmt.Errorf("parse checkpoint: %w", err)
	}
	if cp.NextIndex == nil {
		cp.NextIndex = make(map[string]uint64)
	}

	return cp, true, nil
}

// Save writes cp through a temporary file and a rename.
func (c *CheckpointStore) Save(cp Checkpoint) error {
	if !c.enabled {
		return nil
	}

	dir := filepath.Dir(c.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create checkpoint dir: %w", err)
		}
	}

	cp.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint tmp: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		return fmt.Errorf("rename checkpoint: %w", err)
	}

	return nil
}
