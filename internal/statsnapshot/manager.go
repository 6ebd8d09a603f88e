// ============================================================================
// Periodic Engine Stats Snapshot
// ============================================================================
//
// Package: internal/statsnapshot
// File: manager.go
// Purpose: atomic write-temp-then-rename JSON dump of every watcher's
//          and executor's cumulative statistics, for external
//          inspection between scrapes
//
// This is a point-in-time dump, not a recovery mechanism: Load reads a
// dump back (the CLI only writes dumps and never calls it), and nothing
// uses it to restore a worker's in-memory schedule.
//
// ============================================================================

package statsnapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ChuLiYu/periodic-engine/pkg/types"
)

// ErrCorruptedSnapshot indicates the snapshot file could not be
// decoded as JSON.
var ErrCorruptedSnapshot = errors.New("statsnapshot: file is corrupted")

// CallableStats is one callable's cumulative metrics at snapshot time.
type CallableStats struct {
	Name                 string  `json:"name"`
	Runs                 uint64  `json:"runs"`
	Successes            uint64  `json:"successes"`
	Failures             uint64  `json:"failures"`
	AverageElapsedMs     float64 `json:"average_elapsed_ms"`
	AverageElapsedWaitMs float64 `json:"average_elapsed_wait_ms"`
}

// Data is the full snapshot payload.
type Data struct {
	SchemaVer int                                  `json:"schema_ver"`
	Callables []CallableStats                      `json:"callables"`
	Executors map[string]types.ExecutorStatistics  `json:"executors"`
}

const schemaVersion = 1

// Manager atomically persists and loads a Data snapshot at a fixed path.
type Manager struct {
	path string
}

// NewManager creates a snapshot manager writing to path.
func NewManager(path string) *Manager {
	return &Manager{path: path}
}

// Write serializes data to a temp file and renames it into place, so
// a reader never observes a partially written snapshot.
func (m *Manager) Write(data Data) error {
	data.SchemaVer = schemaVersion

	jsonBytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("statsnapshot: marshal: %w", err)
	}

	tmpPath := m.path + ".tmp"
	if err := os.WriteFile(tmpPath, jsonBytes, 0o644); err != nil {
		return fmt.Errorf("statsnapshot: write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, m.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("statsnapshot: rename: %w", err)
	}
	return nil
}

// Load reads the snapshot, returning an empty Data if none exists yet.
func (m *Manager) Load() (Data, error) {
	var data Data

	jsonBytes, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Data{SchemaVer: schemaVersion, Executors: map[string]types.ExecutorStatistics{}}, nil
		}
		return data, fmt.Errorf("statsnapshot: read: %w", err)
	}

	if err := json.Unmarshal(jsonBytes, &data); err != nil {
		return data, fmt.Errorf("%w: %v", ErrCorruptedSnapshot, err)
	}
	if data.Executors == nil {
		data.Executors = map[string]types.ExecutorStatistics{}
	}
	return data, nil
}

// Exists reports whether a snapshot file is present at the manager's path.
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.path)
	return err == nil
}
