package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FSStore implements the Store interface using filesystem-based persistence.
// Checkpoints are stored in a directory structure: <baseDir>/drivers/<driverID>/
//
// Thread-safety: this implementation relies on atomic file operations
// (rename) and does not require locks.
type FSStore struct {
	baseDir string
}

// NewFSStore creates a new filesystem-based store.
// The baseDir will be created if it doesn't exist.
func NewFSStore(baseDir string) (*FSStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &FSStore{baseDir: baseDir}, nil
}

// driverDir returns the directory path for a given driver ID.
func (fs *FSStore) driverDir(driverID string) string {
	return filepath.Join(fs.baseDir, "drivers", driverID)
}

// checkpointPath returns the path to the checkpoint.json file for a driver.
func (fs *FSStore) checkpointPath(driverID string) string {
	return filepath.Join(fs.driverDir(driverID), "checkpoint.json")
}

// SaveCheckpoint atomically saves a checkpoint for the given driver.
// Uses temp file + rename to ensure atomicity.
func (fs *FSStore) SaveCheckpoint(driverID string, checkpoint *Checkpoint) error {
	if driverID == "" {
		return fmt.Errorf("driverID cannot be empty")
	}
	if checkpoint == nil {
		return fmt.Errorf("checkpoint cannot be nil")
	}

	driverDir := fs.driverDir(driverID)
	if err := os.MkdirAll(driverDir, 0755); err != nil {
		return fmt.Errorf("failed to create driver directory: %w", err)
	}

	data, err := json.MarshalIndent(checkpoint, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize checkpoint: %w", err)
	}

	tempPath := fs.checkpointPath(driverID) + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp checkpoint file: %w", err)
	}

	finalPath := fs.checkpointPath(driverID)
	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename checkpoint file: %w", err)
	}

	slog.Debug("Checkpoint saved", "driver_id", driverID, "path", finalPath)
	return nil
}

// LoadCheckpoint retrieves the checkpoint for the given driver.
func (fs *FSStore) LoadCheckpoint(driverID string) (*Checkpoint, error) {
	if driverID == "" {
		return nil, fmt.Errorf("driverID cannot be empty")
	}

	path := fs.checkpointPath(driverID)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, &NotFoundError{DriverID: driverID}
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat checkpoint file: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint file: %w", err)
	}

	var checkpoint Checkpoint
	if err := json.Unmarshal(data, &checkpoint); err != nil {
		return nil, fmt.Errorf("failed to deserialize checkpoint: %w", err)
	}

	slog.Debug("Checkpoint loaded", "driver_id", driverID, "path", path)
	return &checkpoint, nil
}

// ListCheckpoints returns metadata for all available checkpoints.
func (fs *FSStore) ListCheckpoints() ([]CheckpointInfo, error) {
	driversDir := filepath.Join(fs.baseDir, "drivers")

	if _, err := os.Stat(driversDir); os.IsNotExist(err) {
		return []CheckpointInfo{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat drivers directory: %w", err)
	}

	entries, err := os.ReadDir(driversDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read drivers directory: %w", err)
	}

	var infos []CheckpointInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		driverID := entry.Name()
		if _, err := os.Stat(fs.checkpointPath(driverID)); os.IsNotExist(err) {
			continue
		}

		checkpoint, err := fs.LoadCheckpoint(driverID)
		if err != nil {
			slog.Warn("Failed to load checkpoint for listing", "driver_id", driverID, "error", err)
			continue
		}

		infos = append(infos, checkpoint.ToInfo())
	}

	slog.Debug("Listed checkpoints", "count", len(infos))
	return infos, nil
}

// DeleteCheckpoint removes the checkpoint and all associated artifacts.
func (fs *FSStore) DeleteCheckpoint(driverID string) error {
	if driverID == "" {
		return fmt.Errorf("driverID cannot be empty")
	}

	driverDir := fs.driverDir(driverID)

	if _, err := os.Stat(driverDir); os.IsNotExist(err) {
		return &NotFoundError{DriverID: driverID}
	} else if err != nil {
		return fmt.Errorf("failed to stat driver directory: %w", err)
	}

	if err := os.RemoveAll(driverDir); err != nil {
		return fmt.Errorf("failed to remove driver directory: %w", err)
	}

	slog.Debug("Checkpoint deleted", "driver_id", driverID, "path", driverDir)
	return nil
}
