package store

import (
	"errors"
	"os"
	"testing"
	"time"
)

// setupTestStore creates a temporary directory and returns an FSStore for testing.
func setupTestStore(t *testing.T) *FSStore {
	t.Helper()

	fsStore, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}
	return fsStore
}

// createTestCheckpoint creates a checkpoint with test data.
func createTestCheckpoint(driverID string) *Checkpoint {
	return &Checkpoint{
		DriverID:   driverID,
		DesignVals: []float64{2.5, 2.5},
		Objective:  5.0,
		Iteration:  12,
		Timestamp:  time.Now(),
		Config: ProblemConfig{
			DesignVars:  []string{"comp.x0", "comp.x1"},
			Objective:   "comp.f",
			Constraints: []string{"comp.g0"},
			LowerBounds: []float64{0, 0},
			UpperBounds: []float64{10, 10},
			IPrint:      0,
			MaxIters:    40,
		},
	}
}

func TestNewFSStore(t *testing.T) {
	tempDir := t.TempDir()

	fsStore, err := NewFSStore(tempDir)
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}
	if fsStore == nil {
		t.Fatal("Expected non-nil store")
	}

	if _, err := os.Stat(tempDir); os.IsNotExist(err) {
		t.Fatal("Base directory was not created")
	}
}

func TestSaveAndLoadCheckpoint(t *testing.T) {
	fsStore := setupTestStore(t)

	driverID := "test-driver-123"
	checkpoint := createTestCheckpoint(driverID)

	if err := fsStore.SaveCheckpoint(driverID, checkpoint); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}

	loaded, err := fsStore.LoadCheckpoint(driverID)
	if err != nil {
		t.Fatalf("LoadCheckpoint failed: %v", err)
	}

	if loaded.DriverID != driverID {
		t.Errorf("DriverID = %q, want %q", loaded.DriverID, driverID)
	}
	if len(loaded.DesignVals) != 2 || loaded.DesignVals[0] != 2.5 {
		t.Errorf("DesignVals = %v, want [2.5 2.5]", loaded.DesignVals)
	}
	if loaded.Iteration != 12 {
		t.Errorf("Iteration = %d, want 12", loaded.Iteration)
	}
	if len(loaded.Config.DesignVars) != 2 || loaded.Config.Objective != "comp.f" {
		t.Errorf("Config round-trip mismatch: %+v", loaded.Config)
	}
	if len(loaded.Config.LowerBounds) != 2 || loaded.Config.UpperBounds[1] != 10 {
		t.Errorf("Bounds round-trip mismatch: %+v", loaded.Config)
	}
}

func TestSaveCheckpointValidation(t *testing.T) {
	fsStore := setupTestStore(t)

	if err := fsStore.SaveCheckpoint("", createTestCheckpoint("x")); err == nil {
		t.Error("Expected error for empty driverID")
	}
	if err := fsStore.SaveCheckpoint("x", nil); err == nil {
		t.Error("Expected error for nil checkpoint")
	}
}

func TestLoadMissingCheckpoint(t *testing.T) {
	fsStore := setupTestStore(t)

	_, err := fsStore.LoadCheckpoint("no-such-driver")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("LoadCheckpoint err = %v, want ErrNotFound", err)
	}
}

func TestListCheckpoints(t *testing.T) {
	fsStore := setupTestStore(t)

	infos, err := fsStore.ListCheckpoints()
	if err != nil {
		t.Fatalf("ListCheckpoints failed: %v", err)
	}
	if len(infos) != 0 {
		t.Fatalf("Expected empty list, got %d", len(infos))
	}

	for _, id := range []string{"driver-a", "driver-b"} {
		if err := fsStore.SaveCheckpoint(id, createTestCheckpoint(id)); err != nil {
			t.Fatalf("SaveCheckpoint(%s) failed: %v", id, err)
		}
	}

	infos, err = fsStore.ListCheckpoints()
	if err != nil {
		t.Fatalf("ListCheckpoints failed: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("Expected 2 checkpoints, got %d", len(infos))
	}
}

func TestDeleteCheckpoint(t *testing.T) {
	fsStore := setupTestStore(t)

	driverID := "delete-me"
	if err := fsStore.SaveCheckpoint(driverID, createTestCheckpoint(driverID)); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}

	if err := fsStore.DeleteCheckpoint(driverID); err != nil {
		t.Fatalf("DeleteCheckpoint failed: %v", err)
	}

	if _, err := fsStore.LoadCheckpoint(driverID); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadCheckpoint after delete err = %v, want ErrNotFound", err)
	}

	if err := fsStore.DeleteCheckpoint(driverID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Double delete err = %v, want ErrNotFound", err)
	}
}
