package store

// Store defines the interface for driver checkpoint persistence.
//
// Error handling conventions:
//   - Return nil error on success
//   - Return ErrNotFound if a checkpoint doesn't exist (for Load/Delete)
//   - Wrap underlying errors with context using fmt.Errorf("context: %w", err)
type Store interface {
	// SaveCheckpoint atomically saves a checkpoint for the given driver.
	// An existing checkpoint for this driverID is overwritten. Implementations
	// should use atomic write strategies (temp file + rename) so a crashed
	// save never leaves a corrupt checkpoint behind.
	SaveCheckpoint(driverID string, checkpoint *Checkpoint) error

	// LoadCheckpoint retrieves the checkpoint for the given driver.
	// Returns ErrNotFound if none exists.
	LoadCheckpoint(driverID string) (*Checkpoint, error)

	// ListCheckpoints returns metadata for all available checkpoints.
	ListCheckpoints() ([]CheckpointInfo, error)

	// DeleteCheckpoint removes the checkpoint and all associated artifacts
	// (checkpoint.json, trace.jsonl) for the given driver.
	// Returns ErrNotFound if none exists.
	DeleteCheckpoint(driverID string) error
}

// ErrNotFound is returned when a requested checkpoint does not exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &NotFoundError{}

// NotFoundError represents a missing checkpoint error.
type NotFoundError struct {
	DriverID string
}

func (e *NotFoundError) Error() string {
	if e.DriverID != "" {
		return "checkpoint not found: " + e.DriverID
	}
	return "checkpoint not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}
