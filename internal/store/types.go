package store

import "time"

// ProblemConfig describes an optimization problem: the references making up
// the design space plus the driver's user-facing knobs. It is the unit of
// configuration shared between checkpoints and the CLI's problem files.
type ProblemConfig struct {
	// DesignVars are references to the design variables, resolvable in the
	// host model.
	DesignVars []string `json:"designVars"`

	// Objective is the reference to the objective expression.
	Objective string `json:"objective"`

	// Constraints are references to constraint expressions. A value < 0
	// means the constraint is violated.
	Constraints []string `json:"constraints,omitempty"`

	// LowerBounds and UpperBounds, when present, must match the design
	// variable count. Absent bounds mean unbounded.
	LowerBounds []float64 `json:"lowerBounds,omitempty"`
	UpperBounds []float64 `json:"upperBounds,omitempty"`

	// IPrint is the kernel's print verbosity level.
	IPrint int `json:"iprint"`

	// MaxIters caps the kernel's outer iterations.
	MaxIters int `json:"maxIters"`
}

// Checkpoint is a saved driver state that can be reloaded later.
//
// The kernel's common-block snapshot is deliberately not serialized: it is
// opaque mid-iteration kernel state tied to one process. A restored driver
// therefore re-sizes its arrays and starts the kernel from a fresh session
// at the checkpointed design values, rather than resuming mid-step.
type Checkpoint struct {
	// DriverID identifies the driver instance that saved this checkpoint.
	DriverID string `json:"driverId"`

	// Config is the full problem description, needed to rebuild the driver.
	Config ProblemConfig `json:"config"`

	// DesignVals are the current design variable values at save time, in
	// DesignVars order.
	DesignVals []float64 `json:"designVals,omitempty"`

	// Objective is the objective value at the last completed kernel call.
	Objective float64 `json:"objective"`

	// Iteration is the kernel's iteration count at save time.
	Iteration int `json:"iteration"`

	// Timestamp records when this checkpoint was created.
	Timestamp time.Time `json:"timestamp"`
}

// NewCheckpoint creates a checkpoint with the current timestamp.
func NewCheckpoint(driverID string, config ProblemConfig, designVals []float64, objective float64, iteration int) *Checkpoint {
	return &Checkpoint{
		DriverID:   driverID,
		Config:     config,
		DesignVals: append([]float64(nil), designVals...),
		Objective:  objective,
		Iteration:  iteration,
		Timestamp:  time.Now(),
	}
}

// CheckpointInfo contains checkpoint metadata without the full problem
// description, for efficient listing.
type CheckpointInfo struct {
	DriverID  string    `json:"driverId"`
	Objective float64   `json:"objective"`
	Iteration int       `json:"iteration"`
	Timestamp time.Time `json:"timestamp"`
}

// ToInfo extracts listing metadata from a checkpoint.
func (c *Checkpoint) ToInfo() CheckpointInfo {
	return CheckpointInfo{
		DriverID:  c.DriverID,
		Objective: c.Objective,
		Iteration: c.Iteration,
		Timestamp: c.Timestamp,
	}
}
