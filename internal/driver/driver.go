// Package driver wraps the external CONMIN optimization kernel as a
// resumable participant in a component-based simulation model.
//
// The kernel is not reentrant: all of its working state lives in two
// process-global blocks. Each Driver owns a private snapshot of those blocks
// and performs restore-call-save around every kernel invocation, so multiple
// drivers can coexist in one process as long as their kernel calls never
// overlap. That critical section is a caller contract, not a lock: a
// multi-threaded host must serialize kernel access itself.
package driver

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/cwbudde/conmindriver/internal/conmin"
	"github.com/cwbudde/conmindriver/internal/graph"
	"github.com/cwbudde/conmindriver/internal/store"
)

// State describes where a driver is in its run lifecycle.
type State string

const (
	StateNeedsSizing State = "needs-sizing"
	StateEvaluating  State = "evaluating"
	StateResuming    State = "resuming"
	StateFinished    State = "finished"
	StateAborted     State = "aborted"
	StateFailed      State = "failed"
)

// DefaultMaxIters is the kernel's default outer iteration cap.
const DefaultMaxIters = 40

var (
	// ErrStopped is returned when a cooperative stop was requested between
	// kernel calls. No further kernel calls occur; the design variable
	// references hold whatever the last completed call wrote.
	ErrStopped = errors.New("stop requested")

	// ErrGradientsUnsupported is returned when the kernel requests user
	// supplied gradients. The driver has no analytic gradient path; the
	// kernel is expected to run with finite-difference gradients.
	ErrGradientsUnsupported = errors.New("user supplied gradients not supported")
)

// ErrConfig matches any ConfigError via errors.Is.
var ErrConfig = &ConfigError{}

// ConfigError reports an invalid problem description, detected during sizing
// before any kernel call.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Reason != "" {
		return "invalid problem configuration: " + e.Reason
	}
	return "invalid problem configuration"
}

func (e *ConfigError) Is(target error) bool {
	_, ok := target.(*ConfigError)
	return ok
}

// Driver drives one optimization problem against the shared kernel.
// It is not safe for concurrent use.
type Driver struct {
	// IPrint is the kernel's print verbosity level.
	IPrint int

	// MaxIters caps the kernel's outer iterations. Reaching the cap and
	// converging are reported identically by the kernel; the driver does not
	// distinguish them.
	MaxIters int

	// Trace, when set, receives one entry per kernel call. Trace failures
	// are logged, never fatal.
	Trace *store.TraceWriter

	id    string
	model graph.Model
	log   *slog.Logger

	designVars  []string
	objective   string
	constraints []string
	lowerBounds []float64
	upperBounds []float64

	stale bool
	state State
	snap  *conmin.Snapshot
	ws    *conmin.Workspace
}

// New creates a driver bound to the given model. The driver captures the
// kernel's global state as its initial snapshot, whatever that state happens
// to be right now.
func New(model graph.Model) *Driver {
	return &Driver{
		MaxIters: DefaultMaxIters,
		id:       uuid.New().String(),
		model:    model,
		log:      slog.Default(),
		stale:    true,
		state:    StateNeedsSizing,
		snap:     conmin.Capture(),
	}
}

// ID returns the driver's instance identifier.
func (d *Driver) ID() string {
	return d.id
}

// State returns the driver's current lifecycle state.
func (d *Driver) State() State {
	return d.state
}

// SetDesignVars sets the design variable references. Changing the problem
// shape forces a re-size on the next run.
func (d *Driver) SetDesignVars(refs ...string) {
	d.designVars = append([]string(nil), refs...)
	d.markStale()
}

// SetObjective sets the objective expression reference.
func (d *Driver) SetObjective(ref string) {
	d.objective = ref
	d.markStale()
}

// SetConstraints sets the constraint expression references. A constraint
// value < 0 means the constraint is violated.
func (d *Driver) SetConstraints(refs ...string) {
	d.constraints = append([]string(nil), refs...)
	d.markStale()
}

// SetLowerBounds sets per-variable lower bounds. An empty slice means
// unbounded below.
func (d *Driver) SetLowerBounds(bounds ...float64) {
	d.lowerBounds = append([]float64(nil), bounds...)
	d.markStale()
}

// SetUpperBounds sets per-variable upper bounds. An empty slice means
// unbounded above.
func (d *Driver) SetUpperBounds(bounds ...float64) {
	d.upperBounds = append([]float64(nil), bounds...)
	d.markStale()
}

func (d *Driver) markStale() {
	d.stale = true
	d.state = StateNeedsSizing
}

// DesignValues returns a copy of the current design variable vector, without
// the kernel's two internal slack entries. Nil until the first run sizes the
// working arrays.
func (d *Driver) DesignValues() []float64 {
	if d.ws == nil {
		return nil
	}
	return append([]float64(nil), d.ws.X[:d.ws.NDV]...)
}

// ObjectiveValue returns the objective at the last completed kernel call.
func (d *Driver) ObjectiveValue() float64 {
	return d.snap.CNMN1.Obj
}

// Iterations returns the kernel's outer iteration count.
func (d *Driver) Iterations() int {
	return d.snap.CNMN1.Iter
}

// Problem returns the current problem description.
func (d *Driver) Problem() store.ProblemConfig {
	return store.ProblemConfig{
		DesignVars:  append([]string(nil), d.designVars...),
		Objective:   d.objective,
		Constraints: append([]string(nil), d.constraints...),
		LowerBounds: append([]float64(nil), d.lowerBounds...),
		UpperBounds: append([]float64(nil), d.upperBounds...),
		IPrint:      d.IPrint,
		MaxIters:    d.MaxIters,
	}
}

// Checkpoint exports the driver's problem description and current design
// values. The kernel's common-block snapshot is not included: a restored
// driver starts the kernel from a fresh session at the checkpointed values.
func (d *Driver) Checkpoint() *store.Checkpoint {
	return store.NewCheckpoint(d.id, d.Problem(), d.DesignValues(), d.snap.CNMN1.Obj, d.snap.CNMN1.Iter)
}

// Restore rebuilds the driver from a checkpoint: the problem description is
// adopted, the checkpointed design values are assigned back into the model,
// and the next run re-sizes the working arrays.
func (d *Driver) Restore(cp *store.Checkpoint) error {
	cfg := cp.Config
	if len(cp.DesignVals) > 0 && len(cp.DesignVals) != len(cfg.DesignVars) {
		return &ConfigError{Reason: fmt.Sprintf(
			"checkpoint holds %d design values for %d design variables",
			len(cp.DesignVals), len(cfg.DesignVars))}
	}

	for i, v := range cp.DesignVals {
		if err := d.model.Assign(cfg.DesignVars[i], v); err != nil {
			return fmt.Errorf("assign design variable %q: %w", cfg.DesignVars[i], err)
		}
	}

	d.id = cp.DriverID
	d.designVars = append([]string(nil), cfg.DesignVars...)
	d.objective = cfg.Objective
	d.constraints = append([]string(nil), cfg.Constraints...)
	d.lowerBounds = append([]float64(nil), cfg.LowerBounds...)
	d.upperBounds = append([]float64(nil), cfg.UpperBounds...)
	d.IPrint = cfg.IPrint
	d.MaxIters = cfg.MaxIters
	d.markStale()
	return nil
}
