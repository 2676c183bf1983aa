// Package graph defines the interface the optimization driver needs from the
// surrounding component/variable dataflow framework, plus a small in-memory
// implementation used by tests and the CLI.
//
// The framework itself is an external collaborator. The driver only needs to
// resolve named references to current values, assign new values back, and
// poll a cooperative stop flag.
package graph

import "fmt"

// Model is the driver's view of the host dataflow framework.
//
// Resolve is deliberately side-effecting: if the referenced value is stale,
// resolving it runs whatever upstream computation is needed to refresh it.
// For an optimization driver this is where each evaluation of the wider
// simulation actually happens.
type Model interface {
	// Resolve returns the current value of a scalar reference, re-evaluating
	// stale upstream components first.
	Resolve(ref string) (float64, error)

	// ResolveArray returns the current value of an array reference,
	// re-evaluating stale upstream components first.
	ResolveArray(ref string) ([]float64, error)

	// Assign sets a scalar reference to v and marks everything downstream of
	// it stale.
	Assign(ref string, v float64) error

	// Stopped reports whether a cooperative stop has been requested for the
	// current run. It is polled, never pushed.
	Stopped() bool
}

type derived struct {
	deps []string
	fn   func(vals []float64) float64
}

// Table is an in-memory Model with lazy recomputation. Scalar inputs are set
// with Set, derived references are registered with Define, and resolving a
// stale derived reference recomputes it from its dependencies.
//
// Table is not safe for concurrent use; the driver's execution model is
// single-threaded and synchronous.
type Table struct {
	vals       map[string]float64
	arrays     map[string][]float64
	valid      map[string]bool
	defs       map[string]derived
	dependents map[string][]string
	evals      map[string]int
	stopped    bool
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{
		vals:       make(map[string]float64),
		arrays:     make(map[string][]float64),
		valid:      make(map[string]bool),
		defs:       make(map[string]derived),
		dependents: make(map[string][]string),
		evals:      make(map[string]int),
	}
}

// Set installs or updates a scalar input reference. Dependents become stale.
func (t *Table) Set(ref string, v float64) {
	t.vals[ref] = v
	t.valid[ref] = true
	t.invalidate(ref)
}

// SetArray installs or updates an array reference.
func (t *Table) SetArray(ref string, vals []float64) {
	t.arrays[ref] = append([]float64(nil), vals...)
	t.invalidate(ref)
}

// Define registers a derived reference computed from deps. The value is
// computed lazily on first Resolve and cached until a dependency changes.
func (t *Table) Define(ref string, deps []string, fn func(vals []float64) float64) {
	t.defs[ref] = derived{deps: append([]string(nil), deps...), fn: fn}
	t.valid[ref] = false
	for _, dep := range deps {
		t.dependents[dep] = append(t.dependents[dep], ref)
	}
}

// Resolve implements Model.
func (t *Table) Resolve(ref string) (float64, error) {
	if def, ok := t.defs[ref]; ok {
		if !t.valid[ref] {
			vals := make([]float64, len(def.deps))
			for i, dep := range def.deps {
				v, err := t.Resolve(dep)
				if err != nil {
					return 0, err
				}
				vals[i] = v
			}
			t.vals[ref] = def.fn(vals)
			t.valid[ref] = true
			t.evals[ref]++
		}
		return t.vals[ref], nil
	}
	v, ok := t.vals[ref]
	if !ok {
		return 0, fmt.Errorf("graph: unknown reference %q", ref)
	}
	return v, nil
}

// ResolveArray implements Model.
func (t *Table) ResolveArray(ref string) ([]float64, error) {
	vals, ok := t.arrays[ref]
	if !ok {
		return nil, fmt.Errorf("graph: unknown array reference %q", ref)
	}
	return append([]float64(nil), vals...), nil
}

// Assign implements Model.
func (t *Table) Assign(ref string, v float64) error {
	if _, ok := t.defs[ref]; ok {
		return fmt.Errorf("graph: cannot assign to derived reference %q", ref)
	}
	t.Set(ref, v)
	return nil
}

// Stop raises the cooperative stop flag for the current run.
func (t *Table) Stop() {
	t.stopped = true
}

// Reset clears the stop flag.
func (t *Table) Reset() {
	t.stopped = false
}

// Stopped implements Model.
func (t *Table) Stopped() bool {
	return t.stopped
}

// Evals reports how many times a derived reference has been recomputed.
func (t *Table) Evals(ref string) int {
	return t.evals[ref]
}

// invalidate marks all transitive dependents of ref stale.
func (t *Table) invalidate(ref string) {
	for _, dep := range t.dependents[ref] {
		if t.valid[dep] {
			t.valid[dep] = false
			t.invalidate(dep)
		}
	}
}
