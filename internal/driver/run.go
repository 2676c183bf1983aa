package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/cwbudde/conmindriver/internal/conmin"
	"github.com/cwbudde/conmindriver/internal/store"
)

// Run performs one optimization. The first call after construction or after
// any problem change sizes the working arrays; subsequent calls resume
// exactly where the kernel's own state left off, because the snapshot
// captures all kernel progress between calls.
//
// Run blocks until the kernel reports completion, a stop is requested, or an
// evaluation fails. It executes synchronously on the calling goroutine;
// kernel calls from different drivers must never be in flight concurrently.
func (d *Driver) Run(ctx context.Context) error {
	log := d.log.With("driver_id", d.id)

	if d.stale {
		if err := d.configure(); err != nil {
			d.state = StateFailed
			return err
		}
		log.Debug("Problem sized",
			"ndv", d.ws.NDV, "ncon", d.ws.NCON, "nside", d.snap.CNMN1.NSide, "nacmx1", d.ws.N3)
	}

	// Fresh outer run: clear the kernel's continuation code and load the
	// current design variable values from the model.
	d.snap.CNMN1.IGoto = 0
	for i, ref := range d.designVars {
		v, err := d.model.Resolve(ref)
		if err != nil {
			d.state = StateFailed
			return fmt.Errorf("resolve design variable %q: %w", ref, err)
		}
		d.ws.X[i] = v
	}

	for first := true; first || d.snap.CNMN1.IGoto != 0; first = false {
		if err := d.checkStopped(ctx); err != nil {
			d.state = StateAborted
			log.Info("Run stopped", "iter", d.snap.CNMN1.Iter)
			return err
		}
		if first {
			d.state = StateEvaluating
		} else {
			d.state = StateResuming
		}

		// Resolving the objective is where stale upstream components
		// actually execute; this fetch is the model's evaluation point.
		obj, err := d.model.Resolve(d.objective)
		if err != nil {
			d.state = StateFailed
			return fmt.Errorf("evaluate objective %q: %w", d.objective, err)
		}
		d.snap.CNMN1.Obj = obj

		// Restore-call-save is the kernel critical section: the snapshot
		// must be in the global blocks for exactly the duration of the call.
		d.snap.Restore()
		stepErr := conmin.Step(d.ws)
		d.snap.Save()
		if stepErr != nil {
			d.state = StateFailed
			return fmt.Errorf("kernel step: %w", stepErr)
		}

		// Write the updated design variables back into the model. The last
		// two entries of X are kernel-internal slack slots, never visible.
		for i, ref := range d.designVars {
			if err := d.model.Assign(ref, d.ws.X[i]); err != nil {
				d.state = StateFailed
				return fmt.Errorf("assign design variable %q: %w", ref, err)
			}
		}

		if d.Trace != nil {
			entry := store.TraceEntry{
				Iteration:  d.snap.CNMN1.Iter,
				Objective:  obj,
				Timestamp:  time.Now(),
				DesignVals: d.DesignValues(),
			}
			if err := d.Trace.Write(entry); err != nil {
				log.Warn("Failed to write trace entry", "error", err)
			}
		}

		log.Debug("Kernel step",
			"iter", d.snap.CNMN1.Iter, "objective", obj,
			"igoto", d.snap.CNMN1.IGoto, "info", d.snap.CNMN1.Info)

		switch d.snap.CNMN1.Info {
		case conmin.InfoConstraints:
			for i, ref := range d.constraints {
				v, err := d.model.Resolve(ref)
				if err != nil {
					d.state = StateFailed
					return fmt.Errorf("evaluate constraint %q: %w", ref, err)
				}
				d.ws.G[i] = v
			}
		case conmin.InfoGradients:
			d.state = StateFailed
			return ErrGradientsUnsupported
		}
	}

	d.state = StateFinished
	log.Info("Optimization finished",
		"iter", d.snap.CNMN1.Iter, "objective", d.snap.CNMN1.Obj)
	return nil
}

// checkStopped polls both stop signals honored between kernel calls: the
// model's cooperative flag and the caller's context.
func (d *Driver) checkStopped(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStopped, err)
	}
	if d.model.Stopped() {
		return ErrStopped
	}
	return nil
}
