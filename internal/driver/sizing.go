package driver

import (
	"fmt"

	"github.com/cwbudde/conmindriver/internal/conmin"
)

// boundSentinel tells the kernel a variable is unbounded on that side.
const boundSentinel = 1e99

// Sizing reports the kernel array dimensions derived from a problem
// description.
type Sizing struct {
	NDV   int `json:"ndv"`
	NCON  int `json:"ncon"`
	NSide int `json:"nside"`
	N1    int `json:"n1"`
	N2    int `json:"n2"`
	N3    int `json:"n3"`
	N4    int `json:"n4"`
	N5    int `json:"n5"`
}

// Check validates the problem description and returns the derived kernel
// array sizes, sizing the working arrays if the problem changed. It performs
// no kernel calls and needs no kernel binding.
func (d *Driver) Check() (*Sizing, error) {
	if d.stale {
		if err := d.configure(); err != nil {
			return nil, err
		}
	}
	return &Sizing{
		NDV:   d.ws.NDV,
		NCON:  d.ws.NCON,
		NSide: d.snap.CNMN1.NSide,
		N1:    d.ws.N1,
		N2:    d.ws.N2,
		N3:    d.ws.N3,
		N4:    d.ws.N4,
		N5:    d.ws.N5,
	}, nil
}

// configure validates the problem description, (re)allocates the kernel
// working arrays, and resets the kernel configuration scalars in the
// driver's snapshot. It runs once per problem reshape, not once per
// iteration: the kernel treats the scalars as session state.
func (d *Driver) configure() error {
	n := len(d.designVars)
	if n < 1 {
		return &ConfigError{Reason: "no design variables specified"}
	}
	if d.objective == "" {
		return &ConfigError{Reason: "no objective specified"}
	}
	m := len(d.constraints)

	lower, err := expandBounds(d.lowerBounds, n, -boundSentinel, "lower")
	if err != nil {
		return err
	}
	upper, err := expandBounds(d.upperBounds, n, boundSentinel, "upper")
	if err != nil {
		return err
	}

	// Bounds always reach the kernel as side constraints, two per variable.
	nside := 2 * n

	ws := conmin.NewWorkspace(n, m, nside)
	copy(ws.VLB, lower)
	copy(ws.VUB, upper)
	d.ws = ws

	// Every configuration scalar starts from its required initial value.
	// Dabfun is the only non-zero default.
	d.snap.CNMN1 = conmin.CNMN1{
		NDV:    n,
		NCON:   m,
		NSide:  nside,
		NACMx1: ws.N3,
		Dabfun: 1e-8,
		IPrint: d.IPrint,
		ITMax:  d.MaxIters,
	}

	// The continuation-support block must start clean: the kernel treats any
	// leftover value there as valid mid-iteration state.
	d.snap.CONSAV = conmin.CONSAV{}

	d.stale = false
	return nil
}

// expandBounds copies a bound array into a working array padded with the two
// trailing slots the kernel requires, or synthesizes an unbounded array from
// the sentinel when no bounds were supplied.
func expandBounds(bounds []float64, n int, sentinel float64, which string) ([]float64, error) {
	padded := make([]float64, n+2)
	if len(bounds) == 0 {
		for i := 0; i < n; i++ {
			padded[i] = sentinel
		}
		return padded, nil
	}
	if len(bounds) != n {
		return nil, &ConfigError{Reason: fmt.Sprintf(
			"size of %s bound array (%d) does not match number of design variables (%d)",
			which, len(bounds), n)}
	}
	copy(padded, bounds)
	return padded, nil
}
