package conmin

import (
	"errors"
	"testing"
)

func TestWorkspaceSizing(t *testing.T) {
	// The sizing rules are fixed kernel requirements: with side constraints
	// nside = 2n, the active-constraint capacity is max(n, m+nside)+1 and
	// the remaining scratch dimensions derive from it.
	for _, n := range []int{1, 5, 50} {
		for _, m := range []int{0, 3, 20} {
			nside := 2 * n
			w := NewWorkspace(n, m, nside)

			capacity := max(n, m+nside) + 1
			if w.N3 != capacity {
				t.Errorf("n=%d m=%d: N3 = %d, want %d", n, m, w.N3, capacity)
			}

			rows, cols := w.A.Dims()
			if rows != n+2 || cols != capacity {
				t.Errorf("n=%d m=%d: gradient matrix %dx%d, want %dx%d", n, m, rows, cols, n+2, capacity)
			}

			if rows, cols := w.B.Dims(); rows != capacity || cols != capacity {
				t.Errorf("n=%d m=%d: scratch matrix %dx%d, want %dx%d", n, m, rows, cols, capacity, capacity)
			}

			n4 := max(capacity, n)
			if len(w.C) != n4 {
				t.Errorf("n=%d m=%d: len(C) = %d, want %d", n, m, len(w.C), n4)
			}
			if len(w.MS1) != 2*n4 {
				t.Errorf("n=%d m=%d: len(MS1) = %d, want %d", n, m, len(w.MS1), 2*n4)
			}

			if len(w.G) != m+2*n || len(w.G1) != m+2*n || len(w.G2) != m+2*n || len(w.ISC) != m+2*n {
				t.Errorf("n=%d m=%d: constraint arrays sized %d, want %d", n, m, len(w.G), m+2*n)
			}
			if len(w.X) != n+2 || len(w.VLB) != n+2 || len(w.VUB) != n+2 {
				t.Errorf("n=%d m=%d: design arrays sized %d, want %d", n, m, len(w.X), n+2)
			}
		}
	}
}

func TestWorkspaceScaleDefaults(t *testing.T) {
	w := NewWorkspace(3, 1, 6)
	for i, v := range w.Scal {
		if v != 1 {
			t.Errorf("Scal[%d] = %v, want 1", i, v)
		}
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	defer func() { Blocks.CNMN1 = CNMN1{}; Blocks.CONSAV = CONSAV{} }()

	Blocks.CNMN1 = CNMN1{Obj: 3.5, IGoto: 2, Iter: 7, Dabfun: 1e-8}
	Blocks.CONSAV = CONSAV{Alp: 0.25, JGoto: 4, NCal: [2]int{1, 2}}

	snap := Capture()

	// Another instance tramples the globals.
	Blocks.CNMN1 = CNMN1{Obj: -1, IGoto: 9}
	Blocks.CONSAV = CONSAV{JGoto: 99}

	snap.Restore()
	if Blocks.CNMN1.Obj != 3.5 || Blocks.CNMN1.IGoto != 2 || Blocks.CNMN1.Iter != 7 {
		t.Errorf("restore left CNMN1 = %+v", Blocks.CNMN1)
	}
	if Blocks.CONSAV.Alp != 0.25 || Blocks.CONSAV.JGoto != 4 || Blocks.CONSAV.NCal != [2]int{1, 2} {
		t.Errorf("restore left CONSAV = %+v", Blocks.CONSAV)
	}
}

func TestStepWithoutKernel(t *testing.T) {
	prev := step
	defer Register(prev)
	Register(nil)

	if err := Step(NewWorkspace(1, 0, 2)); !errors.Is(err, ErrNoKernel) {
		t.Fatalf("Step without kernel: err = %v, want ErrNoKernel", err)
	}
}
