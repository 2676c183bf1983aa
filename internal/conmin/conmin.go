// Package conmin exposes the process-global state of the external CONMIN
// optimization kernel, the working arrays every kernel call consumes, and
// the per-instance snapshot mechanism drivers use to multiplex the kernel.
//
// CONMIN is a constrained-optimization routine that keeps all of its working
// state in two common blocks shared by every call in the process. It has no
// instance concept: whatever the blocks hold when the kernel is entered is
// the session it continues. The actual kernel binding is external and
// registers itself with Register, database/sql driver style; this package
// only defines the calling contract.
package conmin

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// Continuation and info codes returned through the CNMN1 block. A non-zero
// IGoto means the kernel expects to be resumed; Info tells the caller what
// the next call must supply.
const (
	InfoNone        = 0
	InfoConstraints = 1 // caller must refresh constraint values in G
	InfoGradients   = 2 // caller must supply analytic gradients in A and DF
)

// CNMN1 mirrors the kernel's primary common block: the configuration
// scalars, problem cardinalities and the continuation state.
type CNMN1 struct {
	Delfun float64
	Dabfun float64
	Fdch   float64
	Fdchm  float64
	Ct     float64
	Ctmin  float64
	Ctl    float64
	Ctlmin float64
	Alphax float64
	Abobj1 float64
	Theta  float64
	Phi    float64
	Obj    float64

	NDV    int
	NCON   int
	NSide  int
	IPrint int
	NFdg   int
	NScal  int
	LinObj int
	ITMax  int
	ITRM   int
	ICNDir int
	IGoto  int
	NAC    int
	Info   int
	InfoG  int
	Iter   int
	NACMx1 int
}

// CONSAV mirrors the kernel's continuation-support common block: the scratch
// scalars that let the iteration be stepped externally. The kernel treats any
// leftover value here as valid mid-iteration state, so the whole block must
// be zeroed whenever a fresh session starts.
type CONSAV struct {
	DM1, DM2, DM3, DM4, DM5, DM6, DM7, DM8, DM9, DM10, DM11, DM12 float64

	Dct    float64
	Dctl   float64
	Phi    float64
	Abobj  float64
	Cta    float64
	Ctam   float64
	Ctbm   float64
	Obj1   float64
	Slope  float64
	Dx     float64
	Dx1    float64
	Fi     float64
	Xi     float64
	Dftdf1 float64
	Alp    float64
	Fff    float64
	A1     float64
	A2     float64
	A3     float64
	A4     float64
	F1     float64
	F2     float64
	F3     float64
	F4     float64
	Cv1    float64
	Cv2    float64
	Cv3    float64
	Cv4    float64
	App    float64
	Alpca  float64
	Alpfes float64
	Alpln  float64
	Alpmin float64
	Alpnc  float64
	Alpsav float64
	Alpsid float64
	Alptot float64
	Rspace float64

	IDM1   int
	IDM2   int
	IDM3   int
	JDir   int
	IObj   int
	KObj   int
	KCount int
	NFeas  int
	MScal  int
	NCObj  int
	NVC    int
	Kount  int
	ICount int
	IGood1 int
	IGood2 int
	IGood3 int
	IGood4 int
	IBest  int
	III    int
	NLnc   int
	JGoto  int

	NCal   [2]int
	ISpace [2]int
}

// Blocks is the kernel's global storage. Every kernel call in the process
// reads and mutates these two blocks; drivers isolate themselves from one
// another by restoring a private Snapshot immediately before each call and
// saving it immediately after.
var Blocks struct {
	CNMN1  CNMN1
	CONSAV CONSAV
}

// StepFunc advances the kernel by one step. The kernel reads its session
// state from Blocks and the working arrays from w, updates both in place,
// and leaves the continuation state in Blocks.CNMN1 (IGoto, Info).
type StepFunc func(w *Workspace) error

var step StepFunc

// ErrNoKernel is returned by Step when no kernel binding has been registered.
var ErrNoKernel = errors.New("conmin: no kernel registered")

// Register installs fn as the process-wide kernel binding, replacing any
// previous one. Bindings call Register from an init function; tests install
// scripted kernels per test.
func Register(fn StepFunc) {
	step = fn
}

// Step invokes the registered kernel on w. The caller owns the snapshot
// discipline: Blocks must hold the calling instance's state on entry and must
// be saved on return. Kernel calls must never run concurrently.
func Step(w *Workspace) error {
	if step == nil {
		return ErrNoKernel
	}
	return step(w)
}

// Workspace holds the fixed positional array arguments of a kernel call, all
// sized from the problem cardinalities by NewWorkspace. The dimensions follow
// the kernel's own sizing rules and are not tunable.
type Workspace struct {
	NDV  int // design variable count
	NCON int // declared constraint count

	N1 int // NDV+2: design vector length, incl. two kernel-internal slots
	N2 int // NCON+2*NDV: constraint storage, incl. bounds as side constraints
	N3 int // max(NDV, NCON+NSide)+1: active-constraint capacity
	N4 int // max(N3, NDV)
	N5 int // 2*N4

	X   []float64 // design variable vector (N1)
	VLB []float64 // scaled lower bounds (N1)
	VUB []float64 // scaled upper bounds (N1)

	Scal []float64 // scale factors (N1)
	DF   []float64 // objective gradient (N1)
	S    []float64 // move direction (N1)

	G  []float64 // constraint values (N2)
	G1 []float64 // constraint/design scratch (N2)
	G2 []float64 // constraint scratch (N2)

	A *mat.Dense // constraint gradients, N1 x N3
	B *mat.Dense // quadratic scratch, N3 x N3
	C []float64  // linear scratch (N4)

	ISC []int // per-constraint linearity flags (N2)
	IC  []int // active or violated constraint indices (N3)
	MS1 []int // integer scratch (N5)
}

// NewWorkspace allocates kernel working arrays for ndv design variables,
// ncon declared constraints and nside side constraints. Scale factors start
// at one; everything else starts zeroed.
func NewWorkspace(ndv, ncon, nside int) *Workspace {
	n1 := ndv + 2
	n2 := ncon + 2*ndv
	n3 := max(ndv, ncon+nside) + 1
	n4 := max(n3, ndv)
	n5 := 2 * n4

	w := &Workspace{
		NDV:  ndv,
		NCON: ncon,
		N1:   n1,
		N2:   n2,
		N3:   n3,
		N4:   n4,
		N5:   n5,

		X:   make([]float64, n1),
		VLB: make([]float64, n1),
		VUB: make([]float64, n1),

		Scal: make([]float64, n1),
		DF:   make([]float64, n1),
		S:    make([]float64, n1),

		G:  make([]float64, n2),
		G1: make([]float64, n2),
		G2: make([]float64, n2),

		A: mat.NewDense(n1, n3, nil),
		B: mat.NewDense(n3, n3, nil),
		C: make([]float64, n4),

		ISC: make([]int, n2),
		IC:  make([]int, n3),
		MS1: make([]int, n5),
	}
	for i := range w.Scal {
		w.Scal[i] = 1
	}
	return w
}
