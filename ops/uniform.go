package ops

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"

	"github.com/pkg/errors"
)

// UniformlyControlledRotation applies Ry(Angles[k]) or Rz(Angles[k]) to the
// target when the uniform control qubits hold the value k. The first control
// is the least significant bit of k.
//
// Commands carry it with two qubit groups: the controls, then the target.
type UniformlyControlledRotation struct {
	kind   Kind
	Angles []float64
}

func UniformlyControlledRy(angles []float64) UniformlyControlledRotation {
	return newUCR(KindUCRy, angles)
}

func UniformlyControlledRz(angles []float64) UniformlyControlledRotation {
	return newUCR(KindUCRz, angles)
}

func newUCR(kind Kind, angles []float64) UniformlyControlledRotation {
	out := make([]float64, len(angles))
	for i, a := range angles {
		out[i] = NormalizeRotation(a)
	}
	return UniformlyControlledRotation{kind: kind, Angles: out}
}

func (g UniformlyControlledRotation) Kind() Kind { return g.kind }

func (g UniformlyControlledRotation) String() string {
	parts := make([]string, len(g.Angles))
	for i, a := range g.Angles {
		parts[i] = formatAngle(a)
	}
	return g.kind.String() + "([" + strings.Join(parts, ", ") + "])"
}

// Axis returns KindRy or KindRz.
func (g UniformlyControlledRotation) Axis() Kind {
	if g.kind == KindUCRy {
		return KindRy
	}
	return KindRz
}

func (g UniformlyControlledRotation) Inverse() (Gate, error) {
	neg := make([]float64, len(g.Angles))
	for i, a := range g.Angles {
		neg[i] = -a
	}
	return newUCR(g.kind, neg), nil
}

func (g UniformlyControlledRotation) Merge(other Gate) (Gate, error) {
	o, ok := other.(UniformlyControlledRotation)
	if !ok || o.kind != g.kind || len(o.Angles) != len(g.Angles) {
		return nil, ErrNotMergeable
	}
	sum := make([]float64, len(g.Angles))
	for i := range sum {
		sum[i] = g.Angles[i] + o.Angles[i]
	}
	return newUCR(g.kind, sum), nil
}

func (g UniformlyControlledRotation) Equal(other Gate) bool {
	o, ok := other.(UniformlyControlledRotation)
	if !ok || o.kind != g.kind || len(o.Angles) != len(g.Angles) {
		return false
	}
	for i := range g.Angles {
		if !anglesEqual(g.Angles[i], o.Angles[i], 4*math.Pi) {
			return false
		}
	}
	return true
}

func (g UniformlyControlledRotation) matrix() Matrix {
	n := len(g.Angles)
	m := make(Matrix, 2*n)
	for i := range m {
		m[i] = make([]complex128, 2*n)
	}
	for k, a := range g.Angles {
		var r Matrix
		if g.kind == KindUCRy {
			r = ry(a)
		} else {
			r = rz(a)
		}
		idx := [2]int{k, k + n}
		for i := 0; i < 2; i++ {
			for j := 0; j < 2; j++ {
				m[idx[i]][idx[j]] = r[i][j]
			}
		}
	}
	return m
}

// DiagonalGate multiplies basis state k of its targets by e^{i·Phases[k]}.
type DiagonalGate struct {
	Phases []float64
}

// NewDiagonalGate builds a diagonal gate from unit-magnitude entries.
func NewDiagonalGate(entries []complex128) (DiagonalGate, error) {
	n := len(entries)
	if n < 2 || n&(n-1) != 0 {
		return DiagonalGate{}, errors.Wrapf(ErrDiagonalLength, "got %d entries", n)
	}
	phases := make([]float64, n)
	for i, d := range entries {
		if math.Abs(cmplx.Abs(d)-1) > ATol {
			return DiagonalGate{}, errors.Wrapf(ErrDiagonalMagnitude, "entry %d has magnitude %g", i, cmplx.Abs(d))
		}
		phases[i] = NormalizePhase(cmplx.Phase(d))
	}
	return DiagonalGate{Phases: phases}, nil
}

// DiagonalFromPhases builds a diagonal gate directly from phase angles.
func DiagonalFromPhases(phases []float64) (DiagonalGate, error) {
	n := len(phases)
	if n < 2 || n&(n-1) != 0 {
		return DiagonalGate{}, errors.Wrapf(ErrDiagonalLength, "got %d phases", n)
	}
	out := make([]float64, n)
	for i, p := range phases {
		out[i] = NormalizePhase(p)
	}
	return DiagonalGate{Phases: out}, nil
}

func (g DiagonalGate) Kind() Kind { return KindDiagonal }

func (g DiagonalGate) String() string {
	parts := make([]string, len(g.Phases))
	for i, p := range g.Phases {
		parts[i] = formatAngle(p)
	}
	return "DiagonalGate([" + strings.Join(parts, ", ") + "])"
}

// NumQubits returns log2 of the number of phases.
func (g DiagonalGate) NumQubits() int {
	n := 0
	for 1<<n < len(g.Phases) {
		n++
	}
	return n
}

// Entries returns the complex diagonal.
func (g DiagonalGate) Entries() []complex128 {
	out := make([]complex128, len(g.Phases))
	for i, p := range g.Phases {
		out[i] = phase(p)
	}
	return out
}

func (g DiagonalGate) Inverse() (Gate, error) {
	neg := make([]float64, len(g.Phases))
	for i, p := range g.Phases {
		neg[i] = -p
	}
	d, _ := DiagonalFromPhases(neg)
	return d, nil
}

func (g DiagonalGate) Merge(other Gate) (Gate, error) {
	o, ok := other.(DiagonalGate)
	if !ok || len(o.Phases) != len(g.Phases) {
		return nil, ErrNotMergeable
	}
	sum := make([]float64, len(g.Phases))
	for i := range sum {
		sum[i] = g.Phases[i] + o.Phases[i]
	}
	d, _ := DiagonalFromPhases(sum)
	return d, nil
}

func (g DiagonalGate) Equal(other Gate) bool {
	o, ok := other.(DiagonalGate)
	if !ok || len(o.Phases) != len(g.Phases) {
		return false
	}
	for i := range g.Phases {
		if !anglesEqual(g.Phases[i], o.Phases[i], 2*math.Pi) {
			return false
		}
	}
	return true
}

func (g DiagonalGate) matrix() Matrix {
	m := Identity(len(g.Phases))
	for i, p := range g.Phases {
		m[i][i] = phase(p)
	}
	return m
}

// MatrixGate is a custom unitary given by its dense matrix. Bit j of a row
// index corresponds to the j-th target qubit.
type MatrixGate struct {
	M Matrix
}

// NewMatrixGate wraps m after checking its shape.
func NewMatrixGate(m Matrix) (MatrixGate, error) {
	if !validShape(m) {
		return MatrixGate{}, errors.Wrapf(ErrMatrixShape, "got %d rows", len(m))
	}
	return MatrixGate{M: m.Clone()}, nil
}

func (g MatrixGate) Kind() Kind { return KindMatrix }

func (g MatrixGate) String() string {
	return fmt.Sprintf("MatrixGate(%dx%d)", g.M.Dim(), g.M.Dim())
}

func (g MatrixGate) Inverse() (Gate, error) {
	return MatrixGate{M: g.M.Dagger()}, nil
}

func (g MatrixGate) Merge(other Gate) (Gate, error) {
	o, ok := other.(MatrixGate)
	if !ok || o.M.Dim() != g.M.Dim() {
		return nil, ErrNotMergeable
	}
	return MatrixGate{M: o.M.Mul(g.M)}, nil
}

func (g MatrixGate) Equal(other Gate) bool {
	o, ok := other.(MatrixGate)
	return ok && g.M.ApproxEqual(o.M, RTol, ATol)
}
