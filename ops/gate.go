package ops

import (
	"fmt"
	"math"
	"strings"
)

// Kind tags the finite set of gate families the pipeline special-cases.
type Kind int

const (
	KindH Kind = iota
	KindX
	KindY
	KindZ
	KindS
	KindSdg
	KindT
	KindTdg
	KindSqrtX
	KindSqrtXdg
	KindSwap
	KindRx
	KindRy
	KindRz
	KindR
	KindPh
	KindU
	KindU3
	KindUCRy
	KindUCRz
	KindDiagonal
	KindMatrix
	KindMeasure
	KindAllocate
	KindDeallocate
	KindFlush
	KindBarrier
)

var kindNames = map[Kind]string{
	KindH:          "H",
	KindX:          "X",
	KindY:          "Y",
	KindZ:          "Z",
	KindS:          "S",
	KindSdg:        "Sdag",
	KindT:          "T",
	KindTdg:        "Tdag",
	KindSqrtX:      "SqrtX",
	KindSqrtXdg:    "SqrtXdag",
	KindSwap:       "Swap",
	KindRx:         "Rx",
	KindRy:         "Ry",
	KindRz:         "Rz",
	KindR:          "R",
	KindPh:         "Ph",
	KindU:          "U",
	KindU3:         "U3",
	KindUCRy:       "UniformlyControlledRy",
	KindUCRz:       "UniformlyControlledRz",
	KindDiagonal:   "DiagonalGate",
	KindMatrix:     "MatrixGate",
	KindMeasure:    "Measure",
	KindAllocate:   "Allocate",
	KindDeallocate: "Deallocate",
	KindFlush:      "FlushGate",
	KindBarrier:    "Barrier",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// KindByName looks up a kind by its gate name, ignoring case.
func KindByName(name string) (Kind, bool) {
	for k, n := range kindNames {
		if strings.EqualFold(n, name) {
			return k, true
		}
	}
	return 0, false
}

// Gate is a unitary or structural operation. The set of implementations is
// closed except for MatrixGate, which carries an arbitrary unitary.
type Gate interface {
	Kind() Kind
	String() string
	// Inverse returns the adjoint gate or ErrNotInvertible.
	Inverse() (Gate, error)
	// Merge fuses g followed by other into one gate or returns ErrNotMergeable.
	Merge(other Gate) (Gate, error)
	Equal(other Gate) bool
}

// FixedGate is a parameterless unitary.
type FixedGate struct {
	kind Kind
}

var (
	H       = FixedGate{KindH}
	X       = FixedGate{KindX}
	Y       = FixedGate{KindY}
	Z       = FixedGate{KindZ}
	S       = FixedGate{KindS}
	Sdg     = FixedGate{KindSdg}
	T       = FixedGate{KindT}
	Tdg     = FixedGate{KindTdg}
	SqrtX   = FixedGate{KindSqrtX}
	SqrtXdg = FixedGate{KindSqrtXdg}
	Swap    = FixedGate{KindSwap}
)

func (g FixedGate) Kind() Kind     { return g.kind }
func (g FixedGate) String() string { return g.kind.String() }

func (g FixedGate) Inverse() (Gate, error) {
	switch g.kind {
	case KindS:
		return Sdg, nil
	case KindSdg:
		return S, nil
	case KindT:
		return Tdg, nil
	case KindTdg:
		return T, nil
	case KindSqrtX:
		return SqrtXdg, nil
	case KindSqrtXdg:
		return SqrtX, nil
	}
	return g, nil
}

func (g FixedGate) Merge(other Gate) (Gate, error) {
	return nil, ErrNotMergeable
}

func (g FixedGate) Equal(other Gate) bool {
	o, ok := other.(FixedGate)
	return ok && o.kind == g.kind
}

// NumQubits returns 2 for Swap and 1 otherwise.
func (g FixedGate) NumQubits() int {
	if g.kind == KindSwap {
		return 2
	}
	return 1
}

func (g FixedGate) matrix() Matrix {
	r2 := complex(1/math.Sqrt2, 0)
	switch g.kind {
	case KindH:
		return Matrix{{r2, r2}, {r2, -r2}}
	case KindX:
		return Matrix{{0, 1}, {1, 0}}
	case KindY:
		return Matrix{{0, -1i}, {1i, 0}}
	case KindZ:
		return diag2(1, -1)
	case KindS:
		return diag2(1, 1i)
	case KindSdg:
		return diag2(1, -1i)
	case KindT:
		return diag2(1, phase(math.Pi/4))
	case KindTdg:
		return diag2(1, phase(-math.Pi/4))
	case KindSqrtX:
		return Matrix{{0.5 + 0.5i, 0.5 - 0.5i}, {0.5 - 0.5i, 0.5 + 0.5i}}
	case KindSqrtXdg:
		return Matrix{{0.5 - 0.5i, 0.5 + 0.5i}, {0.5 + 0.5i, 0.5 - 0.5i}}
	case KindSwap:
		return Matrix{{1, 0, 0, 0}, {0, 0, 1, 0}, {0, 1, 0, 0}, {0, 0, 0, 1}}
	}
	return nil
}

// Structural is a pseudo-operation: allocation, deallocation, measurement,
// flush or barrier. Backends treat these as markers, not unitaries.
type Structural struct {
	kind Kind
}

var (
	Measure    = Structural{KindMeasure}
	Allocate   = Structural{KindAllocate}
	Deallocate = Structural{KindDeallocate}
	Flush      = Structural{KindFlush}
	Barrier    = Structural{KindBarrier}
)

func (g Structural) Kind() Kind     { return g.kind }
func (g Structural) String() string { return g.kind.String() }

func (g Structural) Inverse() (Gate, error) {
	switch g.kind {
	case KindAllocate:
		return Deallocate, nil
	case KindDeallocate:
		return Allocate, nil
	case KindBarrier:
		return Barrier, nil
	}
	return nil, ErrNotInvertible
}

func (g Structural) Merge(other Gate) (Gate, error) {
	return nil, ErrNotMergeable
}

func (g Structural) Equal(other Gate) bool {
	o, ok := other.(Structural)
	return ok && o.kind == g.kind
}

// IsStructural reports whether g is a pseudo-operation without a matrix.
func IsStructural(g Gate) bool {
	_, ok := g.(Structural)
	return ok
}

// IsFastForwarding reports whether g forces buffered commands on its qubits
// to be released.
func IsFastForwarding(g Gate) bool {
	switch g.Kind() {
	case KindMeasure, KindDeallocate, KindFlush:
		return true
	}
	return false
}

// MatrixOf returns the dense unitary of g.
func MatrixOf(g Gate) (Matrix, error) {
	switch v := g.(type) {
	case FixedGate:
		return v.matrix(), nil
	case Rotation:
		return v.matrix(), nil
	case UGate:
		return v.matrix(), nil
	case U3Gate:
		return v.matrix(), nil
	case UniformlyControlledRotation:
		return v.matrix(), nil
	case DiagonalGate:
		return v.matrix(), nil
	case MatrixGate:
		return v.M.Clone(), nil
	}
	return nil, ErrNoMatrix
}

// IsIdentity reports whether g acts as the identity, including global phase.
func IsIdentity(g Gate) bool {
	switch v := g.(type) {
	case Rotation:
		return v.Angle == 0
	case UniformlyControlledRotation:
		for _, a := range v.Angles {
			if a != 0 {
				return false
			}
		}
		return true
	case DiagonalGate:
		for _, p := range v.Phases {
			if p != 0 {
				return false
			}
		}
		return true
	}
	return false
}
