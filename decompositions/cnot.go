package decompositions

import (
	"github.com/pkg/errors"

	"qdeck/engine"
	"qdeck/ops"
)

// CRz2CXAndRz rewrites a singly controlled Rz(θ) as Rz(θ/2), CX, Rz(−θ/2), CX.
var CRz2CXAndRz = engine.DecompositionRule{
	Name: "crz2cxandrz",
	Kind: ops.KindRz,
	Decompose: func(cmd ops.Command) ([]ops.Command, error) {
		theta := cmd.Gate.(ops.Rotation).Angle
		c, t := cmd.Controls, cmd.Targets()
		e := from(cmd)
		e.bare(ops.Rz(theta/2), nil, t)
		e.bare(ops.X, c, t)
		e.bare(ops.Rz(-theta/2), nil, t)
		e.bare(ops.X, c, t)
		return e.out, nil
	},
	Recognize: func(cmd ops.Command) bool { return len(cmd.Controls) == 1 },
}

// Swap2CNOT rewrites Swap(a, b) as three CNOTs. Controls of the swap are put
// on the middle CNOT only.
var Swap2CNOT = engine.DecompositionRule{
	Name: "swap2cnot",
	Kind: ops.KindSwap,
	Decompose: func(cmd ops.Command) ([]ops.Command, error) {
		if !swapPair(cmd) {
			return nil, errors.Errorf("swap needs two distinct targets, got %v", cmd.Targets())
		}
		t := cmd.Targets()
		a, b := t[0], t[1]
		e := from(cmd)
		e.bare(ops.X, one(b), one(a))
		e.controlled(ops.X, one(a), one(b))
		e.bare(ops.X, one(b), one(a))
		return e.out, nil
	},
	Recognize: swapPair,
}

func swapPair(cmd ops.Command) bool {
	t := cmd.Targets()
	return len(t) == 2 && t[0] != t[1]
}

// Toffoli2CNOTAndT rewrites a doubly controlled X into H, T, Tdag and CNOT
// gates.
var Toffoli2CNOTAndT = engine.DecompositionRule{
	Name: "toffoli2cnotandt",
	Kind: ops.KindX,
	Decompose: func(cmd ops.Command) ([]ops.Command, error) {
		a, b := cmd.Controls[0], cmd.Controls[1]
		t := cmd.Targets()[0]
		e := from(cmd)
		cx := func(c, x ops.QubitID) { e.bare(ops.X, one(c), one(x)) }
		u := func(g ops.Gate, q ops.QubitID) { e.bare(g, nil, one(q)) }

		u(ops.H, t)
		cx(b, t)
		u(ops.Tdg, t)
		cx(a, t)
		u(ops.T, t)
		cx(b, t)
		u(ops.Tdg, t)
		cx(a, t)
		u(ops.T, b)
		u(ops.T, t)
		u(ops.H, t)
		cx(a, b)
		u(ops.T, a)
		u(ops.Tdg, b)
		cx(a, b)
		return e.out, nil
	},
	Recognize: func(cmd ops.Command) bool { return len(cmd.Controls) == 2 },
}
