package decompositions

import (
	"github.com/pkg/errors"

	"qdeck/engine"
	"qdeck/ops"
)

// UCRy2CNOT and UCRz2CNOT rewrite a uniformly controlled rotation with k
// uniform controls into 2^k single-axis rotations and CNOTs. The most
// significant control splits the angles into a sum and a difference half;
// conjugating the difference half with CNOTs flips its sign on the |1>
// branch. Command controls are kept on every produced gate.
var (
	UCRy2CNOT = engine.DecompositionRule{
		Name:      "ucry2cnot",
		Kind:      ops.KindUCRy,
		Decompose: decomposeUCR,
	}
	UCRz2CNOT = engine.DecompositionRule{
		Name:      "ucrz2cnot",
		Kind:      ops.KindUCRz,
		Decompose: decomposeUCR,
	}
)

func decomposeUCR(cmd ops.Command) ([]ops.Command, error) {
	g, ok := cmd.Gate.(ops.UniformlyControlledRotation)
	if !ok {
		return nil, errors.Errorf("expected a uniformly controlled rotation, got %s", cmd.Gate)
	}
	if len(cmd.Qubits) != 2 || len(cmd.Qubits[1]) != 1 {
		return nil, errors.Errorf("%s needs a control group and one target", cmd)
	}
	ctrls, target := cmd.Qubits[0], cmd.Qubits[1][0]
	if len(g.Angles) != 1<<len(ctrls) {
		return nil, errors.Errorf("%d angles for %d uniform controls", len(g.Angles), len(ctrls))
	}
	e := from(cmd)
	splitUCR(e, g.Axis(), g.Angles, ctrls, target)
	return e.out, nil
}

func splitUCR(e *emitter, axis ops.Kind, angles []float64, ctrls []ops.QubitID, target ops.QubitID) {
	if len(ctrls) == 0 {
		r, _ := ops.NewRotation(axis, angles[0])
		if !ops.IsIdentity(r) {
			e.apply(r, one(target))
		}
		return
	}
	half := len(angles) / 2
	sum := make([]float64, half)
	diff := make([]float64, half)
	for j := range half {
		a0, a1 := angles[j], angles[j+half]
		sum[j] = (a0 + a1) / 2
		diff[j] = (a0 - a1) / 2
	}
	msb := ctrls[len(ctrls)-1]
	rest := ctrls[:len(ctrls)-1]
	splitUCR(e, axis, sum, rest, target)
	e.controlled(ops.X, one(msb), one(target))
	splitUCR(e, axis, diff, rest, target)
	e.controlled(ops.X, one(msb), one(target))
}
